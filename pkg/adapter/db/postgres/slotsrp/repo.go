// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package slotsrp provides the PostgreSQL repository of the parking
// slots, guiding its callers to pass a connection or transaction
// explicitly before running any query.
package slotsrp

import (
	"context"
	"time"

	"github.com/momeni/parkcore/pkg/adapter/db/postgres"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/repo"
)

type Repo struct {
}

func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

func (slots *Repo) Conn(c repo.Conn) repo.SlotsConnQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc}
}

func (cq connQueryer) All(ctx context.Context) ([]model.Slot, error) {
	return All(ctx, cq.Conn)
}

func (cq connQueryer) ByID(ctx context.Context, slotID string) (*model.Slot, error) {
	return ByID(ctx, cq.Conn, slotID)
}

func (cq connQueryer) Create(ctx context.Context, s *model.Slot) error {
	return Create(ctx, cq.Conn, s)
}

func (cq connQueryer) Reserve(ctx context.Context, slotID string, version int64, at time.Time) error {
	return Reserve(ctx, cq.Conn, slotID, version, at)
}

func (cq connQueryer) Release(ctx context.Context, slotID string, version int64, avgStay time.Duration) error {
	return Release(ctx, cq.Conn, slotID, version, avgStay)
}

func (cq connQueryer) SetObserved(ctx context.Context, s *model.Slot) error {
	return SetObserved(ctx, cq.Conn, s)
}

type txQueryer struct {
	*postgres.Tx
}

func (slots *Repo) Tx(tx repo.Tx) repo.SlotsTxQueryer {
	tt := tx.(*postgres.Tx)
	return txQueryer{Tx: tt}
}

func (tq txQueryer) All(ctx context.Context) ([]model.Slot, error) {
	return All(ctx, tq.Tx)
}

func (tq txQueryer) ByID(ctx context.Context, slotID string) (*model.Slot, error) {
	return ByID(ctx, tq.Tx, slotID)
}

func (tq txQueryer) Create(ctx context.Context, s *model.Slot) error {
	return Create(ctx, tq.Tx, s)
}

func (tq txQueryer) Reserve(ctx context.Context, slotID string, version int64, at time.Time) error {
	return Reserve(ctx, tq.Tx, slotID, version, at)
}

func (tq txQueryer) Release(ctx context.Context, slotID string, version int64, avgStay time.Duration) error {
	return Release(ctx, tq.Tx, slotID, version, avgStay)
}

func (tq txQueryer) SetObserved(ctx context.Context, s *model.Slot) error {
	return SetObserved(ctx, tq.Tx, s)
}
