// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package violationrp provides the PostgreSQL repository of the
// detected violations.
package violationrp

import (
	"context"

	"github.com/google/uuid"
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

func (violations *Repo) Conn(c repo.Conn) repo.ViolationsConnQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc}
}

func (cq connQueryer) Create(ctx context.Context, v *model.Violation) error {
	return Create(ctx, cq.Conn, v)
}

func (cq connQueryer) UnpaidBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Violation, error) {
	return UnpaidBySession(ctx, cq.Conn, sessionID)
}

func (cq connQueryer) UnpaidBySlot(ctx context.Context, slotID string) ([]model.Violation, error) {
	return UnpaidBySlot(ctx, cq.Conn, slotID)
}

func (cq connQueryer) ByStatus(ctx context.Context, st model.ViolationStatus) ([]model.Violation, error) {
	return ByStatus(ctx, cq.Conn, st)
}

func (cq connQueryer) MarkPaid(ctx context.Context, id uuid.UUID, version int64) error {
	return MarkPaid(ctx, cq.Conn, id, version)
}

type txQueryer struct {
	*postgres.Tx
}

func (violations *Repo) Tx(tx repo.Tx) repo.ViolationsTxQueryer {
	tt := tx.(*postgres.Tx)
	return txQueryer{Tx: tt}
}

func (tq txQueryer) Create(ctx context.Context, v *model.Violation) error {
	return Create(ctx, tq.Tx, v)
}

func (tq txQueryer) UnpaidBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Violation, error) {
	return UnpaidBySession(ctx, tq.Tx, sessionID)
}

func (tq txQueryer) UnpaidBySlot(ctx context.Context, slotID string) ([]model.Violation, error) {
	return UnpaidBySlot(ctx, tq.Tx, slotID)
}

func (tq txQueryer) ByStatus(ctx context.Context, st model.ViolationStatus) ([]model.Violation, error) {
	return ByStatus(ctx, tq.Tx, st)
}

func (tq txQueryer) MarkPaid(ctx context.Context, id uuid.UUID, version int64) error {
	return MarkPaid(ctx, tq.Tx, id, version)
}
