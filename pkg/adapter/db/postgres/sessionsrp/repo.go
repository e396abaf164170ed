// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sessionsrp provides the PostgreSQL repository of the
// parking sessions.
package sessionsrp

import (
	"context"
	"time"

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

func (sessions *Repo) Conn(c repo.Conn) repo.SessionsConnQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc}
}

func (cq connQueryer) Create(ctx context.Context, s *model.Session) error {
	return Create(ctx, cq.Conn, s)
}

func (cq connQueryer) ByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return ByID(ctx, cq.Conn, id)
}

func (cq connQueryer) Parked(ctx context.Context) ([]model.Session, error) {
	return Parked(ctx, cq.Conn)
}

func (cq connQueryer) ParkedByTag(ctx context.Context, tagID string) (*model.Session, error) {
	return ParkedByTag(ctx, cq.Conn, tagID)
}

func (cq connQueryer) Close(ctx context.Context, id uuid.UUID, version int64, exitedAt time.Time) error {
	return Close(ctx, cq.Conn, id, version, exitedAt)
}

func (cq connQueryer) History(ctx context.Context, plate string, from, to time.Time) ([]model.Session, error) {
	return History(ctx, cq.Conn, plate, from, to)
}

type txQueryer struct {
	*postgres.Tx
}

func (sessions *Repo) Tx(tx repo.Tx) repo.SessionsTxQueryer {
	tt := tx.(*postgres.Tx)
	return txQueryer{Tx: tt}
}

func (tq txQueryer) Create(ctx context.Context, s *model.Session) error {
	return Create(ctx, tq.Tx, s)
}

func (tq txQueryer) ByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return ByID(ctx, tq.Tx, id)
}

func (tq txQueryer) Parked(ctx context.Context) ([]model.Session, error) {
	return Parked(ctx, tq.Tx)
}

func (tq txQueryer) ParkedByTag(ctx context.Context, tagID string) (*model.Session, error) {
	return ParkedByTag(ctx, tq.Tx, tagID)
}

func (tq txQueryer) Close(ctx context.Context, id uuid.UUID, version int64, exitedAt time.Time) error {
	return Close(ctx, tq.Tx, id, version, exitedAt)
}

func (tq txQueryer) History(ctx context.Context, plate string, from, to time.Time) ([]model.Session, error) {
	return History(ctx, tq.Tx, plate, from, to)
}
