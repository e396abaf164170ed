// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package transrp provides the PostgreSQL repository of the
// settlement transactions.
package transrp

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

func (trans *Repo) Conn(c repo.Conn) repo.TransactionsConnQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc}
}

func (cq connQueryer) Create(ctx context.Context, t *model.Transaction) error {
	return Create(ctx, cq.Conn, t)
}

func (cq connQueryer) CompletedBySession(ctx context.Context, sessionID uuid.UUID) (*model.Transaction, error) {
	return CompletedBySession(ctx, cq.Conn, sessionID)
}

type txQueryer struct {
	*postgres.Tx
}

func (trans *Repo) Tx(tx repo.Tx) repo.TransactionsTxQueryer {
	tt := tx.(*postgres.Tx)
	return txQueryer{Tx: tt}
}

func (tq txQueryer) Create(ctx context.Context, t *model.Transaction) error {
	return Create(ctx, tq.Tx, t)
}

func (tq txQueryer) CompletedBySession(ctx context.Context, sessionID uuid.UUID) (*model.Transaction, error) {
	return CompletedBySession(ctx, tq.Tx, sessionID)
}
