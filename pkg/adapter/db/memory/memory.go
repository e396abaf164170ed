// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package memory is the in-memory implementation of the state store.
// It mirrors the semantics of the postgres adapter: versioned
// compare-and-set single-record writes and all-or-nothing
// multi-record transactions. Useful for tests and development; it
// does not persist anything.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/repo"
)

// state is the entire store content. Transactions stage mutations on
// a deep copy and publish it with a pointer swap, so readers never
// observe a partial multi-record write.
type state struct {
	slots        map[string]model.Slot
	sessions     map[uuid.UUID]model.Session
	violations   map[uuid.UUID]model.Violation
	transactions map[uuid.UUID]model.Transaction
}

func newState() *state {
	return &state{
		slots:        make(map[string]model.Slot),
		sessions:     make(map[uuid.UUID]model.Session),
		violations:   make(map[uuid.UUID]model.Violation),
		transactions: make(map[uuid.UUID]model.Transaction),
	}
}

func (s *state) clone() *state {
	c := &state{
		slots:        make(map[string]model.Slot, len(s.slots)),
		sessions:     make(map[uuid.UUID]model.Session, len(s.sessions)),
		violations:   make(map[uuid.UUID]model.Violation, len(s.violations)),
		transactions: make(map[uuid.UUID]model.Transaction, len(s.transactions)),
	}
	for k, v := range s.slots {
		c.slots[k] = v
	}
	for k, v := range s.sessions {
		if v.ExitedAt != nil {
			t := *v.ExitedAt
			v.ExitedAt = &t
		}
		c.sessions[k] = v
	}
	for k, v := range s.violations {
		if v.SessionID != nil {
			id := *v.SessionID
			v.SessionID = &id
		}
		c.violations[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	return c
}

// Pool is the in-memory counterpart of the postgres connection pool.
// A single mutex serializes all writes; reads take it briefly too, so
// every observed state is some committed state.
type Pool struct {
	mu sync.Mutex
	st *state
}

// NewPool creates an empty in-memory store.
func NewPool() *Pool {
	return &Pool{st: newState()}
}

// Conn hands a connection to the handler. Connections are cheap
// views over the shared pool.
func (p *Pool) Conn(ctx context.Context, f repo.ConnHandler) error {
	return f(ctx, &Conn{pool: p})
}

// Close exists for interface symmetry with the postgres pool.
func (p *Pool) Close() error {
	return nil
}

// executor runs read and write closures over some state. The Conn
// executor locks the pool per operation; the Tx executor operates on
// its staged copy under the transaction-held lock.
type executor interface {
	view(f func(*state) error) error
	update(f func(*state) error) error
}

// Conn is a single in-memory store connection.
type Conn struct {
	pool *Pool
}

// Tx runs the handler against a staged deep copy of the store and
// publishes it only if the handler succeeds, giving the all-or-
// nothing semantics of a database transaction.
func (c *Conn) Tx(ctx context.Context, f repo.TxHandler) (err error) {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	staged := c.pool.st.clone()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panicked: %v", r)
			return
		}
		if err == nil {
			c.pool.st = staged
		}
	}()
	return f(ctx, &Tx{st: staged})
}

// IsConn method prevents a non-Conn object (such as a Tx) to
// mistakenly implement the Conn interface.
func (c *Conn) IsConn() {
}

func (c *Conn) view(f func(*state) error) error {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	return f(c.pool.st)
}

func (c *Conn) update(f func(*state) error) error {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	return f(c.pool.st)
}

// Tx is a staged in-memory transaction.
type Tx struct {
	st *state
}

// IsTx method prevents a non-Tx object (such as a Conn) to
// mistakenly implement the Tx interface.
func (tx *Tx) IsTx() {
}

func (tx *Tx) view(f func(*state) error) error {
	return f(tx.st)
}

func (tx *Tx) update(f func(*state) error) error {
	return f(tx.st)
}
