// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package postgres is the durable implementation of the state store
// over a PostgreSQL DBMS, using the GORM framework. Single-record
// conditional writes are expressed as UPDATE statements guarded by
// the record version (and status) with an affected-rows check, and
// multi-record atomic units are SQL transactions; both surface a lost
// race as repo.ErrConflict.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/momeni/parkcore/pkg/core/repo"
	"gorm.io/gorm"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint
// violation; it is how a conditional insert observes a lost race.
const uniqueViolation = "23505"

// WrapWriteError translates DBMS-level write failures into the store
// sentinel errors of the core layer.
func WrapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repo.ErrConflict
	}
	return err
}

// CondUpdate interprets the outcome of a conditional UPDATE: zero
// affected rows means the precondition did not hold anymore.
func CondUpdate(gdb *gorm.DB) error {
	if err := gdb.Error; err != nil {
		return WrapWriteError(err)
	}
	if gdb.RowsAffected == 0 {
		return repo.ErrConflict
	}
	return nil
}
