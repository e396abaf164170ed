// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cents is a monetary amount in the smallest currency unit. Integer
// arithmetic avoids floating-point rounding issues in charge and
// penalty computations.
type Cents int64

// TxOutcome is the outcome of a settlement attempt.
type TxOutcome string

// Valid values for the TxOutcome enum.
const (
	TxCompleted TxOutcome = "completed"
	TxFailed    TxOutcome = "failed"
)

// Validate returns nil if the TxOutcome value is valid.
func (o TxOutcome) Validate() error {
	switch o {
	case TxCompleted, TxFailed:
		return nil
	default:
		return fmt.Errorf("invalid transaction outcome: %q", string(o))
	}
}

// Transaction records a settled payment. It is created exactly once
// per successful settlement attempt and is immutable afterwards.
// The session id is unique over completed transactions, which is what
// makes re-settlement of an already settled exit fact a no-op.
type Transaction struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Base      Cents // duration charge
	Penalty   Cents // sum of the folded violation penalties
	Total     Cents
	Outcome   TxOutcome
	CreatedAt time.Time
}
