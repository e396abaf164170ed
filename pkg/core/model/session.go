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

// SessionStatus is the lifecycle state of a parking session.
type SessionStatus string

// Valid values for the SessionStatus enum. A session is created as
// SessionParked by the allocator and transitions to SessionExited
// exactly once, by settlement, after the payment has been captured.
// Sessions are append-only history afterwards.
const (
	SessionParked SessionStatus = "parked"
	SessionExited SessionStatus = "exited"
)

// Validate returns nil if the SessionStatus value is valid.
func (s SessionStatus) Validate() error {
	switch s {
	case SessionParked, SessionExited:
		return nil
	default:
		return fmt.Errorf("invalid session status: %q", string(s))
	}
}

// Session models one vehicle's stay from entry to exit.
// At most one session with SessionParked status may reference a given
// slot at any time; the state store enforces this exclusivity through
// the conditional slot reservation which is part of the same atomic
// unit as the session creation.
type Session struct {
	ID        uuid.UUID
	Plate     string    // license plate as recognized at the entry
	TagID     string    // vehicle tag identifier, matched at the exit
	Class     SizeClass // recognized vehicle size-class
	SlotID    string    // assigned slot
	EnteredAt time.Time
	ExitedAt  *time.Time // nil while the session is parked
	Status    SessionStatus

	// Version supports the compare-and-set discipline of the state
	// store; see Slot.Version.
	Version int64
}

// Duration returns the elapsed stay of the session at the now instant
// (for parked sessions) or its final duration (for exited ones).
func (s *Session) Duration(now time.Time) time.Duration {
	if s.ExitedAt != nil {
		return s.ExitedAt.Sub(s.EnteredAt)
	}
	return now.Sub(s.EnteredAt)
}
