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

// ViolationType distinguishes the detectable rule breaches.
type ViolationType string

// Valid values for the ViolationType enum.
const (
	ViolationOverstay     ViolationType = "overstay"
	ViolationUnauthorized ViolationType = "unauthorized"
)

// Validate returns nil if the ViolationType value is valid.
func (t ViolationType) Validate() error {
	switch t {
	case ViolationOverstay, ViolationUnauthorized:
		return nil
	default:
		return fmt.Errorf("invalid violation type: %q", string(t))
	}
}

// ViolationStatus is the resolution state of a violation. The only
// permitted transition is unpaid to paid, performed exactly once by
// settlement. Violations are never deleted.
type ViolationStatus string

// Valid values for the ViolationStatus enum.
const (
	ViolationUnpaid ViolationStatus = "unpaid"
	ViolationPaid   ViolationStatus = "paid"
)

// Validate returns nil if the ViolationStatus value is valid.
func (s ViolationStatus) Validate() error {
	switch s {
	case ViolationUnpaid, ViolationPaid:
		return nil
	default:
		return fmt.Errorf("invalid violation status: %q", string(s))
	}
}

// Violation records a detected rule breach tied to a session (for
// overstay) or to a slot occupancy episode (for unauthorized
// occupancy without any session).
type Violation struct {
	ID         uuid.UUID
	Type       ViolationType
	DetectedAt time.Time

	// SessionID links an overstay violation to its session. It is nil
	// for unauthorized occupancy which has no session by definition.
	SessionID *uuid.UUID

	// SlotID links the violation to the slot it was observed on.
	SlotID string

	// EpisodeAt is the occupancy episode key (Slot.OccupiedSince at
	// detection time) for unauthorized violations. A repeated scan in
	// the same episode finds the open violation with the same episode
	// key and does not create a duplicate. Zero for overstay.
	EpisodeAt time.Time

	Penalty  Cents
	Status   ViolationStatus
	Evidence string // reference obtained from the detection port

	// Version supports the compare-and-set discipline of the state
	// store; see Slot.Version.
	Version int64
}
