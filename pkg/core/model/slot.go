// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model defines the inner most layer of the Clean Architecture
// containing the business-level models, also called entities or domain.
// This layer may not depend on outter layers, while all other layers
// may depend on it.
// By the way, it is acceptable to annotate structs in this package with
// multiple frameworks dependent tags (e.g., as required by ORM
// libraries) since adding more tags does not complicate definition of
// a struct, but can prevent unnecessary structs duplication.
package model

import (
	"fmt"
	"time"
)

// SlotStatus is the physical occupancy state of a slot as reported by
// its sensor. It is persisted and serialized as a string.
type SlotStatus string

// Valid values for the SlotStatus enum. A slot is StatusUnknown only
// while its sensor is disconnected; the next status publish of a
// reconnected sensor immediately supersedes it.
const (
	StatusVacant   SlotStatus = "vacant"
	StatusOccupied SlotStatus = "occupied"
	StatusUnknown  SlotStatus = "unknown"
)

// Validate returns nil if the SlotStatus value is valid.
func (s SlotStatus) Validate() error {
	switch s {
	case StatusVacant, StatusOccupied, StatusUnknown:
		return nil
	default:
		return fmt.Errorf("invalid slot status: %q", string(s))
	}
}

// Slot models a physical parking space. Slots are created at facility
// provisioning time and are never deleted during normal operation.
// The physical status is mutated only by the slot monitor from sensor
// facts (and by settlement/allocation as part of their atomic units).
type Slot struct {
	ID       string     // facility-assigned slot identifier
	Class    SizeClass  // size-class of the space
	Status   SlotStatus // physical occupancy state
	Distance float64    // distance from the entrance, in meters

	// AvgStay is the rolling average occupancy duration of this slot,
	// folded in by settlement with exponential smoothing. It feeds the
	// allocator's short-stay scoring bonus.
	AvgStay time.Duration

	// ObservedAt is the timestamp of the newest applied sensor fact.
	// A sensor fact older than this value is discarded, so slot state
	// follows a last-writer-by-timestamp policy rather than
	// last-writer-by-arrival.
	ObservedAt time.Time

	// OccupiedSince marks the start of the current occupancy episode,
	// i.e. the observation time of the last transition to occupied.
	// Unauthorized-occupancy violations are deduplicated per episode
	// using this value. Zero while the slot is not occupied.
	OccupiedSince time.Time

	SensorID string // identifier of the last reporting sensor

	// Version supports the compare-and-set discipline of the state
	// store. Every successful write increments it; a conditional write
	// carrying a stale version fails with a retryable conflict.
	Version int64
}
