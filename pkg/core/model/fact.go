// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"time"

	"github.com/google/uuid"
)

// VehicleIdentified is the inbound fact produced by the recognition
// pipeline when a vehicle arrives at the entry gate.
type VehicleIdentified struct {
	FactID     string    `json:"fact_id"`
	VehicleID  string    `json:"vehicle_id"`
	Plate      string    `json:"license_plate"`
	Class      SizeClass `json:"-"`
	TagID      string    `json:"tag_id"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// SlotStatusChanged is the inbound fact produced by a slot occupancy
// sensor, or by the gateway on its behalf when it disconnects.
type SlotStatusChanged struct {
	FactID    string     `json:"fact_id"`
	SlotID    string     `json:"slot_id"`
	Status    SlotStatus `json:"status"`
	SensorID  string     `json:"sensor_id"`
	Token     string     `json:"token"` // gateway-issued sensor credential
	Timestamp time.Time  `json:"timestamp"`
}

// ExitRequested is the inbound fact produced when a vehicle presents
// its tag at the exit gate.
type ExitRequested struct {
	FactID    string    `json:"fact_id"`
	TagID     string    `json:"tag_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Gate identifies a physical gate for actuation commands.
type Gate string

// Valid values for the Gate enum.
const (
	GateEntry Gate = "entry"
	GateExit  Gate = "exit"
)

// GateCommand asks the gate actuation port to open a gate.
type GateCommand struct {
	Gate   Gate   `json:"gate"`
	Action string `json:"action"` // always "open"
}

// SlotAllocated is the outbound fact emitted on a successful entry
// allocation.
type SlotAllocated struct {
	SessionID uuid.UUID `json:"session_id"`
	SlotID    string    `json:"slot_id"`
}

// EntryRejected is the outbound fact emitted when no slot could be
// reserved for an arriving vehicle.
type EntryRejected struct {
	Plate  string `json:"license_plate"`
	Reason string `json:"reason"`
}

// ViolationDetected is the outbound fact emitted for every newly
// created violation record.
type ViolationDetected struct {
	ViolationID uuid.UUID     `json:"violation_id"`
	Type        ViolationType `json:"type"`
}

// PaymentRequest is the command sent to the payment port. The
// idempotency key makes caller-side retries safe against double
// charges: it is derived from the session id and the attempt epoch.
type PaymentRequest struct {
	SessionID      uuid.UUID `json:"session_id"`
	Amount         Cents     `json:"amount"`
	IdempotencyKey string    `json:"idempotency_key"`
}

// ExitSettled is the outbound fact emitted after a successful
// settlement commit.
type ExitSettled struct {
	SessionID     uuid.UUID `json:"session_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Amount        Cents     `json:"amount"`
}

// PaymentFailed is the outbound fact emitted when the payment port
// declined or timed out; the exit gate stays closed.
type PaymentFailed struct {
	SessionID uuid.UUID `json:"session_id"`
	Reason    string    `json:"reason"`
}
