// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package port declares the interfaces of the external collaborators
// of the transactional core: payment settlement network, physical
// gates, outbound fact delivery, evidence capture, sensor credential
// verification, tariff administration, and the redelivery dedup
// store. Their implementations live in the adapters layer; the core
// only calls them through these interfaces.
package port

import (
	"context"
	"time"

	"github.com/momeni/parkcore/pkg/core/model"
)

// PaymentGateway settles charges on the external payment network.
type PaymentGateway interface {
	// Charge submits a payment request. It is the only core
	// operation which may block, for a bounded timeout enforced by
	// the implementation; a timeout is reported as an error and is
	// never retried blindly. Retries with the same idempotency key
	// are safe on the network side.
	Charge(ctx context.Context, req model.PaymentRequest) error
}

// GateController actuates the physical entry/exit gates.
type GateController interface {
	Open(ctx context.Context, cmd model.GateCommand) error
}

// Publisher forwards outbound facts and commands to the surrounding
// systems (notification delivery, dashboards, webhooks).
type Publisher interface {
	Publish(ctx context.Context, kind string, payload any) error
}

// EvidenceCapturer obtains an evidence reference (e.g. an image
// object key) for a violation observed on a slot.
type EvidenceCapturer interface {
	Capture(ctx context.Context, slotID string) (string, error)
}

// SensorRegistry verifies sensor credentials. Facts from sensors
// which do not authenticate are discarded at the boundary.
type SensorRegistry interface {
	Authenticate(ctx context.Context, sensorID, token string) bool
}

// TariffSource hands out the billing configuration, read at point of
// use. Implementations must not serve a tariff older than the
// configured propagation delay.
type TariffSource interface {
	Current(ctx context.Context) (*model.Tariff, error)
}

// DedupStore remembers processed fact identifiers for a bounded
// retention window, so redelivered facts can be dropped cheaply. The
// state store remains the authority for idempotence; this store only
// avoids redundant work.
type DedupStore interface {
	// Seen records the fact id and reports whether it had already
	// been recorded within the retention window.
	Seen(ctx context.Context, factID string, retention time.Duration) (bool, error)
}
