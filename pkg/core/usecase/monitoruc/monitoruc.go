// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package monitoruc contains the slot monitor use case which applies
// sensor facts to the physical occupancy state of slots. Facts from
// unauthenticated sensors, malformed payloads, and unknown slots are
// rejected without mutating any state. Valid updates follow a
// last-writer-by-timestamp policy: an older observation never
// overwrites a newer one, regardless of arrival order.
package monitoruc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/momeni/parkcore/pkg/core/cerr"
	"github.com/momeni/parkcore/pkg/core/log"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/port"
	"github.com/momeni/parkcore/pkg/core/repo"
)

// ErrUnknownSensor indicates a sensor fact which failed the registry
// credential check.
var ErrUnknownSensor = errors.New("sensor is not authenticated")

// UseCase represents the slot monitor use case.
type UseCase struct {
	pool    repo.Pool
	slotsrp repo.Slots
	sensors port.SensorRegistry

	maxAttempts int
}

// New instantiates a slot monitor use case.
func New(
	p repo.Pool, sl repo.Slots, sr port.SensorRegistry, opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{pool: p, slotsrp: sl, sensors: sr}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.maxAttempts == 0 {
		uc.maxAttempts = 3
	}
	return uc, nil
}

// Option is a functional option for the slot monitor use case.
type Option func(*UseCase) error

// WithMaxAttempts bounds the compare-and-set retry loop.
func WithMaxAttempts(n int) Option {
	return func(uc *UseCase) error {
		if n <= 0 {
			return fmt.Errorf("max attempts must be positive: %d", n)
		}
		uc.maxAttempts = n
		return nil
	}
}

// ApplySensorEvent applies one sensor observation to its slot.
// Boundary rejections (authentication, schema, unknown slot) are
// returned as cerr values and leave the store untouched. Stale
// observations are discarded silently with a debug log entry.
func (uc *UseCase) ApplySensorEvent(
	ctx context.Context, fact model.SlotStatusChanged,
) error {
	if !uc.sensors.Authenticate(ctx, fact.SensorID, fact.Token) {
		return cerr.Authentication(ErrUnknownSensor)
	}
	if err := uc.validate(fact); err != nil {
		return cerr.BadRequest(err)
	}
	for attempt := 0; attempt < uc.maxAttempts; attempt++ {
		err := uc.apply(ctx, fact)
		if errors.Is(err, repo.ErrConflict) {
			continue // concurrent writer moved the slot, re-read
		}
		return err
	}
	return fmt.Errorf("applying sensor event: %w", repo.ErrConflict)
}

func (uc *UseCase) validate(fact model.SlotStatusChanged) error {
	if fact.SlotID == "" {
		return errors.New("missing slot id")
	}
	if fact.SensorID == "" {
		return errors.New("missing sensor id")
	}
	if fact.Timestamp.IsZero() {
		return errors.New("missing timestamp")
	}
	return fact.Status.Validate()
}

func (uc *UseCase) apply(
	ctx context.Context, fact model.SlotStatusChanged,
) error {
	return uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		sq := uc.slotsrp.Conn(c)
		slot, err := sq.ByID(ctx, fact.SlotID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return cerr.NotFound(
					fmt.Errorf("unknown slot %q", fact.SlotID),
				)
			}
			return fmt.Errorf("reading slot %q: %w", fact.SlotID, err)
		}
		if fact.Timestamp.Before(slot.ObservedAt) {
			log.Debug(ctx, "discarding stale sensor observation",
				slog.String("slot", fact.SlotID),
				slog.Time("observed", fact.Timestamp),
				slog.Time("newest", slot.ObservedAt),
			)
			return nil
		}
		uc.transition(slot, fact.Status, fact.Timestamp)
		slot.ObservedAt = fact.Timestamp
		slot.SensorID = fact.SensorID
		if err := sq.SetObserved(ctx, slot); err != nil {
			return err
		}
		return nil
	})
}

// transition updates the occupancy state and the episode marker.
// A vacant-to-occupied transition starts a new occupancy episode;
// vacating ends it. A disconnect (unknown) keeps the episode marker,
// so the next publish of a reconnected sensor resumes or ends the
// same episode instead of fabricating a new one.
func (uc *UseCase) transition(
	slot *model.Slot, st model.SlotStatus, at time.Time,
) {
	switch st {
	case model.StatusOccupied:
		if slot.Status != model.StatusOccupied &&
			slot.OccupiedSince.IsZero() {
			slot.OccupiedSince = at
		}
	case model.StatusVacant:
		slot.OccupiedSince = time.Time{}
	case model.StatusUnknown:
		// sensor disconnected, keep the episode marker
	}
	slot.Status = st
}
