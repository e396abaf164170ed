// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package queryuc contains the read-only queries exposed to the
// surrounding systems: occupancy counts per size-class, session
// history, and violation listings.
package queryuc

import (
	"context"
	"fmt"
	"time"

	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/repo"
)

// Occupancy aggregates the slot states of one size-class.
type Occupancy struct {
	Class    model.SizeClass
	Total    int
	Vacant   int
	Occupied int
	Unknown  int
}

// UseCase represents the query use case.
type UseCase struct {
	pool         repo.Pool
	slotsrp      repo.Slots
	sessionsrp   repo.Sessions
	violationsrp repo.Violations
}

// New instantiates a query use case.
func New(
	p repo.Pool, sl repo.Slots, se repo.Sessions, vi repo.Violations,
) *UseCase {
	return &UseCase{
		pool: p, slotsrp: sl, sessionsrp: se, violationsrp: vi,
	}
}

// Occupancy returns the per-class occupancy counts, in ascending
// size-class order.
func (uc *UseCase) Occupancy(ctx context.Context) ([]Occupancy, error) {
	byClass := make(map[model.SizeClass]*Occupancy)
	out := make([]Occupancy, 0, len(model.SizeClasses()))
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		slots, err := uc.slotsrp.Conn(c).All(ctx)
		if err != nil {
			return fmt.Errorf("reading slots: %w", err)
		}
		for _, cl := range model.SizeClasses() {
			out = append(out, Occupancy{Class: cl})
			byClass[cl] = &out[len(out)-1]
		}
		for _, s := range slots {
			o, ok := byClass[s.Class]
			if !ok {
				continue
			}
			o.Total++
			switch s.Status {
			case model.StatusVacant:
				o.Vacant++
			case model.StatusOccupied:
				o.Occupied++
			case model.StatusUnknown:
				o.Unknown++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Sessions returns the session history of a plate and/or entry-time
// range, newest first. Zero-valued filters are ignored.
func (uc *UseCase) Sessions(
	ctx context.Context, plate string, from, to time.Time,
) (sessions []model.Session, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		sessions, err = uc.sessionsrp.Conn(c).History(ctx, plate, from, to)
		return err
	})
	if err != nil {
		sessions = nil
	}
	return
}

// Violations lists violation records with the given status.
func (uc *UseCase) Violations(
	ctx context.Context, st model.ViolationStatus,
) (violations []model.Violation, err error) {
	if err = st.Validate(); err != nil {
		return nil, err
	}
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		violations, err = uc.violationsrp.Conn(c).ByStatus(ctx, st)
		return err
	})
	if err != nil {
		violations = nil
	}
	return
}
