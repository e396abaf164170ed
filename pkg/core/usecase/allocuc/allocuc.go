// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package allocuc contains the slot allocation use case: given a
// vehicle-identified fact, it selects the best fitting vacant slot
// and reserves it together with the creation of a parked session, as
// one atomic unit. Lost reservation races are retried with a fresh
// read for a bounded number of attempts.
package allocuc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/core/cerr"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/port"
	"github.com/momeni/parkcore/pkg/core/repo"
)

// Business rejection causes. They are wrapped in cerr.Conflict by the
// Allocate method, so the router and the REST adapter can surface
// them as an entry rejection without inspecting store internals.
var (
	// ErrNoSlot indicates that no vacant slot of a sufficient
	// size-class exists; such a rejection is immediate, not retried.
	ErrNoSlot = errors.New("no vacant slot fits the vehicle")

	// ErrContention indicates that every reservation attempt within
	// the retry budget lost its race.
	ErrContention = errors.New("slot reservation contention")
)

// errNoCandidate distinguishes an empty candidate pool from a lost
// race inside the connection handler.
var errNoCandidate = errors.New("empty candidate pool")

// UseCase represents the slot allocation use case. It holds the
// state store pool, the slots and sessions repository instances (to
// be guided with the pool connection), and the tariff source which
// drives the demand-aware scoring.
type UseCase struct {
	pool       repo.Pool
	slotsrp    repo.Slots
	sessionsrp repo.Sessions
	tariffs    port.TariffSource

	maxAttempts int
	retryDelay  time.Duration
	distanceK   float64
}

// New instantiates a slot allocation use case.
// Required parameters are passed individually, so caller has to
// provision them and whenever they change, caller will notice and fix
// them due to a compilation error. Optional parameters are passed as
// a series of functional options.
func New(
	p repo.Pool, sl repo.Slots, se repo.Sessions, t port.TariffSource,
	opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{pool: p, slotsrp: sl, sessionsrp: se, tariffs: t}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	// now, deal with defaults
	if uc.maxAttempts == 0 {
		uc.maxAttempts = 5
	}
	if uc.retryDelay == 0 {
		uc.retryDelay = 10 * time.Millisecond
	}
	if uc.distanceK == 0 {
		uc.distanceK = 10000
	}
	return uc, nil
}

// Allocate reserves a slot for the identified vehicle and creates its
// parking session. Either both the slot flips to occupied and the
// session record is created, or neither happens. Rejections are
// returned as cerr.Conflict wrapping ErrNoSlot (empty candidate pool,
// immediate) or ErrContention (retry budget exhausted).
func (uc *UseCase) Allocate(
	ctx context.Context, fact model.VehicleIdentified,
) (sess *model.Session, err error) {
	if err := fact.Class.Validate(); err != nil {
		return nil, cerr.BadRequest(err)
	}
	t, err := uc.tariffs.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading tariff: %w", err)
	}
	for attempt := 0; attempt < uc.maxAttempts; attempt++ {
		if attempt > 0 {
			// suspend only between bounded retry attempts
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(uc.retryDelay):
			}
		}
		sess, err = uc.tryAllocate(ctx, fact, t)
		switch {
		case err == nil:
			return sess, nil
		case errors.Is(err, errNoCandidate):
			return nil, cerr.Conflict(ErrNoSlot)
		case errors.Is(err, repo.ErrConflict):
			continue // lost the race, restart from a fresh read
		default:
			return nil, err
		}
	}
	return nil, cerr.Conflict(ErrContention)
}

// tryAllocate performs one candidate read, scoring pass, and atomic
// reservation attempt.
func (uc *UseCase) tryAllocate(
	ctx context.Context, fact model.VehicleIdentified, t *model.Tariff,
) (sess *model.Session, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		sq := uc.slotsrp.Conn(c)
		slots, err := sq.All(ctx)
		if err != nil {
			return fmt.Errorf("reading slots: %w", err)
		}
		parked, err := uc.sessionsrp.Conn(c).Parked(ctx)
		if err != nil {
			return fmt.Errorf("reading parked sessions: %w", err)
		}
		taken := make(map[string]struct{}, len(parked))
		for i := range parked {
			taken[parked[i].SlotID] = struct{}{}
		}
		var cands []model.Slot
		occupied := 0
		for _, s := range slots {
			_, held := taken[s.ID]
			if s.Status != model.StatusVacant || held {
				occupied++
				continue
			}
			if s.Class.Fits(fact.Class) {
				cands = append(cands, s)
			}
		}
		if len(cands) == 0 {
			return errNoCandidate
		}
		ratio := 0.0
		if len(slots) > 0 {
			ratio = float64(occupied) / float64(len(slots))
		}
		best := uc.pickBest(cands, fact.Class, t, ratio)
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			err := uc.slotsrp.Tx(tx).Reserve(
				ctx, best.ID, best.Version, fact.Timestamp,
			)
			if err != nil {
				return fmt.Errorf("reserving slot %q: %w", best.ID, err)
			}
			s := &model.Session{
				ID:        uuid.New(),
				Plate:     fact.Plate,
				TagID:     fact.TagID,
				Class:     fact.Class,
				SlotID:    best.ID,
				EnteredAt: fact.Timestamp,
				Status:    model.SessionParked,
			}
			if err := uc.sessionsrp.Tx(tx).Create(ctx, s); err != nil {
				return fmt.Errorf("creating session: %w", err)
			}
			sess = s
			return nil
		})
	})
	if err != nil {
		sess = nil
	}
	return
}

// score computes the deterministic candidate score: exact size-class
// match beats a larger slot, closer slots beat farther ones, and a
// short average stay earns a turnover bonus which doubles under high
// demand.
func (uc *UseCase) score(
	s model.Slot, class model.SizeClass, t *model.Tariff, ratio float64,
) float64 {
	v := 50.0
	if s.Class == class {
		v = 100
	}
	v += uc.distanceK - s.Distance
	if t.ShortStay > 0 && s.AvgStay > 0 && s.AvgStay < t.ShortStay {
		bonus := 20.0
		if t.HighDemand > 0 && ratio >= t.HighDemand {
			bonus *= 2
		}
		v += bonus
	}
	return v
}

// pickBest returns the highest scoring candidate. Ties are broken by
// the lowest distance from the entrance and then by the lowest slot
// identifier, so the selection is deterministic over any input order.
func (uc *UseCase) pickBest(
	cands []model.Slot, class model.SizeClass,
	t *model.Tariff, ratio float64,
) model.Slot {
	best := cands[0]
	bestScore := uc.score(best, class, t, ratio)
	for _, s := range cands[1:] {
		sc := uc.score(s, class, t, ratio)
		switch {
		case sc > bestScore:
		case sc == bestScore && s.Distance < best.Distance:
		case sc == bestScore && s.Distance == best.Distance &&
			s.ID < best.ID:
		default:
			continue
		}
		best, bestScore = s, sc
	}
	return best
}
