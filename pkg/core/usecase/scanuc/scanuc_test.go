// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scanuc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/adapter/db/memory"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/repo"
	"github.com/momeni/parkcore/pkg/core/usecase/scanuc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

type staticTariffs struct {
	t *model.Tariff
}

func (s staticTariffs) Current(
	ctx context.Context,
) (*model.Tariff, error) {
	return s.t, nil
}

type staticEvidence struct {
	ref string
	err error
}

func (e staticEvidence) Capture(
	ctx context.Context, slotID string,
) (string, error) {
	return e.ref, e.err
}

func testTariff() *model.Tariff {
	return &model.Tariff{
		HourlyRate: map[model.SizeClass]model.Cents{
			model.SizeClassSedan: 150,
		},
		MaxStay: map[model.SizeClass]time.Duration{
			model.SizeClassSedan: 4 * time.Hour,
		},
		OverstayGrace:       15 * time.Minute,
		OverstayBase:        500,
		OverstayPerHour:     200,
		UnauthorizedPenalty: 2000,
		EscalationStep:      0.5,
	}
}

type fixture struct {
	pool       *memory.Pool
	slots      *memory.SlotsRepo
	sessions   *memory.SessionsRepo
	violations *memory.ViolationsRepo
	uc         *scanuc.UseCase
}

func newFixture(t *testing.T, ev staticEvidence) *fixture {
	t.Helper()
	f := &fixture{
		pool:       memory.NewPool(),
		slots:      memory.NewSlots(),
		sessions:   memory.NewSessions(),
		violations: memory.NewViolations(),
	}
	f.uc = scanuc.New(
		f.pool, f.slots, f.sessions, f.violations,
		staticTariffs{testTariff()}, ev,
	)
	return f
}

func (f *fixture) conn(
	t *testing.T, h func(ctx context.Context, c repo.Conn) error,
) {
	t.Helper()
	require.NoError(t, f.pool.Conn(context.Background(), h))
}

// park seeds an occupied slot with a parked session entered at the
// given instant.
func (f *fixture) park(
	t *testing.T, slotID, tag string, enteredAt time.Time,
) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.conn(t, func(ctx context.Context, c repo.Conn) error {
		err := f.slots.Conn(c).Create(ctx, &model.Slot{
			ID:            slotID,
			Class:         model.SizeClassSedan,
			Status:        model.StatusOccupied,
			OccupiedSince: enteredAt,
		})
		if err != nil {
			return err
		}
		return f.sessions.Conn(c).Create(ctx, &model.Session{
			ID:        id,
			Plate:     "IR-" + tag,
			TagID:     tag,
			Class:     model.SizeClassSedan,
			SlotID:    slotID,
			EnteredAt: enteredAt,
			Status:    model.SessionParked,
		})
	})
	return id
}

func (f *fixture) unpaid(t *testing.T) []model.Violation {
	t.Helper()
	var out []model.Violation
	f.conn(t, func(ctx context.Context, c repo.Conn) error {
		var err error
		out, err = f.violations.Conn(c).ByStatus(
			ctx, model.ViolationUnpaid,
		)
		return err
	})
	return out
}

func TestScanDetectsOverstay(t *testing.T) {
	f := newFixture(t, staticEvidence{ref: "key-1"})
	sessID := f.park(t, "A-01", "tag-1", t0)

	// still within max stay plus grace
	created, err := f.uc.Scan(
		context.Background(), t0.Add(4*time.Hour+15*time.Minute),
	)
	require.NoError(t, err)
	assert.Empty(t, created, "the grace boundary itself is tolerated")

	now := t0.Add(5 * time.Hour)
	created, err = f.uc.Scan(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, created, 1)
	v := created[0]
	assert.Equal(t, model.ViolationOverstay, v.Type)
	require.NotNil(t, v.SessionID)
	assert.Equal(t, sessID, *v.SessionID)
	assert.Equal(t, "A-01", v.SlotID)
	assert.Equal(t, now, v.DetectedAt)
	assert.Equal(
		t, model.Cents(700), v.Penalty,
		"base 500 plus one started excess hour at 200",
	)
	assert.Equal(t, model.ViolationUnpaid, v.Status)
	assert.Equal(t, "key-1", v.Evidence)

	// rescanning the unchanged state must not duplicate the record
	created, err = f.uc.Scan(
		context.Background(), now.Add(5*time.Minute),
	)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Len(t, f.unpaid(t), 1)
}

func TestScanDetectsUnauthorizedOccupancy(t *testing.T) {
	f := newFixture(t, staticEvidence{ref: "key-1"})
	episode := t0.Add(-30 * time.Minute)
	f.conn(t, func(ctx context.Context, c repo.Conn) error {
		return f.slots.Conn(c).Create(ctx, &model.Slot{
			ID:            "B-01",
			Class:         model.SizeClassSedan,
			Status:        model.StatusOccupied,
			OccupiedSince: episode,
		})
	})

	created, err := f.uc.Scan(context.Background(), t0)
	require.NoError(t, err)
	require.Len(t, created, 1)
	v := created[0]
	assert.Equal(t, model.ViolationUnauthorized, v.Type)
	assert.Nil(t, v.SessionID)
	assert.Equal(t, "B-01", v.SlotID)
	assert.Equal(t, episode, v.EpisodeAt)
	assert.Equal(t, model.Cents(2000), v.Penalty)

	// the same occupancy episode must not be reported twice
	created, err = f.uc.Scan(
		context.Background(), t0.Add(10*time.Minute),
	)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestScanEscalatesRepeatedEpisodes(t *testing.T) {
	f := newFixture(t, staticEvidence{ref: "key-1"})
	first := t0.Add(-2 * time.Hour)
	f.conn(t, func(ctx context.Context, c repo.Conn) error {
		return f.slots.Conn(c).Create(ctx, &model.Slot{
			ID:            "B-01",
			Class:         model.SizeClassSedan,
			Status:        model.StatusOccupied,
			OccupiedSince: first,
		})
	})
	created, err := f.uc.Scan(context.Background(), t0)
	require.NoError(t, err)
	require.Len(t, created, 1)

	// the intruder leaves and comes back: a fresh episode while the
	// first violation is still unresolved
	second := t0.Add(time.Hour)
	f.conn(t, func(ctx context.Context, c repo.Conn) error {
		q := f.slots.Conn(c)
		slot, err := q.ByID(ctx, "B-01")
		if err != nil {
			return err
		}
		slot.OccupiedSince = second
		slot.ObservedAt = second
		return q.SetObserved(ctx, slot)
	})

	created, err = f.uc.Scan(
		context.Background(), second.Add(time.Minute),
	)
	require.NoError(t, err)
	require.Len(t, created, 1)
	v := created[0]
	assert.Equal(t, second, v.EpisodeAt)
	assert.Equal(
		t, model.Cents(3000), v.Penalty,
		"one unresolved prior violation escalates 2000 by half",
	)
	assert.Len(t, f.unpaid(t), 2)
}

func TestScanIgnoresVacantAndHeldSlots(t *testing.T) {
	f := newFixture(t, staticEvidence{ref: "key-1"})
	f.park(t, "A-01", "tag-1", t0.Add(-time.Hour))
	f.conn(t, func(ctx context.Context, c repo.Conn) error {
		return f.slots.Conn(c).Create(ctx, &model.Slot{
			ID:     "B-01",
			Class:  model.SizeClassSedan,
			Status: model.StatusVacant,
		})
	})
	created, err := f.uc.Scan(context.Background(), t0)
	require.NoError(t, err)
	assert.Empty(
		t, created,
		"an in-limit session and a vacant slot breach nothing",
	)
}

func TestScanSurvivesEvidenceFailure(t *testing.T) {
	f := newFixture(t, staticEvidence{
		err: errors.New("camera gateway unreachable"),
	})
	f.park(t, "A-01", "tag-1", t0.Add(-6*time.Hour))
	created, err := f.uc.Scan(context.Background(), t0)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Empty(
		t, created[0].Evidence,
		"a capture failure must not suppress the detection",
	)
}
