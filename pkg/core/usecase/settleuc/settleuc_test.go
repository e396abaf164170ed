// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settleuc_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/adapter/db/memory"
	"github.com/momeni/parkcore/pkg/core/cerr"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/repo"
	"github.com/momeni/parkcore/pkg/core/usecase/settleuc"
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

func testTariff() *model.Tariff {
	return &model.Tariff{
		HourlyRate: map[model.SizeClass]model.Cents{
			model.SizeClassSedan: 150,
		},
		MaxStay: map[model.SizeClass]time.Duration{
			model.SizeClassSedan: 4 * time.Hour,
		},
		OverstayGrace:   15 * time.Minute,
		OverstayBase:    500,
		OverstayPerHour: 200,
	}
}

// paymentRecorder implements port.PaymentGateway, recording every
// charge and optionally declining all of them.
type paymentRecorder struct {
	mu      sync.Mutex
	charges []model.PaymentRequest
	err     error
}

func (p *paymentRecorder) Charge(
	ctx context.Context, req model.PaymentRequest,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.charges = append(p.charges, req)
	return nil
}

type fixture struct {
	pool         *memory.Pool
	slots        *memory.SlotsRepo
	sessions     *memory.SessionsRepo
	violations   *memory.ViolationsRepo
	transactions *memory.TransactionsRepo
	payments     *paymentRecorder
	uc           *settleuc.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		pool:         memory.NewPool(),
		slots:        memory.NewSlots(),
		sessions:     memory.NewSessions(),
		violations:   memory.NewViolations(),
		transactions: memory.NewTransactions(),
		payments:     &paymentRecorder{},
	}
	uc, err := settleuc.New(
		f.pool, f.sessions, f.slots, f.violations, f.transactions,
		staticTariffs{testTariff()}, f.payments,
	)
	require.NoError(t, err, "instantiating settlement use case")
	f.uc = uc
	return f
}

func (f *fixture) conn(
	t *testing.T, h func(ctx context.Context, c repo.Conn) error,
) {
	t.Helper()
	require.NoError(t, f.pool.Conn(context.Background(), h))
}

// park seeds a vacant slot, reserves it, and creates the parked
// session, mirroring what the allocator commits.
func (f *fixture) park(
	t *testing.T, slotID, tag string, enteredAt time.Time,
) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.conn(t, func(ctx context.Context, c repo.Conn) error {
		q := f.slots.Conn(c)
		slot, err := q.ByID(ctx, slotID)
		if errors.Is(err, repo.ErrNotFound) {
			slot = &model.Slot{
				ID:      slotID,
				Class:   model.SizeClassSedan,
				Status:  model.StatusVacant,
				Version: 0,
			}
			if err := q.Create(ctx, slot); err != nil {
				return err
			}
			slot, err = q.ByID(ctx, slotID)
		}
		if err != nil {
			return err
		}
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			err := f.slots.Tx(tx).Reserve(
				ctx, slotID, slot.Version, enteredAt,
			)
			if err != nil {
				return err
			}
			return f.sessions.Tx(tx).Create(ctx, &model.Session{
				ID:        id,
				Plate:     "IR-" + tag,
				TagID:     tag,
				Class:     model.SizeClassSedan,
				SlotID:    slotID,
				EnteredAt: enteredAt,
				Status:    model.SessionParked,
			})
		})
	})
	return id
}

func (f *fixture) slot(t *testing.T, id string) *model.Slot {
	t.Helper()
	var slot *model.Slot
	f.conn(t, func(ctx context.Context, c repo.Conn) error {
		var err error
		slot, err = f.slots.Conn(c).ByID(ctx, id)
		return err
	})
	return slot
}

func (f *fixture) session(t *testing.T, id uuid.UUID) *model.Session {
	t.Helper()
	var sess *model.Session
	f.conn(t, func(ctx context.Context, c repo.Conn) error {
		var err error
		sess, err = f.sessions.Conn(c).ByID(ctx, id)
		return err
	})
	return sess
}

func exit(tag string, at time.Time) model.ExitRequested {
	return model.ExitRequested{
		FactID:    "fact-" + tag,
		TagID:     tag,
		Timestamp: at,
	}
}

func TestSettleChargesAndCloses(t *testing.T) {
	f := newFixture(t)
	sessID := f.park(t, "A-01", "tag-1", t0)

	exitedAt := t0.Add(90 * time.Minute)
	trans, err := f.uc.Settle(
		context.Background(), exit("tag-1", exitedAt),
	)
	require.NoError(t, err)
	assert.Equal(t, sessID, trans.SessionID)
	assert.Equal(
		t, model.Cents(300), trans.Base,
		"90 minutes bill as 2 started hours at 150",
	)
	assert.Equal(t, model.Cents(0), trans.Penalty)
	assert.Equal(t, model.Cents(300), trans.Total)
	assert.Equal(t, model.TxCompleted, trans.Outcome)
	assert.Equal(t, exitedAt, trans.CreatedAt)

	require.Len(t, f.payments.charges, 1)
	req := f.payments.charges[0]
	assert.Equal(t, sessID, req.SessionID)
	assert.Equal(t, model.Cents(300), req.Amount)
	assert.Equal(
		t, fmt.Sprintf("%s:%d", sessID, exitedAt.Unix()),
		req.IdempotencyKey,
	)

	sess := f.session(t, sessID)
	assert.Equal(t, model.SessionExited, sess.Status)
	require.NotNil(t, sess.ExitedAt)
	assert.Equal(t, exitedAt, *sess.ExitedAt)

	slot := f.slot(t, "A-01")
	assert.Equal(t, model.StatusVacant, slot.Status)
	assert.True(t, slot.OccupiedSince.IsZero())
	assert.Equal(
		t, 90*time.Minute, slot.AvgStay,
		"the first stay seeds the rolling average",
	)
}

func TestSettleSmoothsAverageStay(t *testing.T) {
	f := newFixture(t)
	f.park(t, "A-01", "tag-1", t0)
	_, err := f.uc.Settle(
		context.Background(), exit("tag-1", t0.Add(90*time.Minute)),
	)
	require.NoError(t, err)

	t1 := t0.Add(3 * time.Hour)
	f.park(t, "A-01", "tag-2", t1)
	_, err = f.uc.Settle(
		context.Background(), exit("tag-2", t1.Add(30*time.Minute)),
	)
	require.NoError(t, err)
	assert.Equal(
		t, 72*time.Minute, f.slot(t, "A-01").AvgStay,
		"90m + 0.3 * (30m - 90m)",
	)
}

func TestSettleFoldsUnpaidViolations(t *testing.T) {
	f := newFixture(t)
	sessID := f.park(t, "A-01", "tag-1", t0)
	overstayID, unauthID := uuid.New(), uuid.New()
	f.conn(t, func(ctx context.Context, c repo.Conn) error {
		q := f.violations.Conn(c)
		sid := sessID
		err := q.Create(ctx, &model.Violation{
			ID:         overstayID,
			Type:       model.ViolationOverstay,
			DetectedAt: t0.Add(5 * time.Hour),
			SessionID:  &sid,
			SlotID:     "A-01",
			Penalty:    700,
			Status:     model.ViolationUnpaid,
		})
		if err != nil {
			return err
		}
		return q.Create(ctx, &model.Violation{
			ID:         unauthID,
			Type:       model.ViolationUnauthorized,
			DetectedAt: t0.Add(-time.Hour),
			SlotID:     "A-01",
			EpisodeAt:  t0.Add(-2 * time.Hour),
			Penalty:    2000,
			Status:     model.ViolationUnpaid,
		})
	})

	exitedAt := t0.Add(6 * time.Hour)
	trans, err := f.uc.Settle(
		context.Background(), exit("tag-1", exitedAt),
	)
	require.NoError(t, err)
	assert.Equal(t, model.Cents(900), trans.Base, "6 hours at 150")
	assert.Equal(t, model.Cents(2700), trans.Penalty)
	assert.Equal(t, model.Cents(3600), trans.Total)
	require.Len(t, f.payments.charges, 1)
	assert.Equal(t, model.Cents(3600), f.payments.charges[0].Amount)

	f.conn(t, func(ctx context.Context, c repo.Conn) error {
		paid, err := f.violations.Conn(c).ByStatus(
			ctx, model.ViolationPaid,
		)
		if err != nil {
			return err
		}
		assert.Len(t, paid, 2, "folded violations are resolved")
		return nil
	})
}

func TestSettleDeclineLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	sessID := f.park(t, "A-01", "tag-1", t0)
	f.payments.err = errors.New("card declined")

	trans, err := f.uc.Settle(
		context.Background(), exit("tag-1", t0.Add(time.Hour)),
	)
	assert.Nil(t, trans)
	var declined *settleuc.PaymentDeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, sessID, declined.SessionID)
	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusPaymentRequired, ce.HTTPStatusCode)

	assert.Equal(t, model.SessionParked, f.session(t, sessID).Status)
	assert.Equal(
		t, model.StatusOccupied, f.slot(t, "A-01").Status,
		"the exit gate stays closed and the slot stays held",
	)
}

func TestSettleZeroTotalSkipsPaymentPort(t *testing.T) {
	f := newFixture(t)
	sessID := f.park(t, "A-01", "tag-1", t0)
	f.payments.err = errors.New("provider must not be contacted")

	trans, err := f.uc.Settle(context.Background(), exit("tag-1", t0))
	require.NoError(t, err)
	assert.Equal(t, model.Cents(0), trans.Total)
	assert.Equal(t, model.TxCompleted, trans.Outcome)
	assert.Empty(t, f.payments.charges)
	assert.Equal(t, model.SessionExited, f.session(t, sessID).Status)
	assert.Equal(t, model.StatusVacant, f.slot(t, "A-01").Status)
}

func TestSettleUnknownTag(t *testing.T) {
	f := newFixture(t)
	f.park(t, "A-01", "tag-1", t0)
	_, err := f.uc.Settle(
		context.Background(), exit("tag-9", t0.Add(time.Hour)),
	)
	assert.ErrorIs(t, err, settleuc.ErrNoActiveSession)
	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusNotFound, ce.HTTPStatusCode)
	assert.Empty(t, f.payments.charges)
}

func TestSettleTwiceFindsNoActiveSession(t *testing.T) {
	f := newFixture(t)
	f.park(t, "A-01", "tag-1", t0)
	_, err := f.uc.Settle(
		context.Background(), exit("tag-1", t0.Add(time.Hour)),
	)
	require.NoError(t, err)
	_, err = f.uc.Settle(
		context.Background(), exit("tag-1", t0.Add(2*time.Hour)),
	)
	assert.ErrorIs(
		t, err, settleuc.ErrNoActiveSession,
		"the closed session is no longer matched by its tag",
	)
	assert.Len(
		t, f.payments.charges, 1,
		"the provider is charged exactly once",
	)
}
