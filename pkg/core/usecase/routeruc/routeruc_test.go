// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package routeruc_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/adapter/dedup"
	"github.com/momeni/parkcore/pkg/core/cerr"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/usecase/allocuc"
	"github.com/momeni/parkcore/pkg/core/usecase/routeruc"
	"github.com/momeni/parkcore/pkg/core/usecase/settleuc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

type allocStub struct {
	mu    sync.Mutex
	calls int
	sess  *model.Session
	err   error
}

func (a *allocStub) Allocate(
	ctx context.Context, fact model.VehicleIdentified,
) (*model.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.sess, a.err
}

func (a *allocStub) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type monitorStub struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *monitorStub) ApplySensorEvent(
	ctx context.Context, fact model.SlotStatusChanged,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

func (m *monitorStub) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type scanStub struct {
	created []model.Violation
	err     error
}

func (s *scanStub) Scan(
	ctx context.Context, now time.Time,
) ([]model.Violation, error) {
	return s.created, s.err
}

type settleStub struct {
	trans *model.Transaction
	err   error
}

func (s *settleStub) Settle(
	ctx context.Context, fact model.ExitRequested,
) (*model.Transaction, error) {
	return s.trans, s.err
}

type gateRecorder struct {
	mu   sync.Mutex
	cmds []model.GateCommand
}

func (g *gateRecorder) Open(
	ctx context.Context, cmd model.GateCommand,
) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cmds = append(g.cmds, cmd)
	return nil
}

func (g *gateRecorder) opened() []model.GateCommand {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.GateCommand(nil), g.cmds...)
}

type published struct {
	kind    string
	payload any
}

type pubRecorder struct {
	mu     sync.Mutex
	events []published
}

func (p *pubRecorder) Publish(
	ctx context.Context, kind string, payload any,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{kind: kind, payload: payload})
	return nil
}

func (p *pubRecorder) byKind(kind string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	alloc   *allocStub
	monitor *monitorStub
	scanner *scanStub
	settler *settleStub
	gates   *gateRecorder
	pub     *pubRecorder
	router  *routeruc.Router
}

func startRouter(t *testing.T, opts ...routeruc.Option) *fixture {
	t.Helper()
	f := &fixture{
		alloc:   &allocStub{},
		monitor: &monitorStub{},
		scanner: &scanStub{},
		settler: &settleStub{},
		gates:   &gateRecorder{},
		pub:     &pubRecorder{},
	}
	opts = append(
		[]routeruc.Option{
			routeruc.WithWorkers(2),
			// keep the periodic ticker out of the way of the tests
			routeruc.WithScanInterval(time.Hour),
		},
		opts...,
	)
	r, err := routeruc.New(
		f.alloc, f.monitor, f.scanner, f.settler, f.gates, f.pub,
		opts...,
	)
	require.NoError(t, err, "instantiating router")
	f.router = r
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	t.Cleanup(func() {
		cancel()
		r.Wait()
	})
	return f
}

func entryFact(factID string) model.VehicleIdentified {
	return model.VehicleIdentified{
		FactID:    factID,
		Plate:     "IR-001",
		Class:     model.SizeClassSedan,
		TagID:     "tag-1",
		Timestamp: t0,
	}
}

func TestEntryOpensGateAndPublishesAllocation(t *testing.T) {
	f := startRouter(t)
	sess := &model.Session{
		ID:     uuid.New(),
		SlotID: "A-01",
		Status: model.SessionParked,
	}
	f.alloc.sess = sess

	err := f.router.SubmitVehicleIdentified(
		context.Background(), entryFact("fact-1"),
	)
	require.NoError(t, err)

	opened := f.gates.opened()
	require.Len(t, opened, 1)
	assert.Equal(t, model.GateEntry, opened[0].Gate)
	assert.Equal(t, "open", opened[0].Action)

	events := f.pub.byKind(routeruc.KindSlotAllocated)
	require.Len(t, events, 1)
	fact, ok := events[0].payload.(model.SlotAllocated)
	require.True(t, ok)
	assert.Equal(t, sess.ID, fact.SessionID)
	assert.Equal(t, "A-01", fact.SlotID)
}

func TestEntryRejectionIsConsumedAndNotified(t *testing.T) {
	f := startRouter(t)
	f.alloc.err = cerr.Conflict(allocuc.ErrNoSlot)

	err := f.router.SubmitVehicleIdentified(
		context.Background(), entryFact("fact-1"),
	)
	assert.NoError(
		t, err,
		"a business rejection must not trigger a redelivery",
	)
	assert.Empty(t, f.gates.opened())
	events := f.pub.byKind(routeruc.KindEntryRejected)
	require.Len(t, events, 1)
	fact, ok := events[0].payload.(model.EntryRejected)
	require.True(t, ok)
	assert.Equal(t, "IR-001", fact.Plate)
	assert.Equal(t, allocuc.ErrNoSlot.Error(), fact.Reason)
}

func TestEntryTransientFailureIsReturned(t *testing.T) {
	f := startRouter(t)
	boom := errors.New("store unavailable")
	f.alloc.err = boom

	err := f.router.SubmitVehicleIdentified(
		context.Background(), entryFact("fact-1"),
	)
	assert.ErrorIs(
		t, err, boom,
		"transient failures propagate so the transport redelivers",
	)
	assert.Empty(t, f.pub.byKind(routeruc.KindEntryRejected))
}

func TestExitDeclinePublishesPaymentFailed(t *testing.T) {
	f := startRouter(t)
	sessID := uuid.New()
	f.settler.err = cerr.PaymentRequired(&settleuc.PaymentDeclinedError{
		SessionID: sessID,
		Cause:     errors.New("card declined"),
	})

	err := f.router.SubmitExitRequested(
		context.Background(), model.ExitRequested{
			FactID: "fact-1", TagID: "tag-1", Timestamp: t0,
		},
	)
	require.NoError(t, err)
	assert.Empty(t, f.gates.opened(), "the exit gate stays closed")
	events := f.pub.byKind(routeruc.KindPaymentFailed)
	require.Len(t, events, 1)
	fact, ok := events[0].payload.(model.PaymentFailed)
	require.True(t, ok)
	assert.Equal(t, sessID, fact.SessionID)
	assert.Equal(t, "card declined", fact.Reason)
}

func TestExitSettlementOpensGate(t *testing.T) {
	f := startRouter(t)
	trans := &model.Transaction{
		ID:        uuid.New(),
		SessionID: uuid.New(),
		Total:     300,
		Outcome:   model.TxCompleted,
	}
	f.settler.trans = trans

	err := f.router.SubmitExitRequested(
		context.Background(), model.ExitRequested{
			FactID: "fact-1", TagID: "tag-1", Timestamp: t0,
		},
	)
	require.NoError(t, err)
	opened := f.gates.opened()
	require.Len(t, opened, 1)
	assert.Equal(t, model.GateExit, opened[0].Gate)
	events := f.pub.byKind(routeruc.KindExitSettled)
	require.Len(t, events, 1)
	fact, ok := events[0].payload.(model.ExitSettled)
	require.True(t, ok)
	assert.Equal(t, trans.SessionID, fact.SessionID)
	assert.Equal(t, trans.ID, fact.TransactionID)
	assert.Equal(t, model.Cents(300), fact.Amount)
}

func TestTickPublishesDetectedViolations(t *testing.T) {
	f := startRouter(t)
	f.scanner.created = []model.Violation{
		{ID: uuid.New(), Type: model.ViolationOverstay},
		{ID: uuid.New(), Type: model.ViolationUnauthorized},
	}
	f.router.SubmitTick(t0)
	assert.Eventually(t, func() bool {
		return len(f.pub.byKind(routeruc.KindViolationDetected)) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSensorRejectionsAreDiscarded(t *testing.T) {
	f := startRouter(t)
	f.monitor.err = cerr.Authentication(
		errors.New("sensor is not authenticated"),
	)
	err := f.router.SubmitSlotStatusChanged(
		context.Background(), model.SlotStatusChanged{
			FactID:    "fact-1",
			SlotID:    "A-01",
			Status:    model.StatusOccupied,
			SensorID:  "sensor-a01",
			Timestamp: t0,
		},
	)
	assert.NoError(
		t, err,
		"boundary rejections are consumed, not redelivered",
	)
	assert.Equal(t, 1, f.monitor.count())
}

func TestRedeliveredFactsAreDropped(t *testing.T) {
	f := startRouter(
		t, routeruc.WithDedup(dedup.NewMemory(), time.Hour),
	)
	f.alloc.sess = &model.Session{ID: uuid.New(), SlotID: "A-01"}

	for i := 0; i < 2; i++ {
		err := f.router.SubmitVehicleIdentified(
			context.Background(), entryFact("fact-1"),
		)
		require.NoError(t, err)
	}
	assert.Equal(
		t, 1, f.alloc.count(),
		"the redelivered fact must not reach the allocator",
	)
	assert.Len(t, f.pub.byKind(routeruc.KindSlotAllocated), 1)
}

func TestSensorRateLimitDropsExcessFacts(t *testing.T) {
	f := startRouter(t, routeruc.WithSensorRateLimit(1, 1))
	for i := 0; i < 3; i++ {
		err := f.router.SubmitSlotStatusChanged(
			context.Background(), model.SlotStatusChanged{
				FactID:    uuid.NewString(),
				SlotID:    "A-01",
				Status:    model.StatusOccupied,
				SensorID:  "sensor-a01",
				Timestamp: t0,
			},
		)
		require.NoError(t, err, "dropped facts are still acked")
	}
	assert.Equal(
		t, 1, f.monitor.count(),
		"only the in-rate fact reaches the monitor",
	)
}
