// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routeruc contains the event router: it dispatches inbound
// facts to the owning component and forwards the outbound commands
// and facts to the external ports. Entry/exit-path facts take
// priority over scheduled scan ticks; under load a tick is deferred,
// never dropped, until the immediate-path queue drains below its
// threshold.
package routeruc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/momeni/parkcore/pkg/core/log"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/port"
)

// Allocator is the entry-path component contract.
type Allocator interface {
	Allocate(ctx context.Context, fact model.VehicleIdentified) (*model.Session, error)
}

// Monitor is the sensor-path component contract.
type Monitor interface {
	ApplySensorEvent(ctx context.Context, fact model.SlotStatusChanged) error
}

// Scanner is the scheduled detection component contract.
type Scanner interface {
	Scan(ctx context.Context, now time.Time) ([]model.Violation, error)
}

// Settler is the exit-path component contract.
type Settler interface {
	Settle(ctx context.Context, fact model.ExitRequested) (*model.Transaction, error)
}

// Router dispatches facts between the components and the external
// ports. Multiple workers process the immediate queue in parallel;
// the store's conditional writes make that safe without any global
// lock.
type Router struct {
	alloc   Allocator
	monitor Monitor
	scanner Scanner
	settler Settler
	gates   port.GateController
	pub     port.Publisher

	dedup     port.DedupStore
	retention time.Duration
	limiter   *rate.Limiter

	immediate chan task
	ticks     chan time.Time

	workers        int
	deferThreshold int
	deferDelay     time.Duration
	scanInterval   time.Duration
	factDeadline   time.Duration

	wg sync.WaitGroup
}

type task struct {
	kind string
	run  func(ctx context.Context) error
}

// New instantiates an event router.
func New(
	a Allocator, m Monitor, sc Scanner, se Settler,
	g port.GateController, p port.Publisher, opts ...Option,
) (*Router, error) {
	r := &Router{
		alloc: a, monitor: m, scanner: sc, settler: se,
		gates: g, pub: p,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if r.workers == 0 {
		r.workers = 4
	}
	if r.deferThreshold == 0 {
		r.deferThreshold = 8
	}
	if r.deferDelay == 0 {
		r.deferDelay = time.Second
	}
	if r.scanInterval == 0 {
		r.scanInterval = 5 * time.Minute
	}
	if r.factDeadline == 0 {
		r.factDeadline = 10 * time.Second
	}
	if r.retention == 0 {
		r.retention = time.Hour
	}
	if r.immediate == nil {
		r.immediate = make(chan task, 64)
	}
	// capacity one: a pending tick subsumes any further ticks
	r.ticks = make(chan time.Time, 1)
	return r, nil
}

// Start launches the worker pool and the scan ticker. It returns
// immediately; cancel the context to stop and call Wait to join.
func (r *Router) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.work(ctx)
		}()
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(r.scanInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				r.offerTick(now)
			}
		}
	}()
}

// Wait blocks until all workers have exited.
func (r *Router) Wait() {
	r.wg.Wait()
}

// work is the per-worker loop: immediate-path facts are drained with
// priority, scan ticks only run when no immediate fact is pending.
func (r *Router) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-r.immediate:
			r.execute(ctx, t)
			continue
		default:
		}
		select {
		case <-ctx.Done():
			return
		case t := <-r.immediate:
			r.execute(ctx, t)
		case now := <-r.ticks:
			if len(r.immediate) > r.deferThreshold {
				r.deferTick(now)
				continue
			}
			r.execute(ctx, task{kind: "scan.tick", run: func(ctx context.Context) error {
				return r.handleTick(ctx, now)
			}})
		}
	}
}

// execute runs one task under the per-fact deadline. A failed task is
// only logged here; redelivery is the duty of the inbound transport,
// which observes the error through the Submit path result when it
// processes synchronously.
func (r *Router) execute(ctx context.Context, t task) {
	ctx, cancel := context.WithTimeout(ctx, r.factDeadline)
	defer cancel()
	if err := t.run(ctx); err != nil {
		log.Error(ctx, "fact processing failed",
			slog.String("kind", t.kind), log.Err("error", err),
		)
	}
}

// offerTick queues a scan tick; if one is already pending, the new
// one is subsumed by it rather than queued behind it.
func (r *Router) offerTick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

// deferTick re-offers a tick after the defer delay, so load on the
// immediate path postpones scanning without ever dropping it.
func (r *Router) deferTick(now time.Time) {
	log.Debug(context.Background(), "deferring scan tick",
		slog.Int("backlog", len(r.immediate)),
	)
	time.AfterFunc(r.deferDelay, func() {
		r.offerTick(now)
	})
}

// enqueue places a task on the immediate queue, honoring the caller
// context while the queue is full.
func (r *Router) enqueue(ctx context.Context, t task) error {
	select {
	case r.immediate <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// duplicate consults the dedup store; dedup failures degrade to
// processing the fact, because the state store remains idempotent by
// fact identifier.
func (r *Router) duplicate(ctx context.Context, factID string) bool {
	if r.dedup == nil || factID == "" {
		return false
	}
	seen, err := r.dedup.Seen(ctx, factID, r.retention)
	if err != nil {
		log.Warn(ctx, "dedup store unavailable", log.Err("error", err))
		return false
	}
	if seen {
		log.Info(ctx, "dropping redelivered fact",
			slog.String("fact", factID),
		)
	}
	return seen
}
