// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package routeruc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/momeni/parkcore/pkg/core/cerr"
	"github.com/momeni/parkcore/pkg/core/log"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/usecase/settleuc"
)

// Outbound event kinds, used as publisher routing keys.
const (
	KindSlotAllocated     = "slot.allocated"
	KindEntryRejected     = "entry.rejected"
	KindViolationDetected = "violation.detected"
	KindExitSettled       = "exit.settled"
	KindPaymentFailed     = "payment.failed"
)

// SubmitVehicleIdentified routes an entry fact through the immediate
// queue and returns the processing outcome. Business rejections are
// consumed here (a rejection notification is emitted); a returned
// error means the fact was not applied and should be redelivered.
func (r *Router) SubmitVehicleIdentified(
	ctx context.Context, fact model.VehicleIdentified,
) error {
	if r.duplicate(ctx, fact.FactID) {
		return nil
	}
	return r.submit(ctx, task{
		kind: "vehicle.identified",
		run: func(ctx context.Context) error {
			return r.handleEntry(ctx, fact)
		},
	})
}

// SubmitSlotStatusChanged routes a sensor fact. Facts beyond the
// configured sensor rate are dropped at the boundary: occupancy is
// level-triggered, so the next in-rate publish restores the state.
func (r *Router) SubmitSlotStatusChanged(
	ctx context.Context, fact model.SlotStatusChanged,
) error {
	if r.limiter != nil && !r.limiter.Allow() {
		log.Warn(ctx, "sensor fact rate exceeded, dropping",
			slog.String("sensor", fact.SensorID),
		)
		return nil
	}
	if r.duplicate(ctx, fact.FactID) {
		return nil
	}
	return r.submit(ctx, task{
		kind: "slot.status-changed",
		run: func(ctx context.Context) error {
			return r.handleSensor(ctx, fact)
		},
	})
}

// SubmitExitRequested routes an exit fact.
func (r *Router) SubmitExitRequested(
	ctx context.Context, fact model.ExitRequested,
) error {
	if r.duplicate(ctx, fact.FactID) {
		return nil
	}
	return r.submit(ctx, task{
		kind: "exit.requested",
		run: func(ctx context.Context) error {
			return r.handleExit(ctx, fact)
		},
	})
}

// SubmitTick requests an incremental scan outside the fixed
// interval, e.g. on a state-change notification.
func (r *Router) SubmitTick(now time.Time) {
	r.offerTick(now)
}

// submit enqueues the task and waits for its outcome, so inbound
// transports can acknowledge a delivery only after it was applied.
func (r *Router) submit(ctx context.Context, t task) error {
	done := make(chan error, 1)
	wrapped := task{kind: t.kind, run: func(ctx context.Context) error {
		err := t.run(ctx)
		done <- err
		return err
	}}
	if err := r.enqueue(ctx, wrapped); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Router) handleEntry(
	ctx context.Context, fact model.VehicleIdentified,
) error {
	sess, err := r.alloc.Allocate(ctx, fact)
	if err != nil {
		var ce *cerr.Error
		if !errors.As(err, &ce) {
			return err // transient or fatal, redeliver
		}
		if ce.HTTPStatusCode == http.StatusBadRequest {
			log.Warn(ctx, "discarding malformed entry fact",
				log.Err("error", err),
			)
			return nil
		}
		r.publish(ctx, KindEntryRejected, model.EntryRejected{
			Plate:  fact.Plate,
			Reason: ce.Err.Error(),
		})
		return nil
	}
	r.open(ctx, model.GateEntry)
	r.publish(ctx, KindSlotAllocated, model.SlotAllocated{
		SessionID: sess.ID,
		SlotID:    sess.SlotID,
	})
	return nil
}

func (r *Router) handleSensor(
	ctx context.Context, fact model.SlotStatusChanged,
) error {
	err := r.monitor.ApplySensorEvent(ctx, fact)
	if err == nil {
		return nil
	}
	var ce *cerr.Error
	if errors.As(err, &ce) {
		// authentication/schema/unknown-slot: discard at the boundary
		log.Warn(ctx, "discarding rejected sensor fact",
			slog.String("sensor", fact.SensorID),
			slog.String("slot", fact.SlotID),
			log.Err("error", err),
		)
		return nil
	}
	return err
}

func (r *Router) handleExit(
	ctx context.Context, fact model.ExitRequested,
) error {
	trans, err := r.settler.Settle(ctx, fact)
	if err != nil {
		var declined *settleuc.PaymentDeclinedError
		if errors.As(err, &declined) {
			r.publish(ctx, KindPaymentFailed, model.PaymentFailed{
				SessionID: declined.SessionID,
				Reason:    declined.Cause.Error(),
			})
			return nil
		}
		var ce *cerr.Error
		if errors.As(err, &ce) {
			log.Info(ctx, "exit fact rejected",
				slog.String("tag", fact.TagID),
				log.Err("error", err),
			)
			return nil
		}
		return err
	}
	r.open(ctx, model.GateExit)
	r.publish(ctx, KindExitSettled, model.ExitSettled{
		SessionID:     trans.SessionID,
		TransactionID: trans.ID,
		Amount:        trans.Total,
	})
	return nil
}

func (r *Router) handleTick(ctx context.Context, now time.Time) error {
	created, err := r.scanner.Scan(ctx, now)
	if err != nil {
		return err
	}
	for i := range created {
		r.publish(ctx, KindViolationDetected, model.ViolationDetected{
			ViolationID: created[i].ID,
			Type:        created[i].Type,
		})
	}
	return nil
}

// open actuates a gate. A gate port failure is operator-visible only;
// it must not fail the already applied fact, so it is logged here.
func (r *Router) open(ctx context.Context, g model.Gate) {
	err := r.gates.Open(ctx, model.GateCommand{Gate: g, Action: "open"})
	if err != nil {
		log.Error(ctx, "gate actuation failed",
			slog.String("gate", string(g)), log.Err("error", err),
		)
	}
}

func (r *Router) publish(ctx context.Context, kind string, payload any) {
	if err := r.pub.Publish(ctx, kind, payload); err != nil {
		log.Warn(ctx, "outbound publish failed",
			slog.String("kind", kind), log.Err("error", err),
		)
	}
}
