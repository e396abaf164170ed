// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settleuc contains the payment settlement use case: it
// computes the charges of an exiting vehicle, settles them through
// the payment port, and then atomically closes the session, frees the
// slot, resolves the folded violations, and records the transaction.
// If the atomic close loses a race after the payment was captured,
// the close is retried against the store only; the payment port is
// never resubmitted for the same attempt epoch, which together with
// the caller-supplied idempotency key rules out double charges.
package settleuc

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

// ErrNoActiveSession indicates that the exit fact matched no parked
// session; it is wrapped in cerr.NotFound by Settle.
var ErrNoActiveSession = errors.New("no active session for vehicle")

// errAlreadySettled marks a commit conflict caused by a concurrent
// settlement which already closed the session.
var errAlreadySettled = errors.New("session already settled")

// PaymentDeclinedError reports a payment port decline or timeout for
// a located session. It is wrapped in cerr.PaymentRequired, so the
// adapter layer maps it to HTTP 402 while the router can still reach
// the session id for the outbound payment-failed fact.
type PaymentDeclinedError struct {
	SessionID uuid.UUID
	Cause     error
}

// Error implements the error interface.
func (e *PaymentDeclinedError) Error() string {
	return fmt.Sprintf(
		"payment declined for session %s: %s", e.SessionID, e.Cause,
	)
}

// Unwrap exposes the payment port cause.
func (e *PaymentDeclinedError) Unwrap() error {
	return e.Cause
}

// UseCase represents the payment settlement use case.
type UseCase struct {
	pool         repo.Pool
	sessionsrp   repo.Sessions
	slotsrp      repo.Slots
	violationsrp repo.Violations
	transrp      repo.Transactions
	tariffs      port.TariffSource
	payments     port.PaymentGateway

	commitAttempts int
	smoothing      float64
}

// New instantiates a payment settlement use case.
func New(
	p repo.Pool, se repo.Sessions, sl repo.Slots, vi repo.Violations,
	tr repo.Transactions, t port.TariffSource, pg port.PaymentGateway,
	opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{
		pool: p, sessionsrp: se, slotsrp: sl, violationsrp: vi,
		transrp: tr, tariffs: t, payments: pg,
	}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.commitAttempts == 0 {
		uc.commitAttempts = 3
	}
	if uc.smoothing == 0 {
		uc.smoothing = 0.3
	}
	return uc, nil
}

// Option is a functional option for the settlement use case.
type Option func(*UseCase) error

// WithCommitAttempts bounds the store-only close retry loop which
// runs after a captured payment.
func WithCommitAttempts(n int) Option {
	return func(uc *UseCase) error {
		if n <= 0 {
			return fmt.Errorf("commit attempts must be positive: %d", n)
		}
		uc.commitAttempts = n
		return nil
	}
}

// WithSmoothing sets the exponential smoothing factor used to fold a
// closed stay into the slot rolling average duration.
func WithSmoothing(a float64) Option {
	return func(uc *UseCase) error {
		if a <= 0 || a > 1 {
			return fmt.Errorf("smoothing must be in (0, 1]: %v", a)
		}
		uc.smoothing = a
		return nil
	}
}

// Settle locates the parked session of the exiting vehicle, charges
// the base amount plus all unpaid violation penalties, and commits
// the all-or-nothing close. On payment failure the session, slot, and
// violations are left untouched and cerr.PaymentRequired is returned,
// so the exit gate stays closed. A zero total skips the payment port
// but still performs the atomic close.
func (uc *UseCase) Settle(
	ctx context.Context, fact model.ExitRequested,
) (*model.Transaction, error) {
	var (
		sess       *model.Session
		violations []model.Violation
	)
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		var err error
		sess, err = uc.sessionsrp.Conn(c).ParkedByTag(ctx, fact.TagID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return cerr.NotFound(fmt.Errorf(
					"%w: tag %q", ErrNoActiveSession, fact.TagID,
				))
			}
			return fmt.Errorf("locating session: %w", err)
		}
		violations, err = uc.unpaid(ctx, c, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	t, err := uc.tariffs.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading tariff: %w", err)
	}
	base := t.BaseCharge(sess.Class, sess.EnteredAt, fact.Timestamp)
	var penalty model.Cents
	for i := range violations {
		penalty += violations[i].Penalty
	}
	total := base + penalty
	if total > 0 {
		req := model.PaymentRequest{
			SessionID:      sess.ID,
			Amount:         total,
			IdempotencyKey: idempotencyKey(sess.ID, fact.Timestamp),
		}
		if err := uc.payments.Charge(ctx, req); err != nil {
			return nil, cerr.PaymentRequired(&PaymentDeclinedError{
				SessionID: sess.ID,
				Cause:     err,
			})
		}
	}
	return uc.close(ctx, sess.ID, fact.Timestamp, violations, base, penalty)
}

// idempotencyKey derives the payment-port key from the session id and
// the attempt epoch, so a redelivered exit fact reuses the same key.
func idempotencyKey(sessionID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s:%d", sessionID, at.Unix())
}

// unpaid collects the unresolved violations folded into a settlement:
// those linked to the session plus the unauthorized ones recorded
// directly on the session's slot.
func (uc *UseCase) unpaid(
	ctx context.Context, c repo.Conn, sess *model.Session,
) ([]model.Violation, error) {
	vq := uc.violationsrp.Conn(c)
	bySession, err := vq.UnpaidBySession(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("reading session violations: %w", err)
	}
	bySlot, err := vq.UnpaidBySlot(ctx, sess.SlotID)
	if err != nil {
		return nil, fmt.Errorf("reading slot violations: %w", err)
	}
	seen := make(map[uuid.UUID]struct{}, len(bySession))
	out := bySession
	for i := range bySession {
		seen[bySession[i].ID] = struct{}{}
	}
	for i := range bySlot {
		if _, ok := seen[bySlot[i].ID]; !ok {
			out = append(out, bySlot[i])
		}
	}
	return out, nil
}

// close commits the multi-record settlement unit, retrying store-only
// on conflicts since the payment is already captured at this point.
func (uc *UseCase) close(
	ctx context.Context, sessionID uuid.UUID, exitedAt time.Time,
	violations []model.Violation, base, penalty model.Cents,
) (*model.Transaction, error) {
	included := make(map[uuid.UUID]struct{}, len(violations))
	for i := range violations {
		included[violations[i].ID] = struct{}{}
	}
	var lastErr error
	for attempt := 0; attempt < uc.commitAttempts; attempt++ {
		trans, err := uc.tryClose(
			ctx, sessionID, exitedAt, included, base, penalty,
		)
		switch {
		case err == nil:
			return trans, nil
		case errors.Is(err, errAlreadySettled):
			// a concurrent settlement won; its transaction stands
			return uc.completed(ctx, sessionID)
		case errors.Is(err, repo.ErrConflict):
			lastErr = err
			continue
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("closing session %v: %w", sessionID, lastErr)
}

func (uc *UseCase) tryClose(
	ctx context.Context, sessionID uuid.UUID, exitedAt time.Time,
	included map[uuid.UUID]struct{}, base, penalty model.Cents,
) (trans *model.Transaction, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		sess, err := uc.sessionsrp.Conn(c).ByID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("re-reading session: %w", err)
		}
		if sess.Status != model.SessionParked {
			return errAlreadySettled
		}
		slot, err := uc.slotsrp.Conn(c).ByID(ctx, sess.SlotID)
		if err != nil {
			return fmt.Errorf("re-reading slot: %w", err)
		}
		fresh, err := uc.unpaid(ctx, c, sess)
		if err != nil {
			return err
		}
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			seq := uc.sessionsrp.Tx(tx)
			if err := seq.Close(
				ctx, sess.ID, sess.Version, exitedAt,
			); err != nil {
				return fmt.Errorf("closing session: %w", err)
			}
			if slot.Status == model.StatusOccupied {
				avg := smooth(
					slot.AvgStay, exitedAt.Sub(sess.EnteredAt),
					uc.smoothing,
				)
				if err := uc.slotsrp.Tx(tx).Release(
					ctx, slot.ID, slot.Version, avg,
				); err != nil {
					return fmt.Errorf("releasing slot: %w", err)
				}
			}
			vq := uc.violationsrp.Tx(tx)
			for i := range fresh {
				if _, ok := included[fresh[i].ID]; !ok {
					continue
				}
				if err := vq.MarkPaid(
					ctx, fresh[i].ID, fresh[i].Version,
				); err != nil {
					return fmt.Errorf("resolving violation: %w", err)
				}
			}
			t := &model.Transaction{
				ID:        uuid.New(),
				SessionID: sess.ID,
				Base:      base,
				Penalty:   penalty,
				Total:     base + penalty,
				Outcome:   model.TxCompleted,
				CreatedAt: exitedAt,
			}
			if err := uc.transrp.Tx(tx).Create(ctx, t); err != nil {
				return fmt.Errorf("recording transaction: %w", err)
			}
			trans = t
			return nil
		})
	})
	if err != nil {
		trans = nil
	}
	return
}

// completed returns the transaction of an already settled session.
func (uc *UseCase) completed(
	ctx context.Context, sessionID uuid.UUID,
) (trans *model.Transaction, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		trans, err = uc.transrp.Conn(c).CompletedBySession(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf(
			"reading transaction of session %v: %w", sessionID, err,
		)
	}
	return trans, nil
}

// smooth folds a new stay duration into the rolling average with
// exponential smoothing.
func smooth(old, d time.Duration, a float64) time.Duration {
	if old == 0 {
		return d
	}
	return old + time.Duration(a*float64(d-old))
}
