// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scanuc contains the violation scanner use case. Scanning is
// a pure detection pass over a consistent snapshot: repeated scans of
// an unchanged state create no duplicate open violations. The only
// mutation is the single insert of each newly detected violation.
package scanuc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/core/log"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/port"
	"github.com/momeni/parkcore/pkg/core/repo"
)

// UseCase represents the violation scanner use case.
type UseCase struct {
	pool         repo.Pool
	slotsrp      repo.Slots
	sessionsrp   repo.Sessions
	violationsrp repo.Violations
	tariffs      port.TariffSource
	evidence     port.EvidenceCapturer
}

// New instantiates a violation scanner use case.
func New(
	p repo.Pool, sl repo.Slots, se repo.Sessions, vi repo.Violations,
	t port.TariffSource, ev port.EvidenceCapturer,
) *UseCase {
	return &UseCase{
		pool: p, slotsrp: sl, sessionsrp: se, violationsrp: vi,
		tariffs: t, evidence: ev,
	}
}

// Scan detects overstay and unauthorized-occupancy conditions at the
// now instant and returns the newly created violations. It may run on
// the fixed interval tick or incrementally on state-change
// notifications; both invocations are equivalent.
func (uc *UseCase) Scan(
	ctx context.Context, now time.Time,
) ([]model.Violation, error) {
	t, err := uc.tariffs.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading tariff: %w", err)
	}
	var created []model.Violation
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		over, err := uc.scanOverstays(ctx, c, t, now)
		if err != nil {
			return err
		}
		created = append(created, over...)
		unauth, err := uc.scanUnauthorized(ctx, c, t, now)
		if err != nil {
			return err
		}
		created = append(created, unauth...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// scanOverstays checks every parked session against its class max
// stay plus the grace period. A session with an unresolved overstay
// violation is skipped, which makes the pass idempotent.
func (uc *UseCase) scanOverstays(
	ctx context.Context, c repo.Conn, t *model.Tariff, now time.Time,
) ([]model.Violation, error) {
	sq := uc.sessionsrp.Conn(c)
	vq := uc.violationsrp.Conn(c)
	parked, err := sq.Parked(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading parked sessions: %w", err)
	}
	var created []model.Violation
	for i := range parked {
		sess := &parked[i]
		maxStay := t.MaxStay[sess.Class]
		elapsed := sess.Duration(now)
		if elapsed <= maxStay+t.OverstayGrace {
			continue
		}
		open, err := vq.UnpaidBySession(ctx, sess.ID)
		if err != nil {
			return nil, fmt.Errorf(
				"reading open violations of session %v: %w", sess.ID, err,
			)
		}
		if hasType(open, model.ViolationOverstay) {
			continue
		}
		penalty := t.Escalate(
			t.OverstayPenalty(elapsed-maxStay), len(open),
		)
		sid := sess.ID
		v := model.Violation{
			ID:         uuid.New(),
			Type:       model.ViolationOverstay,
			DetectedAt: now,
			SessionID:  &sid,
			SlotID:     sess.SlotID,
			Penalty:    penalty,
			Status:     model.ViolationUnpaid,
			Evidence:   uc.capture(ctx, sess.SlotID),
		}
		if err := vq.Create(ctx, &v); err != nil {
			return nil, fmt.Errorf("creating overstay violation: %w", err)
		}
		created = append(created, v)
	}
	return created, nil
}

// scanUnauthorized checks every physically occupied slot without a
// parked session. Detection is deduplicated per continuous occupancy
// episode: an open unauthorized violation with the same episode key
// suppresses a new one, while a fresh episode on the same slot does
// not.
func (uc *UseCase) scanUnauthorized(
	ctx context.Context, c repo.Conn, t *model.Tariff, now time.Time,
) ([]model.Violation, error) {
	slq := uc.slotsrp.Conn(c)
	seq := uc.sessionsrp.Conn(c)
	vq := uc.violationsrp.Conn(c)
	slots, err := slq.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading slots: %w", err)
	}
	parked, err := seq.Parked(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading parked sessions: %w", err)
	}
	held := make(map[string]struct{}, len(parked))
	for i := range parked {
		held[parked[i].SlotID] = struct{}{}
	}
	var created []model.Violation
	for _, slot := range slots {
		if slot.Status != model.StatusOccupied {
			continue
		}
		if _, ok := held[slot.ID]; ok {
			continue
		}
		open, err := vq.UnpaidBySlot(ctx, slot.ID)
		if err != nil {
			return nil, fmt.Errorf(
				"reading open violations of slot %q: %w", slot.ID, err,
			)
		}
		if hasEpisode(open, slot.OccupiedSince) {
			continue
		}
		v := model.Violation{
			ID:         uuid.New(),
			Type:       model.ViolationUnauthorized,
			DetectedAt: now,
			SlotID:     slot.ID,
			EpisodeAt:  slot.OccupiedSince,
			Penalty:    t.Escalate(t.UnauthorizedPenalty, len(open)),
			Status:     model.ViolationUnpaid,
			Evidence:   uc.capture(ctx, slot.ID),
		}
		if err := vq.Create(ctx, &v); err != nil {
			return nil, fmt.Errorf(
				"creating unauthorized violation: %w", err,
			)
		}
		created = append(created, v)
	}
	return created, nil
}

// capture asks the detection port for an evidence reference. A port
// failure must not suppress the detection itself, so it degrades to
// an empty reference with a warning.
func (uc *UseCase) capture(ctx context.Context, slotID string) string {
	ref, err := uc.evidence.Capture(ctx, slotID)
	if err != nil {
		log.Warn(ctx, "evidence capture failed",
			slog.String("slot", slotID), log.Err("error", err),
		)
		return ""
	}
	return ref
}

func hasType(vs []model.Violation, t model.ViolationType) bool {
	for i := range vs {
		if vs[i].Type == t {
			return true
		}
	}
	return false
}

func hasEpisode(vs []model.Violation, episode time.Time) bool {
	for i := range vs {
		if vs[i].Type == model.ViolationUnauthorized &&
			vs[i].EpisodeAt.Equal(episode) {
			return true
		}
	}
	return false
}
