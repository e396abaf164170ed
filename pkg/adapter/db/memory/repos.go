// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/repo"
)

// SlotsRepo implements repo.Slots over the in-memory store.
type SlotsRepo struct{}

func NewSlots() *SlotsRepo {
	return &SlotsRepo{}
}

func (r *SlotsRepo) Conn(c repo.Conn) repo.SlotsConnQueryer {
	return slotsQueryer{c.(*Conn)}
}

func (r *SlotsRepo) Tx(tx repo.Tx) repo.SlotsTxQueryer {
	return slotsQueryer{tx.(*Tx)}
}

type slotsQueryer struct {
	exec executor
}

func (q slotsQueryer) All(ctx context.Context) (out []model.Slot, err error) {
	err = q.exec.view(func(st *state) error {
		for _, s := range st.slots {
			out = append(out, s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return
}

func (q slotsQueryer) ByID(ctx context.Context, slotID string) (slot *model.Slot, err error) {
	err = q.exec.view(func(st *state) error {
		s, ok := st.slots[slotID]
		if !ok {
			return repo.ErrNotFound
		}
		slot = &s
		return nil
	})
	return
}

func (q slotsQueryer) Create(ctx context.Context, s *model.Slot) error {
	return q.exec.update(func(st *state) error {
		if _, ok := st.slots[s.ID]; ok {
			return repo.ErrConflict
		}
		rec := *s
		if rec.Version == 0 {
			rec.Version = 1
		}
		st.slots[s.ID] = rec
		return nil
	})
}

func (q slotsQueryer) Reserve(
	ctx context.Context, slotID string, version int64, at time.Time,
) error {
	return q.exec.update(func(st *state) error {
		s, ok := st.slots[slotID]
		if !ok || s.Version != version || s.Status != model.StatusVacant {
			return repo.ErrConflict
		}
		for _, sess := range st.sessions {
			if sess.SlotID == slotID &&
				sess.Status == model.SessionParked {
				return repo.ErrConflict
			}
		}
		s.Status = model.StatusOccupied
		s.OccupiedSince = at
		s.Version++
		st.slots[slotID] = s
		return nil
	})
}

func (q slotsQueryer) Release(
	ctx context.Context, slotID string, version int64, avgStay time.Duration,
) error {
	return q.exec.update(func(st *state) error {
		s, ok := st.slots[slotID]
		if !ok || s.Version != version ||
			s.Status != model.StatusOccupied {
			return repo.ErrConflict
		}
		s.Status = model.StatusVacant
		s.OccupiedSince = time.Time{}
		s.AvgStay = avgStay
		s.Version++
		st.slots[slotID] = s
		return nil
	})
}

func (q slotsQueryer) SetObserved(ctx context.Context, s *model.Slot) error {
	return q.exec.update(func(st *state) error {
		cur, ok := st.slots[s.ID]
		if !ok || cur.Version != s.Version {
			return repo.ErrConflict
		}
		cur.Status = s.Status
		cur.ObservedAt = s.ObservedAt
		cur.OccupiedSince = s.OccupiedSince
		cur.SensorID = s.SensorID
		cur.Version++
		st.slots[s.ID] = cur
		return nil
	})
}

// SessionsRepo implements repo.Sessions over the in-memory store.
type SessionsRepo struct{}

func NewSessions() *SessionsRepo {
	return &SessionsRepo{}
}

func (r *SessionsRepo) Conn(c repo.Conn) repo.SessionsConnQueryer {
	return sessionsQueryer{c.(*Conn)}
}

func (r *SessionsRepo) Tx(tx repo.Tx) repo.SessionsTxQueryer {
	return sessionsQueryer{tx.(*Tx)}
}

type sessionsQueryer struct {
	exec executor
}

func (q sessionsQueryer) Create(ctx context.Context, s *model.Session) error {
	return q.exec.update(func(st *state) error {
		if _, ok := st.sessions[s.ID]; ok {
			return repo.ErrConflict
		}
		for _, other := range st.sessions {
			if other.SlotID == s.SlotID &&
				other.Status == model.SessionParked {
				return repo.ErrConflict
			}
		}
		rec := *s
		if rec.Version == 0 {
			rec.Version = 1
			s.Version = 1
		}
		st.sessions[s.ID] = rec
		return nil
	})
}

func (q sessionsQueryer) ByID(ctx context.Context, id uuid.UUID) (sess *model.Session, err error) {
	err = q.exec.view(func(st *state) error {
		s, ok := st.sessions[id]
		if !ok {
			return repo.ErrNotFound
		}
		sess = &s
		return nil
	})
	return
}

func (q sessionsQueryer) Parked(ctx context.Context) (out []model.Session, err error) {
	err = q.exec.view(func(st *state) error {
		for _, s := range st.sessions {
			if s.Status == model.SessionParked {
				out = append(out, s)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return
}

func (q sessionsQueryer) ParkedByTag(ctx context.Context, tagID string) (sess *model.Session, err error) {
	err = q.exec.view(func(st *state) error {
		for _, s := range st.sessions {
			if s.TagID == tagID && s.Status == model.SessionParked {
				found := s
				sess = &found
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return
}

func (q sessionsQueryer) Close(
	ctx context.Context, id uuid.UUID, version int64, exitedAt time.Time,
) error {
	return q.exec.update(func(st *state) error {
		s, ok := st.sessions[id]
		if !ok || s.Version != version ||
			s.Status != model.SessionParked {
			return repo.ErrConflict
		}
		t := exitedAt
		s.Status = model.SessionExited
		s.ExitedAt = &t
		s.Version++
		st.sessions[id] = s
		return nil
	})
}

func (q sessionsQueryer) History(
	ctx context.Context, plate string, from, to time.Time,
) (out []model.Session, err error) {
	err = q.exec.view(func(st *state) error {
		for _, s := range st.sessions {
			if plate != "" && s.Plate != plate {
				continue
			}
			if !from.IsZero() && s.EnteredAt.Before(from) {
				continue
			}
			if !to.IsZero() && s.EnteredAt.After(to) {
				continue
			}
			out = append(out, s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].EnteredAt.After(out[j].EnteredAt)
	})
	return
}

// ViolationsRepo implements repo.Violations over the in-memory store.
type ViolationsRepo struct{}

func NewViolations() *ViolationsRepo {
	return &ViolationsRepo{}
}

func (r *ViolationsRepo) Conn(c repo.Conn) repo.ViolationsConnQueryer {
	return violationsQueryer{c.(*Conn)}
}

func (r *ViolationsRepo) Tx(tx repo.Tx) repo.ViolationsTxQueryer {
	return violationsQueryer{tx.(*Tx)}
}

type violationsQueryer struct {
	exec executor
}

func (q violationsQueryer) Create(ctx context.Context, v *model.Violation) error {
	return q.exec.update(func(st *state) error {
		if _, ok := st.violations[v.ID]; ok {
			return repo.ErrConflict
		}
		rec := *v
		if rec.Version == 0 {
			rec.Version = 1
			v.Version = 1
		}
		st.violations[v.ID] = rec
		return nil
	})
}

func (q violationsQueryer) UnpaidBySession(
	ctx context.Context, sessionID uuid.UUID,
) (out []model.Violation, err error) {
	err = q.exec.view(func(st *state) error {
		for _, v := range st.violations {
			if v.Status == model.ViolationUnpaid &&
				v.SessionID != nil && *v.SessionID == sessionID {
				out = append(out, v)
			}
		}
		return nil
	})
	sortViolations(out)
	return
}

func (q violationsQueryer) UnpaidBySlot(
	ctx context.Context, slotID string,
) (out []model.Violation, err error) {
	err = q.exec.view(func(st *state) error {
		for _, v := range st.violations {
			if v.Status == model.ViolationUnpaid &&
				v.SessionID == nil && v.SlotID == slotID {
				out = append(out, v)
			}
		}
		return nil
	})
	sortViolations(out)
	return
}

func (q violationsQueryer) ByStatus(
	ctx context.Context, status model.ViolationStatus,
) (out []model.Violation, err error) {
	err = q.exec.view(func(st *state) error {
		for _, v := range st.violations {
			if v.Status == status {
				out = append(out, v)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	return
}

func (q violationsQueryer) MarkPaid(
	ctx context.Context, id uuid.UUID, version int64,
) error {
	return q.exec.update(func(st *state) error {
		v, ok := st.violations[id]
		if !ok || v.Version != version ||
			v.Status != model.ViolationUnpaid {
			return repo.ErrConflict
		}
		v.Status = model.ViolationPaid
		v.Version++
		st.violations[id] = v
		return nil
	})
}

func sortViolations(vs []model.Violation) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].DetectedAt.Equal(vs[j].DetectedAt) {
			return vs[i].ID.String() < vs[j].ID.String()
		}
		return vs[i].DetectedAt.Before(vs[j].DetectedAt)
	})
}

// TransactionsRepo implements repo.Transactions over the in-memory
// store.
type TransactionsRepo struct{}

func NewTransactions() *TransactionsRepo {
	return &TransactionsRepo{}
}

func (r *TransactionsRepo) Conn(c repo.Conn) repo.TransactionsConnQueryer {
	return transactionsQueryer{c.(*Conn)}
}

func (r *TransactionsRepo) Tx(tx repo.Tx) repo.TransactionsTxQueryer {
	return transactionsQueryer{tx.(*Tx)}
}

type transactionsQueryer struct {
	exec executor
}

func (q transactionsQueryer) Create(ctx context.Context, t *model.Transaction) error {
	return q.exec.update(func(st *state) error {
		if _, ok := st.transactions[t.ID]; ok {
			return repo.ErrConflict
		}
		if t.Outcome == model.TxCompleted {
			for _, other := range st.transactions {
				if other.SessionID == t.SessionID &&
					other.Outcome == model.TxCompleted {
					return repo.ErrConflict
				}
			}
		}
		st.transactions[t.ID] = *t
		return nil
	})
}

func (q transactionsQueryer) CompletedBySession(
	ctx context.Context, sessionID uuid.UUID,
) (trans *model.Transaction, err error) {
	err = q.exec.view(func(st *state) error {
		for _, t := range st.transactions {
			if t.SessionID == sessionID &&
				t.Outcome == model.TxCompleted {
				found := t
				trans = &found
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return
}
