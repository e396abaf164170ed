// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package dedup implements the processed-facts dedup store, both as a
// process-local map (single node deployments and tests) and over a
// shared Redis instance (multi consumer deployments). Both variants
// are best-effort caches; losing their content only costs redundant
// reprocessing which the state store resolves anyway.
package dedup

import (
	"context"
	"sync"
	"time"
)

// Memory is the process-local dedup store.
type Memory struct {
	mu        sync.Mutex
	seen      map[string]time.Time // fact id to expiry instant
	lastPurge time.Time
	now       func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (m *Memory) Seen(
	ctx context.Context, factID string, retention time.Duration,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.purge(now)
	if expiry, ok := m.seen[factID]; ok && now.Before(expiry) {
		return true, nil
	}
	m.seen[factID] = now.Add(retention)
	return false, nil
}

// purge drops expired entries, at most once per minute so the map
// walk does not dominate the hot path.
func (m *Memory) purge(now time.Time) {
	if now.Sub(m.lastPurge) < time.Minute {
		return
	}
	m.lastPurge = now
	for id, expiry := range m.seen {
		if !now.Before(expiry) {
			delete(m.seen, id)
		}
	}
}
