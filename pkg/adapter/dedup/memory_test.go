// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package dedup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySeenWithinRetention(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	seen, err := m.Seen(ctx, "fact-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, seen, "first delivery")

	base = base.Add(10 * time.Minute)
	seen, err = m.Seen(ctx, "fact-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, seen, "redelivery within the retention window")

	seen, err = m.Seen(ctx, "fact-2", time.Hour)
	require.NoError(t, err)
	assert.False(t, seen, "unrelated fact ids are independent")
}

func TestMemorySeenExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	_, err := m.Seen(ctx, "fact-1", time.Hour)
	require.NoError(t, err)

	base = base.Add(2 * time.Hour)
	seen, err := m.Seen(ctx, "fact-1", time.Hour)
	require.NoError(t, err)
	assert.False(
		t, seen,
		"an expired record no longer marks the fact as processed",
	)
}

func TestMemoryPurgeDropsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	for i := 0; i < 100; i++ {
		_, err := m.Seen(
			ctx, fmt.Sprintf("fact-%d", i), time.Minute,
		)
		require.NoError(t, err)
	}
	base = base.Add(3 * time.Minute)
	_, err := m.Seen(ctx, "fresh", time.Minute)
	require.NoError(t, err)
	assert.Len(
		t, m.seen, 1,
		"expired entries are purged off the hot path",
	)
}
