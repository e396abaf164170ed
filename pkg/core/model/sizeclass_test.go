// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model_test

import (
	"testing"
	"time"

	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSizeClass(t *testing.T) {
	for _, name := range []string{"compact", "sedan", "suv", "truck"} {
		c, err := model.ParseSizeClass(name)
		require.NoError(t, err, "parsing %q", name)
		assert.Equal(t, name, c.String())
		assert.NoError(t, c.Validate())
	}
	c, err := model.ParseSizeClass("bicycle")
	assert.ErrorIs(t, err, model.ErrUnknownSizeClass)
	assert.Equal(t, model.SizeClassInvalid, c)
}

func TestSizeClassValidate(t *testing.T) {
	err := model.SizeClass(0).Validate()
	var scerr model.SizeClassError
	require.ErrorAs(t, err, &scerr)
	assert.Equal(t, model.SizeClassError(0), scerr)
	assert.Error(t, model.SizeClass(42).Validate())
}

func TestSizeClassFits(t *testing.T) {
	assert.True(t, model.SizeClassSUV.Fits(model.SizeClassSedan))
	assert.True(t, model.SizeClassSedan.Fits(model.SizeClassSedan))
	assert.False(t, model.SizeClassCompact.Fits(model.SizeClassSedan),
		"a smaller slot must never host a larger vehicle")
	assert.True(t, model.SizeClassTruck.Fits(model.SizeClassCompact))
}

func TestSizeClassStringPanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() {
		_ = model.SizeClassInvalid.String()
	})
}

func TestSessionDuration(t *testing.T) {
	entered := at(10, 0)
	s := &model.Session{EnteredAt: entered}
	assert.Equal(
		t, 90*time.Minute, s.Duration(entered.Add(90*time.Minute)),
		"parked sessions measure against the now instant",
	)
	exited := entered.Add(2 * time.Hour)
	s.ExitedAt = &exited
	assert.Equal(
		t, 2*time.Hour, s.Duration(entered.Add(5*time.Hour)),
		"exited sessions keep their final duration",
	)
}
