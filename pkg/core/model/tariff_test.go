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
)

func at(hour, min int) time.Time {
	return time.Date(2026, 8, 20, hour, min, 0, 0, time.UTC)
}

func validTariff() *model.Tariff {
	return &model.Tariff{
		HourlyRate: map[model.SizeClass]model.Cents{
			model.SizeClassCompact: 100,
			model.SizeClassSedan:   150,
			model.SizeClassSUV:     200,
			model.SizeClassTruck:   300,
		},
		MaxStay: map[model.SizeClass]time.Duration{
			model.SizeClassCompact: 4 * time.Hour,
			model.SizeClassSedan:   4 * time.Hour,
			model.SizeClassSUV:     6 * time.Hour,
			model.SizeClassTruck:   8 * time.Hour,
		},
		OverstayGrace:       15 * time.Minute,
		OverstayBase:        500,
		OverstayPerHour:     200,
		UnauthorizedPenalty: 2000,
		EscalationStep:      0.5,
		ShortStay:           45 * time.Minute,
		HighDemand:          0.85,
	}
}

func TestBilledHours(t *testing.T) {
	for _, tc := range []struct {
		name string
		d    time.Duration
		want int64
	}{
		{"zero", 0, 0},
		{"negative", -5 * time.Minute, 0},
		{"one nanosecond starts an hour", time.Nanosecond, 1},
		{"under an hour", 59 * time.Minute, 1},
		{"exactly an hour", time.Hour, 1},
		{"just over an hour", 61 * time.Minute, 2},
		{"150 minutes bill as 3", 150 * time.Minute, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, model.BilledHours(tc.d))
		})
	}
}

func TestPeakWindowOverlaps(t *testing.T) {
	morning := model.PeakWindow{Start: 8, End: 11, Multiplier: 1.5}
	night := model.PeakWindow{Start: 0, End: 2, Multiplier: 2}
	for _, tc := range []struct {
		name     string
		w        model.PeakWindow
		from, to time.Time
		want     bool
	}{
		{
			"stay ends as the window opens",
			morning, at(7, 0), at(8, 30), true,
		},
		{
			"stay starts at the window close",
			morning, at(11, 0), at(12, 0), false,
		},
		{
			"stay inside the window",
			morning, at(9, 0), at(9, 30), true,
		},
		{
			"stay entirely before the window",
			morning, at(6, 0), at(7, 59), false,
		},
		{
			"stay wraps past midnight into the window",
			night, at(23, 0), at(23, 0).Add(2 * time.Hour), true,
		},
		{
			"empty interval",
			morning, at(9, 0), at(9, 0), false,
		},
		{
			"full day stay always overlaps",
			night, at(9, 0), at(9, 0).Add(24 * time.Hour), true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.w.Overlaps(tc.from, tc.to))
		})
	}
}

func TestPeakMultiplier(t *testing.T) {
	tr := validTariff()
	tr.Peaks = []model.PeakWindow{
		{Start: 8, End: 11, Multiplier: 1.5},
		{Start: 10, End: 12, Multiplier: 1.8},
	}
	assert.Equal(t, 1.0, tr.PeakMultiplier(at(13, 0), at(15, 0)),
		"off-peak stay must not be multiplied")
	assert.Equal(t, 1.5, tr.PeakMultiplier(at(7, 0), at(9, 0)))
	assert.Equal(t, 1.8, tr.PeakMultiplier(at(9, 0), at(13, 0)),
		"the largest overlapping multiplier wins")
}

func TestBaseCharge(t *testing.T) {
	tr := validTariff()
	tr.Peaks = []model.PeakWindow{
		{Start: 8, End: 11, Multiplier: 1.5},
	}
	assert.Equal(
		t, model.Cents(450),
		tr.BaseCharge(model.SizeClassSedan, at(12, 0), at(14, 30)),
		"150 minutes off-peak bill as 3 started hours",
	)
	assert.Equal(
		t, model.Cents(450),
		tr.BaseCharge(model.SizeClassSedan, at(10, 0), at(12, 0)),
		"2 hours at 150 with the 1.5 peak multiplier",
	)
	assert.Equal(
		t, model.Cents(0),
		tr.BaseCharge(model.SizeClassSedan, at(12, 0), at(12, 0)),
	)
}

func TestOverstayPenalty(t *testing.T) {
	tr := validTariff()
	assert.Equal(t, model.Cents(500), tr.OverstayPenalty(0))
	assert.Equal(t, model.Cents(700), tr.OverstayPenalty(time.Hour))
	assert.Equal(
		t, model.Cents(900), tr.OverstayPenalty(61*time.Minute),
	)
}

func TestEscalate(t *testing.T) {
	tr := validTariff()
	assert.Equal(t, model.Cents(500), tr.Escalate(500, 0))
	assert.Equal(t, model.Cents(750), tr.Escalate(500, 1))
	assert.Equal(t, model.Cents(1000), tr.Escalate(500, 2))
	assert.Equal(
		t, model.Cents(500), tr.Escalate(333, 1),
		"escalated penalties round half away from zero",
	)
	tr.EscalationStep = 0
	assert.Equal(t, model.Cents(500), tr.Escalate(500, 3))
}

func TestTariffValidate(t *testing.T) {
	tr := validTariff()
	assert.NoError(t, tr.Validate())

	tr = validTariff()
	delete(tr.HourlyRate, model.SizeClassSUV)
	assert.Error(t, tr.Validate(), "a class without a rate")

	tr = validTariff()
	delete(tr.MaxStay, model.SizeClassTruck)
	assert.Error(t, tr.Validate(), "a class without a max stay")

	tr = validTariff()
	tr.Peaks = []model.PeakWindow{{Start: 11, End: 8, Multiplier: 1.5}}
	assert.Error(t, tr.Validate(), "inverted peak window")

	tr = validTariff()
	tr.Peaks = []model.PeakWindow{{Start: 8, End: 11, Multiplier: 0.5}}
	assert.Error(t, tr.Validate(), "discounting peak multiplier")
}
