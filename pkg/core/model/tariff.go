// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"fmt"
	"math"
	"time"
)

// PeakWindow is a recurring daily window with an increased billing
// multiplier. Hours are expressed in the facility local time zone as
// a half-open [Start, End) range with 0 <= Start < End <= 24.
type PeakWindow struct {
	Start      int     // starting hour of day, inclusive
	End        int     // ending hour of day, exclusive
	Multiplier float64 // applied to the base charge on overlap
}

// Overlaps reports whether any instant of the [from, to) interval
// falls inside this daily window.
func (w PeakWindow) Overlaps(from, to time.Time) bool {
	if !from.Before(to) {
		return false
	}
	if to.Sub(from) >= 24*time.Hour {
		return true
	}
	s := float64(from.Hour()) +
		float64(from.Minute())/60 +
		float64(from.Second())/3600
	e := s + to.Sub(from).Hours()
	ws, we := float64(w.Start), float64(w.End)
	// The stay interval [s, e) may wrap past midnight, so the window
	// is tested both in its own day and shifted by one day.
	return (s < we && ws < e) || (s < we+24 && ws+24 < e)
}

// Tariff is the billing configuration read by the allocator, the
// violation scanner, and settlement. It is administered outside this
// core and treated as eventually-consistent: read at point of use,
// never cached beyond the configured propagation delay.
type Tariff struct {
	HourlyRate map[SizeClass]Cents         // per started hour
	MaxStay    map[SizeClass]time.Duration // overstay threshold
	Peaks      []PeakWindow

	OverstayGrace   time.Duration // tolerated excess before a violation
	OverstayBase    Cents         // fixed part of an overstay penalty
	OverstayPerHour Cents         // per started hour beyond the max stay

	UnauthorizedPenalty Cents

	// EscalationStep raises repeat-offender penalties: a new violation
	// with n unresolved predecessors is multiplied by 1 + step*n.
	EscalationStep float64

	// ShortStay is the average-stay threshold below which a slot earns
	// the quick-turnover allocation bonus. HighDemand is the occupancy
	// ratio at and above which that bonus is doubled.
	ShortStay  time.Duration
	HighDemand float64

	UpdatedAt time.Time
	UpdatedBy string
}

// Validate returns an error if the tariff is not usable for billing.
func (t *Tariff) Validate() error {
	for _, c := range SizeClasses() {
		if t.HourlyRate[c] <= 0 {
			return fmt.Errorf("missing hourly rate for class %v", c)
		}
		if t.MaxStay[c] <= 0 {
			return fmt.Errorf("missing max stay for class %v", c)
		}
	}
	for i, w := range t.Peaks {
		if w.Start < 0 || w.End > 24 || w.Start >= w.End {
			return fmt.Errorf("peak window %d: bad range [%d, %d)", i, w.Start, w.End)
		}
		if w.Multiplier < 1 {
			return fmt.Errorf("peak window %d: multiplier below 1", i)
		}
	}
	return nil
}

// BilledHours returns the number of started hours of the d stay.
// Stays are billed per started hour, so a 150 minute stay bills as 3.
func BilledHours(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Hour - 1) / time.Hour)
}

// PeakMultiplier returns the billing multiplier for a stay spanning
// [from, to): the largest multiplier among overlapping peak windows,
// or 1 when the stay is entirely off-peak.
func (t *Tariff) PeakMultiplier(from, to time.Time) float64 {
	m := 1.0
	for _, w := range t.Peaks {
		if w.Overlaps(from, to) && w.Multiplier > m {
			m = w.Multiplier
		}
	}
	return m
}

// BaseCharge computes the duration charge of a stay: started hours
// times the hourly rate of the class, times the peak multiplier when
// the billed interval overlaps a peak window.
func (t *Tariff) BaseCharge(class SizeClass, from, to time.Time) Cents {
	base := Cents(BilledHours(to.Sub(from))) * t.HourlyRate[class]
	if m := t.PeakMultiplier(from, to); m != 1 {
		base = Cents(math.Round(float64(base) * m))
	}
	return base
}

// OverstayPenalty computes the penalty of an overstay which exceeded
// the class max stay by the excess duration (grace already elapsed).
func (t *Tariff) OverstayPenalty(excess time.Duration) Cents {
	return t.OverstayBase + Cents(BilledHours(excess))*t.OverstayPerHour
}

// Escalate raises the p penalty for a subject which already has
// unresolved prior violations, using the additive escalation policy.
func (t *Tariff) Escalate(p Cents, unresolved int) Cents {
	if unresolved <= 0 || t.EscalationStep <= 0 {
		return p
	}
	f := 1 + t.EscalationStep*float64(unresolved)
	return Cents(math.Round(float64(p) * f))
}
