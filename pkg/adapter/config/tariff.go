// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/momeni/parkcore/pkg/adapter/config/settings"
	"github.com/momeni/parkcore/pkg/core/model"
	"gopkg.in/yaml.v3"
)

// Tariff contains the billing configuration source settings. The
// tariff itself lives in its own yaml file, maintained by the parking
// administration, and is re-read whenever the cached copy grows older
// than the max-age bound; a tariff change thus propagates within that
// bound without restarting the daemon.
type Tariff struct {
	Path   string            `yaml:"path"`
	MaxAge settings.Duration `yaml:"max-age"`
}

func (t *Tariff) ValidateAndNormalize() error {
	if t.Path == "" {
		return fmt.Errorf("tariff file path is required")
	}
	if t.MaxAge <= 0 {
		t.MaxAge = settings.Duration(time.Minute)
	}
	return nil
}

// NewTariffSource instantiates the file-backed tariff source,
// verifying that the tariff file is loadable right away.
func (t Tariff) NewTariffSource() (*TariffSource, error) {
	s := &TariffSource{
		path:   t.Path,
		maxAge: t.MaxAge.Std(),
		now:    time.Now,
	}
	if _, err := s.Current(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// TariffSource serves the billing configuration with bounded
// staleness, implementing the port.TariffSource interface.
type TariffSource struct {
	path   string
	maxAge time.Duration
	now    func() time.Time

	mu       sync.Mutex
	cached   *model.Tariff
	loadedAt time.Time
}

func (s *TariffSource) Current(ctx context.Context) (*model.Tariff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.cached != nil && now.Sub(s.loadedAt) < s.maxAge {
		return s.cached, nil
	}
	t, err := loadTariffFile(s.path)
	if err != nil {
		// keep serving the last good tariff within its bound
		if s.cached != nil && now.Sub(s.loadedAt) < 2*s.maxAge {
			return s.cached, fmt.Errorf("reloading tariff: %w", err)
		}
		return nil, fmt.Errorf("loading tariff: %w", err)
	}
	s.cached = t
	s.loadedAt = now
	return t, nil
}

// tariffFile is the yaml representation of the model.Tariff, keyed by
// size-class names and using human-readable durations.
type tariffFile struct {
	HourlyRate map[string]int64             `yaml:"hourly-rate"`
	MaxStay    map[string]settings.Duration `yaml:"max-stay"`
	Peaks      []struct {
		Start      int     `yaml:"start"`
		End        int     `yaml:"end"`
		Multiplier float64 `yaml:"multiplier"`
	} `yaml:"peaks"`
	OverstayGrace       settings.Duration `yaml:"overstay-grace"`
	OverstayBase        int64             `yaml:"overstay-base"`
	OverstayPerHour     int64             `yaml:"overstay-per-hour"`
	UnauthorizedPenalty int64             `yaml:"unauthorized-penalty"`
	EscalationStep      float64           `yaml:"escalation-step"`
	ShortStay           settings.Duration `yaml:"short-stay"`
	HighDemand          float64           `yaml:"high-demand"`
	UpdatedAt           time.Time         `yaml:"updated-at"`
	UpdatedBy           string            `yaml:"updated-by"`
}

func loadTariffFile(path string) (*model.Tariff, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tariff file: %w", err)
	}
	var tf tariffFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("unmarshaling yaml: %w", err)
	}
	return tf.Model()
}

func (tf *tariffFile) Model() (*model.Tariff, error) {
	t := &model.Tariff{
		HourlyRate:          make(map[model.SizeClass]model.Cents),
		MaxStay:             make(map[model.SizeClass]time.Duration),
		OverstayGrace:       tf.OverstayGrace.Std(),
		OverstayBase:        model.Cents(tf.OverstayBase),
		OverstayPerHour:     model.Cents(tf.OverstayPerHour),
		UnauthorizedPenalty: model.Cents(tf.UnauthorizedPenalty),
		EscalationStep:      tf.EscalationStep,
		ShortStay:           tf.ShortStay.Std(),
		HighDemand:          tf.HighDemand,
		UpdatedAt:           tf.UpdatedAt,
		UpdatedBy:           tf.UpdatedBy,
	}
	for name, rate := range tf.HourlyRate {
		class, err := model.ParseSizeClass(name)
		if err != nil {
			return nil, fmt.Errorf("hourly-rate class %q: %w", name, err)
		}
		t.HourlyRate[class] = model.Cents(rate)
	}
	for name, d := range tf.MaxStay {
		class, err := model.ParseSizeClass(name)
		if err != nil {
			return nil, fmt.Errorf("max-stay class %q: %w", name, err)
		}
		t.MaxStay[class] = d.Std()
	}
	for i, p := range tf.Peaks {
		if p.Start < 0 || p.End > 24 || p.Start >= p.End {
			return nil, fmt.Errorf(
				"peaks[%d]: bad range [%d, %d)", i, p.Start, p.End,
			)
		}
		if p.Multiplier < 1 {
			return nil, fmt.Errorf(
				"peaks[%d]: multiplier must be at least 1", i,
			)
		}
		t.Peaks = append(t.Peaks, model.PeakWindow{
			Start: p.Start, End: p.End, Multiplier: p.Multiplier,
		})
	}
	return t, nil
}
