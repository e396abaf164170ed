// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings_test

import (
	"fmt"
	"time"

	"github.com/momeni/parkcore/pkg/adapter/config/settings"
	"gopkg.in/yaml.v3"
)

type tuning struct {
	ScanInterval settings.Duration `yaml:"scan-interval"`
	FactDeadline settings.Duration `yaml:"fact-deadline"`
}

func ExampleDuration_marshaling() {
	c := tuning{
		ScanInterval: settings.Duration(5 * time.Minute),
		FactDeadline: settings.Duration(90 * time.Second),
	}
	b, err := yaml.Marshal(c)
	fmt.Println(err)
	fmt.Print(string(b))
	// Output:
	// <nil>
	// scan-interval: 5m
	// fact-deadline: 1m30s
}

func ExampleDuration_unmarshaling() {
	var c tuning
	err := yaml.Unmarshal(
		[]byte("scan-interval: 2h\nfact-deadline: 10s\n"), &c,
	)
	fmt.Println(err)
	fmt.Println(c.ScanInterval.Std())
	fmt.Println(c.FactDeadline.Std())
	// Output:
	// <nil>
	// 2h0m0s
	// 10s
}
