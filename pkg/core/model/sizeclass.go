// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
)

// SizeClass specifies the vehicle/slot size-class enum. The enum is
// ordered: a slot may host a vehicle if and only if the slot class is
// greater than or equal to the vehicle class. Although this enum is
// numeric, it is (de)serialized as a string for readability in the
// adapter layer.
type SizeClass int

// Valid values for the SizeClass enum, in ascending size order.
const (
	SizeClassInvalid SizeClass = iota // zero value is invalid

	SizeClassCompact
	SizeClassSedan
	SizeClassSUV
	SizeClassTruck
)

// ErrUnknownSizeClass indicates that a given string may not be parsed
// as a valid/known size-class. The invalid string itself is not
// encoded in the error because the caller of ParseSizeClass already
// knows it and is responsible to wrap this error with that context.
var ErrUnknownSizeClass = errors.New("unknown size class")

// SizeClassError indicates an invalid size-class value, carrying the
// invalid class as an integer.
type SizeClassError int

// Error implements the error interface, returning a string
// representation of the SizeClassError.
func (e SizeClassError) Error() string {
	return fmt.Sprintf("invalid size class: %d", int(e))
}

// Validate returns nil if the SizeClass value is valid. For invalid
// values, an instance of SizeClassError will be returned.
func (s SizeClass) Validate() error {
	switch s {
	case SizeClassCompact, SizeClassSedan, SizeClassSUV, SizeClassTruck:
		return nil
	default:
		return SizeClassError(s)
	}
}

// Fits reports whether a slot of this size-class may host a vehicle
// of the v size-class. Smaller slots are excluded entirely.
func (s SizeClass) Fits(v SizeClass) bool {
	return s >= v
}

// String converts the SizeClass enum to a string, helping to
// serialize it for transmission to web clients and persistence.
// Invalid size-class causes a panic.
func (s SizeClass) String() string {
	switch s {
	case SizeClassCompact:
		return "compact"
	case SizeClassSedan:
		return "sedan"
	case SizeClassSUV:
		return "suv"
	case SizeClassTruck:
		return "truck"
	default:
		panic(SizeClassError(s))
	}
}

// ParseSizeClass parses the given string and returns a SizeClass,
// helping to deserialize it when reading a REST API request or an
// inbound fact. For invalid strings, SizeClassInvalid and
// ErrUnknownSizeClass will be returned.
func ParseSizeClass(s string) (SizeClass, error) {
	switch s {
	case "compact":
		return SizeClassCompact, nil
	case "sedan":
		return SizeClassSedan, nil
	case "suv":
		return SizeClassSUV, nil
	case "truck":
		return SizeClassTruck, nil
	default:
		return SizeClassInvalid, ErrUnknownSizeClass
	}
}

// SizeClasses lists all valid size-class values in ascending order,
// for iteration by queries which report per-class aggregates.
func SizeClasses() []SizeClass {
	return []SizeClass{
		SizeClassCompact, SizeClassSedan, SizeClassSUV, SizeClassTruck,
	}
}
