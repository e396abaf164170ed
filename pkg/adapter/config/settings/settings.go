// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settings contains the helper types and functions which are
// shared by the configuration structs, independent of any specific
// configuration format.
package settings

// Nil2Zero replaces a nil pointer with a pointer to the zero value of
// its element type. Pointer-typed settings use it to obtain their
// defaults after the configuration file was unmarshaled, so their
// users never observe a nil.
func Nil2Zero[T any](p **T) {
	if *p == nil {
		*p = new(T)
	}
}

// OverwriteNil replaces a nil pointer with a pointer to a copy of the
// given default value.
func OverwriteNil[T any](p **T, def T) {
	if *p == nil {
		v := def
		*p = &v
	}
}
