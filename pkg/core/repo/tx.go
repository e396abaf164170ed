// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

// Tx represents one atomic multi-record unit of the state store.
// It is unsafe to be used concurrently. All conditional writes issued
// through entity queryers of the same Tx observe all-or-nothing
// semantics: if any precondition fails, the whole unit is rolled back
// and the failure surfaces as ErrConflict (or a wrapping error).
type Tx interface {
	// IsTx method prevents a non-Tx object (such as a Conn) to
	// mistakenly implement the Tx interface.
	IsTx()
}
