package repo

import "errors"

// Store-level outcome sentinels. Use cases translate these into a
// bounded local retry or a typed business rejection; they are never
// propagated to the adapter layer as-is.
var (
	// ErrNotFound indicates that no record matched the query.
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates that a conditional write lost a race:
	// the precondition (record version or status) no longer held at
	// commit time. The operation did not apply, fully or partially,
	// and may be retried after a fresh read.
	ErrConflict = errors.New("conditional write conflict")
)
