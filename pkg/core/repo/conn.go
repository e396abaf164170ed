package repo

import "context"

type TxHandler func(context.Context, Tx) error

// Conn is a single state store connection. Entity queryers obtained
// for a Conn run their operations outside any multi-record atomic
// unit; single-record conditional writes are still atomic on their
// own through the version compare-and-set discipline.
// Conn is an opaque handle on purpose: every query goes through a
// typed per-entity queryer, so no component can reach entities it
// does not own through raw statements.
type Conn interface {
	// Tx runs the handler inside one atomic unit. The mutations of
	// the handler either fully apply or fully fail; a failure is
	// observable as an error (ErrConflict for lost races), never as
	// a partial write.
	Tx(ctx context.Context, handler TxHandler) error

	// IsConn method prevents a non-Conn object (such as a Tx) to
	// mistakenly implement the Conn interface.
	IsConn()
}
