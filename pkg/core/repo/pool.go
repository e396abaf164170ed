package repo

import "context"

type ConnHandler func(context.Context, Conn) error

// Pool hands out connections to the state store. It is the only
// shared mutable resource of the system; all cross-entity mutations
// go through it as atomic conditional operations.
type Pool interface {
	Conn(ctx context.Context, handler ConnHandler) error
}
