package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/core/model"
)

type SessionsConnQueryer interface {
	SessionsQueryer
}

type SessionsTxQueryer interface {
	SessionsQueryer
}

// SessionsQueryer is the narrow capability interface over the
// sessions collection. The allocator owns Create, settlement owns
// Close; everything else is read-only.
type SessionsQueryer interface {
	// Create inserts a new parked session. It fails with ErrConflict
	// if another parked session already references the same slot, so
	// the slot exclusivity invariant holds even if the paired slot
	// reservation precondition was somehow bypassed.
	Create(ctx context.Context, s *model.Session) error

	// ByID returns one session or ErrNotFound.
	ByID(ctx context.Context, id uuid.UUID) (*model.Session, error)

	// Parked returns all sessions with the parked status.
	Parked(ctx context.Context) ([]model.Session, error)

	// ParkedByTag returns the unique parked session of the given tag
	// or ErrNotFound.
	ParkedByTag(ctx context.Context, tagID string) (*model.Session, error)

	// Close conditionally transitions a parked session to exited,
	// recording the exit time. ErrConflict if the session is not
	// parked anymore or its version moved.
	Close(ctx context.Context, id uuid.UUID, version int64, exitedAt time.Time) error

	// History lists sessions of one plate and/or entry-time range,
	// newest first. Zero-valued filters are ignored.
	History(ctx context.Context, plate string, from, to time.Time) ([]model.Session, error)
}

type Sessions interface {
	Conn(Conn) SessionsConnQueryer
	Tx(Tx) SessionsTxQueryer
}
