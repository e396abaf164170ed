package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/core/model"
)

type ViolationsConnQueryer interface {
	ViolationsQueryer
}

type ViolationsTxQueryer interface {
	ViolationsQueryer
}

// ViolationsQueryer is the narrow capability interface over the
// violations collection. The scanner owns Create, settlement owns
// MarkPaid. Violations are never deleted and a paid violation never
// returns to unpaid.
type ViolationsQueryer interface {
	// Create inserts a newly detected violation.
	Create(ctx context.Context, v *model.Violation) error

	// UnpaidBySession returns unresolved violations linked to the
	// given session.
	UnpaidBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Violation, error)

	// UnpaidBySlot returns unresolved violations linked directly to
	// the given slot (unauthorized occupancy has no session).
	UnpaidBySlot(ctx context.Context, slotID string) ([]model.Violation, error)

	// ByStatus lists violations with the given resolution status,
	// newest first.
	ByStatus(ctx context.Context, st model.ViolationStatus) ([]model.Violation, error)

	// MarkPaid conditionally transitions an unpaid violation to paid.
	// ErrConflict if it is not unpaid anymore or its version moved.
	MarkPaid(ctx context.Context, id uuid.UUID, version int64) error
}

type Violations interface {
	Conn(Conn) ViolationsConnQueryer
	Tx(Tx) ViolationsTxQueryer
}
