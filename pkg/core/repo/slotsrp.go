package repo

import (
	"context"
	"time"

	"github.com/momeni/parkcore/pkg/core/model"
)

type SlotsConnQueryer interface {
	SlotsQueryer
}

type SlotsTxQueryer interface {
	SlotsQueryer
}

// SlotsQueryer is the narrow capability interface over the slots
// collection. The slot monitor owns sensor-driven status writes
// (SetObserved), the allocator owns Reserve, settlement owns Release.
type SlotsQueryer interface {
	// All returns every provisioned slot.
	All(ctx context.Context) ([]model.Slot, error)

	// ByID returns one slot or ErrNotFound.
	ByID(ctx context.Context, slotID string) (*model.Slot, error)

	// Create provisions a new slot record.
	Create(ctx context.Context, s *model.Slot) error

	// Reserve conditionally flips the slot to occupied. The write
	// applies only if the slot still has the expected version, is
	// vacant, and no parked session references it; otherwise it
	// fails with ErrConflict.
	Reserve(ctx context.Context, slotID string, version int64, at time.Time) error

	// Release conditionally flips an occupied slot back to vacant
	// and folds the stay duration into its rolling average. It fails
	// with ErrConflict if the slot is not occupied anymore or its
	// version moved.
	Release(ctx context.Context, slotID string, version int64, avgStay time.Duration) error

	// SetObserved applies a sensor observation: status, observation
	// time, occupancy episode start, and sensor id are written from
	// the s snapshot if the stored version still equals s.Version;
	// otherwise ErrConflict is returned.
	SetObserved(ctx context.Context, s *model.Slot) error
}

type Slots interface {
	Conn(Conn) SlotsConnQueryer
	Tx(Tx) SlotsTxQueryer
}
