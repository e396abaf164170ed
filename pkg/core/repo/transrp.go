package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/core/model"
)

type TransactionsConnQueryer interface {
	TransactionsQueryer
}

type TransactionsTxQueryer interface {
	TransactionsQueryer
}

// TransactionsQueryer is the narrow capability interface over the
// transactions collection. Only settlement creates records; they are
// immutable afterwards.
type TransactionsQueryer interface {
	// Create inserts a settlement transaction. At most one completed
	// transaction may exist per session; a second completed insert
	// for the same session fails with ErrConflict.
	Create(ctx context.Context, t *model.Transaction) error

	// CompletedBySession returns the completed transaction of the
	// given session or ErrNotFound.
	CompletedBySession(ctx context.Context, sessionID uuid.UUID) (*model.Transaction, error)
}

type Transactions interface {
	Conn(Conn) TransactionsConnQueryer
	Tx(Tx) TransactionsTxQueryer
}
