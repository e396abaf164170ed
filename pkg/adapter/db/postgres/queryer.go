package postgres

import (
	"context"

	"gorm.io/gorm"
)

// Queryer is satisfied by both *Conn and *Tx, so repository query
// functions can be written once as generics and guided by either a
// connection or a transaction.
type Queryer interface {
	GORM(ctx context.Context) *gorm.DB
}
