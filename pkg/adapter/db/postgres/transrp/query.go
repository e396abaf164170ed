package transrp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/adapter/db/postgres"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/repo"
	"gorm.io/gorm"
)

type gTransaction struct {
	TID       uuid.UUID `gorm:"primaryKey;type:uuid;column:tid"`
	SessionID uuid.UUID `gorm:"type:uuid;column:session_id"`
	Base      int64
	Penalty   int64
	Total     int64
	Outcome   string
	CreatedAt time.Time
}

func (gt *gTransaction) TableName() string {
	return "transactions"
}

func (gt *gTransaction) Model() *model.Transaction {
	return &model.Transaction{
		ID:        gt.TID,
		SessionID: gt.SessionID,
		Base:      model.Cents(gt.Base),
		Penalty:   model.Cents(gt.Penalty),
		Total:     model.Cents(gt.Total),
		Outcome:   model.TxOutcome(gt.Outcome),
		CreatedAt: gt.CreatedAt,
	}
}

// Create inserts a settlement transaction. The partial unique index
// over transactions(session_id) for completed rows makes a repeated
// settlement of the same session fail with repo.ErrConflict instead
// of double-charging.
func Create[Q postgres.Queryer](ctx context.Context, q Q, t *model.Transaction) error {
	gdb := q.GORM(ctx)
	gt := &gTransaction{
		TID:       t.ID,
		SessionID: t.SessionID,
		Base:      int64(t.Base),
		Penalty:   int64(t.Penalty),
		Total:     int64(t.Total),
		Outcome:   string(t.Outcome),
		CreatedAt: t.CreatedAt,
	}
	if err := postgres.WrapWriteError(gdb.Create(gt).Error); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return err
		}
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func CompletedBySession[Q postgres.Queryer](
	ctx context.Context, q Q, sessionID uuid.UUID,
) (*model.Transaction, error) {
	gdb := q.GORM(ctx)
	var gt gTransaction
	err := gdb.Where(
		"session_id=? AND outcome=?",
		sessionID, string(model.TxCompleted),
	).First(&gt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return gt.Model(), nil
}
