package sessionsrp

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

type gSession struct {
	SID       uuid.UUID `gorm:"primaryKey;type:uuid;column:sid"`
	Plate     string
	TagID     string `gorm:"column:tag_id"`
	Class     int    `gorm:"column:class"`
	SlotID    string `gorm:"column:slot_id"`
	EnteredAt time.Time
	ExitedAt  *time.Time
	Status    string
	Version   int64
}

func (gs *gSession) TableName() string {
	return "sessions"
}

func (gs *gSession) Model() *model.Session {
	return &model.Session{
		ID:        gs.SID,
		Plate:     gs.Plate,
		TagID:     gs.TagID,
		Class:     model.SizeClass(gs.Class),
		SlotID:    gs.SlotID,
		EnteredAt: gs.EnteredAt,
		ExitedAt:  gs.ExitedAt,
		Status:    model.SessionStatus(gs.Status),
		Version:   gs.Version,
	}
}

func models(gs []gSession) []model.Session {
	sessions := make([]model.Session, len(gs))
	for i := range gs {
		sessions[i] = *gs[i].Model()
	}
	return sessions
}

// Create inserts a parked session. The partial unique index over
// sessions(slot_id) for parked rows turns a double-booking race into
// a unique violation, reported as repo.ErrConflict.
func Create[Q postgres.Queryer](ctx context.Context, q Q, s *model.Session) error {
	gdb := q.GORM(ctx)
	gs := &gSession{
		SID:       s.ID,
		Plate:     s.Plate,
		TagID:     s.TagID,
		Class:     int(s.Class),
		SlotID:    s.SlotID,
		EnteredAt: s.EnteredAt,
		ExitedAt:  s.ExitedAt,
		Status:    string(s.Status),
		Version:   s.Version,
	}
	if gs.Version == 0 {
		gs.Version = 1
	}
	if err := postgres.WrapWriteError(gdb.Create(gs).Error); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return err
		}
		return fmt.Errorf("insert: %w", err)
	}
	s.Version = gs.Version
	return nil
}

func ByID[Q postgres.Queryer](ctx context.Context, q Q, id uuid.UUID) (*model.Session, error) {
	gdb := q.GORM(ctx)
	var gs gSession
	err := gdb.Where("sid=?", id).First(&gs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return gs.Model(), nil
}

func Parked[Q postgres.Queryer](ctx context.Context, q Q) ([]model.Session, error) {
	gdb := q.GORM(ctx)
	var gs []gSession
	err := gdb.Where(
		"status=?", string(model.SessionParked),
	).Order("sid").Find(&gs).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return models(gs), nil
}

func ParkedByTag[Q postgres.Queryer](ctx context.Context, q Q, tagID string) (*model.Session, error) {
	gdb := q.GORM(ctx)
	var gs gSession
	err := gdb.Where(
		"tag_id=? AND status=?", tagID, string(model.SessionParked),
	).First(&gs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return gs.Model(), nil
}

func Close[Q postgres.Queryer](
	ctx context.Context, q Q,
	id uuid.UUID, version int64, exitedAt time.Time,
) error {
	gdb := q.GORM(ctx)
	gdb = gdb.Model(&gSession{}).Where(
		"sid=? AND version=? AND status=?",
		id, version, string(model.SessionParked),
	).Updates(map[string]any{
		"status":    string(model.SessionExited),
		"exited_at": exitedAt,
		"version":   gorm.Expr("version + 1"),
	})
	return postgres.CondUpdate(gdb)
}

func History[Q postgres.Queryer](
	ctx context.Context, q Q, plate string, from, to time.Time,
) ([]model.Session, error) {
	gdb := q.GORM(ctx)
	if plate != "" {
		gdb = gdb.Where("plate=?", plate)
	}
	if !from.IsZero() {
		gdb = gdb.Where("entered_at >= ?", from)
	}
	if !to.IsZero() {
		gdb = gdb.Where("entered_at < ?", to)
	}
	var gs []gSession
	if err := gdb.Order("entered_at DESC").Find(&gs).Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return models(gs), nil
}
