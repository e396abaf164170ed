package violationrp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/adapter/db/postgres"
	"github.com/momeni/parkcore/pkg/core/model"
	"gorm.io/gorm"
)

type gViolation struct {
	VID        uuid.UUID `gorm:"primaryKey;type:uuid;column:vid"`
	Type       string
	DetectedAt time.Time
	SessionID  *uuid.UUID `gorm:"type:uuid;column:session_id"`
	SlotID     string     `gorm:"column:slot_id"`
	EpisodeAt  time.Time
	Penalty    int64
	Status     string
	Evidence   string
	Version    int64
}

func (gv *gViolation) TableName() string {
	return "violations"
}

func (gv *gViolation) Model() *model.Violation {
	return &model.Violation{
		ID:         gv.VID,
		Type:       model.ViolationType(gv.Type),
		DetectedAt: gv.DetectedAt,
		SessionID:  gv.SessionID,
		SlotID:     gv.SlotID,
		EpisodeAt:  gv.EpisodeAt,
		Penalty:    model.Cents(gv.Penalty),
		Status:     model.ViolationStatus(gv.Status),
		Evidence:   gv.Evidence,
		Version:    gv.Version,
	}
}

func models(gv []gViolation) []model.Violation {
	violations := make([]model.Violation, len(gv))
	for i := range gv {
		violations[i] = *gv[i].Model()
	}
	return violations
}

func Create[Q postgres.Queryer](ctx context.Context, q Q, v *model.Violation) error {
	gdb := q.GORM(ctx)
	gv := &gViolation{
		VID:        v.ID,
		Type:       string(v.Type),
		DetectedAt: v.DetectedAt,
		SessionID:  v.SessionID,
		SlotID:     v.SlotID,
		EpisodeAt:  v.EpisodeAt,
		Penalty:    int64(v.Penalty),
		Status:     string(v.Status),
		Evidence:   v.Evidence,
		Version:    v.Version,
	}
	if gv.Version == 0 {
		gv.Version = 1
	}
	if err := postgres.WrapWriteError(gdb.Create(gv).Error); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	v.Version = gv.Version
	return nil
}

func UnpaidBySession[Q postgres.Queryer](
	ctx context.Context, q Q, sessionID uuid.UUID,
) ([]model.Violation, error) {
	gdb := q.GORM(ctx)
	var gv []gViolation
	err := gdb.Where(
		"session_id=? AND status=?",
		sessionID, string(model.ViolationUnpaid),
	).Order("detected_at").Find(&gv).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return models(gv), nil
}

func UnpaidBySlot[Q postgres.Queryer](
	ctx context.Context, q Q, slotID string,
) ([]model.Violation, error) {
	gdb := q.GORM(ctx)
	var gv []gViolation
	err := gdb.Where(
		"slot_id=? AND session_id IS NULL AND status=?",
		slotID, string(model.ViolationUnpaid),
	).Order("detected_at").Find(&gv).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return models(gv), nil
}

func ByStatus[Q postgres.Queryer](
	ctx context.Context, q Q, st model.ViolationStatus,
) ([]model.Violation, error) {
	gdb := q.GORM(ctx)
	var gv []gViolation
	err := gdb.Where(
		"status=?", string(st),
	).Order("detected_at DESC").Find(&gv).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return models(gv), nil
}

func MarkPaid[Q postgres.Queryer](
	ctx context.Context, q Q, id uuid.UUID, version int64,
) error {
	gdb := q.GORM(ctx)
	gdb = gdb.Model(&gViolation{}).Where(
		"vid=? AND version=? AND status=?",
		id, version, string(model.ViolationUnpaid),
	).Updates(map[string]any{
		"status":  string(model.ViolationPaid),
		"version": gorm.Expr("version + 1"),
	})
	return postgres.CondUpdate(gdb)
}
