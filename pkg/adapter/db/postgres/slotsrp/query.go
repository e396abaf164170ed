package slotsrp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/momeni/parkcore/pkg/adapter/db/postgres"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/repo"
	"gorm.io/gorm"
)

type gSlot struct {
	SID           string `gorm:"primaryKey;column:sid"`
	Class         int    `gorm:"column:class"`
	Status        string
	Distance      float64
	AvgStay       int64 `gorm:"column:avg_stay"`
	ObservedAt    time.Time
	OccupiedSince time.Time
	SensorID      string `gorm:"column:sensor_id"`
	Version       int64
}

func (gs *gSlot) TableName() string {
	return "slots"
}

func (gs *gSlot) Model() *model.Slot {
	return &model.Slot{
		ID:            gs.SID,
		Class:         model.SizeClass(gs.Class),
		Status:        model.SlotStatus(gs.Status),
		Distance:      gs.Distance,
		AvgStay:       time.Duration(gs.AvgStay),
		ObservedAt:    gs.ObservedAt,
		OccupiedSince: gs.OccupiedSince,
		SensorID:      gs.SensorID,
		Version:       gs.Version,
	}
}

func record(s *model.Slot) *gSlot {
	return &gSlot{
		SID:           s.ID,
		Class:         int(s.Class),
		Status:        string(s.Status),
		Distance:      s.Distance,
		AvgStay:       int64(s.AvgStay),
		ObservedAt:    s.ObservedAt,
		OccupiedSince: s.OccupiedSince,
		SensorID:      s.SensorID,
		Version:       s.Version,
	}
}

func All[Q postgres.Queryer](ctx context.Context, q Q) ([]model.Slot, error) {
	gdb := q.GORM(ctx)
	var gs []gSlot
	if err := gdb.Order("sid").Find(&gs).Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	slots := make([]model.Slot, len(gs))
	for i := range gs {
		slots[i] = *gs[i].Model()
	}
	return slots, nil
}

func ByID[Q postgres.Queryer](ctx context.Context, q Q, slotID string) (*model.Slot, error) {
	gdb := q.GORM(ctx)
	var gs gSlot
	err := gdb.Where("sid=?", slotID).First(&gs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return gs.Model(), nil
}

func Create[Q postgres.Queryer](ctx context.Context, q Q, s *model.Slot) error {
	gdb := q.GORM(ctx)
	gs := record(s)
	if gs.Version == 0 {
		gs.Version = 1
	}
	if err := postgres.WrapWriteError(gdb.Create(gs).Error); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	s.Version = gs.Version
	return nil
}

// Reserve applies the conditional occupation: the update takes effect
// only while the slot still has the expected version, is vacant, and
// no parked session holds it. The NOT EXISTS guard is a second line
// behind the partial unique index on sessions(slot_id); see schema.go.
func Reserve[Q postgres.Queryer](
	ctx context.Context, q Q, slotID string, version int64, at time.Time,
) error {
	gdb := q.GORM(ctx)
	gdb = gdb.Model(&gSlot{}).Where(
		"sid=? AND version=? AND status=?",
		slotID, version, string(model.StatusVacant),
	).Where(
		"NOT EXISTS (SELECT 1 FROM sessions"+
			" WHERE sessions.slot_id=slots.sid AND sessions.status=?)",
		string(model.SessionParked),
	).Updates(map[string]any{
		"status":         string(model.StatusOccupied),
		"occupied_since": at,
		"version":        gorm.Expr("version + 1"),
	})
	return postgres.CondUpdate(gdb)
}

func Release[Q postgres.Queryer](
	ctx context.Context, q Q,
	slotID string, version int64, avgStay time.Duration,
) error {
	gdb := q.GORM(ctx)
	gdb = gdb.Model(&gSlot{}).Where(
		"sid=? AND version=? AND status=?",
		slotID, version, string(model.StatusOccupied),
	).Updates(map[string]any{
		"status":         string(model.StatusVacant),
		"occupied_since": time.Time{},
		"avg_stay":       int64(avgStay),
		"version":        gorm.Expr("version + 1"),
	})
	return postgres.CondUpdate(gdb)
}

func SetObserved[Q postgres.Queryer](ctx context.Context, q Q, s *model.Slot) error {
	gdb := q.GORM(ctx)
	gdb = gdb.Model(&gSlot{}).Where(
		"sid=? AND version=?", s.ID, s.Version,
	).Updates(map[string]any{
		"status":         string(s.Status),
		"observed_at":    s.ObservedAt,
		"occupied_since": s.OccupiedSince,
		"sensor_id":      s.SensorID,
		"version":        gorm.Expr("version + 1"),
	})
	return postgres.CondUpdate(gdb)
}
