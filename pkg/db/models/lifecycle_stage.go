package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
)

// LifecycleStage is one row of an aircraft's pipeline timeline.
type LifecycleStage struct {
	ID          uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AircraftID  uuid.UUID             `gorm:"column:aircraft_id;type:uuid;not null;index"`
	Stage       enums.AircraftPhase   `gorm:"column:stage;type:text;not null"`
	StageOrder  int                   `gorm:"column:stage_order;not null"`
	Status      enums.MilestoneStatus `gorm:"column:status;type:text;not null"`
	StartedAt   *time.Time            `gorm:"column:started_at"`
	CompletedAt *time.Time            `gorm:"column:completed_at"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
