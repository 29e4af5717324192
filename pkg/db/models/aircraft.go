package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
)

// Aircraft represents a single airframe moving through the certification
// pipeline. Progress is the percentage complete within the current phase.
type Aircraft struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TailNumber    string              `gorm:"column:tail_number;type:text;not null;uniqueIndex"`
	Model         enums.AircraftModel `gorm:"column:model;type:text;not null"`
	CustomerName  string              `gorm:"column:customer_name;type:text;not null;index"`
	Phase         enums.AircraftPhase `gorm:"column:phase;type:text;not null;index"`
	Progress      int                 `gorm:"column:progress;not null;default:0"`
	EstDelivery   *time.Time          `gorm:"column:est_delivery"`
	DeliveredAt   *time.Time          `gorm:"column:delivered_at"`
	SerialNumber  *string             `gorm:"column:serial_number"`
	Notes         *string             `gorm:"column:notes"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	LifecycleStages         []LifecycleStage         `gorm:"foreignKey:AircraftID;constraint:OnDelete:CASCADE"`
	CertificationMilestones []CertificationMilestone `gorm:"foreignKey:AircraftID;constraint:OnDelete:CASCADE"`
	Sustainability          *SustainabilityMetrics   `gorm:"foreignKey:AircraftID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the singular-form table used by the schema.
func (Aircraft) TableName() string {
	return "aircraft"
}
