package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
)

// CertificationMilestone is one FAA certification checkpoint for an aircraft.
type CertificationMilestone struct {
	ID          uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AircraftID  uuid.UUID             `gorm:"column:aircraft_id;type:uuid;not null;index"`
	Name        string                `gorm:"column:name;type:text;not null"`
	Description *string               `gorm:"column:description"`
	Sequence    int                   `gorm:"column:sequence;not null"`
	Status      enums.MilestoneStatus `gorm:"column:status;type:text;not null"`
	CompletedAt *time.Time            `gorm:"column:completed_at"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
