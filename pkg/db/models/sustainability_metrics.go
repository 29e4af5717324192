package models

import (
	"time"

	"github.com/google/uuid"
)

// SustainabilityMetrics holds per-airframe environmental figures shown on the
// customer dashboard. One row per aircraft.
type SustainabilityMetrics struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AircraftID         uuid.UUID `gorm:"column:aircraft_id;type:uuid;not null;uniqueIndex"`
	CO2SavedKg         float64   `gorm:"column:co2_saved_kg;not null;default:0"`
	NoiseReductionDB   float64   `gorm:"column:noise_reduction_db;not null;default:0"`
	EnergyPerFlightKWh float64   `gorm:"column:energy_per_flight_kwh;not null;default:0"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the already-plural table name stable across gorm versions.
func (SustainabilityMetrics) TableName() string {
	return "sustainability_metrics"
}
