package aircraft

import (
	"time"

	"github.com/google/uuid"

	"github.com/aerotrack-io/aerotrack-backend/pkg/db/models"
	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
	"github.com/aerotrack-io/aerotrack-backend/pkg/pagination"
)

// Actor identifies who is performing a mutation, for audit and event metadata.
type Actor struct {
	ID    uuid.UUID
	Email string
	Role  enums.UserRole
}

// Scope restricts reads to what the caller may see. Internal users see the
// whole fleet; customer users see only their own aircraft.
type Scope struct {
	Role         enums.UserRole
	CustomerName *string
}

// ListFilter narrows the fleet list.
type ListFilter struct {
	Phase        *enums.AircraftPhase
	Model        *enums.AircraftModel
	CustomerName *string
	Search       string
	SortBy       string
	SortDir      string
}

// ListResult is one page of the fleet.
type ListResult struct {
	Aircraft []models.Aircraft
	Page     pagination.Page
}

// PhaseCount is one slice of the dashboard phase breakdown.
type PhaseCount struct {
	Phase enums.AircraftPhase `json:"phase"`
	Label string              `json:"label"`
	Count int64               `json:"count"`
}

// DashboardSummary aggregates the whole visible fleet.
type DashboardSummary struct {
	TotalAircraft      int64        `json:"totalAircraft"`
	Delivered          int64        `json:"delivered"`
	InCertification    int64        `json:"inCertification"`
	AverageProgress    float64      `json:"averageProgress"`
	ByPhase            []PhaseCount `json:"byPhase"`
	TotalCO2SavedKg    float64      `json:"totalCo2SavedKg"`
	UpcomingDeliveries int64        `json:"upcomingDeliveries"`
}

// CreateInput carries everything needed to register a new aircraft.
type CreateInput struct {
	TailNumber   string
	Model        enums.AircraftModel
	CustomerName string
	Phase        enums.AircraftPhase
	Progress     *int
	EstDelivery  *time.Time
	SerialNumber *string
	Notes        *string
	Actor        Actor
}

// UpdateStatusInput moves an aircraft between phases or adjusts its progress.
type UpdateStatusInput struct {
	AircraftID  uuid.UUID
	TargetPhase enums.AircraftPhase
	Progress    *int
	Actor       Actor
}

// UpdateMilestoneInput toggles one certification milestone.
type UpdateMilestoneInput struct {
	AircraftID  uuid.UUID
	MilestoneID uuid.UUID
	Completed   bool
	Actor       Actor
}

// StatusChangeResult reports the applied transition.
type StatusChangeResult struct {
	Aircraft  models.Aircraft
	FromPhase enums.AircraftPhase
	ToPhase   enums.AircraftPhase
}

// MilestoneChangeResult reports the milestone toggle and recomputed progress.
type MilestoneChangeResult struct {
	Milestone models.CertificationMilestone
	Progress  int
}

// ImportRow is one line of a bulk import request.
type ImportRow struct {
	TailNumber   string     `json:"tailNumber"`
	Model        string     `json:"model"`
	CustomerName string     `json:"customerName"`
	Phase        string     `json:"phase"`
	Progress     *int       `json:"progress,omitempty"`
	EstDelivery  *time.Time `json:"estDelivery,omitempty"`
	SerialNumber *string    `json:"serialNumber,omitempty"`
}

// ImportRowError ties a failure to the row that caused it.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes a bulk import run. Row failures never abort the
// remaining rows.
type ImportResult struct {
	Imported int              `json:"imported"`
	Failed   int              `json:"failed"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

// statusChangedEvent is the payload for aircraft.status.changed.
type statusChangedEvent struct {
	AircraftID   uuid.UUID           `json:"aircraftId"`
	TailNumber   string              `json:"tailNumber"`
	CustomerName string              `json:"customerName"`
	FromPhase    enums.AircraftPhase `json:"fromPhase"`
	ToPhase      enums.AircraftPhase `json:"toPhase"`
	Progress     int                 `json:"progress"`
}

// milestoneUpdatedEvent is the payload for certification.milestone.updated.
type milestoneUpdatedEvent struct {
	AircraftID    uuid.UUID `json:"aircraftId"`
	TailNumber    string    `json:"tailNumber"`
	MilestoneID   uuid.UUID `json:"milestoneId"`
	MilestoneName string    `json:"milestoneName"`
	Completed     bool      `json:"completed"`
	Progress      int       `json:"progress"`
}

// createdEvent is the payload for aircraft.created.
type createdEvent struct {
	AircraftID   uuid.UUID           `json:"aircraftId"`
	TailNumber   string              `json:"tailNumber"`
	Model        enums.AircraftModel `json:"model"`
	CustomerName string              `json:"customerName"`
	Phase        enums.AircraftPhase `json:"phase"`
}
