package aircraft

import (
	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
)

// MilestoneTemplate seeds one certification checkpoint on every new aircraft.
type MilestoneTemplate struct {
	Name        string
	Description string
	Sequence    int
}

// certificationMilestoneTemplates is the FAA certification track every
// airframe walks through, in order.
var certificationMilestoneTemplates = []MilestoneTemplate{
	{Name: "Design Review Complete", Description: "Engineering design review signed off for the production configuration.", Sequence: 1},
	{Name: "Structural Testing", Description: "Static and fatigue testing of the airframe structure.", Sequence: 2},
	{Name: "Systems Integration", Description: "Avionics, propulsion, and flight control systems integrated and bench tested.", Sequence: 3},
	{Name: "Ground Vibration Testing", Description: "Modal survey confirming structural dynamic models.", Sequence: 4},
	{Name: "First Flight", Description: "Initial airworthiness flight completed.", Sequence: 5},
	{Name: "Flight Envelope Expansion", Description: "Progressive expansion of the certified flight envelope.", Sequence: 6},
	{Name: "Type Inspection Authorization", Description: "FAA TIA issued, conformity inspections underway.", Sequence: 7},
	{Name: "Certification Flight Testing", Description: "FAA-witnessed certification flight test program.", Sequence: 8},
	{Name: "Type Certification", Description: "FAA type certificate issued.", Sequence: 9},
	{Name: "Production Certificate", Description: "Production quality system approved for serial delivery.", Sequence: 10},
}

// SustainabilityDefaults are the per-model environmental figures used until
// real flight data replaces them.
type SustainabilityDefaults struct {
	CO2SavedKg         float64
	NoiseReductionDB   float64
	EnergyPerFlightKWh float64
}

var sustainabilityByModel = map[enums.AircraftModel]SustainabilityDefaults{
	enums.ModelAlia250: {
		CO2SavedKg:         1350,
		NoiseReductionDB:   28,
		EnergyPerFlightKWh: 220,
	},
	enums.ModelAlia250C: {
		CO2SavedKg:         1480,
		NoiseReductionDB:   30,
		EnergyPerFlightKWh: 205,
	},
}

// defaultPhaseProgress seeds a plausible in-phase completion figure when an
// aircraft is created mid-pipeline without an explicit progress value.
var defaultPhaseProgress = map[enums.AircraftPhase]int{
	enums.PhaseManufacturing:    65,
	enums.PhaseGroundTesting:    45,
	enums.PhaseFlightTesting:    72,
	enums.PhaseCertification:    88,
	enums.PhaseReadyForDelivery: 95,
	enums.PhaseDelivered:        100,
}

// MilestoneTemplates returns the seed checkpoints as a copy.
func MilestoneTemplates() []MilestoneTemplate {
	out := make([]MilestoneTemplate, len(certificationMilestoneTemplates))
	copy(out, certificationMilestoneTemplates)
	return out
}

// SustainabilityFor returns the defaults for a model.
func SustainabilityFor(model enums.AircraftModel) SustainabilityDefaults {
	if defaults, ok := sustainabilityByModel[model]; ok {
		return defaults
	}
	return SustainabilityDefaults{}
}

// DefaultProgressFor returns the seed progress for an aircraft created in the
// given phase.
func DefaultProgressFor(phase enums.AircraftPhase) int {
	if progress, ok := defaultPhaseProgress[phase]; ok {
		return progress
	}
	return 0
}
