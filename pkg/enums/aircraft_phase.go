package enums

import "fmt"

// AircraftPhase represents an aircraft's position in the certification pipeline.
type AircraftPhase string

const (
	PhaseManufacturing    AircraftPhase = "manufacturing"
	PhaseGroundTesting    AircraftPhase = "ground_testing"
	PhaseFlightTesting    AircraftPhase = "flight_testing"
	PhaseCertification    AircraftPhase = "certification"
	PhaseReadyForDelivery AircraftPhase = "ready_for_delivery"
	PhaseDelivered        AircraftPhase = "delivered"
)

// phaseSequence is the canonical pipeline order. Transitions move forward
// one step at a time or roll back exactly one step.
var phaseSequence = []AircraftPhase{
	PhaseManufacturing,
	PhaseGroundTesting,
	PhaseFlightTesting,
	PhaseCertification,
	PhaseReadyForDelivery,
	PhaseDelivered,
}

// String implements fmt.Stringer.
func (p AircraftPhase) String() string {
	return string(p)
}

// IsValid reports whether the value is a known AircraftPhase.
func (p AircraftPhase) IsValid() bool {
	for _, candidate := range phaseSequence {
		if candidate == p {
			return true
		}
	}
	return false
}

// Index returns the phase's position in the pipeline, or -1 if unknown.
func (p AircraftPhase) Index() int {
	for i, candidate := range phaseSequence {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Display returns the human-readable phase label used in API responses.
func (p AircraftPhase) Display() string {
	switch p {
	case PhaseManufacturing:
		return "Manufacturing"
	case PhaseGroundTesting:
		return "Ground Testing"
	case PhaseFlightTesting:
		return "Flight Testing"
	case PhaseCertification:
		return "Certification"
	case PhaseReadyForDelivery:
		return "Ready for Delivery"
	case PhaseDelivered:
		return "Delivered"
	}
	return string(p)
}

// AllPhases returns the pipeline order as a copy.
func AllPhases() []AircraftPhase {
	out := make([]AircraftPhase, len(phaseSequence))
	copy(out, phaseSequence)
	return out
}

// ParseAircraftPhase converts raw input into an AircraftPhase. It accepts
// both the canonical value and the display label.
func ParseAircraftPhase(value string) (AircraftPhase, error) {
	for _, candidate := range phaseSequence {
		if string(candidate) == value || candidate.Display() == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aircraft phase %q", value)
}
