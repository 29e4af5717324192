package enums

import "fmt"

// DomainEventType names the domain events the backend publishes.
type DomainEventType string

const (
	EventAircraftStatusChanged DomainEventType = "aircraft.status.changed"
	EventMilestoneUpdated      DomainEventType = "certification.milestone.updated"
	EventAircraftCreated       DomainEventType = "aircraft.created"
)

var validDomainEventTypes = []DomainEventType{
	EventAircraftStatusChanged,
	EventMilestoneUpdated,
	EventAircraftCreated,
}

// String implements fmt.Stringer.
func (e DomainEventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known DomainEventType.
func (e DomainEventType) IsValid() bool {
	for _, candidate := range validDomainEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseDomainEventType converts raw input into a DomainEventType.
func ParseDomainEventType(value string) (DomainEventType, error) {
	for _, candidate := range validDomainEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid domain event type %q", value)
}
