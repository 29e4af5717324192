package enums

import "fmt"

// MilestoneStatus tracks a certification milestone's completion state.
type MilestoneStatus string

const (
	MilestoneCompleted  MilestoneStatus = "completed"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneUpcoming   MilestoneStatus = "upcoming"
)

var validMilestoneStatuses = []MilestoneStatus{
	MilestoneCompleted,
	MilestoneInProgress,
	MilestoneUpcoming,
}

// String implements fmt.Stringer.
func (s MilestoneStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MilestoneStatus.
func (s MilestoneStatus) IsValid() bool {
	for _, candidate := range validMilestoneStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMilestoneStatus converts raw input into a MilestoneStatus.
func ParseMilestoneStatus(value string) (MilestoneStatus, error) {
	for _, candidate := range validMilestoneStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid milestone status %q", value)
}
