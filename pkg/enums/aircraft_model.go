package enums

import "fmt"

// AircraftModel identifies a production airframe variant.
type AircraftModel string

const (
	ModelAlia250  AircraftModel = "ALIA-250"
	ModelAlia250C AircraftModel = "ALIA-250C"
)

var validAircraftModels = []AircraftModel{
	ModelAlia250,
	ModelAlia250C,
}

// String implements fmt.Stringer.
func (m AircraftModel) String() string {
	return string(m)
}

// IsValid reports whether the value is a known AircraftModel.
func (m AircraftModel) IsValid() bool {
	for _, candidate := range validAircraftModels {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseAircraftModel converts raw input into an AircraftModel.
func ParseAircraftModel(value string) (AircraftModel, error) {
	for _, candidate := range validAircraftModels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aircraft model %q", value)
}
