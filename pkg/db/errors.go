package db

import "strings"

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper looks
// for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}

// IsDuplicateTailNumber classifies a collision on the aircraft tail number.
// Matching on the column fragment covers both the Postgres constraint name
// (ux_aircraft_tail_number) and the sqlite message raised in tests.
func IsDuplicateTailNumber(err error) bool {
	return IsUniqueViolation(err, "tail_number")
}
