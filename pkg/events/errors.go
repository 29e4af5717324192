package events

import (
	"errors"
	"fmt"
)

// ErrDeliveryNotFound is returned when a ledger mutation targets an event id
// with no delivery row.
var ErrDeliveryNotFound = errors.New("event delivery not found")

// PublishError wraps a transport failure with the bus-level code when one is
// available.
type PublishError struct {
	Code  string
	cause error
}

func NewPublishError(code string, cause error) *PublishError {
	return &PublishError{Code: code, cause: cause}
}

func (e *PublishError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("publish failed (%s): %v", e.Code, e.cause)
	}
	return fmt.Sprintf("publish failed: %v", e.cause)
}

func (e *PublishError) Unwrap() error {
	return e.cause
}

// InvalidPayloadError marks a stored payload that cannot be decoded back into
// an event. Replay treats these as failed without attempting delivery.
type InvalidPayloadError struct {
	cause error
}

func newInvalidPayloadError(cause error) *InvalidPayloadError {
	return &InvalidPayloadError{cause: cause}
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("invalid event payload: %v", e.cause)
}

func (e *InvalidPayloadError) Unwrap() error {
	return e.cause
}

// IsInvalidPayload reports whether err stems from an undecodable payload.
func IsInvalidPayload(err error) bool {
	var target *InvalidPayloadError
	return errors.As(err, &target)
}
