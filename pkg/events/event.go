package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	ActorID    *uuid.UUID `json:"actorId,omitempty"`
	ActorEmail string     `json:"actorEmail,omitempty"`
	ActorRole  string     `json:"actorRole,omitempty"`
}

// Event is the immutable envelope every domain event travels in. Once built
// it is never mutated; replays serialize the same bytes again.
type Event struct {
	ID         uuid.UUID             `json:"id" validate:"required"`
	Type       enums.DomainEventType `json:"type" validate:"required"`
	Source     string                `json:"source" validate:"required"`
	Version    int                   `json:"version" validate:"gte=1"`
	OccurredAt time.Time             `json:"occurredAt" validate:"required"`
	Detail     json.RawMessage       `json:"detail" validate:"required"`
	Meta       ActorRef              `json:"meta"`
}

var eventValidator = validator.New()

// New builds a versioned event envelope around detail, which must be
// JSON-serializable.
func New(eventType enums.DomainEventType, source string, detail any, meta ActorRef) (Event, error) {
	if !eventType.IsValid() {
		return Event{}, fmt.Errorf("invalid domain event type %q", eventType)
	}
	payload, err := json.Marshal(detail)
	if err != nil {
		return Event{}, fmt.Errorf("marshaling event detail: %w", err)
	}
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		Source:     source,
		Version:    1,
		OccurredAt: time.Now().UTC(),
		Detail:     payload,
		Meta:       meta,
	}, nil
}

// Decode parses a stored payload back into an event. A payload that does not
// round-trip here is unreplayable and gets surfaced as InvalidPayloadError.
func Decode(payload []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, newInvalidPayloadError(err)
	}
	if !event.Type.IsValid() {
		return Event{}, newInvalidPayloadError(fmt.Errorf("unknown event type %q", event.Type))
	}
	if err := eventValidator.Struct(event); err != nil {
		return Event{}, newInvalidPayloadError(err)
	}
	return event, nil
}

// Encode serializes the envelope for storage and transport.
func (e Event) Encode() (json.RawMessage, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling event %s: %w", e.ID, err)
	}
	return payload, nil
}
