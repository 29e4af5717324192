package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
)

// EventDelivery is the per-event delivery ledger row. The event id is the
// primary key so a replayed event can never produce a second row.
type EventDelivery struct {
	EventID     uuid.UUID             `gorm:"column:event_id;type:uuid;primaryKey"`
	EventType   enums.DomainEventType `gorm:"column:event_type;type:text;not null"`
	Source      string                `gorm:"column:source;type:text;not null"`
	Payload     json.RawMessage       `gorm:"column:payload;type:jsonb;not null"`
	Published   bool                  `gorm:"column:published;not null;default:false;index:idx_event_deliveries_pending,priority:1"`
	Attempts    int                   `gorm:"column:attempts;not null;default:0;index:idx_event_deliveries_pending,priority:2"`
	LastError   *string               `gorm:"column:last_error"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime;index:idx_event_deliveries_pending,priority:3"`
	PublishedAt *time.Time            `gorm:"column:published_at"`
}
