package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records who changed what, with before/after context.
type AuditLog struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID    *uuid.UUID      `gorm:"column:actor_id;type:uuid;index"`
	ActorEmail *string         `gorm:"column:actor_email"`
	Action     string          `gorm:"column:action;type:text;not null"`
	EntityType string          `gorm:"column:entity_type;type:text;not null"`
	EntityID   uuid.UUID       `gorm:"column:entity_id;type:uuid;not null;index"`
	Detail     json.RawMessage `gorm:"column:detail;type:jsonb"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime;index"`
}
