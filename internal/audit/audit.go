package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aerotrack-io/aerotrack-backend/pkg/db/models"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
)

// Entry captures one recorded action.
type Entry struct {
	ActorID    *uuid.UUID
	ActorEmail *string
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Detail     any
}

// Recorder persists audit entries. Audit writes ride the caller's
// transaction so an aborted mutation leaves no trail.
type Recorder struct {
	db   *gorm.DB
	logg *logger.Logger
}

func NewRecorder(db *gorm.DB, logg *logger.Logger) (*Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Recorder{db: db, logg: logg}, nil
}

// WithTx binds the recorder to an open transaction.
func (r *Recorder) WithTx(tx *gorm.DB) *Recorder {
	if tx == nil {
		return r
	}
	return &Recorder{db: tx, logg: r.logg}
}

// Record writes one audit row.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if entry.Action == "" {
		return fmt.Errorf("audit action is required")
	}
	if entry.EntityType == "" {
		return fmt.Errorf("audit entity type is required")
	}

	var detail json.RawMessage
	if entry.Detail != nil {
		payload, err := json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}
		detail = payload
	}

	row := models.AuditLog{
		ID:         uuid.New(),
		ActorID:    entry.ActorID,
		ActorEmail: entry.ActorEmail,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Detail:     detail,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	fields := map[string]any{
		"action":      entry.Action,
		"entity_type": entry.EntityType,
		"entity_id":   entry.EntityID.String(),
	}
	r.logg.Info(r.logg.WithFields(ctx, fields), "audit entry recorded")
	return nil
}

// ListForEntity returns the audit trail for one entity, newest first.
func (r *Recorder) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
