package events

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aerotrack-io/aerotrack-backend/pkg/db/models"
)

const (
	// DefaultPendingLimit bounds one pending scan.
	DefaultPendingLimit = 50
	// DefaultMaxAttempts is the retry ceiling before an event stops being
	// picked up by replay.
	DefaultMaxAttempts = 10

	maxLastErrorLen = 1000
)

// Ledger records one row per domain event and tracks its delivery state.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("db handle is required")
	}
	return &Ledger{db: db}, nil
}

// WithTx binds the ledger to an open transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// PendingDelivery is the slice of a ledger row replay needs.
type PendingDelivery struct {
	EventID   uuid.UUID
	EventType string
	Attempts  int
	Payload   []byte
}

// EnsureDeliveryRecord inserts a delivery row for the event if none exists.
// It reports whether the event is already published, so callers can skip
// re-publishing a duplicate.
func (l *Ledger) EnsureDeliveryRecord(ctx context.Context, event Event) (alreadyPublished bool, err error) {
	payload, err := event.Encode()
	if err != nil {
		return false, err
	}

	row := models.EventDelivery{
		EventID:   event.ID,
		EventType: event.Type,
		Source:    event.Source,
		Payload:   payload,
	}

	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return false, nil
	}

	var existing models.EventDelivery
	if err := l.db.WithContext(ctx).
		Select("published").
		Where("event_id = ?", event.ID).
		First(&existing).Error; err != nil {
		return false, err
	}
	return existing.Published, nil
}

// MarkAttempt increments the attempt counter before a publish try.
func (l *Ledger) MarkAttempt(ctx context.Context, eventID uuid.UUID) error {
	res := l.db.WithContext(ctx).
		Model(&models.EventDelivery{}).
		Where("event_id = ?", eventID).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

// MarkPublished flips the row to published and clears the last error. The
// original publish timestamp survives repeated calls.
func (l *Ledger) MarkPublished(ctx context.Context, eventID uuid.UUID) error {
	res := l.db.WithContext(ctx).
		Model(&models.EventDelivery{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"published":    true,
			"last_error":   nil,
			"published_at": gorm.Expr("COALESCE(published_at, CURRENT_TIMESTAMP)"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

// MarkFailed records the failure reason on an unpublished row.
func (l *Ledger) MarkFailed(ctx context.Context, eventID uuid.UUID, cause error) error {
	msg := normalizeError(cause)
	res := l.db.WithContext(ctx).
		Model(&models.EventDelivery{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"last_error": msg,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

// ListPendingDeliveries returns unpublished rows still under the attempt
// ceiling, oldest first.
func (l *Ledger) ListPendingDeliveries(ctx context.Context, limit, maxAttempts int) ([]PendingDelivery, error) {
	if limit <= 0 {
		limit = DefaultPendingLimit
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var rows []models.EventDelivery
	err := l.db.WithContext(ctx).
		Where("published = ? AND attempts < ?", false, maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	pending := make([]PendingDelivery, 0, len(rows))
	for _, row := range rows {
		pending = append(pending, PendingDelivery{
			EventID:   row.EventID,
			EventType: string(row.EventType),
			Attempts:  row.Attempts,
			Payload:   row.Payload,
		})
	}
	return pending, nil
}

func normalizeError(err error) string {
	if err == nil {
		return "unknown error"
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "unknown error"
	}
	if len(msg) > maxLastErrorLen {
		return msg[:maxLastErrorLen]
	}
	return msg
}
