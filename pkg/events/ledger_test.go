package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aerotrack-io/aerotrack-backend/pkg/db/models"
	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.EventDelivery{}))
	return db
}

func newTestEvent(t *testing.T) Event {
	t.Helper()
	event, err := New(enums.EventAircraftStatusChanged, "aerotrack.test", map[string]string{
		"tailNumber": "N250BA",
		"fromPhase":  "manufacturing",
		"toPhase":    "ground_testing",
	}, ActorRef{ActorEmail: "ops@aerotrack.io", ActorRole: "internal"})
	require.NoError(t, err)
	return event
}

func TestEnsureDeliveryRecordIsIdempotent(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger, err := NewLedger(db)
	require.NoError(t, err)

	ctx := context.Background()
	event := newTestEvent(t)

	published, err := ledger.EnsureDeliveryRecord(ctx, event)
	require.NoError(t, err)
	assert.False(t, published)

	// A second upsert must not create another row.
	published, err = ledger.EnsureDeliveryRecord(ctx, event)
	require.NoError(t, err)
	assert.False(t, published)

	var count int64
	require.NoError(t, db.Model(&models.EventDelivery{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, ledger.MarkPublished(ctx, event.ID))

	published, err = ledger.EnsureDeliveryRecord(ctx, event)
	require.NoError(t, err)
	assert.True(t, published)
}

func TestMarkAttemptIncrementsCounter(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger, err := NewLedger(db)
	require.NoError(t, err)

	ctx := context.Background()
	event := newTestEvent(t)
	_, err = ledger.EnsureDeliveryRecord(ctx, event)
	require.NoError(t, err)

	require.NoError(t, ledger.MarkAttempt(ctx, event.ID))
	require.NoError(t, ledger.MarkAttempt(ctx, event.ID))

	var row models.EventDelivery
	require.NoError(t, db.Where("event_id = ?", event.ID).First(&row).Error)
	assert.Equal(t, 2, row.Attempts)
}

func TestMarkAttemptUnknownEvent(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger, err := NewLedger(db)
	require.NoError(t, err)

	err = ledger.MarkAttempt(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDeliveryNotFound)
}

func TestMarkPublishedPreservesFirstTimestamp(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger, err := NewLedger(db)
	require.NoError(t, err)

	ctx := context.Background()
	event := newTestEvent(t)
	_, err = ledger.EnsureDeliveryRecord(ctx, event)
	require.NoError(t, err)

	require.NoError(t, ledger.MarkFailed(ctx, event.ID, errors.New("bus unavailable")))
	require.NoError(t, ledger.MarkPublished(ctx, event.ID))

	var row models.EventDelivery
	require.NoError(t, db.Where("event_id = ?", event.ID).First(&row).Error)
	assert.True(t, row.Published)
	assert.Nil(t, row.LastError)
	require.NotNil(t, row.PublishedAt)
	first := *row.PublishedAt

	require.NoError(t, ledger.MarkPublished(ctx, event.ID))
	require.NoError(t, db.Where("event_id = ?", event.ID).First(&row).Error)
	require.NotNil(t, row.PublishedAt)
	assert.Equal(t, first, *row.PublishedAt)
}

func TestMarkFailedTruncatesLongErrors(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger, err := NewLedger(db)
	require.NoError(t, err)

	ctx := context.Background()
	event := newTestEvent(t)
	_, err = ledger.EnsureDeliveryRecord(ctx, event)
	require.NoError(t, err)

	longErr := errors.New(strings.Repeat("x", 5000))
	require.NoError(t, ledger.MarkFailed(ctx, event.ID, longErr))

	var row models.EventDelivery
	require.NoError(t, db.Where("event_id = ?", event.ID).First(&row).Error)
	require.NotNil(t, row.LastError)
	assert.Len(t, *row.LastError, maxLastErrorLen)
}

func TestListPendingDeliveries(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger, err := NewLedger(db)
	require.NoError(t, err)

	ctx := context.Background()

	var ordered []uuid.UUID
	for i := 0; i < 3; i++ {
		event := newTestEvent(t)
		_, err := ledger.EnsureDeliveryRecord(ctx, event)
		require.NoError(t, err)
		ordered = append(ordered, event.ID)
		time.Sleep(2 * time.Millisecond)
	}

	published := newTestEvent(t)
	_, err = ledger.EnsureDeliveryRecord(ctx, published)
	require.NoError(t, err)
	require.NoError(t, ledger.MarkPublished(ctx, published.ID))

	exhausted := newTestEvent(t)
	_, err = ledger.EnsureDeliveryRecord(ctx, exhausted)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.EventDelivery{}).
		Where("event_id = ?", exhausted.ID).
		UpdateColumn("attempts", DefaultMaxAttempts).Error)

	pending, err := ledger.ListPendingDeliveries(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, delivery := range pending {
		assert.Equal(t, ordered[i], delivery.EventID)
		assert.NotEmpty(t, delivery.Payload)
	}

	limited, err := ledger.ListPendingDeliveries(ctx, 2, DefaultMaxAttempts)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
