package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
	"github.com/aerotrack-io/aerotrack-backend/pkg/metrics"
)

const defaultPublishTimeout = 15 * time.Second

type deliveryLedger interface {
	EnsureDeliveryRecord(ctx context.Context, event Event) (bool, error)
	MarkAttempt(ctx context.Context, eventID uuid.UUID) error
	MarkPublished(ctx context.Context, eventID uuid.UUID) error
	MarkFailed(ctx context.Context, eventID uuid.UUID, cause error) error
}

// CoordinatorParams carries the coordinator's dependencies.
type CoordinatorParams struct {
	Ledger         deliveryLedger
	Publisher      Publisher
	Logger         *logger.Logger
	Metrics        *metrics.EventMetrics
	PublishTimeout time.Duration
}

// Coordinator drives one event through the ledger and out to the publisher.
// Every delivery failure is absorbed and recorded; a failed publish never
// propagates into the caller's request path.
type Coordinator struct {
	ledger         deliveryLedger
	publisher      Publisher
	logg           *logger.Logger
	metrics        *metrics.EventMetrics
	publishTimeout time.Duration
}

func NewCoordinator(params CoordinatorParams) (*Coordinator, error) {
	if params.Ledger == nil {
		return nil, errors.New("delivery ledger is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}

	timeout := params.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	return &Coordinator{
		ledger:         params.Ledger,
		publisher:      params.Publisher,
		logg:           params.Logger,
		metrics:        params.Metrics,
		publishTimeout: timeout,
	}, nil
}

// PublishSafely records the event in the ledger, attempts delivery once, and
// marks the outcome. It never returns an error; unrecoverable problems land
// in the log and the ledger, and the replay job picks the event up later.
func (c *Coordinator) PublishSafely(ctx context.Context, event Event) {
	if ctx == nil {
		ctx = context.Background()
	}
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   event.ID.String(),
		"event_type": event.Type,
	})

	alreadyPublished, err := c.ledger.EnsureDeliveryRecord(ctx, event)
	if err != nil {
		c.logg.Error(logCtx, "recording event delivery failed", err)
		return
	}
	if alreadyPublished {
		c.logg.Info(logCtx, "event already published, skipping")
		return
	}

	if err := c.ledger.MarkAttempt(ctx, event.ID); err != nil {
		c.logg.Error(logCtx, "marking publish attempt failed", err)
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, c.publishTimeout)
	defer cancel()

	start := time.Now()
	publishErr := c.publisher.Publish(publishCtx, event)
	c.metrics.ObservePublishDuration(string(event.Type), time.Since(start))

	if publishErr != nil {
		c.metrics.IncPublishFailed(string(event.Type))
		c.logg.Warn(c.logg.WithField(logCtx, "error", publishErr.Error()), "event publish failed")
		if err := c.ledger.MarkFailed(ctx, event.ID, publishErr); err != nil {
			c.logg.Error(logCtx, "recording publish failure failed", err)
		}
		return
	}

	if err := c.ledger.MarkPublished(ctx, event.ID); err != nil {
		c.logg.Error(logCtx, "marking event published failed", err)
		return
	}
	c.metrics.IncPublished(string(event.Type))
	c.logg.Info(logCtx, "event published")
}
