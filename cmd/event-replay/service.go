package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aerotrack-io/aerotrack-backend/pkg/config"
	"github.com/aerotrack-io/aerotrack-backend/pkg/events"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
	"github.com/aerotrack-io/aerotrack-backend/pkg/metrics"
)

const defaultPublishTimeout = 15 * time.Second

type deliveryLedger interface {
	ListPendingDeliveries(ctx context.Context, limit, maxAttempts int) ([]events.PendingDelivery, error)
	MarkAttempt(ctx context.Context, eventID uuid.UUID) error
	MarkPublished(ctx context.Context, eventID uuid.UUID) error
	MarkFailed(ctx context.Context, eventID uuid.UUID, cause error) error
}

// Summary is the outcome of one replay run. Failed includes the invalid
// payload count, so Scanned = Replayed + Failed + still-pending skips.
// A dry run populates only Scanned and InvalidPayload.
type Summary struct {
	Scanned        int `json:"scanned"`
	Replayed       int `json:"replayed"`
	Failed         int `json:"failed"`
	InvalidPayload int `json:"invalidPayload"`
}

type ServiceParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Ledger    deliveryLedger
	Publisher events.Publisher
	Metrics   *metrics.EventMetrics
	DryRun    bool
}

// Service re-publishes pending ledger rows. A run is best-effort: per-event
// failures are counted, never fatal.
type Service struct {
	cfg         *config.Config
	logg        *logger.Logger
	ledger      deliveryLedger
	publisher   events.Publisher
	metrics     *metrics.EventMetrics
	dryRun      bool
	limit       int
	maxAttempts int
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Ledger == nil {
		return nil, errors.New("delivery ledger is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("publisher is required")
	}

	limit := params.Config.Replay.Limit
	if limit <= 0 {
		limit = events.DefaultPendingLimit
	}
	maxAttempts := params.Config.Replay.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = events.DefaultMaxAttempts
	}

	return &Service{
		cfg:         params.Config,
		logg:        params.Logger,
		ledger:      params.Ledger,
		publisher:   params.Publisher,
		metrics:     params.Metrics,
		dryRun:      params.DryRun,
		limit:       limit,
		maxAttempts: maxAttempts,
	}, nil
}

// Run scans the pending ledger once and attempts delivery for each row.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	summary := Summary{}

	pending, err := s.ledger.ListPendingDeliveries(ctx, s.limit, s.maxAttempts)
	if err != nil {
		return summary, err
	}
	summary.Scanned = len(pending)

	for _, delivery := range pending {
		fields := map[string]any{
			"event_id":   delivery.EventID.String(),
			"event_type": delivery.EventType,
			"attempts":   delivery.Attempts,
		}
		eventCtx := s.logg.WithFields(ctx, fields)

		if s.dryRun {
			if _, err := events.Decode(delivery.Payload); err != nil {
				summary.InvalidPayload++
				s.logg.Warn(s.logg.WithField(eventCtx, "error", err.Error()), "dry run, undecodable event payload")
				continue
			}
			s.logg.Info(eventCtx, "dry run, would republish event")
			continue
		}

		// The attempt is consumed before deserialization so a poison
		// payload still counts toward the max-attempts ceiling.
		if err := s.ledger.MarkAttempt(ctx, delivery.EventID); err != nil {
			summary.Failed++
			s.logg.Error(eventCtx, "marking replay attempt failed", err)
			continue
		}

		event, err := events.Decode(delivery.Payload)
		if err != nil {
			summary.InvalidPayload++
			summary.Failed++
			s.metrics.IncInvalidPayload()
			s.logg.Warn(s.logg.WithField(eventCtx, "error", err.Error()), "skipping undecodable event payload")
			if markErr := s.ledger.MarkFailed(ctx, delivery.EventID, err); markErr != nil {
				s.logg.Error(eventCtx, "recording invalid payload failed", markErr)
			}
			continue
		}

		publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
		publishErr := s.publisher.Publish(publishCtx, event)
		cancel()

		if publishErr != nil {
			summary.Failed++
			s.metrics.IncPublishFailed(delivery.EventType)
			s.logg.Warn(s.logg.WithField(eventCtx, "error", publishErr.Error()), "replay publish failed")
			if markErr := s.ledger.MarkFailed(ctx, delivery.EventID, publishErr); markErr != nil {
				s.logg.Error(eventCtx, "recording replay failure failed", markErr)
			}
			continue
		}

		if err := s.ledger.MarkPublished(ctx, delivery.EventID); err != nil {
			summary.Failed++
			s.logg.Error(eventCtx, "marking replayed event published failed", err)
			continue
		}

		summary.Replayed++
		s.metrics.IncReplayed(delivery.EventType)
		s.logg.Info(eventCtx, "event replayed")
	}

	return summary, nil
}
