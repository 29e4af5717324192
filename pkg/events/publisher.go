package events

import (
	"context"
	"fmt"

	"github.com/aerotrack-io/aerotrack-backend/pkg/config"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
)

// Publisher delivers domain events to whatever bus the deployment wires up.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	PublishBatch(ctx context.Context, events []Event) error
}

// NewPublisher selects the configured publisher. Unknown kinds are an error
// rather than a silent noop.
func NewPublisher(cfg *config.Config, logg *logger.Logger) (Publisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	switch cfg.Eventing.Publisher {
	case config.PublisherNoop:
		return &NoopPublisher{}, nil
	case config.PublisherLog, "":
		if logg == nil {
			return nil, fmt.Errorf("logger is required for the log publisher")
		}
		return &LogPublisher{logg: logg}, nil
	case config.PublisherPubSub:
		return NewBusPublisher(cfg.GCP, cfg.PubSub, logg)
	}
	return nil, fmt.Errorf("unknown event publisher %q", cfg.Eventing.Publisher)
}

// NoopPublisher discards every event. Used in tests and isolated environments.
type NoopPublisher struct{}

func (*NoopPublisher) Publish(context.Context, Event) error {
	return nil
}

func (*NoopPublisher) PublishBatch(context.Context, []Event) error {
	return nil
}

// LogPublisher writes each event to the structured log instead of a bus.
type LogPublisher struct {
	logg *logger.Logger
}

func NewLogPublisher(logg *logger.Logger) *LogPublisher {
	return &LogPublisher{logg: logg}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	fields := map[string]any{
		"event_id":    event.ID.String(),
		"event_type":  event.Type,
		"source":      event.Source,
		"occurred_at": event.OccurredAt,
	}
	p.logg.Info(p.logg.WithFields(ctx, fields), "domain event")
	return nil
}

func (p *LogPublisher) PublishBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
