package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"go.uber.org/multierr"
	"google.golang.org/grpc/status"

	"github.com/aerotrack-io/aerotrack-backend/pkg/config"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
)

// BusPublisher ships events to the domain topic on Pub/Sub. The underlying
// client is created on first publish and cached for the process lifetime.
type BusPublisher struct {
	gcp   config.GCPConfig
	topic string
	logg  *logger.Logger

	mu     sync.Mutex
	client *gcppubsub.Client
	pub    *gcppubsub.Publisher
}

func NewBusPublisher(gcp config.GCPConfig, ps config.PubSubConfig, logg *logger.Logger) (*BusPublisher, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, fmt.Errorf("gcp project id is required for the pubsub publisher")
	}
	if strings.TrimSpace(ps.DomainTopic) == "" {
		return nil, fmt.Errorf("pubsub domain topic is required")
	}
	return &BusPublisher{
		gcp:   gcp,
		topic: ps.DomainTopic,
		logg:  logg,
	}, nil
}

func (p *BusPublisher) publisher(ctx context.Context) (*gcppubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pub != nil {
		return p.pub, nil
	}

	client, err := gcppubsub.NewClient(ctx, p.gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	p.client = client
	p.pub = client.Publisher(p.topic)
	if p.logg != nil {
		p.logg.Info(ctx, "pubsub publisher initialized")
	}
	return p.pub, nil
}

// Close releases the cached client, if one was ever created.
func (p *BusPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	p.pub = nil
	return err
}

func (p *BusPublisher) Publish(ctx context.Context, event Event) error {
	return p.PublishBatch(ctx, []Event{event})
}

// PublishBatch sends every event, waits for every result, and fails the whole
// call if any entry failed. Entry failures carry the gRPC status code.
func (p *BusPublisher) PublishBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	pub, err := p.publisher(ctx)
	if err != nil {
		return err
	}

	results := make([]*gcppubsub.PublishResult, 0, len(events))
	for _, event := range events {
		payload, err := event.Encode()
		if err != nil {
			return err
		}
		msg := &gcppubsub.Message{
			Data: payload,
			Attributes: map[string]string{
				"event_id":    event.ID.String(),
				"event_type":  string(event.Type),
				"source":      event.Source,
				"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
			},
		}
		results = append(results, pub.Publish(ctx, msg))
	}

	var combined error
	for i, result := range results {
		if _, err := result.Get(ctx); err != nil {
			code := ""
			if st, ok := status.FromError(err); ok {
				code = st.Code().String()
			}
			combined = multierr.Append(combined,
				fmt.Errorf("event %s: %w", events[i].ID, NewPublishError(code, err)))
		}
	}
	return combined
}
