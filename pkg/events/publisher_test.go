package events

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aerotrack-io/aerotrack-backend/pkg/config"
	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "events-test",
		Level:       zerolog.ErrorLevel,
		Output:      io.Discard,
	})
}

func testConfig(kind string) *config.Config {
	return &config.Config{
		Eventing: config.EventingConfig{Publisher: kind},
		GCP:      config.GCPConfig{ProjectID: "test-project"},
		PubSub:   config.PubSubConfig{DomainTopic: "aircraft-domain-events"},
	}
}

func TestNewPublisherSelection(t *testing.T) {
	logg := testLogger()

	cases := []struct {
		kind    string
		want    string
		wantErr bool
	}{
		{kind: config.PublisherNoop, want: "*events.NoopPublisher"},
		{kind: config.PublisherLog, want: "*events.LogPublisher"},
		{kind: "", want: "*events.LogPublisher"},
		{kind: config.PublisherPubSub, want: "*events.BusPublisher"},
		{kind: "kafka", wantErr: true},
	}

	for _, tc := range cases {
		pub, err := NewPublisher(testConfig(tc.kind), logg)
		if tc.wantErr {
			if err == nil {
				t.Errorf("kind %q: expected error", tc.kind)
			}
			continue
		}
		if err != nil {
			t.Errorf("kind %q: unexpected error %v", tc.kind, err)
			continue
		}
		if got := typeName(pub); got != tc.want {
			t.Errorf("kind %q: got %s, want %s", tc.kind, got, tc.want)
		}
	}
}

func TestBusPublisherRequiresProjectAndTopic(t *testing.T) {
	logg := testLogger()

	cfg := testConfig(config.PublisherPubSub)
	cfg.GCP.ProjectID = ""
	if _, err := NewPublisher(cfg, logg); err == nil {
		t.Error("expected error without project id")
	}

	cfg = testConfig(config.PublisherPubSub)
	cfg.PubSub.DomainTopic = ""
	if _, err := NewPublisher(cfg, logg); err == nil {
		t.Error("expected error without domain topic")
	}
}

func TestNoopPublisher(t *testing.T) {
	pub := &NoopPublisher{}
	event, err := New(enums.EventAircraftCreated, "src", map[string]string{"tailNumber": "N250BA"}, ActorRef{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Errorf("noop Publish returned error: %v", err)
	}
	if err := pub.PublishBatch(context.Background(), []Event{event, event}); err != nil {
		t.Errorf("noop PublishBatch returned error: %v", err)
	}
}

func TestLogPublisher(t *testing.T) {
	pub := NewLogPublisher(testLogger())
	event, err := New(enums.EventMilestoneUpdated, "src", map[string]int{"progress": 40}, ActorRef{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Errorf("log Publish returned error: %v", err)
	}
	if err := pub.PublishBatch(context.Background(), []Event{event}); err != nil {
		t.Errorf("log PublishBatch returned error: %v", err)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *NoopPublisher:
		return "*events.NoopPublisher"
	case *LogPublisher:
		return "*events.LogPublisher"
	case *BusPublisher:
		return "*events.BusPublisher"
	}
	return "unknown"
}
