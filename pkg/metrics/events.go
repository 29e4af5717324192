package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EventMetrics records delivery outcomes for the domain event pipeline.
type EventMetrics struct {
	publishDuration *prometheus.HistogramVec
	published       *prometheus.CounterVec
	publishFailed   *prometheus.CounterVec
	replayed        *prometheus.CounterVec
	invalidPayload  prometheus.Counter
}

// NewEventMetrics registers the event pipeline metrics on the provided registerer.
func NewEventMetrics(reg prometheus.Registerer) *EventMetrics {
	if reg == nil {
		return &EventMetrics{}
	}
	publishDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "event_publish_duration_seconds",
		Help:    "Duration of domain event publish calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_published_total",
		Help: "Domain events published successfully.",
	}, []string{"event_type"})
	publishFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_publish_failed_total",
		Help: "Domain event publish attempts that failed.",
	}, []string{"event_type"})
	replayed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_replayed_total",
		Help: "Domain events re-published by the replay job.",
	}, []string{"event_type"})
	invalidPayload := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "event_invalid_payload_total",
		Help: "Ledger rows whose payload could not be decoded.",
	})
	reg.MustRegister(publishDuration, published, publishFailed, replayed, invalidPayload)
	return &EventMetrics{
		publishDuration: publishDuration,
		published:       published,
		publishFailed:   publishFailed,
		replayed:        replayed,
		invalidPayload:  invalidPayload,
	}
}

// ObservePublishDuration records how long one publish call took.
func (m *EventMetrics) ObservePublishDuration(eventType string, duration time.Duration) {
	if m == nil || m.publishDuration == nil {
		return
	}
	m.publishDuration.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncPublished increments the success counter for the event type.
func (m *EventMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncPublishFailed increments the failure counter for the event type.
func (m *EventMetrics) IncPublishFailed(eventType string) {
	if m == nil || m.publishFailed == nil {
		return
	}
	m.publishFailed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncReplayed increments the replay counter for the event type.
func (m *EventMetrics) IncReplayed(eventType string) {
	if m == nil || m.replayed == nil {
		return
	}
	m.replayed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncInvalidPayload counts an undecodable ledger payload.
func (m *EventMetrics) IncInvalidPayload() {
	if m == nil || m.invalidPayload == nil {
		return
	}
	m.invalidPayload.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
