package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Publish outcomes for outbox rows handled by the publisher.
const (
	PublishOutcomePublished    = "published"
	PublishOutcomeRetry        = "retry"
	PublishOutcomeDeadLettered = "dead_lettered"
	PublishOutcomeDeferred     = "deferred"
)

// PublisherMetrics records what the outbox publisher did with each invoice event.
type PublisherMetrics struct {
	events  *prometheus.CounterVec
	latency prometheus.Histogram
}

// NewPublisherMetrics registers the publisher metrics on reg.
func NewPublisherMetrics(reg prometheus.Registerer) *PublisherMetrics {
	if reg == nil {
		return &PublisherMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_outbox_events_total",
		Help: "Invoice outbox rows handled by the publisher, by event type and outcome.",
	}, []string{"event_type", "outcome"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "invoice_outbox_publish_lag_seconds",
		Help:    "Time between an invoice event being written to the outbox and its publication.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
	})
	reg.MustRegister(events, latency)
	return &PublisherMetrics{events: events, latency: latency}
}

// ObserveEvent counts one handled row.
func (m *PublisherMetrics) ObserveEvent(eventType, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// ObserveLag records how long a published row waited in the outbox.
func (m *PublisherMetrics) ObserveLag(lag time.Duration) {
	if m == nil || m.latency == nil || lag < 0 {
		return
	}
	m.latency.Observe(lag.Seconds())
}
