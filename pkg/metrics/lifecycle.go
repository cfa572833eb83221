package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeOK labels operations that committed.
const OutcomeOK = "ok"

// LifecycleMetrics records invoice lifecycle outcomes.
type LifecycleMetrics struct {
	duration       *prometheus.HistogramVec
	operations     *prometheus.CounterVec
	notifyFailures *prometheus.CounterVec
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoice_operation_duration_seconds",
		Help:    "Duration of invoice lifecycle operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_operations_total",
		Help: "Invoice lifecycle operations by outcome.",
	}, []string{"operation", "outcome"})
	notifyFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_notify_failures_total",
		Help: "Lifecycle notifications that could not be delivered.",
	}, []string{"operation"})
	reg.MustRegister(duration, operations, notifyFailures)
	return &LifecycleMetrics{
		duration:       duration,
		operations:     operations,
		notifyFailures: notifyFailures,
	}
}

// ObserveOperation records one finished operation. outcome is OutcomeOK or
// the name of the violation that stopped it.
func (m *LifecycleMetrics) ObserveOperation(operation, outcome string, duration time.Duration) {
	if m == nil || m.operations == nil {
		return
	}
	operation = normalizeLabel(operation)
	m.operations.WithLabelValues(operation, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncNotifyFailure counts a notification that failed after commit.
func (m *LifecycleMetrics) IncNotifyFailure(operation string) {
	if m == nil || m.notifyFailures == nil {
		return
	}
	m.notifyFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
