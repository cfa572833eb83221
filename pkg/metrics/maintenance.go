package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MaintenanceMetrics records outcomes of scheduled maintenance jobs.
type MaintenanceMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	rows     *prometheus.CounterVec
}

// NewMaintenanceMetrics registers the maintenance job metrics on reg.
func NewMaintenanceMetrics(reg prometheus.Registerer) *MaintenanceMetrics {
	if reg == nil {
		return &MaintenanceMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "maintenance_job_duration_seconds",
		Help:    "Duration of maintenance jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_job_runs_total",
		Help: "Maintenance job executions by outcome.",
	}, []string{"job", "outcome"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_rows_deleted_total",
		Help: "Rows removed by maintenance jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, rows)
	return &MaintenanceMetrics{
		duration: duration,
		runs:     runs,
		rows:     rows,
	}
}

// ObserveRun records a finished job. A nil err counts as OutcomeOK.
func (m *MaintenanceMetrics) ObserveRun(job string, duration time.Duration, err error) {
	if m == nil || m.runs == nil {
		return
	}
	job = normalizeLabel(job)
	outcome := OutcomeOK
	if err != nil {
		outcome = "failed"
	}
	m.runs.WithLabelValues(job, outcome).Inc()
	m.duration.WithLabelValues(job).Observe(duration.Seconds())
}

// AddRowsDeleted counts rows a job removed.
func (m *MaintenanceMetrics) AddRowsDeleted(job string, rows int64) {
	if m == nil || m.rows == nil || rows <= 0 {
		return
	}
	m.rows.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}
