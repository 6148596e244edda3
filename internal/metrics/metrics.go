package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values for password changes
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RotationMetrics records password change outcomes on a private registry,
// so a run can be exported as a node_exporter textfile.
type RotationMetrics struct {
	registry *prometheus.Registry

	changesTotal     *prometheus.CounterVec
	changeDuration   *prometheus.HistogramVec
	lastRunSuccess   prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
}

// NewRotationMetrics creates and registers all metrics
func NewRotationMetrics() *RotationMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &RotationMetrics{
		registry: reg,

		changesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbpassrotate_password_changes_total",
				Help: "Total number of password change attempts per database",
			},
			[]string{"database", "status"},
		),

		changeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbpassrotate_password_change_duration_seconds",
				Help:    "Duration of a password change including connect, in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"database"},
		),

		lastRunSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dbpassrotate_last_run_success",
				Help: "Whether the last run completed without errors (1=yes, 0=no)",
			},
		),

		lastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dbpassrotate_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),
	}
}

// RecordChange records the outcome of one database's password change
func (m *RotationMetrics) RecordChange(database string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := StatusFailed
	if success {
		status = StatusSuccess
	}
	m.changesTotal.WithLabelValues(database, status).Inc()
	m.changeDuration.WithLabelValues(database).Observe(duration.Seconds())
}

// RecordRun records the overall result of a run finishing at finished
func (m *RotationMetrics) RecordRun(success bool, finished time.Time) {
	if m == nil {
		return
	}
	value := 0.0
	if success {
		value = 1.0
	}
	m.lastRunSuccess.Set(value)
	m.lastRunTimestamp.Set(float64(finished.Unix()))
}

// Registry exposes the underlying registry
func (m *RotationMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is written atomically.
func (m *RotationMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
