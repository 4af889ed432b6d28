// Package metrics provides Prometheus metrics for the snowlog batch
// analyzer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for the analyzer.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	// Ingest metrics - row quality of the upstream export
	rowsRead      prometheus.Counter
	rowsDropped   *prometheus.CounterVec
	rowsDuplicate prometheus.Counter

	// Inference metrics
	usersBySource *prometheus.GaugeVec
	conflicts     *prometheus.CounterVec

	// Battle metrics
	battlesEmitted prometheus.Gauge

	// Pipeline metrics
	stageDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager()
}

// NewManager creates a new metrics manager with default configuration.
// A custom registry is used to avoid the default Go collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "snowlog",
		registry:  prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "ingest_rows_read_total",
		Help:      "Total number of hit-log rows accepted",
	})

	m.rowsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "ingest_rows_dropped_total",
		Help:      "Total number of hit-log rows dropped, by reason",
	}, []string{"reason"})

	m.rowsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "ingest_rows_duplicate_total",
		Help:      "Total number of duplicate hit-log rows suppressed",
	})

	m.usersBySource = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "inference_users",
		Help:      "Users per team assignment source in the last run",
	}, []string{"source"})

	m.conflicts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "inference_conflicts_total",
		Help:      "Total number of team conflicts recorded, by kind",
	}, []string{"kind"})

	m.battlesEmitted = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "battles_emitted",
		Help:      "Battles emitted by the last run",
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "stage_duration_seconds",
		Help:      "Histogram of pipeline stage durations in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})
}

// Handler returns an HTTP handler serving the manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package-level helpers operating on the global manager.

// RecordRowRead increments the accepted-row counter.
func RecordRowRead() { globalManager.rowsRead.Inc() }

// RecordRowDropped increments the dropped-row counter for a reason.
func RecordRowDropped(reason string) { globalManager.rowsDropped.WithLabelValues(reason).Inc() }

// RecordRowDuplicate increments the duplicate-row counter.
func RecordRowDuplicate() { globalManager.rowsDuplicate.Inc() }

// SetUsersBySource records the user count for one assignment source.
func SetUsersBySource(source string, count int) {
	globalManager.usersBySource.WithLabelValues(source).Set(float64(count))
}

// RecordConflict increments the conflict counter for a kind.
func RecordConflict(kind string) { globalManager.conflicts.WithLabelValues(kind).Inc() }

// SetBattlesEmitted records the battle count of the last run.
func SetBattlesEmitted(n int) { globalManager.battlesEmitted.Set(float64(n)) }

// ObserveStageDuration records one pipeline stage duration.
func ObserveStageDuration(stage string, seconds float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// Handler returns the global manager's HTTP handler.
func Handler() http.Handler { return globalManager.Handler() }
