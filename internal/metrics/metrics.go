// Package metrics records per-run counters and exports them in the node
// exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"accidentes/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "accidentes"

// Metrics holds the metrics of one cleaning run. Each run gets its own
// registry so the exported file only describes that run.
type Metrics struct {
	registry *prometheus.Registry

	RowsFetched          prometheus.Counter
	RowsWritten          prometheus.Counter
	RowsExcluded         *prometheus.CounterVec
	RunDurationSeconds   prometheus.Gauge
	LastSuccessTimestamp prometheus.Gauge
}

// New creates and registers the run metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.RowsFetched = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rows_fetched_total",
		Help:      "Data rows in the fetched source table",
	})
	m.RowsWritten = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rows_written_total",
		Help:      "Rows in the persisted canonical table",
	})
	m.RowsExcluded = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rows_excluded_total",
		Help:      "Rows excluded from the canonical table by reason",
	}, []string{"reason"})
	m.RunDurationSeconds = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run",
	})
	m.LastSuccessTimestamp = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run",
	})

	// Every reason is exported, zero or not, so dashboards see a stable series set.
	for _, reason := range models.Reasons {
		m.RowsExcluded.WithLabelValues(string(reason))
	}

	return m
}

// RecordExclusions adds the per-reason exclusion counts.
func (m *Metrics) RecordExclusions(counts map[models.Reason]int) {
	for reason, n := range counts {
		m.RowsExcluded.WithLabelValues(string(reason)).Add(float64(n))
	}
}

// RecordSuccess marks the run as successful.
func (m *Metrics) RecordSuccess(duration time.Duration, at time.Time) {
	m.RunDurationSeconds.Set(duration.Seconds())
	m.LastSuccessTimestamp.Set(float64(at.Unix()))
}

// WriteTextfile writes the metrics to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	return nil
}
