package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "accident_insights"

// Metrics holds the Prometheus counters and histograms for one analysis run.
// The job is one-shot, so metrics live on their own registry and are pushed
// to a Pushgateway on completion instead of being served.
type Metrics struct {
	RowsRead        prometheus.Counter
	RowsWithoutTime prometheus.Counter
	RecordsExported prometheus.Counter
	ExportErrors    prometheus.Counter
	ChartsRendered  prometheus.Counter
	ChartsSkipped   prometheus.Counter

	// StageDuration tracks wall time per pipeline stage. Labels: stage={load,aggregate,render,report,export}.
	StageDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all pipeline metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total data rows read from the source CSV.",
		}),
		RowsWithoutTime: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_without_time_total",
			Help:      "Rows whose Start_Time could not be parsed.",
		}),
		RecordsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_exported_total",
			Help:      "Enriched records published to the export topic.",
		}),
		ExportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_errors_total",
			Help:      "Failed export batches.",
		}),
		ChartsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_rendered_total",
			Help:      "Chart files written.",
		}),
		ChartsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_skipped_total",
			Help:      "Charts skipped because their source columns were absent.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),

		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RowsRead,
		m.RowsWithoutTime,
		m.RecordsExported,
		m.ExportErrors,
		m.ChartsRendered,
		m.ChartsSkipped,
		m.StageDuration,
	)

	return m
}

// NewMetricsForTesting is an alias kept for symmetry with service repos where
// the production constructor registers globally. Here both use a private
// registry, but tests read better asking for the testing variant.
func NewMetricsForTesting() *Metrics {
	return NewMetrics()
}

// Push delivers the run's metrics to a Prometheus Pushgateway.
func (m *Metrics) Push(addr, job string) error {
	if err := push.New(addr, job).Gatherer(m.registry).Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
