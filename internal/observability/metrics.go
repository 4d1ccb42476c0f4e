package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline. In watch mode they are served on /metrics; one-shot
// runs still populate them so both modes share instrumentation.
type Metrics struct {
	RunsTotal   prometheus.Counter
	RunErrors   prometheus.Counter
	RunDuration prometheus.Histogram

	TimeMarkers   prometheus.Counter
	Observations  prometheus.Counter
	ParseWarnings prometheus.Counter
	SheetsSkipped prometheus.Counter

	UnmappedWells  prometheus.Gauge // distinct unmapped wells in the latest run
	WatcherRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "od600_etl",
			Name:      "runs_total",
			Help:      "Total export files processed, successful or not.",
		}),
		RunErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "od600_etl",
			Name:      "run_errors_total",
			Help:      "Total export files that failed fatally.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "od600_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of one complete parse-assemble-annotate run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		TimeMarkers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "od600_etl",
			Name:      "time_markers_total",
			Help:      "Total cycle time markers discovered across all runs.",
		}),
		Observations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "od600_etl",
			Name:      "observations_total",
			Help:      "Total well observations extracted across all runs.",
		}),
		ParseWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "od600_etl",
			Name:      "parse_warnings_total",
			Help:      "Total recoverable parse anomalies (bad tokens, skipped sheets, missing grids).",
		}),
		SheetsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "od600_etl",
			Name:      "sheets_skipped_total",
			Help:      "Total sheets that yielded no cycle blocks.",
		}),
		UnmappedWells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "od600_etl",
			Name:      "unmapped_wells",
			Help:      "Distinct wells with no condition mapping in the latest run.",
		}),
		WatcherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "od600_etl",
			Name:      "watcher_running",
			Help:      "1 when the directory watcher is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunErrors,
		m.RunDuration,
		m.TimeMarkers,
		m.Observations,
		m.ParseWarnings,
		m.SheetsSkipped,
		m.UnmappedWells,
		m.WatcherRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "od600_etl", Name: "runs_total"}),
		RunErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "od600_etl", Name: "run_errors_total"}),
		RunDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "od600_etl", Name: "run_duration_seconds"}),
		TimeMarkers:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "od600_etl", Name: "time_markers_total"}),
		Observations:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "od600_etl", Name: "observations_total"}),
		ParseWarnings:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "od600_etl", Name: "parse_warnings_total"}),
		SheetsSkipped:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "od600_etl", Name: "sheets_skipped_total"}),
		UnmappedWells:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "od600_etl", Name: "unmapped_wells"}),
		WatcherRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "od600_etl", Name: "watcher_running"}),
	}
}
