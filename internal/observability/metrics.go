package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges shared by the
// unification jobs and the bulk downloader.
type Metrics struct {
	FilesProcessed  prometheus.Counter
	FileFailures    prometheus.Counter
	RowsParsed      prometheus.Counter
	RowsWritten     prometheus.Counter
	RowsDropped     prometheus.Counter
	RangeViolations *prometheus.CounterVec // labels: field
	JobDuration     prometheus.Histogram
	JobRunning      prometheus.Gauge

	// Downloader metrics.
	DownloadOutcomes *prometheus.CounterVec // labels: outcome={downloaded,existing,unavailable,error,repaired}
	DownloadDuration prometheus.Histogram
	DownloadRunning  prometheus.Gauge

	// Records published to the optional Kafka sink.
	RecordsPublished prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesProcessed,
		m.FileFailures,
		m.RowsParsed,
		m.RowsWritten,
		m.RowsDropped,
		m.RangeViolations,
		m.JobDuration,
		m.JobRunning,
		m.DownloadOutcomes,
		m.DownloadDuration,
		m.DownloadRunning,
		m.RecordsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// construct pipelines repeatedly without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arousa_etl",
			Name:      "files_processed_total",
			Help:      "Raw files parsed successfully.",
		}),
		FileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arousa_etl",
			Name:      "file_failures_total",
			Help:      "Raw files that could not be parsed.",
		}),
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arousa_etl",
			Name:      "rows_parsed_total",
			Help:      "Rows read from raw files.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arousa_etl",
			Name:      "rows_written_total",
			Help:      "Rows written to the unified outputs.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arousa_etl",
			Name:      "rows_dropped_total",
			Help:      "Rows dropped for invalid timestamps or duplicate keys.",
		}),
		RangeViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arousa_etl",
			Name:      "range_violations_total",
			Help:      "Values outside physically plausible ranges, by field.",
		}, []string{"field"}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arousa_etl",
			Name:      "job_duration_seconds",
			Help:      "Duration of a complete unification job.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		JobRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arousa_etl",
			Name:      "job_running",
			Help:      "1 while a unification job is active.",
		}),
		DownloadOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arousa_etl",
			Name:      "download_outcomes_total",
			Help:      "Per-date outcomes of the bulk NetCDF downloader.",
		}, []string{"outcome"}),
		DownloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arousa_etl",
			Name:      "download_duration_seconds",
			Help:      "Duration of a single NetCDF file download.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		DownloadRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arousa_etl",
			Name:      "download_running",
			Help:      "1 while the bulk downloader is active.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arousa_etl",
			Name:      "records_published_total",
			Help:      "Unified records published to the Kafka sink topic.",
		}),
	}
}
