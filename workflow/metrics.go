package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "s2_exporter"

// Metrics holds the Prometheus counters and histograms of the export runs.
type Metrics struct {
	Runs            *prometheus.CounterVec // labels: outcome={success,partial,failed}
	JobsSubmitted   *prometheus.CounterVec // labels: product
	JobsFailed      *prometheus.CounterVec // labels: product
	CatalogDuration prometheus.Histogram
	Candidates      prometheus.Histogram
}

// NewMetrics creates and registers the metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Export runs by outcome.",
		}, []string{"outcome"}),
		JobsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_submitted_total",
			Help:      "Export jobs accepted by the backend, by product.",
		}, []string{"product"}),
		JobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_failed_total",
			Help:      "Export jobs rejected by the backend, by product.",
		}, []string{"product"}),
		CatalogDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "catalog_query_duration_seconds",
			Help:      "Duration of the scene selection.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		Candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "candidates",
			Help:      "Number of scenes matching the query.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
	}

	prometheus.MustRegister(
		m.Runs,
		m.JobsSubmitted,
		m.JobsFailed,
		m.CatalogDuration,
		m.Candidates,
	)

	return m
}

// NewMetricsForTesting creates Metrics that are not registered, so that it can be called by several tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Runs:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: metricsNamespace, Name: "runs_total"}, []string{"outcome"}),
		JobsSubmitted:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: metricsNamespace, Name: "jobs_submitted_total"}, []string{"product"}),
		JobsFailed:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: metricsNamespace, Name: "jobs_failed_total"}, []string{"product"}),
		CatalogDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: metricsNamespace, Name: "catalog_query_duration_seconds"}),
		Candidates:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: metricsNamespace, Name: "candidates"}),
	}
}
