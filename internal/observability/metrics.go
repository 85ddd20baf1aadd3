package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// assessment pipeline.
type Metrics struct {
	RunsTotal        prometheus.Counter
	RunDuration      prometheus.Histogram
	RunLastSuccess   prometheus.Gauge
	PipelineRunning  prometheus.Gauge
	AssessmentsTotal *prometheus.CounterVec // labels: status

	// Fetch layer metrics.
	FetchRequests  *prometheus.CounterVec   // labels: source, outcome={success,error,fallback}
	FetchDuration  *prometheus.HistogramVec // labels: source
	BreakerOpen    *prometheus.CounterVec   // labels: host
	ReportsWritten *prometheus.CounterVec   // labels: format={json,markdown}

	// Kafka sink metrics.
	AssessmentsPublished prometheus.Counter
	PublishErrors        prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flight_triage",
			Name:      "runs_total",
			Help:      "Total assessment runs started.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flight_triage",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-assess-report cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		RunLastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flight_triage",
			Name:      "run_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flight_triage",
			Name:      "pipeline_running",
			Help:      "1 when a run is in flight, 0 otherwise.",
		}),
		AssessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_triage",
			Name:      "assessments_total",
			Help:      "Assessments produced by terminal status.",
		}, []string{"status"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_triage",
			Name:      "fetch_requests_total",
			Help:      "Upstream forecast requests by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flight_triage",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream forecast request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		BreakerOpen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_triage",
			Name:      "breaker_open_total",
			Help:      "Requests rejected by an open circuit breaker, by host.",
		}, []string{"host"}),
		ReportsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_triage",
			Name:      "reports_written_total",
			Help:      "Report files written by format.",
		}, []string{"format"}),
		AssessmentsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flight_triage",
			Name:      "assessments_published_total",
			Help:      "Assessments published to the Kafka sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flight_triage",
			Name:      "publish_errors_total",
			Help:      "Failed Kafka publishes.",
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.RunLastSuccess,
		m.PipelineRunning,
		m.AssessmentsTotal,
		m.FetchRequests,
		m.FetchDuration,
		m.BreakerOpen,
		m.ReportsWritten,
		m.AssessmentsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flight_triage", Name: "runs_total"}),
		RunDuration:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "flight_triage", Name: "run_duration_seconds"}),
		RunLastSuccess:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "flight_triage", Name: "run_last_success_timestamp_seconds"}),
		PipelineRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "flight_triage", Name: "pipeline_running"}),
		AssessmentsTotal:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flight_triage", Name: "assessments_total"}, []string{"status"}),
		FetchRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flight_triage", Name: "fetch_requests_total"}, []string{"source", "outcome"}),
		FetchDuration:        prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "flight_triage", Name: "fetch_duration_seconds"}, []string{"source"}),
		BreakerOpen:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flight_triage", Name: "breaker_open_total"}, []string{"host"}),
		ReportsWritten:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flight_triage", Name: "reports_written_total"}, []string{"format"}),
		AssessmentsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flight_triage", Name: "assessments_published_total"}),
		PublishErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flight_triage", Name: "publish_errors_total"}),
	}
}
