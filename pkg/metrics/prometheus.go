package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes Prometheus instruments for the rate pipeline.
// It owns its registry so repeated construction (tests, combined
// api+scheduler process) never double-registers.
type Recorder struct {
	registry *prometheus.Registry

	ingestRuns   *prometheus.CounterVec
	rowsUpserted prometheus.Counter
	lastRate     prometheus.Gauge
	evaluations  *prometheus.CounterVec
	alertsFired  *prometheus.CounterVec
	suppressed   prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder
func New() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		ingestRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pesowatch_ingest_runs_total",
				Help: "Total number of upstream ingestion runs",
			},
			[]string{"status"},
		),
		rowsUpserted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pesowatch_rate_rows_upserted_total",
				Help: "Total number of rate rows written to storage",
			},
		),
		lastRate: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pesowatch_last_rate",
				Help: "Most recently ingested USD/PHP rate",
			},
		),
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pesowatch_alert_evaluations_total",
				Help: "Total number of alert engine evaluations",
			},
			[]string{"status"},
		),
		alertsFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pesowatch_alerts_fired_total",
				Help: "Total number of alerts fired after cooldown gating",
			},
			[]string{"severity", "kind"},
		),
		suppressed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pesowatch_alerts_suppressed_total",
				Help: "Total number of alerts suppressed by cooldown",
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pesowatch_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pesowatch_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}

// Handler returns the scrape endpoint handler backed by this recorder's registry
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordIngest records one ingestion run and the rows it wrote
func (r *Recorder) RecordIngest(status string, rows int) {
	r.ingestRuns.WithLabelValues(status).Inc()
	if rows > 0 {
		r.rowsUpserted.Add(float64(rows))
	}
}

// SetLastRate records the most recent rate value
func (r *Recorder) SetLastRate(rate float64) {
	r.lastRate.Set(rate)
}

// RecordEvaluation records one alert engine run (status: live, waiting)
func (r *Recorder) RecordEvaluation(status string) {
	r.evaluations.WithLabelValues(status).Inc()
}

// RecordAlert records a fired alert
func (r *Recorder) RecordAlert(severity, kind string) {
	r.alertsFired.WithLabelValues(severity, kind).Inc()
}

// RecordSuppressed records cooldown suppressions
func (r *Recorder) RecordSuppressed(count int) {
	if count > 0 {
		r.suppressed.Add(float64(count))
	}
}

// RecordHTTPRequest records one handled HTTP request
func (r *Recorder) RecordHTTPRequest(route, method, status string, seconds float64) {
	r.httpRequests.WithLabelValues(route, method, status).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(seconds)
}
