// File path: internal/observability/metrics.go
package observability

import (
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackwise_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trackwise_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	pipelineStageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trackwise_pipeline_stage_duration_seconds",
			Help:    "Latency of each question-to-SQL pipeline stage.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"stage"},
	)

	extractionFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trackwise_sql_extraction_failures_total",
			Help: "Total number of model responses without a well-formed SQL fence.",
		},
	)

	verificationOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackwise_verification_outcomes_total",
			Help: "Verified-query submissions by outcome.",
		},
		[]string{"outcome"},
	)

	executionErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trackwise_execution_errors_total",
			Help: "Total number of Oracle execution errors returned to callers.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		pipelineStageDurationSeconds,
		extractionFailuresTotal,
		verificationOutcomesTotal,
		executionErrorsTotal,
	)
}

// ObservePipelineStage starts a stage timer; invoke the returned func when
// the stage finishes.
func ObservePipelineStage(stage string) func() {
	start := time.Now()
	return func() {
		pipelineStageDurationSeconds.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func RecordExtractionFailure() {
	extractionFailuresTotal.Inc()
}

func RecordVerification(outcome string) {
	verificationOutcomesTotal.WithLabelValues(outcome).Inc()
}

func RecordExecutionError() {
	executionErrorsTotal.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// MetricsMiddleware records request totals and latency per route. Labels use
// the chi route pattern rather than the raw URL path so unmatched requests
// cannot mint unbounded label cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		status := strconv.Itoa(recorder.status)
		path := routeLabel(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
