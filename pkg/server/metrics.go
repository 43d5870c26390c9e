package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the HTTP API.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge

	variationsReturned prometheus.Histogram
	truncatedTotal     prometheus.Counter
	rateLimitedTotal   prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statvar_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statvar_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "statvar_http_requests_in_flight",
				Help: "HTTP requests currently being served",
			},
		),

		variationsReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "statvar_variations_returned",
				Help:    "Number of variations returned per request",
				Buckets: prometheus.ExponentialBuckets(1, 10, 7),
			},
		),

		truncatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "statvar_responses_truncated_total",
				Help: "Responses cut short by the result limit",
			},
		),

		rateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "statvar_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpInFlight,
		m.variationsReturned,
		m.truncatedTotal,
		m.rateLimitedTotal,
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordVariations records the size of a variations response.
func (m *Metrics) RecordVariations(n int, truncated bool) {
	m.variationsReturned.Observe(float64(n))
	if truncated {
		m.truncatedTotal.Inc()
	}
}

// RecordRateLimited records a rejected request.
func (m *Metrics) RecordRateLimited() {
	m.rateLimitedTotal.Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request counts and latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		m.RecordHTTPRequest(r.Method, endpointName(r.URL.Path), strconv.Itoa(wrapped.statusCode), time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// endpointName extracts a normalized endpoint name from the path
func endpointName(path string) string {
	switch strings.TrimSuffix(path, "/") {
	case "/healthz":
		return "health"
	case "/metrics":
		return "metrics"
	case "/v1/variations":
		return "variations"
	case "/v1/count":
		return "count"
	default:
		return "unknown"
	}
}
