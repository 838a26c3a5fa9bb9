package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics collects request-level metrics for the prediction API. The
// request counter and latency histogram are fed by the metrics middleware on
// every route; the error counter is fed by the error responder with the
// pipeline error category as the type label.
type HTTPMetrics struct {
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	errors       *prometheus.CounterVec
	responseSize *prometheus.HistogramVec
}

// NewHTTPMetrics builds the request collectors and registers them with the
// given registry.
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			// path is the route pattern (/predict, /health), not the raw URL
			[]string{"method", "path", "status_code"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Time taken for HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_request_errors_total",
				Help: "Total number of HTTP request errors",
			},
			// error_type carries the pipeline category: validation,
			// audio-decode, network, model-loading
			[]string{"method", "path", "error_type"},
		),
		responseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "Size of HTTP responses in bytes",
				Buckets: prometheus.ExponentialBuckets(BucketStart100B, BucketFactor10, BucketCount6),
			},
			[]string{"method", "path"},
		),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors() {
		collector.Collect(ch)
	}
}

func (m *HTTPMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.latency, m.errors, m.responseSize}
}

// RecordHTTPRequest records a completed request with its final status code.
func (m *HTTPMetrics) RecordHTTPRequest(method, path string, statusCode int, duration float64) {
	m.requests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.latency.WithLabelValues(method, path).Observe(duration)
}

// RecordHTTPRequestError records a request that failed, by error category.
func (m *HTTPMetrics) RecordHTTPRequestError(method, path, errorType string) {
	m.errors.WithLabelValues(method, path, errorType).Inc()
}

// RecordHTTPResponseSize records the size of a response body.
func (m *HTTPMetrics) RecordHTTPResponseSize(method, path string, sizeBytes int64) {
	m.responseSize.WithLabelValues(method, path).Observe(float64(sizeBytes))
}
