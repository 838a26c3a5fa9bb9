// Package observability wires the Prometheus registry and the collectors
// the server exposes at /metrics.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cognivox/voicescreen-go/internal/observability/metrics"
	"github.com/cognivox/voicescreen-go/internal/tcn"
)

// Metrics bundles the per-subsystem collectors behind one registry.
type Metrics struct {
	registry *prometheus.Registry
	TCN      *metrics.TCNMetrics
	HTTP     *metrics.HTTPMetrics
}

// NewMetrics builds a fresh registry with all collectors registered and
// hooks the TCN collectors into pipeline stage tracing.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	tcnMetrics, err := metrics.NewTCNMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create TCN metrics: %w", err)
	}
	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	initializeTracing(tcnMetrics)

	return &Metrics{registry: registry, TCN: tcnMetrics, HTTP: httpMetrics}, nil
}

// RegisterHandlers mounts the /metrics endpoint on mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", m.Handler())
}

// Handler serves the registry. Collector errors are logged to stderr and
// fail the scrape.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// initializeTracing points stage tracing at this instance's collectors.
// tcn.SetMetrics only honors the first call.
func initializeTracing(tcnMetrics *metrics.TCNMetrics) {
	tcn.SetMetrics(tcnMetrics)
}
