// Package metrics provides TCN classifier metrics for observability.
package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cognivox/voicescreen-go/internal/errors"
)

// TCNMetrics contains all Prometheus metrics related to the prediction
// pipeline and the TCN model lifecycle.
type TCNMetrics struct {
	ResultCounter    *prometheus.CounterVec
	ProcessTimeGauge prometheus.Gauge

	// Performance metrics
	StageDuration *prometheus.HistogramVec

	// Operation counters
	PredictionTotal  *prometheus.CounterVec
	PredictionErrors *prometheus.CounterVec
	StageTotal       *prometheus.CounterVec
	StageErrors      *prometheus.CounterVec
	ModelLoadTotal   *prometheus.CounterVec
	ModelLoadErrors  *prometheus.CounterVec

	// Current state gauges
	ActiveProcessingGauge prometheus.Gauge
	ModelLoadedGauge      prometheus.Gauge

	registry *prometheus.Registry
}

// NewTCNMetrics creates a new instance of TCNMetrics.
// It requires a Prometheus registry to register the metrics.
// It returns an error if metric registration fails.
func NewTCNMetrics(registry *prometheus.Registry) (*TCNMetrics, error) {
	m := &TCNMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize TCN metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register TCN metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for TCNMetrics.
func (m *TCNMetrics) initMetrics() error {
	m.ResultCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicescreen_predictions",
			Help: "Total number of predictions partitioned by predicted label.",
		},
		[]string{"label"},
	)
	m.ProcessTimeGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voicescreen_processing_time_milliseconds",
			Help: "Most recent processing time for a prediction request in milliseconds.",
		},
	)

	// Performance histograms
	m.StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voicescreen_stage_duration_seconds",
			Help:    "Time taken per pipeline stage",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12), // 1ms to ~4s
		},
		[]string{"stage"},
	)

	// Operation counters
	m.PredictionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicescreen_prediction_requests_total",
			Help: "Total number of prediction requests",
		},
		[]string{"source", "status"},
	)

	m.PredictionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicescreen_prediction_errors_total",
			Help: "Total number of prediction errors",
		},
		[]string{"source", "error_type"},
	)

	m.StageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicescreen_stage_operations_total",
			Help: "Total number of pipeline stage operations",
		},
		[]string{"stage", "status"},
	)

	m.StageErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicescreen_stage_errors_total",
			Help: "Total number of pipeline stage errors",
		},
		[]string{"stage", "error_type"},
	)

	m.ModelLoadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicescreen_model_load_total",
			Help: "Total number of model load attempts",
		},
		[]string{"status"},
	)

	m.ModelLoadErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicescreen_model_load_errors_total",
			Help: "Total number of model load errors",
		},
		[]string{"error_type"},
	)

	// State gauges
	m.ActiveProcessingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voicescreen_active_processing",
			Help: "Number of audio analyses currently being processed",
		},
	)

	m.ModelLoadedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voicescreen_model_loaded",
			Help: "Whether the TCN model is currently loaded (1) or not (0)",
		},
	)

	return nil
}

// RecordResult increments the prediction counter for a predicted label.
func (m *TCNMetrics) RecordResult(label string) {
	m.ResultCounter.WithLabelValues(label).Inc()
}

// SetProcessTime sets the most recent processing time for a prediction request.
func (m *TCNMetrics) SetProcessTime(milliseconds float64) {
	m.ProcessTimeGauge.Set(milliseconds)
}

// RecordPrediction records metrics for a whole prediction request.
func (m *TCNMetrics) RecordPrediction(source string, durationSeconds float64, err error) {
	if err != nil {
		m.PredictionTotal.WithLabelValues(source, "error").Inc()
		m.PredictionErrors.WithLabelValues(source, categorizeError(err)).Inc()
	} else {
		m.PredictionTotal.WithLabelValues(source, "success").Inc()
		m.StageDuration.WithLabelValues(OpPrediction).Observe(durationSeconds)
	}
}

// RecordStage records the outcome of a single pipeline stage.
func (m *TCNMetrics) RecordStage(stage string, err error) {
	if err != nil {
		m.StageTotal.WithLabelValues(stage, "error").Inc()
		m.StageErrors.WithLabelValues(stage, categorizeError(err)).Inc()
	} else {
		m.StageTotal.WithLabelValues(stage, "success").Inc()
	}
}

// RecordModelInvoke records the duration of one TensorFlow Lite invocation.
func (m *TCNMetrics) RecordModelInvoke(durationSeconds float64) {
	m.StageDuration.WithLabelValues(OpModelInvoke).Observe(durationSeconds)
}

// RecordModelLoad records metrics for model loading operations.
func (m *TCNMetrics) RecordModelLoad(err error) {
	if err != nil {
		m.ModelLoadTotal.WithLabelValues("error").Inc()
		m.ModelLoadErrors.WithLabelValues(categorizeError(err)).Inc()
		m.ModelLoadedGauge.Set(0)
	} else {
		m.ModelLoadTotal.WithLabelValues("success").Inc()
		m.ModelLoadedGauge.Set(1)
	}
}

// SetActiveProcessing sets the number of audio analyses currently in flight.
func (m *TCNMetrics) SetActiveProcessing(count float64) {
	m.ActiveProcessingGauge.Set(count)
}

// RecordOperation implements the Recorder interface.
func (m *TCNMetrics) RecordOperation(operation, status string) {
	m.StageTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements the Recorder interface.
func (m *TCNMetrics) RecordDuration(operation string, seconds float64) {
	m.StageDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements the Recorder interface.
func (m *TCNMetrics) RecordError(operation, errorType string) {
	m.StageErrors.WithLabelValues(operation, errorType).Inc()
}

// categorizeError returns a low cardinality category string for the error.
func categorizeError(err error) string {
	if err == nil {
		return "none"
	}

	// Enhanced errors carry their category already
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) {
		return enhanced.GetCategory()
	}

	// Simple categorization based on error message
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "tensor"):
		return "tensor_error"
	case strings.Contains(errStr, "invoke"):
		return "invoke_error"
	case strings.Contains(errStr, "file"):
		return "file_error"
	case strings.Contains(errStr, "model"):
		return "model_error"
	default:
		return "unknown"
	}
}

// getCollectors returns all collectors in order for Describe/Collect operations.
func (m *TCNMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ResultCounter,
		m.ProcessTimeGauge,
		m.StageDuration,
		m.PredictionTotal,
		m.PredictionErrors,
		m.StageTotal,
		m.StageErrors,
		m.ModelLoadTotal,
		m.ModelLoadErrors,
		m.ActiveProcessingGauge,
		m.ModelLoadedGauge,
	}
}

// Describe implements the prometheus.Collector interface.
func (m *TCNMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *TCNMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}
