package tcn

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/observability/metrics"
)

// Pipeline stage tracing. Stages are mirrored to Sentry spans when telemetry
// is enabled and to Prometheus histograms when metrics are wired in.

var (
	globalMetrics *metrics.TCNMetrics
	metricsMu     sync.RWMutex
	metricsOnce   sync.Once
	activeStages  atomic.Int64
)

// SetMetrics wires the metrics instance used by stage tracing and the model
// lifecycle. Only the first call takes effect; later calls are ignored so
// concurrent initialization cannot swap collectors mid-flight.
func SetMetrics(m *metrics.TCNMetrics) {
	metricsOnce.Do(func() {
		metricsMu.Lock()
		defer metricsMu.Unlock()
		globalMetrics = m
	})
}

func getMetrics() *metrics.TCNMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return globalMetrics
}

// stageOps maps pipeline stage names to their metric operation labels.
var stageOps = map[string]string{
	"fetch":   metrics.OpFetch,
	"decode":  metrics.OpDecode,
	"extract": metrics.OpExtract,
}

// TraceStage runs one stage of the analysis pipeline, recording its duration
// and keeping the active-processing gauge current. The returned error is fn's
// error unchanged.
func TraceStage(ctx context.Context, stage string, fn func() error) error {
	var span *sentry.Span
	if settings := conf.GetSettings(); settings != nil && settings.Sentry.Enabled {
		span = sentry.StartSpan(ctx, "tcn."+stage)
		span.Description = stage
	}

	m := getMetrics()
	if m != nil {
		m.SetActiveProcessing(float64(activeStages.Add(1)))
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if m != nil {
		if op, ok := stageOps[stage]; ok {
			m.RecordDuration(op, elapsed.Seconds())
		}
		m.SetActiveProcessing(float64(activeStages.Add(-1)))
	}

	if span != nil {
		if err != nil {
			span.SetTag("error", "true")
			span.SetData("error_message", err.Error())
		}
		span.SetData("duration_ms", elapsed.Milliseconds())
		span.Finish()
	}

	return err
}
