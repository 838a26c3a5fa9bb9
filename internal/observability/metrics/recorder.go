// Package metrics provides the Prometheus collectors for the VoiceScreen-Go
// prediction pipeline and HTTP server.
package metrics

// Recorder is the narrow surface pipeline components use to record metrics.
// TCNMetrics implements it for production; tests substitute an in-memory
// recorder to assert on counts without a Prometheus registry.
type Recorder interface {
	// RecordOperation counts one completed operation with its outcome.
	// Use the Op* constants for operation and "success" or "error" for status.
	RecordOperation(operation, status string)

	// RecordDuration observes how long an operation took, in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError counts an error occurrence. The errorType groups errors by
	// cause, for example "validation" or "audio-decode".
	RecordError(operation, errorType string)
}
