package metrics

import "sync"

// TestRecorder captures recorded metrics in memory so tests can assert on
// them without standing up a Prometheus registry.
type TestRecorder struct {
	mu         sync.Mutex
	operations map[recorderKey]int
	errors     map[recorderKey]int
	durations  map[string][]float64
}

// recorderKey pairs an operation with its status or error type.
type recorderKey struct {
	operation string
	detail    string
}

// NewTestRecorder creates an empty recorder.
func NewTestRecorder() *TestRecorder {
	return &TestRecorder{
		operations: make(map[recorderKey]int),
		errors:     make(map[recorderKey]int),
		durations:  make(map[string][]float64),
	}
}

func (r *TestRecorder) RecordOperation(operation, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations[recorderKey{operation, status}]++
}

func (r *TestRecorder) RecordDuration(operation string, seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations[operation] = append(r.durations[operation], seconds)
}

func (r *TestRecorder) RecordError(operation, errorType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[recorderKey{operation, errorType}]++
}

// GetOperationCount returns how often an operation finished with the status.
func (r *TestRecorder) GetOperationCount(operation, status string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.operations[recorderKey{operation, status}]
}

// GetDurations returns a copy of the recorded durations for an operation,
// nil when none were recorded.
func (r *TestRecorder) GetDurations(operation string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.durations[operation]...)
}

// GetErrorCount returns how often an error type was recorded for an operation.
func (r *TestRecorder) GetErrorCount(operation, errorType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors[recorderKey{operation, errorType}]
}

// NoOpRecorder satisfies Recorder and records nothing. Components that take
// an optional Recorder can use it instead of nil checks.
type NoOpRecorder struct{}

func (NoOpRecorder) RecordOperation(operation, status string)         {}
func (NoOpRecorder) RecordDuration(operation string, seconds float64) {}
func (NoOpRecorder) RecordError(operation, errorType string)          {}

// NewNoOpRecorder returns a recorder that discards everything.
func NewNoOpRecorder() *NoOpRecorder {
	return &NoOpRecorder{}
}
