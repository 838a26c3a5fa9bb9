package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecorderCounts(t *testing.T) {
	t.Parallel()

	recorder := NewTestRecorder()
	recorder.RecordOperation(OpPrediction, "success")
	recorder.RecordOperation(OpPrediction, "success")
	recorder.RecordOperation(OpPrediction, "error")
	recorder.RecordOperation(OpModelLoad, "success")
	recorder.RecordError(OpDecode, "validation")
	recorder.RecordError(OpDecode, "validation")
	recorder.RecordError(OpFetch, "network")

	if got := recorder.GetOperationCount(OpPrediction, "success"); got != 2 {
		t.Errorf("prediction successes = %d, want 2", got)
	}
	if got := recorder.GetOperationCount(OpPrediction, "error"); got != 1 {
		t.Errorf("prediction errors = %d, want 1", got)
	}
	if got := recorder.GetOperationCount(OpModelLoad, "error"); got != 0 {
		t.Errorf("model load errors = %d, want 0", got)
	}
	if got := recorder.GetErrorCount(OpDecode, "validation"); got != 2 {
		t.Errorf("decode validation errors = %d, want 2", got)
	}
	if got := recorder.GetErrorCount(OpFetch, "network"); got != 1 {
		t.Errorf("fetch network errors = %d, want 1", got)
	}
	if got := recorder.GetErrorCount(OpFetch, "timeout"); got != 0 {
		t.Errorf("fetch timeout errors = %d, want 0", got)
	}
}

func TestRecorderDurations(t *testing.T) {
	t.Parallel()

	recorder := NewTestRecorder()
	recorder.RecordDuration(OpPrediction, 0.123)
	recorder.RecordDuration(OpPrediction, 0.456)
	recorder.RecordDuration(OpDecode, 0.789)

	if got := recorder.GetDurations(OpPrediction); len(got) != 2 || got[0] != 0.123 || got[1] != 0.456 {
		t.Errorf("prediction durations = %v, want [0.123 0.456]", got)
	}
	if got := recorder.GetDurations(OpDecode); len(got) != 1 || got[0] != 0.789 {
		t.Errorf("decode durations = %v, want [0.789]", got)
	}
	if got := recorder.GetDurations("non_existent"); got != nil {
		t.Errorf("durations for unknown operation = %v, want nil", got)
	}
}

func TestRecorderConcurrentUse(t *testing.T) {
	t.Parallel()

	recorder := NewTestRecorder()
	const goroutines = 10
	const opsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				recorder.RecordOperation("concurrent", "success")
				recorder.RecordDuration("concurrent", 0.001)
				recorder.RecordError("concurrent", "test")
			}
		}()
	}
	wg.Wait()

	want := goroutines * opsPerGoroutine
	if got := recorder.GetOperationCount("concurrent", "success"); got != want {
		t.Errorf("operations after concurrent use = %d, want %d", got, want)
	}
	if got := len(recorder.GetDurations("concurrent")); got != want {
		t.Errorf("durations after concurrent use = %d, want %d", got, want)
	}
	if got := recorder.GetErrorCount("concurrent", "test"); got != want {
		t.Errorf("errors after concurrent use = %d, want %d", got, want)
	}
}

func TestNoOpRecorder(t *testing.T) {
	t.Parallel()

	recorder := NewNoOpRecorder()
	recorder.RecordOperation("test", "success")
	recorder.RecordDuration("test", 0.123)
	recorder.RecordError("test", "error")
}

func TestRecorderImplementations(t *testing.T) {
	t.Parallel()

	var _ Recorder = (*TCNMetrics)(nil)
	var _ Recorder = (*TestRecorder)(nil)
	var _ Recorder = NoOpRecorder{}
}

// TestRecorderUsageExample shows the pattern components use: hold a Recorder,
// time the work, record the outcome.
func TestRecorderUsageExample(t *testing.T) {
	t.Parallel()

	type component struct {
		metrics Recorder
	}

	doWork := func(c *component) {
		start := time.Now()
		defer func() {
			c.metrics.RecordDuration(OpExtract, time.Since(start).Seconds())
		}()
		time.Sleep(10 * time.Millisecond)
		c.metrics.RecordOperation(OpExtract, "success")
	}

	recorder := NewTestRecorder()
	doWork(&component{metrics: recorder})

	if got := recorder.GetOperationCount(OpExtract, "success"); got != 1 {
		t.Errorf("extract successes = %d, want 1", got)
	}
	durations := recorder.GetDurations(OpExtract)
	if len(durations) != 1 || durations[0] < 0.01 {
		t.Errorf("extract durations = %v, want one value >= 0.01s", durations)
	}
}
