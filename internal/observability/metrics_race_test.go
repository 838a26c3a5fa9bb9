package observability

import (
	"sync"
	"testing"
)

// Each NewMetrics call builds its own registry, so concurrent construction
// must be safe. The only shared state is the tracing hookup, which is
// guarded by sync.Once.
func TestNewMetricsConcurrency(t *testing.T) {
	const goroutines = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			m, err := NewMetrics()
			if err != nil {
				t.Errorf("NewMetrics: %v", err)
				return
			}
			if m.registry == nil || m.TCN == nil || m.HTTP == nil {
				t.Errorf("NewMetrics returned partially initialized collectors: %+v", m)
			}
		}()
	}
	wg.Wait()
}

func TestInitializeTracingIdempotent(t *testing.T) {
	first, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	second, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct metrics instances")
	}

	// Repeated calls after the first are ignored. Nothing to assert beyond
	// the absence of a panic or race; the race detector covers the rest.
	initializeTracing(first.TCN)
	initializeTracing(second.TCN)

	instances := make([]*Metrics, 10)
	for i := range instances {
		m, err := NewMetrics()
		if err != nil {
			t.Fatalf("NewMetrics instance %d: %v", i, err)
		}
		instances[i] = m
	}

	var wg sync.WaitGroup
	wg.Add(len(instances))
	for _, m := range instances {
		go func() {
			defer wg.Done()
			initializeTracing(m.TCN)
		}()
	}
	wg.Wait()
}
