package telemetry

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// MockTransport captures events in memory instead of sending them, so tests
// can assert on exactly what the SDK would have reported.
type MockTransport struct {
	mu     sync.RWMutex
	events []*sentry.Event
}

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Configure is part of sentry.Transport; the mock needs no configuration.
//
//nolint:gocritic // hugeParam: signature fixed by the interface
func (mt *MockTransport) Configure(_ sentry.ClientOptions) {}

// SendEvent is part of sentry.Transport.
func (mt *MockTransport) SendEvent(event *sentry.Event) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.events = append(mt.events, event)
}

// Flush is part of sentry.Transport. Nothing is buffered, so it always succeeds.
func (mt *MockTransport) Flush(time.Duration) bool { return true }

// FlushWithContext is part of sentry.Transport.
func (mt *MockTransport) FlushWithContext(ctx context.Context) bool {
	return ctx.Err() == nil
}

// Close is part of sentry.Transport.
func (mt *MockTransport) Close() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.events = nil
}

// GetEvents returns a snapshot of every captured event.
func (mt *MockTransport) GetEvents() []*sentry.Event {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return slices.Clone(mt.events)
}

// GetEventCount reports how many events have been captured so far.
func (mt *MockTransport) GetEventCount() int {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return len(mt.events)
}

// GetLastEvent returns the most recently captured event, or nil.
func (mt *MockTransport) GetLastEvent() *sentry.Event {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	if len(mt.events) == 0 {
		return nil
	}
	return mt.events[len(mt.events)-1]
}

// FindEventByMessage returns the first captured event whose message matches,
// or nil when none does.
func (mt *MockTransport) FindEventByMessage(message string) *sentry.Event {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	for _, event := range mt.events {
		if event.Message == message {
			return event
		}
	}
	return nil
}

// Clear drops all captured events.
func (mt *MockTransport) Clear() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.events = mt.events[:0]
}
