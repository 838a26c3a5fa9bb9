package telemetry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTransportCapture(t *testing.T) {
	transport := NewMockTransport()

	transport.SendEvent(&sentry.Event{
		Message: "decode failed",
		Level:   sentry.LevelError,
		Tags:    map[string]string{"component": "audiofile"},
	})

	require.Equal(t, 1, transport.GetEventCount())

	event := transport.GetLastEvent()
	require.NotNil(t, event)
	assert.Equal(t, "decode failed", event.Message)
	assert.Equal(t, sentry.LevelError, event.Level)
	assert.Equal(t, "audiofile", event.Tags["component"])
}

func TestMockTransportFindAndClear(t *testing.T) {
	transport := NewMockTransport()
	for _, msg := range []string{"fetch timeout", "decode failed", "model busy"} {
		transport.SendEvent(&sentry.Event{Message: msg})
	}

	found := transport.FindEventByMessage("decode failed")
	require.NotNil(t, found)
	assert.Equal(t, "decode failed", found.Message)
	assert.Nil(t, transport.FindEventByMessage("no such event"))

	transport.Clear()
	assert.Zero(t, transport.GetEventCount())
	assert.Nil(t, transport.GetLastEvent())
}

func TestMockTransportFlushWithContext(t *testing.T) {
	transport := NewMockTransport()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, transport.FlushWithContext(ctx), "flush must fail once the context is cancelled")
	assert.True(t, transport.FlushWithContext(context.Background()))
}

func TestMockTransportConcurrentAccess(t *testing.T) {
	transport := NewMockTransport()

	const writers = 10
	const perWriter = 100

	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range perWriter {
				transport.SendEvent(&sentry.Event{Message: fmt.Sprintf("event-%d-%d", i, j)})
			}
		}()
	}
	// Readers keep the RLock path busy while writers append.
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWriter {
				_ = transport.GetEventCount()
				_ = transport.GetEvents()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter, transport.GetEventCount())
}
