package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	t.Run("basic build", func(t *testing.T) {
		base := NewStd("decode failed")
		ee := New(base).
			Component("audiofile").
			Category(CategoryAudioDecode).
			Context("extension", "mp3").
			Build()

		require.NotNil(t, ee, "expected non-nil enhanced error")
		assert.Equal(t, "decode failed", ee.Error(), "message should pass through")
		assert.Equal(t, "audiofile", ee.GetComponent(), "component should be preserved")
		assert.Equal(t, CategoryAudioDecode, ee.Category, "category should be preserved")
		assert.Equal(t, "mp3", ee.GetContext()["extension"], "context should be preserved")
	})

	t.Run("newf formats message", func(t *testing.T) {
		ee := Newf("unsupported file type: %s", ".txt").
			Category(CategoryValidation).
			Build()

		assert.Equal(t, "unsupported file type: .txt", ee.GetMessage(), "expected formatted message")
	})

	t.Run("default category is generic", func(t *testing.T) {
		ee := New(NewStd("boom")).Build()
		assert.Equal(t, CategoryGeneric, ee.Category, "expected generic category default")
	})

	t.Run("timing context", func(t *testing.T) {
		ee := New(NewStd("slow")).
			Timing("model-load", 1500*time.Millisecond).
			Build()

		ctx := ee.GetContext()
		assert.Equal(t, "model-load", ctx["operation"], "expected operation in context")
		assert.Equal(t, int64(1500), ctx["duration_ms"], "expected duration in context")
	})
}

func TestUnwrapAndIs(t *testing.T) {
	sentinel := NewStd("sentinel")
	wrapped := fmt.Errorf("outer: %w", sentinel)
	ee := New(wrapped).Category(CategoryNetwork).Build()

	assert.ErrorIs(t, ee, sentinel, "enhanced error should unwrap to sentinel")

	var target *EnhancedError
	require.True(t, As(ee, &target), "As should find the enhanced error")
	assert.Equal(t, CategoryNetwork, target.Category, "category should survive As")
}

func TestIsCategory(t *testing.T) {
	notFound := New(NewStd("object missing")).Category(CategoryNotFound).Build()
	validation := New(NewStd("bad input")).Category(CategoryValidation).Build()

	assert.True(t, IsNotFound(notFound), "expected not-found detection")
	assert.False(t, IsNotFound(validation), "validation error is not not-found")
	assert.True(t, IsValidation(validation), "expected validation detection")
	assert.False(t, IsCategory(NewStd("plain"), CategoryValidation), "plain error has no category")

	wrapped := fmt.Errorf("request failed: %w", notFound)
	assert.True(t, IsCategory(wrapped, CategoryNotFound), "category should be found through wrapping")
}

func TestScrubbing(t *testing.T) {
	t.Run("signed url query is redacted", func(t *testing.T) {
		in := "fetch failed: https://bucket.example.com/object/sign/audio.mp3?token=abc123"
		out := basicURLScrub(in)
		assert.NotContains(t, out, "abc123", "token value must be scrubbed")
		assert.Contains(t, out, "https://bucket.example.com/object/sign/audio.mp3", "base URL should survive")
	})

	t.Run("bearer credential is redacted", func(t *testing.T) {
		out := basicURLScrub("header was Bearer eyJhbGciOi")
		assert.NotContains(t, out, "eyJhbGciOi", "bearer token must be scrubbed")
	})
}

type countingReporter struct {
	enabled bool
	count   int
}

func (cr *countingReporter) ReportError(ee *EnhancedError) { cr.count++; ee.MarkReported() }
func (cr *countingReporter) IsEnabled() bool               { return cr.enabled }

func TestTelemetryReporting(t *testing.T) {
	reporter := &countingReporter{enabled: true}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(NewStd("reportable")).Category(CategoryModelLoad).Build()

	assert.Equal(t, 1, reporter.count, "expected exactly one report")
	assert.True(t, ee.IsReported(), "error should be marked reported")
}
