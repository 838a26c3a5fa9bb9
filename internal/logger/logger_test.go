package logger_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognivox/voicescreen-go/internal/logger"
)

// captureOutput redirects standard output to a buffer and returns a function to restore it
func captureOutput(t *testing.T) (*bytes.Buffer, func()) {
	t.Helper()

	var buf bytes.Buffer
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, copyErr := io.Copy(&buf, r)
		assert.NoError(t, copyErr)
	}()

	return &buf, func() {
		_ = w.Close()
		<-done
		os.Stdout = oldStdout
	}
}

// newFileLogger creates a CentralLogger writing JSON to a temp file and
// returns the logger together with the log file path.
func newFileLogger(t *testing.T, level string) (*logger.CentralLogger, string) {
	t.Helper()

	logPath := filepath.Join(t.TempDir(), "test.log")
	cfg := &logger.LoggingConfig{
		DefaultLevel: level,
		Timezone:     "UTC",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput: &logger.FileOutput{
			Enabled: true,
			Path:    logPath,
			Level:   level,
		},
	}

	central, err := logger.NewCentralLogger(cfg)
	require.NoError(t, err, "creating file logger should not fail")
	t.Cleanup(func() {
		assert.NoError(t, central.Close(), "closing logger should not fail")
	})

	return central, logPath
}

// readLogLines parses each line of the JSON log file into a map
func readLogLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err, "log file should exist")
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry), "log line should be valid JSON: %s", scanner.Text())
		lines = append(lines, entry)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestNewCentralLoggerValidation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := logger.NewCentralLogger(nil)
		assert.Error(t, err, "nil config should be rejected")
	})

	t.Run("invalid timezone", func(t *testing.T) {
		cfg := &logger.LoggingConfig{Timezone: "Not/AZone"}
		_, err := logger.NewCentralLogger(cfg)
		assert.Error(t, err, "invalid timezone should be rejected")
	})

	t.Run("empty config gets defaults", func(t *testing.T) {
		central, err := logger.NewCentralLogger(&logger.LoggingConfig{})
		require.NoError(t, err, "empty config should get console defaults")
		assert.NotNil(t, central.Module("test"), "module logger should be created")
	})
}

func TestLevelFiltering(t *testing.T) {
	central, logPath := newFileLogger(t, "info")

	log := central.Module("tcn")
	log.Debug("hidden message")
	log.Info("visible message")
	log.Warn("warning message")
	require.NoError(t, central.Flush())

	lines := readLogLines(t, logPath)
	require.Len(t, lines, 2, "debug message should be filtered at info level")
	assert.Equal(t, "visible message", lines[0]["msg"])
	assert.Equal(t, "warning message", lines[1]["msg"])
}

func TestModuleLevelOverride(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	cfg := &logger.LoggingConfig{
		DefaultLevel: "info",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: true, Path: logPath, Level: "debug"},
		ModuleLevels: map[string]string{"mfcc": "debug"},
	}
	central, err := logger.NewCentralLogger(cfg)
	require.NoError(t, err)
	defer central.Close() //nolint:errcheck // test cleanup

	central.Module("mfcc").Debug("extraction detail")
	central.Module("api").Debug("request detail")
	require.NoError(t, central.Flush())

	lines := readLogLines(t, logPath)
	require.Len(t, lines, 1, "only the module with debug override should emit debug")
	assert.Equal(t, "mfcc", lines[0]["module"])
}

func TestModuleScoping(t *testing.T) {
	central, logPath := newFileLogger(t, "info")

	audioLog := central.Module("audiofile")
	ffmpegLog := audioLog.Module("ffmpeg")
	ffmpegLog.Info("decode started")
	require.NoError(t, central.Flush())

	lines := readLogLines(t, logPath)
	require.Len(t, lines, 1)
	assert.Equal(t, "audiofile.ffmpeg", lines[0]["module"], "sub-module names should be dot-joined")
}

func TestFieldAccumulation(t *testing.T) {
	central, logPath := newFileLogger(t, "info")

	base := central.Module("analysis")
	reqLog := base.With(logger.String("request_id", "req-123"))
	reqLog.Info("started")
	reqLog.Info("completed", logger.Duration("elapsed", 1500*time.Millisecond))

	// Parent logger must not inherit the child's fields
	base.Info("unrelated")
	require.NoError(t, central.Flush())

	lines := readLogLines(t, logPath)
	require.Len(t, lines, 3)
	assert.Equal(t, "req-123", lines[0]["request_id"])
	assert.Equal(t, "req-123", lines[1]["request_id"])
	assert.Equal(t, "1.5s", lines[1]["elapsed"])
	assert.NotContains(t, lines[2], "request_id", "With must not mutate the parent logger")
}

func TestFieldTypes(t *testing.T) {
	central, logPath := newFileLogger(t, "info")

	central.Module("test").Info("typed fields",
		logger.String("name", "tcn"),
		logger.Int("frames", 998),
		logger.Int64("bytes", 4096),
		logger.Float32("probability", 0.87654),
		logger.Float64("threshold", 0.5),
		logger.Bool("ready", true),
		logger.Error(assert.AnError),
		logger.Any("shape", []int{1, 13, 16384}))
	require.NoError(t, central.Flush())

	lines := readLogLines(t, logPath)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "tcn", entry["name"])
	assert.InDelta(t, 998, entry["frames"], 0.01)
	assert.InDelta(t, 0.877, entry["probability"], 0.0001, "float32 fields should round to 3 decimals")
	assert.Equal(t, true, entry["ready"])
	assert.Equal(t, assert.AnError.Error(), entry["error"])
}

func TestWithContextTraceID(t *testing.T) {
	central, logPath := newFileLogger(t, "info")

	ctx := logger.WithTraceID(context.Background(), "abc-123")
	central.Module("api").WithContext(ctx).Info("handling request")

	// A context without a trace ID should not add the field
	central.Module("api").WithContext(context.Background()).Info("no trace")
	require.NoError(t, central.Flush())

	lines := readLogLines(t, logPath)
	require.Len(t, lines, 2)
	assert.Equal(t, "abc-123", lines[0]["trace_id"])
	assert.NotContains(t, lines[1], "trace_id")
}

func TestConsoleOutput(t *testing.T) {
	buf, restore := captureOutput(t)

	cfg := &logger.LoggingConfig{
		DefaultLevel: "info",
		Console:      &logger.ConsoleOutput{Enabled: true, Level: "info"},
		FileOutput:   &logger.FileOutput{Enabled: false},
	}
	central, err := logger.NewCentralLogger(cfg)
	require.NoError(t, err)

	central.Module("fetcher").Info("download complete",
		logger.String("url_type", "signed"),
		logger.Int("size", 2048))
	restore()

	output := buf.String()
	assert.Contains(t, output, "INFO", "console output should include the level")
	assert.Contains(t, output, "download complete")
	assert.Contains(t, output, "module=fetcher")
	assert.Contains(t, output, "url_type=signed")
	assert.Contains(t, output, "size=2048")
	assert.NotContains(t, output, "time=", "console output should omit timestamps")
}

func TestConsoleQuoting(t *testing.T) {
	buf, restore := captureOutput(t)

	central, err := logger.NewCentralLogger(&logger.LoggingConfig{
		Console:    &logger.ConsoleOutput{Enabled: true, Level: "info"},
		FileOutput: &logger.FileOutput{Enabled: false},
	})
	require.NoError(t, err)

	central.Module("test").Info("quoting",
		logger.String("plain", "value"),
		logger.String("spaced", "two words"))
	restore()

	output := buf.String()
	assert.Contains(t, output, "plain=value")
	assert.Contains(t, output, `spaced="two words"`, "values with spaces should be quoted")
}

func TestGlobalFallback(t *testing.T) {
	// Reset global state so Global() builds its fallback logger
	logger.SetGlobal(nil)
	t.Cleanup(func() { logger.SetGlobal(nil) })

	global := logger.Global()
	require.NotNil(t, global, "Global should never return nil")

	log := global.Module("startup")
	require.NotNil(t, log)

	// The fallback logger must be safe to use immediately
	assert.NotPanics(t, func() {
		log.Info("early message before configuration")
	})
}

func TestSetGlobal(t *testing.T) {
	t.Cleanup(func() { logger.SetGlobal(nil) })

	central, logPath := newFileLogger(t, "info")
	logger.SetGlobal(central)

	logger.Global().Module("main").Info("configured")
	require.NoError(t, central.Flush())

	lines := readLogLines(t, logPath)
	require.Len(t, lines, 1)
	assert.Equal(t, "configured", lines[0]["msg"])
}

func TestFileTimestampTimezone(t *testing.T) {
	central, logPath := newFileLogger(t, "info")

	central.Module("test").Info("timestamped")
	require.NoError(t, central.Flush())

	lines := readLogLines(t, logPath)
	require.Len(t, lines, 1)

	timeStr, ok := lines[0]["time"].(string)
	require.True(t, ok, "time field should be a string")
	parsed, err := time.Parse(time.RFC3339, timeStr)
	require.NoError(t, err, "time should be RFC3339")
	assert.True(t, strings.HasSuffix(timeStr, "Z") || parsed.Location() == time.UTC,
		"UTC timezone config should produce UTC timestamps")
}

func TestLogFileCreatedInMissingDirectory(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "dir", "app.log")
	cfg := &logger.LoggingConfig{
		Console:    &logger.ConsoleOutput{Enabled: false},
		FileOutput: &logger.FileOutput{Enabled: true, Path: logPath, Level: "info"},
	}
	central, err := logger.NewCentralLogger(cfg)
	require.NoError(t, err, "missing log directories should be created")
	defer central.Close() //nolint:errcheck // test cleanup

	central.Module("test").Info("hello")
	require.NoError(t, central.Flush())

	_, err = os.Stat(logPath)
	assert.NoError(t, err, "log file should exist after logging")
}
