// Package telemetry reports errors and messages to Sentry. Everything that
// leaves the process goes through the privacy scrubber first, and reporting
// is opt-in through the Sentry settings section.
package telemetry

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/getsentry/sentry-go"

	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/logger"
	"github.com/cognivox/voicescreen-go/internal/privacy"
)

// testMode bypasses the settings lookup so tests can capture events without
// global settings (0=off, 1=on).
var testMode int32

// telemetryEnabled reports whether events may be sent at all.
func telemetryEnabled() bool {
	if atomic.LoadInt32(&testMode) == 1 {
		return true
	}
	settings := conf.GetSettings()
	return settings != nil && settings.Sentry.Enabled
}

// PlatformInfo carries the coarse platform facts attached to every event.
// Nothing here identifies a host.
type PlatformInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"arch"`
	NumCPU       int    `json:"num_cpu"`
	GoVersion    string `json:"go_version"`
}

func collectPlatformInfo() PlatformInfo {
	return PlatformInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		NumCPU:       runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}
}

// InitSentry starts the Sentry SDK when the user has opted in. With telemetry
// disabled it logs that fact and returns nil.
func InitSentry(settings *conf.Settings) error {
	if !settings.Sentry.Enabled {
		GetLogger().Info("Sentry telemetry is disabled (opt-in required)")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:        settings.Sentry.DSN,
		SampleRate: 1.0,
		Debug:      false,
		Release:    fmt.Sprintf("voicescreen-go@%s", settings.Version),

		// Stack traces and the server name would leak paths and hostnames.
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "",

		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	configureSentryScope(settings)

	platform := collectPlatformInfo()
	GetLogger().Info("Sentry telemetry initialized",
		logger.String("system_id", settings.SystemID),
		logger.String("version", settings.Version),
		logger.String("platform", platform.OS),
		logger.String("arch", platform.Architecture),
	)
	return nil
}

// applyPrivacyFilters strips host and user identifying fields from an event
// before it is sent. Runs as the SDK's BeforeSend hook.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	// The SDK fills these from the host environment.
	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	return event
}

// configureSentryScope tags every future event with the anonymous system ID
// and the platform facts.
func configureSentryScope(settings *conf.Settings) {
	platformInfo := collectPlatformInfo()

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("system_id", settings.SystemID)
		scope.SetTag("os", platformInfo.OS)
		scope.SetTag("arch", platformInfo.Architecture)

		scope.SetContext("application", map[string]any{
			"name":      "VoiceScreen-Go",
			"version":   settings.Version,
			"system_id": settings.SystemID,
		})
		scope.SetContext("platform", map[string]any{
			"os":           platformInfo.OS,
			"architecture": platformInfo.Architecture,
			"num_cpu":      platformInfo.NumCPU,
			"go_version":   platformInfo.GoVersion,
		})
	})
}

// generateErrorTitle builds the issue title shown in Sentry. The message must
// already be scrubbed, the title is displayed verbatim.
func generateErrorTitle(errMsg, component string) string {
	errorType := parseErrorType(errMsg)
	if component != "" && component != "unknown" {
		return fmt.Sprintf("%s: %s", titleCaseComponent(component), errorType)
	}
	return errorType
}

// parseErrorType reduces an error message to a short human readable title.
// Known runtime panic shapes get fixed titles so they group into one issue
// regardless of the surrounding message.
func parseErrorType(errMsg string) string {
	// Panic messages may carry a stack trace, the title only wants line one.
	if idx := strings.IndexByte(errMsg, '\n'); idx >= 0 {
		errMsg = errMsg[:idx]
	}
	errMsg = strings.TrimSpace(errMsg)
	lower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(lower, "nil pointer dereference"):
		return "Nil Pointer Dereference"
	case strings.Contains(lower, "index out of range"):
		return "Index Out of Range"
	case strings.Contains(lower, "slice bounds out of range"):
		return "Slice Bounds Out of Range"
	case strings.Contains(lower, "integer divide by zero"):
		return "Integer Divide by Zero"
	case strings.Contains(lower, "invalid memory address"):
		return "Invalid Memory Access"
	case strings.Contains(lower, "send on closed channel"):
		return "Send on Closed Channel"
	case strings.Contains(lower, "close of closed channel"):
		return "Close of Closed Channel"
	case strings.Contains(lower, "concurrent map"):
		// "concurrent map read and map write" mentions both, read wins.
		if strings.Contains(lower, "read") {
			return "Concurrent Map Access"
		}
		if strings.Contains(lower, "write") {
			return "Concurrent Map Write"
		}
		return "Concurrent Map Access"
	case strings.Contains(lower, "interface conversion"):
		if strings.Contains(lower, "is nil") {
			return "Interface Conversion: Nil Value"
		}
		return "Interface Conversion Failed"
	case strings.HasPrefix(lower, "panic:"):
		panicMsg := strings.TrimSpace(errMsg[len("panic:"):])
		if len(panicMsg) > 50 {
			panicMsg = panicMsg[:50] + "..."
		}
		return fmt.Sprintf("Panic: %s", panicMsg)
	default:
		if len(errMsg) > 60 {
			return errMsg[:60] + "..."
		}
		return errMsg
	}
}

// titleCaseComponent turns a component tag into a display name, e.g.
// "httpclient" becomes "HTTP Client".
func titleCaseComponent(component string) string {
	component = strings.ReplaceAll(component, "http", "HTTP ")
	component = strings.ReplaceAll(component, "api", "API ")
	component = strings.ReplaceAll(component, "tcn", "TCN ")
	component = strings.ReplaceAll(component, "mfcc", "MFCC ")
	component = strings.ReplaceAll(component, "_", " ")

	words := strings.Fields(component)
	for i, word := range words {
		// Abbreviations are already fully uppercase.
		if word == "" || strings.ToUpper(word) == word {
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// CaptureError sends one error event, scrubbed and tagged with its component.
func CaptureError(err error, component string) {
	if !telemetryEnabled() {
		return
	}

	scrubbedErrorMsg := privacy.ScrubMessage(err.Error())

	GetLogger().Debug("sending error event",
		logger.String("component", component),
		logger.String("error_type", fmt.Sprintf("%T", err)),
		logger.String("scrubbed_message", scrubbedErrorMsg),
	)

	sentry.WithScope(func(scope *sentry.Scope) {
		errorTitle := generateErrorTitle(scrubbedErrorMsg, component)

		scope.SetTag("component", component)
		scope.SetTag("error_title", errorTitle)
		scope.SetContext("error", map[string]any{
			"type":             fmt.Sprintf("%T", err),
			"scrubbed_message": scrubbedErrorMsg,
		})
		scope.SetFingerprint([]string{errorTitle, component})

		// The exception type replaces the generic Go type in issue lists.
		event := sentry.NewEvent()
		event.Level = sentry.LevelError
		event.Message = scrubbedErrorMsg
		event.Exception = []sentry.Exception{{
			Type:  errorTitle,
			Value: scrubbedErrorMsg,
		}}

		sentry.CaptureEvent(event)
	})
}

// CaptureMessage sends one message event at the given level.
func CaptureMessage(message string, level sentry.Level, component string) {
	if !telemetryEnabled() {
		return
	}

	scrubbedMessage := privacy.ScrubMessage(message)

	GetLogger().Debug("sending message event",
		logger.String("sentry_level", string(level)),
		logger.String("component", component),
		logger.String("scrubbed_message", scrubbedMessage),
	)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetLevel(level)
		sentry.CaptureMessage(scrubbedMessage)
	})
}

// Flush blocks until buffered events are delivered or the timeout expires.
func Flush(timeout time.Duration) {
	if !telemetryEnabled() {
		return
	}
	sentry.Flush(timeout)
}
