// Package errors provides the application error type: a wrapped error
// carrying a category, an originating component, and low cardinality context
// for telemetry. It also re-exports the standard library helpers so callers
// need a single errors import.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// ErrorCategory groups errors for API status mapping and telemetry.
type ErrorCategory string

const (
	CategoryModelInit      ErrorCategory = "model-initialization"
	CategoryModelLoad      ErrorCategory = "model-loading"
	CategoryValidation     ErrorCategory = "validation"
	CategoryAudioDecode    ErrorCategory = "audio-decode"
	CategoryFeatureExtract ErrorCategory = "feature-extraction"
	CategoryInference      ErrorCategory = "inference"
	CategoryFileIO         ErrorCategory = "file-io"
	CategoryNetwork        ErrorCategory = "network"
	CategoryUnauthorized   ErrorCategory = "unauthorized"
	CategoryForbidden      ErrorCategory = "forbidden"
	CategoryNotFound       ErrorCategory = "not-found"
	CategoryHTTP           ErrorCategory = "http-request"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryTimeout        ErrorCategory = "timeout"
	CategorySystem         ErrorCategory = "system-resource"
	CategoryGeneric        ErrorCategory = "generic"
)

// ComponentUnknown is reported when the originating component could not be
// determined from the call stack.
const ComponentUnknown = "unknown"

// EnhancedError is the error type produced by Build. The context map is not
// mutated after construction, so reads need no locking.
type EnhancedError struct {
	Err       error
	Category  ErrorCategory
	Context   map[string]any
	Timestamp time.Time

	component string
	reported  atomic.Bool
}

func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is treats two enhanced errors with the same category as equivalent and
// otherwise defers to the standard unwrap chain.
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return ee.Category == other.Category
	}
	return Is(ee.Err, target)
}

// GetComponent returns the component the error originated in.
func (ee *EnhancedError) GetComponent() string {
	if ee.component == "" {
		return ComponentUnknown
	}
	return ee.component
}

// GetCategory returns the category as a plain string, for metric labels.
func (ee *EnhancedError) GetCategory() string {
	return string(ee.Category)
}

// GetContext returns a copy of the context map.
func (ee *EnhancedError) GetContext() map[string]any {
	return maps.Clone(ee.Context)
}

// GetMessage returns the underlying error message.
func (ee *EnhancedError) GetMessage() string {
	if ee.Err == nil {
		return ""
	}
	return ee.Err.Error()
}

// MarkReported records that telemetry has already seen this error, so
// duplicate reports can be suppressed.
func (ee *EnhancedError) MarkReported() {
	ee.reported.Store(true)
}

// IsReported returns whether this error was already sent to telemetry.
func (ee *EnhancedError) IsReported() bool {
	return ee.reported.Load()
}

// ErrorBuilder accumulates metadata before the error is finalized with Build.
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New starts building an enhanced error around err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf starts building an enhanced error around a formatted message.
// The format may wrap another error with %w.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component names the component the error belongs to. Without it the
// component is inferred from the call stack when telemetry is active.
func (eb *ErrorBuilder) Component(name string) *ErrorBuilder {
	eb.component = name
	return eb
}

// Category assigns the error category.
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

func (eb *ErrorBuilder) set(key string, value any) {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
}

// Context attaches one key/value pair. Values end up in telemetry, so callers
// must keep them free of file names, URLs, and other identifying data.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	eb.set(key, value)
	return eb
}

// ModelContext records whether the model came from a local file or a remote
// URL, without the path itself.
func (eb *ErrorBuilder) ModelContext(modelPath string) *ErrorBuilder {
	if modelPath != "" {
		eb.set("model_path_type", categorizeModelPath(modelPath))
	}
	return eb
}

// NetworkContext records the protocol class of a URL and the timeout in
// effect, without the URL itself.
func (eb *ErrorBuilder) NetworkContext(url string, timeout time.Duration) *ErrorBuilder {
	if url != "" {
		eb.set("url_category", categorizeURL(url))
	}
	if timeout > 0 {
		eb.set("timeout_seconds", timeout.Seconds())
	}
	return eb
}

// Timing records the operation name and how long it ran before failing.
func (eb *ErrorBuilder) Timing(operation string, duration time.Duration) *ErrorBuilder {
	eb.set("operation", operation)
	eb.set("duration_ms", duration.Milliseconds())
	return eb
}

// Build finalizes the error. Component and category inference plus the
// telemetry report only happen while a reporter is active; otherwise Build
// stays cheap for the common disabled case.
func (eb *ErrorBuilder) Build() *EnhancedError {
	active := hasActiveReporting.Load()

	component := eb.component
	category := eb.category
	if active {
		if component == "" {
			component = detectComponent()
		}
		if category == "" {
			category = detectCategory(eb.err)
		}
	}
	if category == "" {
		category = CategoryGeneric
	}

	ee := &EnhancedError{
		Err:       eb.err,
		Category:  category,
		Context:   eb.context,
		Timestamp: time.Now(),
		component: component,
	}

	if active {
		reportToTelemetry(ee)
	}
	return ee
}

// packageComponents maps call stack package paths to component tags. Frames
// not listed here fall back to their bare package name.
var packageComponents = map[string]string{
	"internal/tcn":        "tcn",
	"internal/audiofile":  "audiofile",
	"internal/mfcc":       "mfcc",
	"internal/fetcher":    "fetcher",
	"internal/httpclient": "httpclient",
	"internal/analysis":   "analysis",
	"internal/api":        "api",
	"internal/conf":       "configuration",
	"internal/telemetry":  "telemetry",
}

// detectComponent walks up the call stack and maps the first frame outside
// this package to a component tag.
func detectComponent() string {
	pcs := make([]uintptr, 24)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !strings.Contains(frame.Function, "internal/errors") {
			return componentForFunc(frame.Function)
		}
		if !more {
			return ComponentUnknown
		}
	}
}

func componentForFunc(funcName string) string {
	for pattern, component := range packageComponents {
		if strings.Contains(funcName, pattern) {
			return component
		}
	}

	// Fall back to the package name, e.g. "pkg.Fn" from ".../pkg.Fn".
	tail := funcName
	if i := strings.LastIndex(tail, "/"); i >= 0 {
		tail = tail[i+1:]
	}
	if j := strings.Index(tail, "."); j > 0 {
		return tail[:j]
	}
	return ComponentUnknown
}

// detectCategory guesses a category for errors built without one, so
// telemetry grouping still works for them.
func detectCategory(err error) ErrorCategory {
	var enhanced *EnhancedError
	if stderrors.As(err, &enhanced) && enhanced.Category != "" {
		return enhanced.Category
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "model") && strings.Contains(msg, "load"):
		return CategoryModelLoad
	case strings.Contains(msg, "model"):
		return CategoryModelInit
	case strings.Contains(msg, "decode") || strings.Contains(msg, "codec"):
		return CategoryAudioDecode
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return CategoryTimeout
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network"):
		return CategoryNetwork
	case strings.Contains(msg, "invalid") || strings.Contains(msg, "unsupported"):
		return CategoryValidation
	case strings.Contains(msg, "file") || strings.Contains(msg, "open"):
		return CategoryFileIO
	}
	return CategoryGeneric
}

func categorizeModelPath(path string) string {
	switch {
	case path == "":
		return "unset"
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return "remote-url"
	default:
		return "local-file"
	}
}

func categorizeURL(url string) string {
	switch {
	case strings.HasPrefix(strings.ToLower(url), "https://"):
		return "https-endpoint"
	case strings.HasPrefix(strings.ToLower(url), "http://"):
		return "http-endpoint"
	default:
		return "other-protocol"
	}
}

// Standard library passthroughs, so callers only import this package.

// NewStd creates a plain error with no category or component.
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join wraps the given errors into one.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// IsCategory reports whether err carries the given category anywhere in its
// unwrap chain.
func IsCategory(err error, category ErrorCategory) bool {
	var enhanced *EnhancedError
	return As(err, &enhanced) && enhanced.Category == category
}

// IsNotFound reports whether err is categorized as not-found.
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}

// IsValidation reports whether err is categorized as a validation failure.
func IsValidation(err error) bool {
	return IsCategory(err, CategoryValidation)
}
