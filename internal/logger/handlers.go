package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/cognivox/voicescreen-go/internal/errors"
)

// textHandler is a slog.Handler that renders records as human-readable text.
// Timestamps are omitted; the execution environment (journald, Docker) adds
// them automatically. Output format:
//
//	INFO  Model loaded module=tcn path=models/tcn.tflite duration=1.2s
type textHandler struct {
	w      io.Writer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex // Shared across WithAttrs/WithGroup clones
}

// newTextHandler creates a console text handler writing to w at the given level
func newTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return &textHandler{
		w:     w,
		level: level,
		mu:    &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level
func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes the record
//
//nolint:gocritic // slog.Handler interface requires record by value, not pointer
func (h *textHandler) Handle(_ context.Context, record slog.Record) error {
	buf := make([]byte, 0, 256)

	// Level padded to align messages across levels
	buf = append(buf, levelLabel(record.Level)...)
	buf = append(buf, ' ')
	buf = append(buf, record.Message...)

	prefix := strings.Join(h.groups, ".")
	for i := range h.attrs {
		buf = appendAttr(buf, prefix, h.attrs[i])
	}
	record.Attrs(func(a slog.Attr) bool {
		buf = appendAttr(buf, prefix, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// WithAttrs returns a new handler with the attributes pre-applied
func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup returns a new handler that prefixes attribute keys with the group name
func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

// levelLabel converts slog.Level to a fixed-width label, including
// the custom TRACE level below slog.LevelDebug
func levelLabel(level slog.Level) string {
	switch {
	case level <= traceLevelValue:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO "
	case level < slog.LevelError:
		return "WARN "
	default:
		return "ERROR"
	}
}

// appendAttr appends " key=value" to buf, quoting values that contain
// spaces or control characters so output remains machine-greppable
func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	if a.Equal(slog.Attr{}) {
		return buf
	}

	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}

	// Resolve LogValuer values before formatting
	val := a.Value.Resolve()
	if val.Kind() == slog.KindGroup {
		for _, ga := range val.Group() {
			buf = appendAttr(buf, key, ga)
		}
		return buf
	}

	buf = append(buf, ' ')
	buf = append(buf, key...)
	buf = append(buf, '=')

	s := val.String()
	if needsQuoting(s) {
		buf = strconv.AppendQuote(buf, s)
	} else {
		buf = append(buf, s...)
	}
	return buf
}

// needsQuoting reports whether a value string must be quoted in text output
func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '"' || c == '=' || c < 0x20 || c == 0x7f {
			return true
		}
	}
	return false
}

// multiHandler fans records out to multiple slog handlers.
// Used when both console and file output are enabled.
type multiHandler struct {
	handlers []slog.Handler
}

// newMultiHandler creates a handler that writes to multiple handlers
func newMultiHandler(handlers ...slog.Handler) slog.Handler {
	if handlers == nil {
		handlers = make([]slog.Handler, 0)
	}
	return &multiHandler{handlers: handlers}
}

// Enabled returns true if any handler is enabled for the level
func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h == nil {
		return false
	}
	for _, handler := range h.handlers {
		if handler != nil && handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to all handlers enabled for its level
//
//nolint:gocritic // slog.Handler interface requires record by value, not pointer
func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	if h == nil {
		return nil
	}
	var errs []error
	for _, handler := range h.handlers {
		if handler == nil || !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, fmt.Errorf("log handler failed: %w", err))
		}
	}
	return errors.Join(errs...)
}

// WithAttrs returns a new handler with the attributes applied to all handlers
func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if h == nil {
		return nil
	}
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		if handler != nil {
			newHandlers[i] = handler.WithAttrs(attrs)
		}
	}
	return &multiHandler{handlers: newHandlers}
}

// WithGroup returns a new handler with the group applied to all handlers
func (h *multiHandler) WithGroup(name string) slog.Handler {
	if h == nil {
		return nil
	}
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		if handler != nil {
			newHandlers[i] = handler.WithGroup(name)
		}
	}
	return &multiHandler{handlers: newHandlers}
}
