package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cognivox/voicescreen-go/internal/observability/metrics"
)

// NewHTTPMetrics records request counts, latencies and response sizes for
// every route. Unhandled errors are resolved through the error handler first
// so the recorded status code is the one actually sent.
func NewHTTPMetrics(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			// Use the route pattern to keep label cardinality bounded
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			method := c.Request().Method

			m.RecordHTTPRequest(method, path, c.Response().Status, time.Since(start).Seconds())
			m.RecordHTTPResponseSize(method, path, c.Response().Size)
			return err
		}
	}
}
