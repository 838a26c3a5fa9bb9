package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/cognivox/voicescreen-go/internal/analysis"
	mw "github.com/cognivox/voicescreen-go/internal/api/middleware"
	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/errors"
	"github.com/cognivox/voicescreen-go/internal/logger"
	"github.com/cognivox/voicescreen-go/internal/observability"
	"github.com/cognivox/voicescreen-go/internal/tcn"
	"github.com/cognivox/voicescreen-go/internal/telemetry"
)

// Server is the HTTP server for VoiceScreen-Go.
// It manages the Echo framework instance, middleware, and all HTTP routes.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	// Dependencies
	analyzer *analysis.Analyzer
	registry *tcn.Registry
	metrics  *observability.Metrics
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithConfig overrides the configuration derived from the settings.
func WithConfig(cfg *Config) ServerOption {
	return func(s *Server) {
		s.config = cfg
	}
}

// New creates a new HTTP server with the given settings and options.
func New(settings *conf.Settings, analyzer *analysis.Analyzer, registry *tcn.Registry, opts ...ServerOption) (*Server, error) {
	s := &Server{
		config:   ConfigFromSettings(settings),
		settings: settings,
		analyzer: analyzer,
		registry: registry,
		log:      GetLogger(),
	}

	// Apply options
	for _, opt := range opts {
		opt(s)
	}

	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	// Initialize Echo
	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleEchoError

	// Configure Echo server timeouts
	s.echo.Server.ReadTimeout = s.config.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.log.Info("HTTP server initialized",
		logger.String("address", s.config.Address()),
		logger.Bool("debug", s.config.Debug))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.log.Error("Panic recovered",
				logger.String("path", c.Request().URL.Path),
				logger.Error(err))
			telemetry.CaptureError(err, "api")
			return err
		},
	}))

	// Correlation IDs, then metrics outside the rest so rejected requests
	// (body limit, CORS) are still counted
	s.echo.Use(mw.NewRequestID())
	if s.metrics != nil {
		s.echo.Use(mw.NewHTTPMetrics(s.metrics.HTTP))
	}

	// Request logging
	s.echo.Use(mw.NewRequestLogger(s.log))

	// CORS middleware
	s.echo.Use(mw.NewCORS(s.config.AllowedOrigins))

	// Secure headers
	s.echo.Use(mw.NewSecureHeaders())

	// Body limit middleware
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/", s.handleInfo)
	s.echo.GET("/health", s.handleHealth)
	s.echo.POST("/predict", s.handlePredict)
	s.echo.POST("/predict/url", s.handlePredictURL)

	if s.metrics != nil && s.settings.Telemetry.Enabled {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	if s.config.Debug {
		// pprof endpoints for live profiling in debug mode
		debugMux := http.NewServeMux()
		telemetry.RegisterDebugHandlers(debugMux)
		s.echo.GET("/debug/pprof/*", echo.WrapHandler(debugMux))
	}
}

// Start begins serving HTTP requests in a background goroutine.
// Use Shutdown to stop the server.
func (s *Server) Start() {
	go func() {
		if err := s.startBlocking(); err != nil {
			s.log.Error("Server error", logger.Error(err))
		}
	}()

	s.log.Info("HTTP server starting", logger.String("address", s.config.Address()))
}

// startBlocking begins serving HTTP requests and blocks until the server is shut down.
func (s *Server) startBlocking() error {
	if err := s.echo.Start(s.config.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("Error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.log.Info("Server shutdown complete")
	return nil
}

// Echo returns the underlying Echo instance.
// This is useful for testing or advanced configuration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
