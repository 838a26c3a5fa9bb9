// Package api provides the HTTP server for VoiceScreen-Go. The server wires
// the prediction pipeline, health reporting and the metrics endpoint onto an
// Echo instance.
package api

import (
	"fmt"
	"net"
	"time"

	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Config collects everything the server constructor needs, flattened out of
// the application settings.
type Config struct {
	Host string // bind address, empty for all interfaces
	Port string

	AllowedOrigins []string // CORS origins, defaults to any

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration // generous, predictions can take a while
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration // graceful shutdown grace period

	BodyLimit string // echo size string, e.g. "100M"

	Debug    bool
	LogLevel logger.LogLevel
}

// DefaultConfig returns the server defaults, matching the shipped config file.
func DefaultConfig() *Config {
	return &Config{
		Port:            "8000",
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		BodyLimit:       "100M",
		LogLevel:        logger.LogLevelInfo,
	}
}

// ConfigFromSettings maps the webserver section of the application settings
// onto a server Config. Debug on either the webserver or the global level
// switches the server log level to debug.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()

	cfg.Host = settings.WebServer.Host
	cfg.Port = settings.WebServer.Port
	if settings.WebServer.BodyLimit != "" {
		cfg.BodyLimit = settings.WebServer.BodyLimit
	}

	cfg.Debug = settings.WebServer.Debug || settings.Debug
	if cfg.Debug {
		cfg.LogLevel = logger.LogLevelDebug
	}

	return cfg
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Port == "":
		return fmt.Errorf("port is required")
	case c.ReadTimeout <= 0:
		return fmt.Errorf("read timeout must be positive")
	case c.WriteTimeout <= 0:
		return fmt.Errorf("write timeout must be positive")
	}
	return nil
}

// Address returns the host:port string to listen on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) String() string {
	return fmt.Sprintf("server config: address=%s body_limit=%s debug=%v",
		c.Address(), c.BodyLimit, c.Debug)
}
