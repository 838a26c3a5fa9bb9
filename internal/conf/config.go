// Package conf defines the application settings and loads them from the
// config file, environment variables, and built-in defaults through viper.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/cognivox/voicescreen-go/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// ModelSettings contains settings for the TCN model lifecycle.
type ModelSettings struct {
	Path       string // path to the TFLite model file
	URL        string // optional URL the model is downloaded from when the file is missing
	Threads    int    // number of TFLite interpreter threads, 0 to use all CPUs
	UseXNNPACK bool   // true to enable the XNNPACK delegate
}

// AudioSettings contains settings for audio decoding.
type AudioSettings struct {
	FfmpegPath    string // path to ffmpeg, resolved from PATH when empty
	DecodeTimeout int    // ffmpeg decode timeout in seconds
}

// FetchSettings contains settings for remote audio retrieval.
type FetchSettings struct {
	Timeout     int   // per-request timeout in seconds
	Retries     int   // additional attempts on transient connection failures
	MaxBodySize int64 // maximum accepted remote audio size in bytes
}

// SentrySettings contains settings for error telemetry.
// Telemetry is opt-in and disabled by default.
type SentrySettings struct {
	Enabled bool   // true to enable Sentry error reporting
	DSN     string // Sentry DSN, required when enabled
}

// TelemetrySettings contains settings for the Prometheus metrics endpoint.
type TelemetrySettings struct {
	Enabled bool // true to expose Prometheus metrics at /metrics
}

// InputConfig holds what the file and directory subcommands operate on.
// These come from command arguments, never from the config file.
type InputConfig struct {
	Path      string `yaml:"-"` // file or directory given on the command line
	Recursive bool   `yaml:"-"` // descend into subdirectories
	CSV       string `yaml:"-"` // path for CSV results output, empty to print to stdout
}

// WebServerSettings contains settings for the HTTP API server.
type WebServerSettings struct {
	Debug     bool   // verbose request logging
	Host      string // interface address to bind
	Port      string // port for web server
	BodyLimit string // maximum request body size in echo format, e.g. "100M"
}

// Settings contains all configuration options for the VoiceScreen-Go application.
type Settings struct {
	Debug bool // debug output across all subsystems

	// Filled at startup, never read from the config file
	Version   string `yaml:"-"` // set from build info
	BuildDate string `yaml:"-"` // set from build info
	SystemID  string `yaml:"-"` // Anonymous system identifier for telemetry

	Main struct {
		Name string // name of this VoiceScreen node, used in the root endpoint and logs
	}

	Model ModelSettings // TCN model configuration

	Audio AudioSettings // audio decoding configuration

	Fetch FetchSettings // remote audio fetch configuration

	Input InputConfig `yaml:"-"` // CLI analysis input, set by subcommands

	WebServer WebServerSettings // web server configuration

	Logging logger.LoggingConfig // structured logging configuration

	Sentry SentrySettings // error telemetry configuration

	Telemetry TelemetrySettings // Prometheus metrics configuration
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into a validated Settings instance and makes
// it available through GetSettings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := readConfig(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// readConfig points viper at the OS specific config locations, applies
// defaults and environment overrides, and reads the config file. A missing
// file is not an error; the embedded default config is written in its place.
func readConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	// The logger is not configured yet at this point, hence stdlib log.
	if err := bindEnvVars(); err != nil {
		log.Printf("Warning: %v", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// createDefaultConfig writes the embedded default config into dir and loads it.
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(getDefaultConfig()), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Wrote default config file to:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig returns the embedded default config.yaml contents.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the settings loaded by Load, or nil before that.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
