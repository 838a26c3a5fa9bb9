// env.go - Environment variable configuration and validation for VoiceScreen-Go
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding maps one config key to the environment variables that can set it.
type envBinding struct {
	ConfigKey string             // viper key the variables feed into
	EnvVars   []string           // variable names, first match wins
	Validate  func(string) error // nil when any string is acceptable
}

// getEnvBindings lists every environment variable the application honors.
func getEnvBindings() []envBinding {
	return []envBinding{
		// Core configuration
		{"debug", []string{"VOICESCREEN_DEBUG"}, validateEnvBool},

		// Model configuration
		// MODEL_URL is honored alongside the prefixed form for compatibility
		// with existing deployment environments
		{"model.path", []string{"VOICESCREEN_MODEL_PATH"}, nil},
		{"model.url", []string{"VOICESCREEN_MODEL_URL", "MODEL_URL"}, validateEnvURL},
		{"model.threads", []string{"VOICESCREEN_MODEL_THREADS"}, validateEnvThreads},
		{"model.usexnnpack", []string{"VOICESCREEN_MODEL_USEXNNPACK"}, validateEnvBool},

		// Audio configuration
		{"audio.ffmpegpath", []string{"VOICESCREEN_FFMPEG_PATH"}, nil},

		// Web server configuration
		{"webserver.host", []string{"VOICESCREEN_HOST"}, nil},
		{"webserver.port", []string{"VOICESCREEN_PORT"}, validateEnvPort},

		// Logging configuration
		{"logging.defaultlevel", []string{"VOICESCREEN_LOG_LEVEL"}, validateEnvLogLevel},

		// Telemetry configuration
		{"sentry.enabled", []string{"VOICESCREEN_SENTRY_ENABLED"}, validateEnvBool},
		{"sentry.dsn", []string{"VOICESCREEN_SENTRY_DSN"}, nil},
	}
}

// bindEnvVars registers every binding with viper and checks the values that
// are currently set. All problems are collected into a single error so a
// misconfigured deployment reports everything at once.
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		args := append([]string{binding.ConfigKey}, binding.EnvVars...)
		if err := viper.BindEnv(args...); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.ConfigKey, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		// Only the first set variable counts, matching viper's precedence.
		for _, envVar := range binding.EnvVars {
			if envValue := os.Getenv(envVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", envVar, envValue, err))
				}
				break
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("not a boolean, use true/false or 1/0, got '%s'", value)
	}
	return nil
}

func validateEnvThreads(value string) error {
	threads, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid thread count: %w", err)
	}
	if threads < 0 {
		return fmt.Errorf("thread count must be 0 or positive, got %d", threads)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvURL(value string) error {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return fmt.Errorf("URL must start with http:// or https://, got '%s'", value)
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	switch value {
	case "trace", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log level must be one of trace, debug, info, warn, error, got '%s'", value)
	}
}
