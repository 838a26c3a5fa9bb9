// conf/validate.go settings validation run at startup

package conf

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ValidationError collects every section failure so the user sees all
// configuration problems in one run instead of fixing them one at a time.
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings checks every settings section and reports all failures
// together as a ValidationError.
func ValidateSettings(settings *Settings) error {
	var ve ValidationError
	for _, check := range []func() error{
		func() error { return validateModelSettings(&settings.Model) },
		func() error { return validateAudioSettings(&settings.Audio) },
		func() error { return validateFetchSettings(&settings.Fetch) },
		func() error { return validateWebServerSettings(&settings.WebServer) },
		func() error { return validateSentrySettings(&settings.Sentry) },
	} {
		if err := check(); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateModelSettings checks the classifier model section.
func validateModelSettings(settings *ModelSettings) error {
	var errs []string

	if settings.Path == "" {
		errs = append(errs, "model path must not be empty")
	}

	if settings.Threads < 0 {
		errs = append(errs, fmt.Sprintf("model threads must be 0 or positive, got %d", settings.Threads))
	}

	if settings.URL != "" {
		parsed, err := url.Parse(settings.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("model url must be a valid http(s) URL, got %q", settings.URL))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("model settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validateAudioSettings checks the audio decoding section.
func validateAudioSettings(settings *AudioSettings) error {
	if settings.DecodeTimeout < 1 {
		return fmt.Errorf("audio decode timeout must be at least 1 second, got %d", settings.DecodeTimeout)
	}
	return nil
}

// validateFetchSettings checks the remote audio fetch section.
func validateFetchSettings(settings *FetchSettings) error {
	var errs []string

	if settings.Timeout < 1 {
		errs = append(errs, fmt.Sprintf("fetch timeout must be at least 1 second, got %d", settings.Timeout))
	}

	if settings.Retries < 0 {
		errs = append(errs, fmt.Sprintf("fetch retries must be 0 or positive, got %d", settings.Retries))
	}

	if settings.MaxBodySize < 1 {
		errs = append(errs, fmt.Sprintf("fetch maxbodysize must be positive, got %d", settings.MaxBodySize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("fetch settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validateWebServerSettings checks the HTTP listener section.
func validateWebServerSettings(settings *WebServerSettings) error {
	if settings.Port == "" {
		return errors.New("webserver port must not be empty")
	}
	port, err := strconv.Atoi(settings.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("webserver port must be a number between 1 and 65535, got %q", settings.Port)
	}
	return nil
}

// validateSentrySettings checks the error telemetry section.
func validateSentrySettings(settings *SentrySettings) error {
	if settings.Enabled && settings.DSN == "" {
		return errors.New("sentry.dsn must be set when sentry is enabled")
	}
	return nil
}
