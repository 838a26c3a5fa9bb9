package telemetry

import (
	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/errors"
	"github.com/cognivox/voicescreen-go/internal/privacy"
)

// InitializeErrorIntegration wires the errors package to Sentry reporting and
// message scrubbing. Call it once after configuration is loaded so the enabled
// flag reflects the user's consent setting.
func InitializeErrorIntegration() {
	settings := conf.GetSettings()
	enabled := settings != nil && settings.Sentry.Enabled

	errors.SetTelemetryReporter(errors.NewSentryReporter(enabled))
	errors.SetPrivacyScrubber(privacy.ScrubMessage)
}
