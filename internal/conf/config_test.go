package conf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validSettings returns a Settings struct that passes validation,
// for tests to mutate into specific failure cases.
func validSettings() *Settings {
	s := &Settings{}
	s.Main.Name = "VoiceScreen-Go"
	s.Model = ModelSettings{
		Path:       "models/tcn_dementia.tflite",
		Threads:    0,
		UseXNNPACK: true,
	}
	s.Audio = AudioSettings{DecodeTimeout: 60}
	s.Fetch = FetchSettings{Timeout: 30, Retries: 2, MaxBodySize: 104857600}
	s.WebServer = WebServerSettings{Host: "0.0.0.0", Port: "8000", BodyLimit: "100M"}
	return s
}

func TestValidateSettingsValid(t *testing.T) {
	t.Parallel()

	err := ValidateSettings(validSettings())
	assert.NoError(t, err, "a complete default-like configuration should validate")
}

func TestValidateModelSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*ModelSettings)
		wantErr string
	}{
		{
			name:   "valid with download url",
			mutate: func(m *ModelSettings) { m.URL = "https://example.com/model.tflite" },
		},
		{
			name:    "empty path",
			mutate:  func(m *ModelSettings) { m.Path = "" },
			wantErr: "model path",
		},
		{
			name:    "negative threads",
			mutate:  func(m *ModelSettings) { m.Threads = -1 },
			wantErr: "threads",
		},
		{
			name:    "non-http url",
			mutate:  func(m *ModelSettings) { m.URL = "ftp://example.com/model.tflite" },
			wantErr: "http(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := validSettings().Model
			tt.mutate(&m)
			err := validateModelSettings(&m)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateFetchSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fetch   FetchSettings
		wantErr bool
	}{
		{"defaults", FetchSettings{Timeout: 30, Retries: 2, MaxBodySize: 104857600}, false},
		{"zero retries allowed", FetchSettings{Timeout: 30, Retries: 0, MaxBodySize: 1024}, false},
		{"zero timeout", FetchSettings{Timeout: 0, Retries: 2, MaxBodySize: 1024}, true},
		{"negative retries", FetchSettings{Timeout: 30, Retries: -1, MaxBodySize: 1024}, true},
		{"zero body size", FetchSettings{Timeout: 30, Retries: 2, MaxBodySize: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateFetchSettings(&tt.fetch)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateWebServerSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ws      WebServerSettings
		wantErr bool
	}{
		{"valid", WebServerSettings{Port: "8000"}, false},
		{"missing port", WebServerSettings{Port: ""}, true},
		{"non-numeric port", WebServerSettings{Port: "http"}, true},
		{"port out of range", WebServerSettings{Port: "70000"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateWebServerSettings(&tt.ws)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSentrySettings(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateSentrySettings(&SentrySettings{Enabled: false}),
		"disabled sentry needs no DSN")
	assert.Error(t, validateSentrySettings(&SentrySettings{Enabled: true, DSN: ""}),
		"enabled sentry requires a DSN")
	assert.NoError(t, validateSentrySettings(&SentrySettings{Enabled: true, DSN: "https://key@sentry.example.com/1"}))
}

func TestValidateSettingsCollectsAllErrors(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Model.Path = ""
	s.Fetch.Timeout = 0
	s.WebServer.Port = ""

	err := ValidateSettings(s)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve, "ValidateSettings should return a ValidationError")
	assert.Len(t, ve.Errors, 3, "all three section failures should be collected")
}

func TestValidateEnvBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"true", false},
		{"false", false},
		{"1", false},
		{"0", false},
		{"TRUE", false},
		{"maybe", true},
		{"yes", true}, // strconv.ParseBool doesn't accept yes/no
		{"", true},
	}

	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			t.Parallel()

			err := validateEnvBool(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEnvPort(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvPort("8000"))
	assert.NoError(t, validateEnvPort("1"))
	assert.NoError(t, validateEnvPort("65535"))
	assert.Error(t, validateEnvPort("0"))
	assert.Error(t, validateEnvPort("65536"))
	assert.Error(t, validateEnvPort("web"))
}

func TestValidateEnvLogLevel(t *testing.T) {
	t.Parallel()

	for _, level := range []string{"trace", "debug", "info", "warn", "error"} {
		assert.NoError(t, validateEnvLogLevel(level), "level %s should be accepted", level)
	}
	assert.Error(t, validateEnvLogLevel("verbose"))
	assert.Error(t, validateEnvLogLevel("INFO"), "levels are lowercase only")
}

func TestEnvBindingsIncludeModelURLCompatibility(t *testing.T) {
	t.Parallel()

	// MODEL_URL without the prefix must remain bound for compatibility
	// with existing deployment environments
	found := false
	for _, binding := range getEnvBindings() {
		if binding.ConfigKey != "model.url" {
			continue
		}
		for _, env := range binding.EnvVars {
			if env == "MODEL_URL" {
				found = true
			}
		}
	}
	assert.True(t, found, "model.url should be bound to the bare MODEL_URL variable")
}

func TestDefaultConfigEmbedded(t *testing.T) {
	t.Parallel()

	content := getDefaultConfig()
	require.NotEmpty(t, content, "embedded default config should not be empty")

	for _, section := range []string{"model:", "audio:", "fetch:", "webserver:", "logging:"} {
		assert.True(t, strings.Contains(content, section),
			"default config should contain the %s section", section)
	}
}
