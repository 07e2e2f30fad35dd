package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ENVIRONMENT",
	"EVENTDESK_API_URL",
	"EVENTDESK_TIMEOUT",
	"EVENTDESK_RATE_LIMIT",
	"EVENTDESK_STORE_PATH",
	"EVENTDESK_STORE_SECRET",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"TRACING_ENABLED",
	"TRACING_EXPORTER",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"TRACING_SAMPLE_RATE",
	"METRICS_TEXTFILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Zero(t, cfg.API.RateLimit)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, strings.HasSuffix(cfg.Store.Path, filepath.Join("eventdesk", "session")))
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EVENTDESK_API_URL", "https://events.example.com/api")
	t.Setenv("EVENTDESK_TIMEOUT", "3")
	t.Setenv("EVENTDESK_RATE_LIMIT", "2.5")
	t.Setenv("EVENTDESK_STORE_PATH", StoreMemory)
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_SAMPLE_RATE", "0.25")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://events.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2.5, cfg.API.RateLimit)
	assert.Equal(t, StoreMemory, cfg.Store.Path)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRate)
}

func TestLoad_ProductionRequiresHTTPS(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("EVENTDESK_API_URL", "http://events.example.com")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "EVENTDESK_API_URL")

	t.Setenv("EVENTDESK_API_URL", "https://events.example.com")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad url", "EVENTDESK_API_URL", "not a url"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"negative rate", "EVENTDESK_RATE_LIMIT", "-1"},
		{"sample rate too high", "TRACING_SAMPLE_RATE", "1.5"},
		{"zero timeout", "EVENTDESK_TIMEOUT", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadWithFile_EnvWinsOverFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "eventdesk.yaml", `
environment: staging
api:
  base_url: https://file.example.com
  timeout_seconds: 5
logging:
  level: debug
  format: json
tracing:
  enabled: true
  sample_rate: 0.5
metrics:
  textfile: /tmp/eventdesk.prom
`)
	t.Setenv("EVENTDESK_API_URL", "https://env.example.com")

	cfg, err := LoadWithFile(path)

	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.5, cfg.Tracing.SampleRate)
	assert.Equal(t, "/tmp/eventdesk.prom", cfg.Metrics.Textfile)
}

func TestLoadWithFile_Errors(t *testing.T) {
	clearEnv(t)

	_, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	_, err = LoadWithFile(writeFile(t, "bad.yaml", "api: [unclosed"))
	assert.ErrorContains(t, err, "parse config file")
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "error")
	// godotenv never overrides a variable that exists, even when empty
	require.NoError(t, os.Unsetenv("EVENTDESK_API_URL"))
	path := writeFile(t, ".env", "EVENTDESK_API_URL=https://dotenv.example.com\nLOG_LEVEL=debug\n")

	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env"), path))

	assert.Equal(t, "https://dotenv.example.com", os.Getenv("EVENTDESK_API_URL"))
	assert.Equal(t, "error", os.Getenv("LOG_LEVEL"), "existing variables win")
}

func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLoggerTo(&buf, LoggingConfig{Level: "warn", Format: "json"})
	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "test").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"component":"test"`)
}

func TestNewLoggerTo_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLoggerTo(&buf, LoggingConfig{Level: "chatty", Format: "json"})
	logger.Debug().Msg("debug")
	logger.Info().Msg("info")

	assert.NotContains(t, buf.String(), `"message":"debug"`)
	assert.Contains(t, buf.String(), `"message":"info"`)
}
