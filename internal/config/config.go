package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// StoreMemory as the store path keeps the session in process memory only.
const StoreMemory = "memory"

type Config struct {
	API         APIConfig
	Store       StoreConfig
	Logging     LoggingConfig
	Tracing     TracingConfig
	Metrics     MetricsConfig
	Environment string
}

type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
}

type StoreConfig struct {
	Path string
	// Secret enables at-rest encryption of the session store.
	Secret string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string
	ServiceName  string
	OTLPEndpoint string
	OTLPInsecure bool
	SampleRate   float64
}

type MetricsConfig struct {
	// Textfile is where metrics are written on exit. Empty disables export.
	Textfile string
}

// fileConfig is the on-disk YAML shape. Secrets are env-only.
type fileConfig struct {
	Environment string `yaml:"environment"`
	API         struct {
		BaseURL        string  `yaml:"base_url"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RateLimit      float64 `yaml:"rate_limit"`
	} `yaml:"api"`
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Tracing struct {
		Enabled    *bool    `yaml:"enabled"`
		Exporter   string   `yaml:"exporter"`
		Endpoint   string   `yaml:"otlp_endpoint"`
		SampleRate *float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Tracing: TracingConfig{
			Exporter:     "stdout",
			ServiceName:  "eventdesk",
			OTLPEndpoint: "localhost:4317",
			OTLPInsecure: true,
			SampleRate:   1.0,
		},
		Environment: "development",
	}
}

// DefaultStorePath is the per-user badger directory for the session.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return StoreMemory
	}
	return filepath.Join(dir, "eventdesk", "session")
}

func Load() (Config, error) {
	return LoadWithFile("")
}

// LoadWithFile layers defaults, then the YAML file at path (if any), then the
// environment.
func LoadWithFile(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.API.BaseURL = getEnv("EVENTDESK_API_URL", cfg.API.BaseURL)
	cfg.API.Timeout = time.Duration(getEnvInt("EVENTDESK_TIMEOUT", int(cfg.API.Timeout/time.Second))) * time.Second
	cfg.API.RateLimit = getEnvFloat("EVENTDESK_RATE_LIMIT", cfg.API.RateLimit)
	cfg.Store.Path = getEnv("EVENTDESK_STORE_PATH", cfg.Store.Path)
	cfg.Store.Secret = getEnv("EVENTDESK_STORE_SECRET", cfg.Store.Secret)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = getEnv("TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.OTLPEndpoint)
	cfg.Tracing.OTLPInsecure = getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Tracing.OTLPInsecure)
	cfg.Tracing.SampleRate = getEnvFloat("TRACING_SAMPLE_RATE", cfg.Tracing.SampleRate)
	cfg.Metrics.Textfile = getEnv("METRICS_TEXTFILE", cfg.Metrics.Textfile)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=value pairs from the given .env files into the
// process environment without overriding variables already set. Missing
// files are skipped.
func LoadEnvFile(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Environment != "" {
		cfg.Environment = fc.Environment
	}
	if fc.API.BaseURL != "" {
		cfg.API.BaseURL = fc.API.BaseURL
	}
	if fc.API.TimeoutSeconds > 0 {
		cfg.API.Timeout = time.Duration(fc.API.TimeoutSeconds) * time.Second
	}
	if fc.API.RateLimit > 0 {
		cfg.API.RateLimit = fc.API.RateLimit
	}
	if fc.Store.Path != "" {
		cfg.Store.Path = fc.Store.Path
	}
	if fc.Logging.Level != "" {
		cfg.Logging.Level = fc.Logging.Level
	}
	if fc.Logging.Format != "" {
		cfg.Logging.Format = fc.Logging.Format
	}
	if fc.Tracing.Enabled != nil {
		cfg.Tracing.Enabled = *fc.Tracing.Enabled
	}
	if fc.Tracing.Exporter != "" {
		cfg.Tracing.Exporter = fc.Tracing.Exporter
	}
	if fc.Tracing.Endpoint != "" {
		cfg.Tracing.OTLPEndpoint = fc.Tracing.Endpoint
	}
	if fc.Tracing.SampleRate != nil {
		cfg.Tracing.SampleRate = *fc.Tracing.SampleRate
	}
	if fc.Metrics.Textfile != "" {
		cfg.Metrics.Textfile = fc.Metrics.Textfile
	}
	return nil
}

// Validate checks the assembled configuration. HTTPS is required for the API
// in production.
func (c Config) Validate() error {
	var errs []string

	if err := validation.ValidateAPIURL(c.API.BaseURL, "EVENTDESK_API_URL", c.IsProduction()); err != nil {
		errs = append(errs, err.Error())
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, "EVENTDESK_TIMEOUT: must be positive")
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, "EVENTDESK_RATE_LIMIT: must not be negative")
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		errs = append(errs, "EVENTDESK_STORE_PATH: required")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT: must be json or console, got %q", c.Logging.Format))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Sprintf("TRACING_SAMPLE_RATE: must be between 0.0 and 1.0, got %v", c.Tracing.SampleRate))
	}

	if len(errs) > 0 {
		return errors.New("invalid configuration: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
