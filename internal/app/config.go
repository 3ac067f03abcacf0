package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/groqway/internal/anthropicadapter/groq"
	"github.com/florianilch/groqway/internal/observability"
	"github.com/florianilch/groqway/internal/proxy"
)

// Config is the merged application configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Downstream  DownstreamConfig  `koanf:"downstream"`
	Diagnostics DiagnosticsConfig `koanf:"diagnostics"`
	Log         LogConfig         `koanf:"log"`
	Metrics     MetricsConfig     `koanf:"metrics"`
}

// ServerConfig configures the inbound HTTP listener.
type ServerConfig struct {
	Address         string        `koanf:"address" validate:"required,hostname_port"`
	MaxRequestBytes int64         `koanf:"max_request_bytes" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// DownstreamConfig configures the Groq chat completion endpoint and request defaults.
type DownstreamConfig struct {
	BaseURL            string  `koanf:"base_url" validate:"required,http_url"`
	Model              string  `koanf:"model" validate:"required"`
	ModelPrefix        string  `koanf:"model_prefix"`
	MaxOutputTokens    int64   `koanf:"max_output_tokens" validate:"gt=0"`
	DefaultTemperature float64 `koanf:"default_temperature" validate:"gte=0,lte=2"`
}

// DiagnosticsConfig controls diagnostic fields in error responses.
// Enabled echoes request headers (including credentials) on 401 and stack traces on 500.
type DiagnosticsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// LogConfig configures process logging and optional OpenTelemetry log export.
type LogConfig struct {
	Level    string `koanf:"level" validate:"required,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format   string `koanf:"format" validate:"oneof=text json"`
	Exporter string `koanf:"exporter" validate:"oneof=none stdout otlp-http otlp-grpc"`
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"required,startswith=/"`
}

// Defaults returns the built-in configuration as flat koanf keys.
func Defaults() map[string]any {
	return map[string]any{
		"server.address":                 "127.0.0.1:4000",
		"server.max_request_bytes":       proxy.DefaultMaxRequestBytes,
		"server.shutdown_timeout":        "5s",
		"downstream.base_url":            groq.DefaultBaseURL,
		"downstream.model":               groq.DefaultModel,
		"downstream.model_prefix":        groq.DefaultModelPrefix,
		"downstream.max_output_tokens":   groq.DefaultMaxOutputTokens,
		"downstream.default_temperature": groq.DefaultTemperature,
		"diagnostics.enabled":            false,
		"log.level":                      "info",
		"log.format":                     "text",
		"log.exporter":                   observability.ExporterNone,
		"log.endpoint":                   "",
		"metrics.enabled":                true,
		"metrics.path":                   "/metrics",
	}
}

// Validate checks the configuration against its field constraints.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// AdapterConfig returns the downstream adapter settings.
func (c DownstreamConfig) AdapterConfig() groq.Config {
	return groq.Config{
		BaseURL:            c.BaseURL,
		Model:              c.Model,
		ModelPrefix:        c.ModelPrefix,
		MaxOutputTokens:    c.MaxOutputTokens,
		DefaultTemperature: c.DefaultTemperature,
	}
}

// Options returns the observability setup for this log configuration.
func (c LogConfig) Options() (observability.Options, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return observability.Options{}, fmt.Errorf("parse log level: %w", err)
	}

	return observability.Options{
		Level:    level,
		Format:   c.Format,
		Exporter: c.Exporter,
		Endpoint: c.Endpoint,
	}, nil
}
