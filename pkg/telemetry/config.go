package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/beacon/pkg/config"
	"github.com/fyrsmithlabs/beacon/pkg/logging"
)

// Protocol selects the OTLP export transport.
type Protocol string

// Supported export protocols.
const (
	ProtocolHTTP Protocol = "http/protobuf"
	ProtocolGRPC Protocol = "grpc"
)

// Environment variables consulted by New. Explicit builder overrides win.
const (
	envMetricsEndpoint = "metrics_endpoint"
	envTracingEndpoint = "tracing_endpoint"
	envLogLevel        = "log_level"
)

// Config holds pipeline configuration. ServiceName is immutable once Build
// starts; an empty metrics or tracing endpoint means that stage is omitted,
// not built as a no-op.
type Config struct {
	ServiceName     string          `koanf:"service_name"`
	ServiceVersion  string          `koanf:"service_version"`
	LogLevel        zapcore.Level   `koanf:"log_level"`
	LogFormat       string          `koanf:"log_format"`
	MetricsEndpoint string          `koanf:"metrics_endpoint"`
	TracingEndpoint string          `koanf:"tracing_endpoint"`
	Protocol        Protocol        `koanf:"protocol"`
	Insecure        bool            `koanf:"insecure"`
	TLSSkipVerify   bool            `koanf:"tls_skip_verify"`
	ExportInterval  config.Duration `koanf:"export_interval"`
	ShutdownTimeout config.Duration `koanf:"shutdown_timeout"`

	// BestEffort makes Build warn and continue without a stage whose
	// exporter cannot be constructed, instead of aborting the whole
	// composition. Off by default: broken endpoint configuration should
	// surface at startup.
	BestEffort bool `koanf:"best_effort"`
}

// NewDefaultConfig returns pipeline defaults for the given service.
// Endpoints default to unset, so only the logging stage is built.
func NewDefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName:     serviceName,
		LogLevel:        zapcore.InfoLevel,
		LogFormat:       "json",
		Protocol:        ProtocolHTTP,
		ExportInterval:  config.Duration(15 * time.Second),
		ShutdownTimeout: config.Duration(5 * time.Second),
	}
}

// newEnvConfig returns defaults overlaid with the METRICS_ENDPOINT,
// TRACING_ENDPOINT and LOG_LEVEL environment variables. An unparsable
// LOG_LEVEL falls back to info; logging must never prevent startup.
func newEnvConfig(serviceName string) *Config {
	cfg := NewDefaultConfig(serviceName)

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return cfg
	}

	if v := k.String(envMetricsEndpoint); v != "" {
		cfg.MetricsEndpoint = v
	}
	if v := k.String(envTracingEndpoint); v != "" {
		cfg.TracingEndpoint = v
	}
	cfg.LogLevel = logging.LevelOrInfo(k.String(envLogLevel))

	return cfg
}

// Validate checks configuration for errors. Violations here are fatal to
// composition as a whole and surface before any stage is built.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}

	switch c.Protocol {
	case ProtocolHTTP, ProtocolGRPC:
	default:
		return fmt.Errorf("unsupported export protocol %q", c.Protocol)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("log_format must be 'json' or 'console', got %q", c.LogFormat)
	}

	if (c.MetricsEndpoint != "" || c.TracingEndpoint != "") && c.ExportInterval.Duration() <= 0 {
		return fmt.Errorf("export_interval must be positive")
	}

	if c.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}

	return nil
}
