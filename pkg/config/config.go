// Package config provides configuration loading for services built on beacon.
package config

import (
	"fmt"
	"time"
)

// Config is the top-level configuration for a beacon-based service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Templates TemplatesConfig `koanf:"templates"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string   `koanf:"addr"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// TelemetryConfig holds the telemetry pipeline settings.
//
// Empty endpoints mean the corresponding pipeline stage is omitted.
type TelemetryConfig struct {
	ServiceName     string `koanf:"service_name"`
	ServiceVersion  string `koanf:"service_version"`
	LogLevel        string `koanf:"log_level"`
	MetricsEndpoint string `koanf:"metrics_endpoint"`
	TracingEndpoint string `koanf:"tracing_endpoint"`
	Protocol        string `koanf:"protocol"`
	Insecure        bool   `koanf:"insecure"`
}

// TemplatesConfig holds template rendering settings.
type TemplatesConfig struct {
	Dir       string `koanf:"dir"`
	AssetsDir string `koanf:"assets_dir"`
}

// NewDefaultConfig returns configuration defaults suitable for local development.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Telemetry: TelemetryConfig{
			LogLevel: "info",
			Protocol: "http/protobuf",
			Insecure: true,
		},
		Templates: TemplatesConfig{
			Dir:       "templates",
			AssetsDir: "assets",
		},
	}
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if c.Telemetry.ServiceName == "" {
		return fmt.Errorf("telemetry.service_name is required")
	}
	return nil
}
