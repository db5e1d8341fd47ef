package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Load loads configuration from an optional YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (METRICS_ENDPOINT, SERVER_ADDR, etc.)
//  2. YAML config file
//  3. Hardcoded defaults
//
// The configPath parameter names the YAML file to load. An empty path or a
// missing file is not an error; defaults and environment variables apply.
//
// # Environment Variable Mapping
//
// Section-prefixed variables map to their YAML field names:
//
//	SERVER_ADDR              -> server.addr
//	TELEMETRY_SERVICE_NAME   -> telemetry.service_name
//	TEMPLATES_DIR            -> templates.dir
//
// The bare telemetry variables shared with the telemetry builder are also
// recognized:
//
//	METRICS_ENDPOINT -> telemetry.metrics_endpoint
//	TRACING_ENDPOINT -> telemetry.tracing_endpoint
//	LOG_LEVEL        -> telemetry.log_level
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			f, err := os.Open(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open config file: %w", err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return nil, fmt.Errorf("failed to stat config file: %w", err)
			}
			if info.Size() > maxConfigFileSize {
				return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
			}

			content, err := io.ReadAll(f)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}

			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", transformEnvKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// transformEnvKey maps an environment variable name to a config key.
// Returns "" for variables that are not beacon configuration.
func transformEnvKey(s string) string {
	switch s {
	case "METRICS_ENDPOINT":
		return "telemetry.metrics_endpoint"
	case "TRACING_ENDPOINT":
		return "telemetry.tracing_endpoint"
	case "LOG_LEVEL":
		return "telemetry.log_level"
	}

	for _, section := range []string{"SERVER", "TELEMETRY", "TEMPLATES"} {
		prefix := section + "_"
		if strings.HasPrefix(s, prefix) {
			return strings.ToLower(section) + "." + strings.ToLower(strings.TrimPrefix(s, prefix))
		}
	}

	return ""
}
