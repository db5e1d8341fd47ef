package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/beacon/pkg/config"
	"github.com/fyrsmithlabs/beacon/pkg/logging"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig("orders-api")

	assert.Equal(t, "orders-api", cfg.ServiceName)
	assert.Empty(t, cfg.ServiceVersion)
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Empty(t, cfg.MetricsEndpoint)
	assert.Empty(t, cfg.TracingEndpoint)
	assert.Equal(t, 15*time.Second, cfg.ExportInterval.Duration())
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout.Duration())
	assert.False(t, cfg.BestEffort)
}

func TestNewEnvConfig(t *testing.T) {
	t.Setenv("METRICS_ENDPOINT", "http://collector:4318")
	t.Setenv("TRACING_ENDPOINT", "http://collector:4319")
	t.Setenv("LOG_LEVEL", "trace")

	cfg := newEnvConfig("orders-api")

	assert.Equal(t, "http://collector:4318", cfg.MetricsEndpoint)
	assert.Equal(t, "http://collector:4319", cfg.TracingEndpoint)
	assert.Equal(t, logging.TraceLevel, cfg.LogLevel)
}

func TestNewEnvConfig_UnparsableLevelFallsBackToInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "shout")

	cfg := newEnvConfig("orders-api")

	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:   "empty service name",
			mutate: func(c *Config) { c.ServiceName = "" },
			errMsg: "service_name",
		},
		{
			name:   "unsupported protocol",
			mutate: func(c *Config) { c.Protocol = "http/json" },
			errMsg: "unsupported export protocol",
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.LogFormat = "xml" },
			errMsg: "log_format",
		},
		{
			name: "zero export interval with endpoint",
			mutate: func(c *Config) {
				c.MetricsEndpoint = "http://collector:4318"
				c.ExportInterval = 0
			},
			errMsg: "export_interval",
		},
		{
			name:   "zero export interval without endpoints is fine",
			mutate: func(c *Config) { c.ExportInterval = 0 },
		},
		{
			name:   "zero shutdown timeout",
			mutate: func(c *Config) { c.ShutdownTimeout = config.Duration(0) },
			errMsg: "shutdown_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig("orders-api")
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
