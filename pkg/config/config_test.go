package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := NewDefaultConfig()
		cfg.Telemetry.ServiceName = "orders-api"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:   "missing server addr",
			mutate: func(c *Config) { c.Server.Addr = "" },
			errMsg: "server.addr",
		},
		{
			name:   "zero shutdown timeout",
			mutate: func(c *Config) { c.Server.ShutdownTimeout = 0 },
			errMsg: "shutdown_timeout",
		},
		{
			name:   "missing service name",
			mutate: func(c *Config) { c.Telemetry.ServiceName = "" },
			errMsg: "service_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
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
