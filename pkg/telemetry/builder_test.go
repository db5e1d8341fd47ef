package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/beacon/pkg/config"
)

// buildTestConfig returns a config that exercises composition without
// waiting on a collector at teardown.
func buildTestConfig(t *testing.T) *Config {
	t.Helper()
	t.Cleanup(resetInstalled)

	cfg := NewDefaultConfig("orders-api")
	cfg.ShutdownTimeout = config.Duration(time.Second)
	return cfg
}

func TestBuild_LoggingOnly(t *testing.T) {
	cfg := buildTestConfig(t)

	dispatcher, guard, err := NewFromConfig(cfg).Build(context.Background())
	require.NoError(t, err)
	defer guard.Shutdown(context.Background())

	stages := dispatcher.Stages()
	require.Len(t, stages, 1)
	assert.Equal(t, StageLogging, stages[0].Kind())
	assert.Equal(t, 0, guard.Handles())

	// Unconfigured stages degrade to no-ops instead of blocking the host.
	assert.NotNil(t, dispatcher.Tracer("test"))
	assert.NotNil(t, dispatcher.Meter("test"))
}

func TestBuild_EndToEnd(t *testing.T) {
	cfg := buildTestConfig(t)
	cfg.LogLevel = zapcore.DebugLevel
	cfg.MetricsEndpoint = "http://localhost:4318"

	dispatcher, guard, err := NewFromConfig(cfg).Build(context.Background())
	require.NoError(t, err)

	stages := dispatcher.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, StageLogging, stages[0].Kind())
	assert.Equal(t, StageMetrics, stages[1].Kind())
	assert.Equal(t, 1, guard.Handles())

	guard.Shutdown(context.Background())
}

func TestBuild_StageOrder(t *testing.T) {
	cfg := buildTestConfig(t)
	cfg.MetricsEndpoint = "http://localhost:4318"
	cfg.TracingEndpoint = "http://localhost:4318"

	dispatcher, guard, err := NewFromConfig(cfg).Build(context.Background())
	require.NoError(t, err)
	defer guard.Shutdown(context.Background())

	stages := dispatcher.Stages()
	require.Len(t, stages, 3)
	assert.Equal(t, StageLogging, stages[0].Kind())
	assert.Equal(t, StageMetrics, stages[1].Kind())
	assert.Equal(t, StageTracing, stages[2].Kind())
	assert.Equal(t, 2, guard.Handles())
}

func TestBuild_SecondInstallFails(t *testing.T) {
	cfg := buildTestConfig(t)

	first, guard, err := NewFromConfig(cfg).Build(context.Background())
	require.NoError(t, err)
	defer guard.Shutdown(context.Background())

	_, _, err = NewFromConfig(NewDefaultConfig("other-service")).Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyInstalled))

	// The first installation remains active and unaffected.
	require.Len(t, first.Stages(), 1)
	assert.NotPanics(t, func() { first.Logger().Info("still wired") })
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := buildTestConfig(t)
	cfg.ServiceName = ""

	dispatcher, guard, err := NewFromConfig(cfg).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telemetry config")
	assert.Nil(t, dispatcher)
	assert.Nil(t, guard)
}

func TestBuild_MalformedMetricsEndpointAborts(t *testing.T) {
	cfg := buildTestConfig(t)
	cfg.MetricsEndpoint = "collector:4318" // scheme-less, HTTP transport needs one

	dispatcher, guard, err := NewFromConfig(cfg).Build(context.Background())
	require.Error(t, err)
	assert.Nil(t, dispatcher)
	assert.Nil(t, guard)

	var buildErr *BuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Equal(t, StageMetrics, buildErr.Stage)

	// Nothing was installed, so a later composition still succeeds.
	d, g, err := NewFromConfig(NewDefaultConfig("orders-api")).Build(context.Background())
	require.NoError(t, err)
	defer g.Shutdown(context.Background())
	assert.Len(t, d.Stages(), 1)
}

func TestBuild_MalformedTracingEndpointAborts(t *testing.T) {
	cfg := buildTestConfig(t)
	cfg.MetricsEndpoint = "http://localhost:4318"
	cfg.TracingEndpoint = "collector:4319"

	// The tracing failure must also release the already-built metrics
	// provider; partial pipelines are never installed.
	dispatcher, guard, err := NewFromConfig(cfg).Build(context.Background())
	require.Error(t, err)
	assert.Nil(t, dispatcher)
	assert.Nil(t, guard)

	var buildErr *BuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Equal(t, StageTracing, buildErr.Stage)
}

func TestBuild_BestEffortContinues(t *testing.T) {
	cfg := buildTestConfig(t)
	cfg.MetricsEndpoint = "collector:4318"
	cfg.BestEffort = true

	dispatcher, guard, err := NewFromConfig(cfg).Build(context.Background())
	require.NoError(t, err)
	defer guard.Shutdown(context.Background())

	require.Len(t, dispatcher.Stages(), 1)
	assert.Equal(t, StageLogging, dispatcher.Stages()[0].Kind())
	assert.Equal(t, 0, guard.Handles())
}

func TestNew_EnvironmentSeeding(t *testing.T) {
	t.Cleanup(resetInstalled)
	t.Setenv("METRICS_ENDPOINT", "http://localhost:4318")
	t.Setenv("TRACING_ENDPOINT", "")
	t.Setenv("LOG_LEVEL", "warn")

	b := New("orders-api").WithLogLevel(zapcore.ErrorLevel)

	// The explicit override wins over the environment.
	assert.Equal(t, zapcore.ErrorLevel, b.cfg.LogLevel)
	assert.Equal(t, "http://localhost:4318", b.cfg.MetricsEndpoint)
	assert.Empty(t, b.cfg.TracingEndpoint)
}
