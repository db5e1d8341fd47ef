package telemetry

import (
	"context"
	"fmt"

	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Builder configures a telemetry pipeline before Build composes and installs
// it. New seeds it from the environment; the With methods override.
type Builder struct {
	cfg      *Config
	provider otellog.LoggerProvider
}

// New returns a Builder for the named service, seeded from the
// METRICS_ENDPOINT, TRACING_ENDPOINT and LOG_LEVEL environment variables.
// Absent endpoints mean the corresponding stage is omitted.
func New(serviceName string) *Builder {
	return &Builder{cfg: newEnvConfig(serviceName)}
}

// NewFromConfig returns a Builder over an explicit configuration, bypassing
// the environment entirely.
func NewFromConfig(cfg *Config) *Builder {
	return &Builder{cfg: cfg}
}

// WithServiceVersion tags exported telemetry with service.version.
func (b *Builder) WithServiceVersion(version string) *Builder {
	b.cfg.ServiceVersion = version
	return b
}

// WithLogLevel overrides the minimum severity of the logging stage.
func (b *Builder) WithLogLevel(level zapcore.Level) *Builder {
	b.cfg.LogLevel = level
	return b
}

// WithLogFormat selects "json" or "console" output for the logging stage.
func (b *Builder) WithLogFormat(format string) *Builder {
	b.cfg.LogFormat = format
	return b
}

// WithMetricsEndpoint overrides the metrics collector endpoint.
func (b *Builder) WithMetricsEndpoint(endpoint string) *Builder {
	b.cfg.MetricsEndpoint = endpoint
	return b
}

// WithTracingEndpoint overrides the tracing collector endpoint.
func (b *Builder) WithTracingEndpoint(endpoint string) *Builder {
	b.cfg.TracingEndpoint = endpoint
	return b
}

// WithProtocol selects the OTLP transport for both exporters.
func (b *Builder) WithProtocol(protocol Protocol) *Builder {
	b.cfg.Protocol = protocol
	return b
}

// WithInsecure disables TLS on the export transport.
func (b *Builder) WithInsecure() *Builder {
	b.cfg.Insecure = true
	return b
}

// WithBestEffort makes Build warn and continue without a stage whose
// exporter cannot be constructed, instead of aborting.
func (b *Builder) WithBestEffort() *Builder {
	b.cfg.BestEffort = true
	return b
}

// WithLoggerProvider tees log records to an OpenTelemetry LoggerProvider in
// addition to stdout.
func (b *Builder) WithLoggerProvider(provider otellog.LoggerProvider) *Builder {
	b.provider = provider
	return b
}

// Build composes the configured stages into one dispatcher, installs it as
// the process-wide instrumentation sink, and returns it together with the
// Guard owning whichever provider handles were created. The caller must keep
// the Guard alive for the process's duration and shut it down on exit.
//
// The logging stage is always built. The metrics and tracing stages are
// built only when their endpoints are configured; a construction failure
// aborts the whole composition unless WithBestEffort was chosen. The
// dispatcher is installed only after every configured stage has been built,
// so partially-built pipelines are never observable.
func (b *Builder) Build(ctx context.Context) (*Dispatcher, *Guard, error) {
	cfg := b.cfg
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	logStage := newLogStage(cfg, b.provider)
	// Records emitted before installation completes go through the log
	// stage alone.
	bootstrap := zap.New(logStage.Core())

	res := newResource(cfg)
	stages := []Stage{logStage}
	var handles []Handle

	if cfg.MetricsEndpoint != "" {
		stage, err := newMetricsStage(ctx, cfg, res)
		if err != nil {
			if !cfg.BestEffort {
				return nil, nil, err
			}
			bootstrap.Warn("continuing without metrics stage", zap.Error(err))
		} else {
			stages = append(stages, stage)
			handles = append(handles, stage)
		}
	}

	if cfg.TracingEndpoint != "" {
		stage, err := newTracingStage(ctx, cfg, res)
		if err != nil {
			if !cfg.BestEffort {
				shutdownAll(ctx, bootstrap, handles)
				return nil, nil, err
			}
			bootstrap.Warn("continuing without tracing stage", zap.Error(err))
		} else {
			stages = append(stages, stage)
			handles = append(handles, stage)
		}
	}

	dispatcher := newDispatcher(cfg, stages)

	if err := dispatcher.install(); err != nil {
		shutdownAll(ctx, bootstrap, handles)
		return nil, nil, err
	}

	guard := newGuard(handles, dispatcher.Logger().Named("telemetry"), cfg.ShutdownTimeout.Duration())

	dispatcher.Logger().Debug("telemetry pipeline installed",
		zap.Int("stages", len(stages)),
		zap.Int("handles", len(handles)),
		zap.Stringer("log_level", cfg.LogLevel))

	return dispatcher, guard, nil
}

// shutdownAll releases handles created before composition aborted, so a
// failed Build leaks no background exporters.
func shutdownAll(ctx context.Context, log *zap.Logger, handles []Handle) {
	for _, h := range handles {
		if err := h.Shutdown(ctx); err != nil {
			log.Warn("telemetry provider shutdown failed",
				zap.Stringer("stage", h.Kind()),
				zap.Error(err))
		}
	}
}
