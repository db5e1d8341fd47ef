package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/beacon/pkg/logging"
)

// scopeName is the instrumentation scope for beacon's own instruments.
const scopeName = "github.com/fyrsmithlabs/beacon/pkg/telemetry"

// StageKind identifies a pipeline stage variant.
type StageKind int

// Stage kinds, in dispatcher order.
const (
	StageLogging StageKind = iota
	StageMetrics
	StageTracing
)

func (k StageKind) String() string {
	switch k {
	case StageLogging:
		return "logging"
	case StageMetrics:
		return "metrics"
	case StageTracing:
		return "tracing"
	default:
		return fmt.Sprintf("stage(%d)", int(k))
	}
}

// Stage is one composable unit of the installed dispatcher.
//
// Stages that consume log records contribute a zapcore.Core; every record is
// offered to every core, and each core applies its own filter independently.
// The tracing stage processes span records through its provider instead and
// contributes no core.
type Stage interface {
	Kind() StageKind
	Core() zapcore.Core
}

// logStage writes formatted records, including severity, filtered so only
// records at or above the configured level pass. Building it touches no
// global state.
type logStage struct {
	core zapcore.Core
}

// newLogStage builds the logging stage. When an OpenTelemetry LoggerProvider
// is supplied, records are teed to it through the otelzap bridge.
func newLogStage(cfg *Config, provider otellog.LoggerProvider) *logStage {
	cores := []zapcore.Core{
		logging.NewStdoutCore(cfg.LogLevel, cfg.LogFormat),
	}
	if provider != nil {
		cores = append(cores, logging.NewOTelCore(cfg.ServiceName, provider))
	}
	return &logStage{core: logging.Tee(cores...)}
}

func (s *logStage) Kind() StageKind { return StageLogging }
func (s *logStage) Core() zapcore.Core { return s.core }

// metricsStage owns a meter provider whose periodic exporter begins flushing
// in the background as soon as the stage is built. The handle must reach the
// lifecycle guard or the exporter leaks.
//
// Its core derives metrics from emitted log records, counting them by
// severity.
type metricsStage struct {
	provider *sdkmetric.MeterProvider
	core     zapcore.Core
}

func newMetricsStage(ctx context.Context, cfg *Config, res *resource.Resource) (*metricsStage, error) {
	provider, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		return nil, err
	}

	records, err := provider.Meter(scopeName).Int64Counter(
		"log.records.emitted",
		otelmetric.WithDescription("Log records observed by the metrics stage, by severity."),
	)
	if err != nil {
		// The provider's periodic exporter is already running.
		_ = provider.Shutdown(ctx)
		return nil, &BuildError{Stage: StageMetrics, Endpoint: cfg.MetricsEndpoint, Err: err}
	}

	return &metricsStage{
		provider: provider,
		core: &recordCounterCore{
			LevelEnabler: logging.TraceLevel,
			records:      records,
		},
	}, nil
}

func (s *metricsStage) Kind() StageKind { return StageMetrics }
func (s *metricsStage) Core() zapcore.Core { return s.core }

// Shutdown flushes pending readings and closes the exporter.
func (s *metricsStage) Shutdown(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}

// tracingStage owns a tracer provider with a batching span exporter, plus a
// tracer named after the service's instrumentation scope.
type tracingStage struct {
	provider *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
}

func newTracingStage(ctx context.Context, cfg *Config, res *resource.Resource) (*tracingStage, error) {
	provider, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, err
	}

	return &tracingStage{
		provider: provider,
		tracer:   provider.Tracer(cfg.ServiceName),
	}, nil
}

func (s *tracingStage) Kind() StageKind { return StageTracing }
func (s *tracingStage) Core() zapcore.Core { return nil }

// Shutdown flushes pending spans and closes the exporter.
func (s *tracingStage) Shutdown(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}

// recordCounterCore counts emitted log records through an OTel counter. It
// deliberately passes every severity: its filter is independent of the
// logging stage's.
type recordCounterCore struct {
	zapcore.LevelEnabler
	records otelmetric.Int64Counter
}

func (c *recordCounterCore) With([]zapcore.Field) zapcore.Core { return c }

func (c *recordCounterCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *recordCounterCore) Write(ent zapcore.Entry, _ []zapcore.Field) error {
	c.records.Add(context.Background(), 1,
		otelmetric.WithAttributes(attribute.String("severity", ent.Level.String())))
	return nil
}

func (c *recordCounterCore) Sync() error { return nil }
