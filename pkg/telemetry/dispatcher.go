package telemetry

import (
	"sync/atomic"

	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/beacon/pkg/logging"
)

// installed tracks whether a dispatcher has been installed as this process's
// instrumentation sink. At most one installation per process lifetime.
var installed atomic.Bool

// Dispatcher is the merged, installed sink. Application code emits logs
// through Logger and derives tracers and meters from it; every record is
// routed to all applicable stages.
//
// It is shared process-wide and safe for concurrent use; the underlying
// providers handle thread-safe ingestion.
type Dispatcher struct {
	stages []Stage
	logger *zap.Logger

	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

func newDispatcher(cfg *Config, stages []Stage) *Dispatcher {
	cores := make([]zapcore.Core, 0, len(stages))
	for _, s := range stages {
		if core := s.Core(); core != nil {
			cores = append(cores, core)
		}
	}

	logger := zap.New(logging.Tee(cores...)).
		With(zap.String("service", cfg.ServiceName))

	d := &Dispatcher{
		stages: stages,
		logger: logger,
	}
	for _, s := range stages {
		switch st := s.(type) {
		case *metricsStage:
			d.meterProvider = st.provider
		case *tracingStage:
			d.tracerProvider = st.provider
		}
	}
	return d
}

// Stages returns the composed stages in dispatch order: logging, then
// metrics, then tracing.
func (d *Dispatcher) Stages() []Stage {
	return d.stages
}

// Logger returns the installed structured logger.
func (d *Dispatcher) Logger() *zap.Logger {
	return d.logger
}

// Tracer returns a tracer for the given instrumentation scope.
//
// Returns a no-op tracer when no tracing stage was configured; an absent
// stage never blocks the host.
func (d *Dispatcher) Tracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	if d == nil || d.tracerProvider == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return d.tracerProvider.Tracer(name, opts...)
}

// Meter returns a meter for the given instrumentation scope.
//
// Returns a no-op meter when no metrics stage was configured.
func (d *Dispatcher) Meter(name string, opts ...otelmetric.MeterOption) otelmetric.Meter {
	if d == nil || d.meterProvider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return d.meterProvider.Meter(name, opts...)
}

// Sync flushes buffered log entries.
func (d *Dispatcher) Sync() error {
	return logging.Sync(d.logger)
}

// install makes the dispatcher the process-wide instrumentation sink: the
// global zap logger, the global OTel providers for whichever stages exist,
// and W3C trace context propagation. A second installation attempt fails
// with ErrAlreadyInstalled and leaves the first untouched.
func (d *Dispatcher) install() error {
	if !installed.CompareAndSwap(false, true) {
		return ErrAlreadyInstalled
	}

	zap.ReplaceGlobals(d.logger)

	if d.meterProvider != nil {
		otel.SetMeterProvider(d.meterProvider)
	}
	if d.tracerProvider != nil {
		otel.SetTracerProvider(d.tracerProvider)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return nil
}
