// Package telemetry assembles a process-wide observability pipeline from
// configuration: structured logging, OTLP metrics export, and OTLP trace
// export, composed into one dispatcher and installed into the process's
// global instrumentation hooks.
//
// # Usage
//
// Compose and install the pipeline once, early in main, and keep the guard
// for the life of the process:
//
//	dispatcher, guard, err := telemetry.New("orders-api").
//		WithServiceVersion("1.4.2").
//		WithMetricsEndpoint("http://collector:4318").
//		Build(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer guard.Shutdown(ctx)
//
//	dispatcher.Logger().Info("starting")
//	tracer := dispatcher.Tracer("orders/api")
//
// # Configuration
//
// New reads METRICS_ENDPOINT, TRACING_ENDPOINT and LOG_LEVEL from the
// environment; builder overrides win. An absent endpoint omits that stage
// entirely, and an unparsable LOG_LEVEL falls back to info. Telemetry
// configuration never prevents the host application from starting, with one
// deliberate exception: an endpoint that is configured but unusable aborts
// Build, unless WithBestEffort opts into warn-and-continue.
//
// # Lifecycle
//
// The logging stage is always built; metrics and tracing stages are built
// per configured endpoint, each owning a background exporter. Installation
// happens at most once per process: a second Build returns
// ErrAlreadyInstalled and leaves the first pipeline active. The returned
// Guard owns every created provider handle and flushes and closes them
// exactly once, regardless of how many times Shutdown is invoked.
package telemetry
