package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"
)

// newResource creates the resource descriptor attached identically to the
// metrics and tracing providers, so exported data correlates by service
// identity.
//
// A standalone resource avoids schema URL conflicts with resource.Default(),
// which uses a different semconv version.
func newResource(cfg *Config) *resource.Resource {
	if cfg.ServiceVersion != "" {
		return resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		)
	}
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	)
}

// validateEndpoint rejects endpoints the configured transport cannot use.
// The HTTP exporters need a scheme to decide TLS; the gRPC exporters take a
// bare host:port, with an optional scheme tolerated and stripped later.
func validateEndpoint(endpoint string, protocol Protocol) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint is empty")
	}

	switch protocol {
	case ProtocolHTTP:
		u, err := url.Parse(endpoint)
		if err != nil {
			return fmt.Errorf("malformed endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("endpoint %q needs an http or https scheme", endpoint)
		}
		if u.Host == "" {
			return fmt.Errorf("endpoint %q has no host", endpoint)
		}
	case ProtocolGRPC:
		host := stripScheme(endpoint)
		if host == "" || strings.ContainsAny(host, " /") {
			return fmt.Errorf("endpoint %q is not a host:port", endpoint)
		}
	default:
		return fmt.Errorf("unsupported export protocol %q", protocol)
	}

	return nil
}

// newMeterProvider creates a meter provider with a periodic OTLP exporter.
// The exporter validates configuration at construction but performs no I/O
// to the collector; export happens later, off the critical path.
func newMeterProvider(ctx context.Context, cfg *Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	if err := validateEndpoint(cfg.MetricsEndpoint, cfg.Protocol); err != nil {
		return nil, &BuildError{Stage: StageMetrics, Endpoint: cfg.MetricsEndpoint, Err: err}
	}

	var exporter sdkmetric.Exporter
	var err error

	switch cfg.Protocol {
	case ProtocolHTTP:
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(stripScheme(cfg.MetricsEndpoint)),
		}
		if cfg.Insecure || strings.HasPrefix(cfg.MetricsEndpoint, "http://") {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		} else if cfg.TLSSkipVerify {
			opts = append(opts, otlpmetrichttp.WithTLSClientConfig(&tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // User explicitly requested
			}))
		}
		exporter, err = otlpmetrichttp.New(ctx, opts...)
	default: // ProtocolGRPC
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(stripScheme(cfg.MetricsEndpoint)),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		} else if cfg.TLSSkipVerify {
			opts = append(opts, otlpmetricgrpc.WithTLSCredentials(credentials.NewTLS(&tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // User explicitly requested
			})))
		}
		exporter, err = otlpmetricgrpc.New(ctx, opts...)
	}

	if err != nil {
		return nil, &BuildError{Stage: StageMetrics, Endpoint: cfg.MetricsEndpoint, Err: err}
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(cfg.ExportInterval.Duration()),
			),
		),
	), nil
}

// newTracerProvider creates a tracer provider with a batching OTLP span
// exporter. Same construction-time guarantees as newMeterProvider.
func newTracerProvider(ctx context.Context, cfg *Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	if err := validateEndpoint(cfg.TracingEndpoint, cfg.Protocol); err != nil {
		return nil, &BuildError{Stage: StageTracing, Endpoint: cfg.TracingEndpoint, Err: err}
	}

	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.Protocol {
	case ProtocolHTTP:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(stripScheme(cfg.TracingEndpoint)),
		}
		if cfg.Insecure || strings.HasPrefix(cfg.TracingEndpoint, "http://") {
			opts = append(opts, otlptracehttp.WithInsecure())
		} else if cfg.TLSSkipVerify {
			opts = append(opts, otlptracehttp.WithTLSClientConfig(&tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // User explicitly requested
			}))
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	default: // ProtocolGRPC
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(stripScheme(cfg.TracingEndpoint)),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else if cfg.TLSSkipVerify {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(&tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // User explicitly requested
			})))
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	}

	if err != nil {
		return nil, &BuildError{Stage: StageTracing, Endpoint: cfg.TracingEndpoint, Err: err}
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

// stripScheme removes http:// or https:// from an endpoint URL. The OTLP
// exporters expect host:port, not full URLs.
func stripScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return endpoint
}
