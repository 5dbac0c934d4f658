// Package telemetry provides OpenTelemetry tracing and metrics for the
// outgoing HTTP traffic of jc and bb. It is off unless JC_OTEL_ENABLED=true.
//
//	JC_OTEL_ENABLED=true                 turn telemetry on
//	JC_OTEL_STDOUT=true                  pretty-print spans and metrics to stderr
//	OTEL_EXPORTER_OTLP_ENDPOINT          OTLP/HTTP collector, e.g. http://localhost:4318
//	OTEL_EXPORTER_OTLP_METRICS_ENDPOINT  metrics-only override
//	OTEL_SERVICE_NAME                    override the service name
//
// With telemetry on and no exporter configured, spans go to stderr.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/ShpetimA/atlassian-cli"

// settings is the environment-derived telemetry configuration.
type settings struct {
	enabled         bool
	stdout          bool
	service         string
	traceEndpoint   string
	metricsEndpoint string
}

func settingsFromEnv(service string) settings {
	s := settings{
		enabled:         os.Getenv("JC_OTEL_ENABLED") == "true",
		stdout:          os.Getenv("JC_OTEL_STDOUT") == "true",
		service:         service,
		traceEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		metricsEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"),
	}
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		s.service = name
	}
	if s.metricsEndpoint == "" {
		s.metricsEndpoint = s.traceEndpoint
	}
	return s
}

var shutdownFns []func(context.Context) error

// Enabled reports whether JC_OTEL_ENABLED=true.
func Enabled() bool {
	return settingsFromEnv("").enabled
}

// Init installs the global tracer and meter providers. Disabled telemetry
// gets no-op providers.
func Init(ctx context.Context, serviceName, version string) error {
	s := settingsFromEnv(serviceName)
	if !s.enabled {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(s.service),
			semconv.ServiceVersionKey.String(version),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	spans, err := spanExporters(ctx, s)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	topts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	for _, exp := range spans {
		topts = append(topts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(topts...)

	readers, err := metricReaders(ctx, s)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("telemetry: %w", err)
	}
	mopts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range readers {
		mopts = append(mopts, sdkmetric.WithReader(r))
	}
	mp := sdkmetric.NewMeterProvider(mopts...)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	shutdownFns = append(shutdownFns, tp.Shutdown, mp.Shutdown)
	return nil
}

// Tracer returns a tracer for name, defaulting to the module scope.
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Tracer(name)
}

// Meter returns a meter for name, defaulting to the module scope.
func Meter(name string) metric.Meter {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Meter(name)
}

// Shutdown flushes pending spans and metrics. Called from
// PersistentPostRun; export errors are ignored.
func Shutdown(ctx context.Context) {
	for _, fn := range shutdownFns {
		_ = fn(ctx)
	}
	shutdownFns = nil
}
