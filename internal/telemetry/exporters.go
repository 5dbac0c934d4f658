package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	stdoutMetricInterval = 15 * time.Second
	otlpMetricInterval   = 30 * time.Second
)

// otlpTarget splits an endpoint into the host:port the OTLP exporters want
// and whether to skip TLS. Bare host:port is treated as plain HTTP.
func otlpTarget(endpoint string) (hostport string, insecure bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), false
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), true
	}
	return strings.TrimSuffix(endpoint, "/"), true
}

func spanExporters(ctx context.Context, s settings) ([]sdktrace.SpanExporter, error) {
	var out []sdktrace.SpanExporter
	if s.traceEndpoint != "" {
		host, insecure := otlpTarget(s.traceEndpoint)
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(host)}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp trace exporter: %w", err)
		}
		out = append(out, exp)
	}
	if s.stdout || len(out) == 0 {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		out = append(out, exp)
	}
	return out, nil
}

func metricReaders(ctx context.Context, s settings) ([]sdkmetric.Reader, error) {
	var out []sdkmetric.Reader
	if s.metricsEndpoint != "" {
		host, insecure := otlpTarget(s.metricsEndpoint)
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(host)}
		if insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		out = append(out, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(otlpMetricInterval)))
	}
	if s.stdout {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
		if err != nil {
			return nil, fmt.Errorf("stdout metric exporter: %w", err)
		}
		out = append(out, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(stdoutMetricInterval)))
	}
	return out, nil
}
