package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const httpScopeName = "github.com/ShpetimA/atlassian-cli/http"

type httpInstruments struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
	retries  metric.Int64Counter
}

var (
	instrumentsOnce sync.Once
	instruments     *httpInstruments
)

func httpMetrics() *httpInstruments {
	instrumentsOnce.Do(func() {
		m := Meter(httpScopeName)
		requests, _ := m.Int64Counter("jc.http.requests",
			metric.WithDescription("HTTP attempts sent to Atlassian APIs"),
		)
		duration, _ := m.Float64Histogram("jc.http.duration",
			metric.WithDescription("HTTP attempt duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		retries, _ := m.Int64Counter("jc.http.retries",
			metric.WithDescription("Retries scheduled after transient failures"),
		)
		instruments = &httpInstruments{
			tracer:   Tracer(httpScopeName),
			requests: requests,
			duration: duration,
			retries:  retries,
		}
	})
	return instruments
}

// InstrumentedTransport records a span and metrics for every HTTP attempt.
// Use WrapTransport to create one.
type InstrumentedTransport struct {
	inner   http.RoundTripper
	service string
	m       *httpInstruments
}

// WrapTransport returns base decorated with OTel instrumentation labelled
// with service. When telemetry is disabled, base is returned as-is.
func WrapTransport(base http.RoundTripper, service string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if !Enabled() {
		return base
	}
	return &InstrumentedTransport{inner: base, service: service, m: httpMetrics()}
}

func (t *InstrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	attrs := []attribute.KeyValue{
		attribute.String("jc.service", t.service),
		attribute.String("http.request.method", req.Method),
		attribute.String("server.address", req.URL.Host),
	}
	ctx, span := t.m.tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithAttributes(append(attrs,
			attribute.String("url.path", req.URL.Path),
			attribute.String("jc.request_id", req.Header.Get("X-Request-Id")),
		)...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	start := time.Now()
	resp, err := t.inner.RoundTrip(req.WithContext(ctx))
	ms := float64(time.Since(start).Milliseconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		attrs = append(attrs, attribute.String("error.type", "transport"))
	} else {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		if resp.StatusCode >= 400 {
			span.SetStatus(codes.Error, strconv.Itoa(resp.StatusCode))
		}
		attrs = append(attrs, attribute.Int("http.response.status_code", resp.StatusCode))
	}
	t.m.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	t.m.duration.Record(ctx, ms, metric.WithAttributes(attrs...))
	return resp, err
}

// RecordRetry counts one scheduled retry. status is 0 for network failures,
// in which case reason names the failure.
func RecordRetry(ctx context.Context, service string, status int, reason string) {
	if !Enabled() {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("jc.service", service)}
	if status != 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", status))
	} else {
		attrs = append(attrs, attribute.String("error.type", reason))
	}
	httpMetrics().retries.Add(ctx, 1, metric.WithAttributes(attrs...))
}
