package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWrapTransportDisabledReturnsBase(t *testing.T) {
	t.Setenv("JC_OTEL_ENABLED", "")
	base := &http.Transport{}
	if got := WrapTransport(base, "jira"); got != base {
		t.Errorf("WrapTransport() = %T, want the base transport unchanged", got)
	}
}

func TestWrapTransportEnabled(t *testing.T) {
	t.Setenv("JC_OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")
	if err := Init(context.Background(), "jc-test", "dev"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Shutdown(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rt := WrapTransport(http.DefaultTransport, "jira")
	if _, ok := rt.(*InstrumentedTransport); !ok {
		t.Fatalf("WrapTransport() = %T, want *InstrumentedTransport", rt)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}

	RecordRetry(context.Background(), "jira", resp.StatusCode, "")
}
