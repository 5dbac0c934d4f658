package telemetry

import "testing"

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("JC_OTEL_ENABLED", "true")
	t.Setenv("JC_OTEL_STDOUT", "")
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	s := settingsFromEnv("bb")
	if !s.enabled || s.stdout {
		t.Errorf("enabled/stdout = %v/%v, want true/false", s.enabled, s.stdout)
	}
	if s.service != "bb" {
		t.Errorf("service = %q, want bb", s.service)
	}
	if s.metricsEndpoint != "http://collector:4318" {
		t.Errorf("metricsEndpoint = %q, want the shared endpoint", s.metricsEndpoint)
	}

	t.Setenv("OTEL_SERVICE_NAME", "agent-cli")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "https://metrics:4318")
	s = settingsFromEnv("bb")
	if s.service != "agent-cli" || s.metricsEndpoint != "https://metrics:4318" {
		t.Errorf("overrides not applied: %+v", s)
	}
}

func TestOTLPTarget(t *testing.T) {
	tests := []struct {
		in       string
		host     string
		insecure bool
	}{
		{"localhost:4318", "localhost:4318", true},
		{"http://collector:4318/", "collector:4318", true},
		{"https://otel.acme.com", "otel.acme.com", false},
	}
	for _, tt := range tests {
		host, insecure := otlpTarget(tt.in)
		if host != tt.host || insecure != tt.insecure {
			t.Errorf("otlpTarget(%q) = %q, %v; want %q, %v", tt.in, host, insecure, tt.host, tt.insecure)
		}
	}
}
