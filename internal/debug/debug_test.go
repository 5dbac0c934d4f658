package debug

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// withState restores the package globals after a test.
func withState(t *testing.T) *bytes.Buffer {
	t.Helper()
	oldEnabled, oldVerbose, oldQuiet := enabled, verboseMode, quietMode
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		mu.Lock()
		enabled, verboseMode, quietMode = oldEnabled, oldVerbose, oldQuiet
		mu.Unlock()
		SetLogFile("")
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestEnabled(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     bool
	}{
		{"enabled with value", "1", true},
		{"enabled with any value", "true", true},
		{"disabled when empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withState(t)
			mu.Lock()
			enabled = tt.envValue != ""
			verboseMode = false
			mu.Unlock()

			if got := Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogf(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    string
	}{
		{"outputs when verbose", true, "test message: hello"},
		{"no output when disabled", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := withState(t)
			mu.Lock()
			enabled = false
			mu.Unlock()
			SetVerbose(tt.verbose)

			Logf("test message: %s\n", "hello")

			got := buf.String()
			if tt.want == "" && got != "" {
				t.Errorf("Logf() output = %q, want none", got)
			}
			if tt.want != "" && !strings.Contains(got, tt.want) {
				t.Errorf("Logf() output = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestSetVerbose(t *testing.T) {
	withState(t)
	mu.Lock()
	enabled = false
	mu.Unlock()

	SetVerbose(false)
	if Enabled() {
		t.Error("Enabled() should be false initially")
	}

	SetVerbose(true)
	if !Enabled() {
		t.Error("Enabled() should be true after SetVerbose(true)")
	}

	SetVerbose(false)
	if Enabled() {
		t.Error("Enabled() should be false after SetVerbose(false)")
	}
}

func TestSetQuietAndIsQuiet(t *testing.T) {
	withState(t)

	SetQuiet(false)
	if IsQuiet() {
		t.Error("IsQuiet() should be false initially")
	}

	SetQuiet(true)
	if !IsQuiet() {
		t.Error("IsQuiet() should be true after SetQuiet(true)")
	}
}

func TestLogFileReceivesEventsWhenConsoleIsOff(t *testing.T) {
	buf := withState(t)
	mu.Lock()
	enabled = false
	mu.Unlock()
	SetVerbose(false)

	path := filepath.Join(t.TempDir(), "jc.log")
	SetLogFile(path)
	Logf("written to file only")
	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("console output = %q, want none", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"written to file only"`) {
		t.Errorf("log file = %q, want JSON event", data)
	}
}

func TestWrapTransportLogsAttempts(t *testing.T) {
	buf := withState(t)
	SetVerbose(true)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/rest/api/3/myself", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp, err := WrapTransport(nil).RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	out := buf.String()
	for _, want := range []string{"GET", "/rest/api/3/myself", "abc-123", "418"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
