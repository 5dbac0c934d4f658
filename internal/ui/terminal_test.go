package ui

import (
	"os"
	"testing"
)

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name          string
		noColor       string
		cliColor      string
		cliColorForce string
		wantColor     bool
	}{
		{
			name:      "NO_COLOR disables color",
			noColor:   "1",
			wantColor: false,
		},
		{
			name:      "CLICOLOR=0 disables color",
			cliColor:  "0",
			wantColor: false,
		},
		{
			name:          "CLICOLOR_FORCE enables color even in non-TTY",
			cliColorForce: "1",
			wantColor:     true,
		},
		{
			name:          "NO_COLOR takes precedence over CLICOLOR_FORCE",
			noColor:       "1",
			cliColorForce: "1",
			wantColor:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetEnv(t, "NO_COLOR")
			unsetEnv(t, "CLICOLOR")
			unsetEnv(t, "CLICOLOR_FORCE")
			if tt.noColor != "" {
				t.Setenv("NO_COLOR", tt.noColor)
			}
			if tt.cliColor != "" {
				t.Setenv("CLICOLOR", tt.cliColor)
			}
			if tt.cliColorForce != "" {
				t.Setenv("CLICOLOR_FORCE", tt.cliColorForce)
			}

			if got := ShouldUseColor(); got != tt.wantColor {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tt.wantColor)
			}
		})
	}
}

func TestIsAgentMode(t *testing.T) {
	t.Setenv("JC_AGENT_MODE", "1")
	if !IsAgentMode() {
		t.Error("IsAgentMode() = false with JC_AGENT_MODE=1")
	}
}

func TestIsTerminal(t *testing.T) {
	// Under go test stdout is normally a pipe; only check it does not panic.
	t.Logf("IsTerminal() = %v", IsTerminal())
}

// unsetEnv removes key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}
