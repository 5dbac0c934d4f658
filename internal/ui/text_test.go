package ui

import (
	"strconv"
	"strings"
	"testing"
)

func TestTruncateSimple(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short text unchanged", input: "hello", maxLen: 10, want: "hello"},
		{name: "exact length unchanged", input: "hello", maxLen: 5, want: "hello"},
		{name: "truncate with ellipsis", input: "hello world", maxLen: 8, want: "hello..."},
		{name: "very short maxLen", input: "hello world", maxLen: 3, want: "..."},
		{name: "empty string", input: "", maxLen: 10, want: ""},
		{name: "unicode chars", input: "héllo wörld", maxLen: 8, want: "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateSimple(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("TruncateSimple(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func numbered(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "line " + strconv.Itoa(i+1)
	}
	return strings.Join(lines, "\n")
}

func TestTruncateLines(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if got := TruncateLines("a\nb", 5, 1); got != "a\nb" {
		t.Errorf("short text changed: %q", got)
	}

	got := TruncateLines(numbered(30), 10, 3)
	lines := strings.Split(got, "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), got)
	}
	if lines[0] != "line 1" || lines[6] != "line 30" {
		t.Errorf("context lines wrong: %q", got)
	}
	if !strings.Contains(lines[3], "24 lines hidden") {
		t.Errorf("marker = %q", lines[3])
	}

	got = TruncateLines(numbered(10), 4, 3)
	if !strings.HasPrefix(got, "line 1\nline 2\nline 3\nline 4\n") || !strings.Contains(got, "6 more lines") {
		t.Errorf("head-only truncation = %q", got)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{name: "fits", input: "short line", width: 20, want: "short line"},
		{name: "wraps", input: "the quick brown fox jumps", width: 10, want: "the quick\nbrown fox\njumps"},
		{name: "keeps breaks", input: "a b\nc d", width: 80, want: "a b\nc d"},
		{name: "long word", input: "supercalifragilistic x", width: 5, want: "supercalifragilistic\nx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapText(tt.input, tt.width); got != tt.want {
				t.Errorf("WrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusStyle(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if got := RenderStatus("MERGED"); !strings.Contains(got, "MERGED") {
		t.Errorf("RenderStatus() = %q", got)
	}
}
