package jira

import (
	"testing"
	"time"
)

func TestParseIssueKey(t *testing.T) {
	valid := map[string]string{
		"PROJ-123": "PROJ-123",
		"proj-7":   "PROJ-7",
		"AB_2-42":  "AB_2-42",
		"  OPS-1 ": "OPS-1",
		"https://acme.atlassian.net/browse/PROJ-123":                    "PROJ-123",
		"https://acme.atlassian.net/browse/PROJ-9?focusedCommentId=100": "PROJ-9",
		"https://acme.atlassian.net/browse/proj-9#comment":              "PROJ-9",
		"https://acme.atlassian.net/browse/PROJ-9/":                     "PROJ-9",
	}
	for in, want := range valid {
		if got, err := ParseIssueKey(in); err != nil || got != want {
			t.Errorf("ParseIssueKey(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	for _, in := range []string{"", "PROJ-", "PROJ-0", "10042", "1AB-2", "https://github.com/org/repo/issues/123"} {
		if got, err := ParseIssueKey(in); err == nil {
			t.Errorf("ParseIssueKey(%q) = %q, want error", in, got)
		}
	}
}

func TestProjectOf(t *testing.T) {
	for in, want := range map[string]string{
		"PROJ-123":  "PROJ",
		"MY_TEAM-4": "MY_TEAM",
		"nodash":    "",
		"PROJ-":     "",
	} {
		if got := ProjectOf(in); got != want {
			t.Errorf("ProjectOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-01-15T10:30:00.000+0000",
		"2024-01-15T10:30:00+0000",
		"2024-01-15T10:30:00Z",
		"2024-01-15T10:30:00.000Z",
		"2024-01-15T05:30:00.000-0500",
	} {
		got, err := ParseTimestamp(in)
		if err != nil || !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"", "not-a-timestamp", "2024-01-15"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Errorf("ParseTimestamp(%q) succeeded, want error", in)
		}
	}
}

func TestFormatTimestampRoundTrips(t *testing.T) {
	in := time.Date(2025, 3, 2, 9, 15, 0, 0, time.FixedZone("", 2*3600))
	s := FormatTimestamp(in)
	if s != "2025-03-02T09:15:00.000+0200" {
		t.Fatalf("FormatTimestamp() = %q", s)
	}
	got, err := ParseTimestamp(s)
	if err != nil || !got.Equal(in) {
		t.Errorf("ParseTimestamp(FormatTimestamp()) = %v, %v", got, err)
	}
}
