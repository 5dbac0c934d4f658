package jira

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// keyRe matches an issue key after upper-casing: a project key of
// letters, digits and underscores starting with a letter, then a number.
var keyRe = regexp.MustCompile(`^([A-Z][A-Z0-9_]*)-([1-9][0-9]*)$`)

// ParseIssueKey accepts "PROJ-123", "proj-123" or a browse link such as
// https://acme.atlassian.net/browse/PROJ-123?focusedCommentId=9 and
// returns the upper-case key.
func ParseIssueKey(ref string) (string, error) {
	s := strings.TrimSpace(ref)
	if _, after, ok := strings.Cut(s, "/browse/"); ok {
		s, _, _ = strings.Cut(after, "?")
		s, _, _ = strings.Cut(s, "#")
		s = strings.TrimSuffix(s, "/")
	}
	key := strings.ToUpper(s)
	if !keyRe.MatchString(key) {
		return "", fmt.Errorf("invalid issue key %q", ref)
	}
	return key, nil
}

// ProjectOf returns the project key of a valid issue key, else "".
func ProjectOf(key string) string {
	if m := keyRe.FindStringSubmatch(key); m != nil {
		return m[1]
	}
	return ""
}

// Jira Cloud writes "2024-01-15T10:30:00.000+0000"; the rest are
// accepted for dates copied from elsewhere.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
}

// ParseTimestamp parses a timestamp from a Jira response.
func ParseTimestamp(ts string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", ts)
}

// FormatTimestamp renders t for worklog "started" fields.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000-0700")
}
