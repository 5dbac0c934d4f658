// Package timeparsing turns the date expressions accepted by sprint and
// worklog flags into times. Layers are tried in order:
//  1. Compact duration (+6h, -1d, +2w)
//  2. Absolute timestamp (RFC3339, date-only)
//  3. Natural language (tomorrow, next monday)
package timeparsing

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var compactRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

// shift applies n units to a time. Days and larger units are calendar
// arithmetic, so "+1d" across a DST change keeps the wall clock.
var shift = map[string]func(t time.Time, n int) time.Time{
	"h": func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Hour) },
	"d": func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) },
	"w": func(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) },
	"m": func(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) },
	"y": func(t time.Time, n int) time.Time { return t.AddDate(n, 0, 0) },
}

// IsCompactDuration reports whether s looks like +6h, -1d, 2w, 3m or 1y.
func IsCompactDuration(s string) bool {
	return compactRe.MatchString(s)
}

// ParseCompactDuration offsets now by a compact duration. An unsigned
// amount counts forward.
func ParseCompactDuration(s string, now time.Time) (time.Time, error) {
	m := compactRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not a compact duration: %q", s)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("duration amount %q out of range", m[2])
	}
	if m[1] == "-" {
		n = -n
	}
	return shift[m[3]](now, n), nil
}

var nlp = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseNaturalLanguage parses English expressions such as "tomorrow at 9am",
// "next friday", "in 3 days" or "3 days ago" relative to now.
func ParseNaturalLanguage(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty time expression")
	}
	r, err := nlp.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("not a recognized time expression: %q", s)
	}
	return r.Time, nil
}

// ParseRelativeTime tries compact durations, then RFC3339 and YYYY-MM-DD
// (local midnight), then natural language.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if IsCompactDuration(s) {
		return ParseCompactDuration(s, now)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, now.Location()); err == nil {
		return t, nil
	}
	t, err := ParseNaturalLanguage(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use +2w, 2025-01-31, RFC3339 or an expression like 'next monday'", s)
	}
	return t, nil
}
