package retry

import (
	"math"
	"net/http"
	"testing"
	"time"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		value  string
		want   time.Duration
		wantOK bool
	}{
		{"", 0, false},
		{"  ", 0, false},
		{"5", 5 * time.Second, true},
		{" 12 ", 12 * time.Second, true},
		{"0", 0, true},
		{"-3", 0, true},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second, true},
		{now.Add(-time.Hour).Format(http.TimeFormat), 0, true},
		{"later", 0, false},
		{"5, later", 5 * time.Second, true},
		{"5.0", 5 * time.Second, true},
		{"+7", 7 * time.Second, true},
		{"10000000000", math.MaxInt64, true},
		{"99999999999999999999999", math.MaxInt64, true},
		{"-99999999999999999999999", 0, true},
	}

	for _, tt := range tests {
		got, ok := ParseRetryAfter(tt.value, now)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseRetryAfter(%q) = %v, %v, want %v, %v", tt.value, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestStateNextClearsHint(t *testing.T) {
	s := State{}.withRetryAfter(7*time.Second, true)
	if d, ok := s.RetryAfter(); !ok || d != 7*time.Second {
		t.Fatalf("RetryAfter() = %v, %v, want 7s, true", d, ok)
	}

	n := s.next()
	if n.Attempt() != 1 {
		t.Errorf("Attempt() = %d, want 1", n.Attempt())
	}
	if _, ok := n.RetryAfter(); ok {
		t.Error("hint carried over to the next attempt")
	}
	if s.Attempt() != 0 {
		t.Errorf("original state mutated: Attempt() = %d", s.Attempt())
	}
}

func TestDelayCapsRetryAfter(t *testing.T) {
	p := DefaultPolicy()
	for attempt := 0; attempt < 3; attempt++ {
		s := State{attempt: attempt}.withRetryAfter(5*time.Second, true)
		if got := p.Delay(s, 0.7); got != 5*time.Second {
			t.Errorf("Delay(attempt=%d, Retry-After 5s) = %v, want 5s", attempt, got)
		}
	}

	s := State{}.withRetryAfter(time.Hour, true)
	if got := p.Delay(s, 0); got != DefaultMaxDelay {
		t.Errorf("Delay(Retry-After 1h) = %v, want %v", got, DefaultMaxDelay)
	}

	huge, ok := ParseRetryAfter("10000000000", time.Now())
	if !ok {
		t.Fatal("ParseRetryAfter(10000000000) not ok")
	}
	if got := p.Delay(State{}.withRetryAfter(huge, ok), 0); got != DefaultMaxDelay {
		t.Errorf("Delay(Retry-After 10000000000) = %v, want %v", got, DefaultMaxDelay)
	}
}
