package retry

import (
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// State is the retry bookkeeping of one logical request. It is a value:
// advancing it returns a new State and never touches the request.
type State struct {
	attempt       int
	retryAfter    time.Duration
	hasRetryAfter bool
}

// Attempt returns the number of retries already performed.
func (s State) Attempt() int { return s.attempt }

// RetryAfter returns the server-supplied wait for the next retry, if any.
func (s State) RetryAfter() (time.Duration, bool) { return s.retryAfter, s.hasRetryAfter }

// withRetryAfter records the hint carried by a failed response.
func (s State) withRetryAfter(d time.Duration, ok bool) State {
	s.retryAfter, s.hasRetryAfter = d, ok
	return s
}

// next returns the state for the following attempt. Hints do not carry over.
func (s State) next() State {
	return State{attempt: s.attempt + 1}
}

// maxRetryAfterSecs is the largest second count a time.Duration can hold.
const maxRetryAfterSecs = int64(math.MaxInt64 / int64(time.Second))

// leadingInt matches the integer prefix of a delay-seconds value, so
// "5", "5.0" and "5, later" all mean five seconds.
var leadingInt = regexp.MustCompile(`^[+-]?\d+`)

// ParseRetryAfter interprets a Retry-After header value: either a number of
// seconds or an HTTP date. The result is never negative, and second counts
// too large for a Duration saturate at math.MaxInt64. ok is false when the
// value is empty or unparseable.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if digits := leadingInt.FindString(value); digits != "" {
		secs, err := strconv.ParseInt(digits, 10, 64)
		switch {
		case strings.HasPrefix(digits, "-"):
			return 0, true
		case err != nil || secs > maxRetryAfterSecs:
			return math.MaxInt64, true
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
