// Package retry retries HTTP requests that fail transiently, using
// exponential backoff with jitter and honoring Retry-After.
//
// The retry budget and delays are described by a Policy. Each logical
// request gets its own State, so concurrent requests never share counters.
package retry

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"
)

const (
	// DefaultMaxRetries is the number of retries after the initial attempt.
	DefaultMaxRetries = 3

	// DefaultBaseDelay is the unit of the exponential backoff.
	DefaultBaseDelay = time.Second

	// DefaultMaxDelay caps any single computed delay.
	DefaultMaxDelay = 30 * time.Second
)

// DefaultRetryableStatuses are the response codes retried by default.
var DefaultRetryableStatuses = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Policy describes how a logical request is retried. A Policy is immutable
// once built; use NewPolicy to construct one.
type Policy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	statuses   map[int]struct{}
}

// Option configures a Policy.
type Option func(*Policy)

// WithMaxRetries sets the number of retries after the initial attempt.
func WithMaxRetries(n int) Option {
	return func(p *Policy) { p.maxRetries = n }
}

// WithBaseDelay sets the backoff unit.
func WithBaseDelay(d time.Duration) Option {
	return func(p *Policy) { p.baseDelay = d }
}

// WithMaxDelay sets the cap applied to every delay.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) { p.maxDelay = d }
}

// WithRetryableStatuses replaces the set of retryable status codes.
func WithRetryableStatuses(codes ...int) Option {
	return func(p *Policy) {
		p.statuses = make(map[int]struct{}, len(codes))
		for _, c := range codes {
			p.statuses[c] = struct{}{}
		}
	}
}

// NewPolicy returns a Policy with the defaults overridden by opts.
func NewPolicy(opts ...Option) (Policy, error) {
	p := Policy{
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		maxDelay:   DefaultMaxDelay,
	}
	WithRetryableStatuses(DefaultRetryableStatuses...)(&p)
	for _, opt := range opts {
		opt(&p)
	}

	if p.maxRetries < 0 {
		return Policy{}, fmt.Errorf("max retries must be non-negative, got %d", p.maxRetries)
	}
	if p.baseDelay < 0 {
		return Policy{}, fmt.Errorf("base delay must be non-negative, got %s", p.baseDelay)
	}
	if p.maxDelay < 0 {
		return Policy{}, fmt.Errorf("max delay must be non-negative, got %s", p.maxDelay)
	}
	return p, nil
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	p, _ := NewPolicy()
	return p
}

// MaxRetries returns the retry budget of a logical request.
func (p Policy) MaxRetries() int { return p.maxRetries }

// BaseDelay returns the backoff unit.
func (p Policy) BaseDelay() time.Duration { return p.baseDelay }

// MaxDelay returns the cap applied to every delay.
func (p Policy) MaxDelay() time.Duration { return p.maxDelay }

// RetryableStatuses returns the retryable status codes in ascending order.
func (p Policy) RetryableStatuses() []int {
	codes := make([]int, 0, len(p.statuses))
	for c := range p.statuses {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}

// IsRetryableStatus reports whether a response with this code is retried.
func (p Policy) IsRetryableStatus(code int) bool {
	_, ok := p.statuses[code]
	return ok
}

// Backoff returns the delay before retry attempt n (0-indexed). jitter must
// be in [0, 1) and selects a point in [0, baseDelay) added to the
// exponential term. The result never exceeds MaxDelay.
func (p Policy) Backoff(attempt int, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 62 || p.baseDelay > time.Duration(math.MaxInt64>>uint(attempt)) {
		return p.maxDelay
	}
	exp := p.baseDelay << uint(attempt)
	if exp >= p.maxDelay {
		return p.maxDelay
	}
	d := exp + time.Duration(jitter*float64(p.baseDelay))
	if d > p.maxDelay {
		d = p.maxDelay
	}
	return d
}

// Delay returns the wait before the retry described by s. A Retry-After
// hint replaces the exponential delay; both are capped at MaxDelay.
func (p Policy) Delay(s State, jitter float64) time.Duration {
	if s.hasRetryAfter {
		d := s.retryAfter
		if d < 0 {
			d = 0
		}
		if d > p.maxDelay {
			d = p.maxDelay
		}
		return d
	}
	return p.Backoff(s.Attempt(), jitter)
}
