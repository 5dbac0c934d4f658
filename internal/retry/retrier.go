package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxDrainBytes bounds how much of a discarded response body is read so the
// connection can be reused.
const maxDrainBytes = 64 << 10

// SendFunc performs one attempt of a logical request. s describes the
// attempt: s.Attempt() is 0 for the initial try.
type SendFunc func(s State) (*http.Response, error)

// Event describes a failed attempt that is about to be retried.
type Event struct {
	// State of the attempt that failed.
	State State
	// Status is the response code, or 0 when no response was received.
	Status int
	// Reason is the network reason code when Status is 0.
	Reason string
	// Err is the transport error when Status is 0.
	Err error
	// Delay is the wait before the next attempt.
	Delay time.Duration
}

// Retrier executes logical requests under a Policy. It holds no per-request
// state and is safe for concurrent use when its injected functions are.
type Retrier struct {
	policy   Policy
	rand     func() float64
	now      func() time.Time
	newTimer func() backoff.Timer
	notify   func(Event)
}

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithRand injects the jitter source. fn must return values in [0, 1).
func WithRand(fn func() float64) RetrierOption {
	return func(r *Retrier) { r.rand = fn }
}

// WithClock injects the time source used to evaluate Retry-After dates.
func WithClock(fn func() time.Time) RetrierOption {
	return func(r *Retrier) { r.now = fn }
}

// WithTimer injects the timer used to wait between attempts. fn is called
// once per logical request.
func WithTimer(fn func() backoff.Timer) RetrierOption {
	return func(r *Retrier) { r.newTimer = fn }
}

// WithNotify registers a callback invoked before each retry wait.
func WithNotify(fn func(Event)) RetrierOption {
	return func(r *Retrier) { r.notify = fn }
}

// New returns a Retrier for p.
func New(p Policy, opts ...RetrierOption) *Retrier {
	r := &Retrier{
		policy: p,
		rand:   rand.Float64,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the policy the Retrier applies.
func (r *Retrier) Policy() Policy { return r.policy }

// attemptError marks an attempt whose failure is retryable. It carries the
// response (if any) so the last one can be handed back on exhaustion.
type attemptError struct {
	state  State
	resp   *http.Response
	reason string
	err    error
}

func (e *attemptError) Error() string {
	if e.resp != nil {
		return fmt.Sprintf("retryable status %d", e.resp.StatusCode)
	}
	return e.err.Error()
}

func (e *attemptError) Unwrap() error { return e.err }

// schedule is the backoff.BackOff of a single logical request. It advances
// its State once per granted retry.
type schedule struct {
	policy Policy
	rand   func() float64
	state  State
}

func (s *schedule) NextBackOff() time.Duration {
	d := s.policy.Delay(s.state, s.rand())
	s.state = s.state.next()
	return d
}

func (s *schedule) Reset() { s.state = State{} }

// Do runs send until it returns a response outside the retry path, fails
// with a non-retryable error, or the retry budget is spent.
//
// On exhaustion the final failure is returned as is: the last retryable
// response with a nil error, or the last transport error. ctx bounds the
// waits between attempts.
func (r *Retrier) Do(ctx context.Context, send SendFunc) (*http.Response, error) {
	sched := &schedule{policy: r.policy, rand: r.rand}
	b := backoff.WithContext(backoff.WithMaxRetries(sched, uint64(r.policy.MaxRetries())), ctx)

	op := func() (*http.Response, error) {
		st := sched.state
		resp, err := send(st)
		if err != nil {
			reason, ok := NetworkReason(err)
			if !ok {
				return nil, backoff.Permanent(err)
			}
			return nil, &attemptError{state: st, reason: reason, err: err}
		}
		if !r.policy.IsRetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		ra, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), r.now())
		sched.state = st.withRetryAfter(ra, ok)
		return resp, &attemptError{state: st, resp: resp}
	}

	notify := func(err error, delay time.Duration) {
		var ae *attemptError
		if !errors.As(err, &ae) {
			return
		}
		ev := Event{State: ae.state, Reason: ae.reason, Err: ae.err, Delay: delay}
		if ae.resp != nil {
			ev.Status = ae.resp.StatusCode
			discard(ae.resp)
		}
		if r.notify != nil {
			r.notify(ev)
		}
	}

	var timer backoff.Timer
	if r.newTimer != nil {
		timer = r.newTimer()
	}

	resp, err := backoff.RetryNotifyWithTimerAndData(op, b, notify, timer)
	if err == nil {
		return resp, nil
	}

	var ae *attemptError
	if errors.As(err, &ae) {
		if ae.resp != nil {
			return ae.resp, nil
		}
		return nil, ae.err
	}
	if resp != nil {
		discard(resp)
	}
	return nil, err
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
}
