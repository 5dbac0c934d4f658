package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultMaxWait  = 5 * time.Minute
)

// ErrTimeout matches every *TimeoutError.
var ErrTimeout = errors.New("task wait timed out")

// TimeoutError is returned by Poll when the task is still running after the
// wait bound. It is distinct from any transport or retry error.
type TimeoutError struct {
	TaskID     string
	MaxWait    time.Duration
	LastStatus Status
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task %s timed out after %s. Status: %s", e.TaskID, e.MaxWait, e.LastStatus)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Fetcher returns the current snapshot of a task.
type Fetcher interface {
	GetTask(ctx context.Context, id string) (*Task, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, id string) (*Task, error)

func (f FetcherFunc) GetTask(ctx context.Context, id string) (*Task, error) { return f(ctx, id) }

type pollOptions struct {
	interval   time.Duration
	maxWait    time.Duration
	onProgress func(*Task)
	now        func() time.Time
	newTimer   func() backoff.Timer
}

// Option configures Poll.
type Option func(*pollOptions)

// WithInterval sets the pause between fetches. Zero polls back to back.
func WithInterval(d time.Duration) Option {
	return func(o *pollOptions) { o.interval = d }
}

// WithMaxWait bounds the time spent polling.
func WithMaxWait(d time.Duration) Option {
	return func(o *pollOptions) { o.maxWait = d }
}

// WithProgress registers a callback run synchronously after every fetch,
// terminal ones included.
func WithProgress(fn func(*Task)) Option {
	return func(o *pollOptions) { o.onProgress = fn }
}

// WithClock injects the time source used to measure elapsed time.
func WithClock(now func() time.Time) Option {
	return func(o *pollOptions) { o.now = now }
}

// WithTimer injects the timer used for the pause between fetches.
func WithTimer(fn func() backoff.Timer) Option {
	return func(o *pollOptions) { o.newTimer = fn }
}

// errPending keeps the poll loop going.
var errPending = errors.New("task not finished")

// Poll fetches task id until it reaches a terminal status and returns that
// snapshot. If the task is still running once maxWait has elapsed, Poll
// returns the last snapshot with a *TimeoutError.
//
// The elapsed-time check happens only after a fetch, so a slow fetch can
// overrun maxWait; fetches are bounded by the transport. ctx is handed to
// the fetcher only: there is no cancellation between fetches.
func Poll(ctx context.Context, f Fetcher, id string, opts ...Option) (*Task, error) {
	o := pollOptions{
		interval: DefaultInterval,
		maxWait:  DefaultMaxWait,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var start time.Time
	started := false
	op := func() (*Task, error) {
		if !started {
			start, started = o.now(), true
		}
		t, err := f.GetTask(ctx, id)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if t == nil {
			return nil, backoff.Permanent(fmt.Errorf("task %s: empty response", id))
		}
		if o.onProgress != nil {
			o.onProgress(t)
		}
		if t.Status.IsTerminal() {
			return t, nil
		}
		if o.now().Sub(start) >= o.maxWait {
			return t, backoff.Permanent(&TimeoutError{TaskID: id, MaxWait: o.maxWait, LastStatus: t.Status})
		}
		return t, errPending
	}

	var timer backoff.Timer
	if o.newTimer != nil {
		timer = o.newTimer()
	}
	return backoff.RetryNotifyWithTimerAndData(op, backoff.NewConstantBackOff(o.interval), nil, timer)
}
