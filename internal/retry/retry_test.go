package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// fakeTimer fires immediately and records every requested wait.
type fakeTimer struct {
	mu     sync.Mutex
	delays []time.Duration
	c      chan time.Time
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{c: make(chan time.Time, 1)}
}

func (f *fakeTimer) Start(d time.Duration) {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.mu.Unlock()
	f.c <- time.Time{}
}

func (f *fakeTimer) Stop() {}

func (f *fakeTimer) C() <-chan time.Time { return f.c }

func (f *fakeTimer) Delays() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.delays...)
}

func fixedRand(v float64) func() float64 {
	return func() float64 { return v }
}

// statusServer answers with codes in order, repeating the last one.
func statusServer(t *testing.T, hits *int32, codes ...int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(hits, 1)) - 1
		if n >= len(codes) {
			n = len(codes) - 1
		}
		w.WriteHeader(codes[n])
		fmt.Fprintf(w, "attempt %d", n)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(timer *fakeTimer, opts ...RetrierOption) *http.Client {
	opts = append([]RetrierOption{
		WithRand(fixedRand(0)),
		WithTimer(func() backoff.Timer { return timer }),
	}, opts...)
	r := New(DefaultPolicy(), opts...)
	return &http.Client{Transport: NewTransport(http.DefaultTransport, r)}
}

func TestTransportRetriesRetryableStatuses(t *testing.T) {
	for _, code := range DefaultRetryableStatuses {
		t.Run(http.StatusText(code), func(t *testing.T) {
			var hits int32
			srv := statusServer(t, &hits, code)
			timer := newFakeTimer()

			resp, err := newTestClient(timer).Get(srv.URL)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, code, resp.StatusCode)
			assert.EqualValues(t, DefaultMaxRetries+1, atomic.LoadInt32(&hits))
			assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, timer.Delays())

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, "attempt 0", string(body), "last response is returned unmodified")
		})
	}
}

func TestTransportRecoversAfterTransientStatus(t *testing.T) {
	var hits int32
	srv := statusServer(t, &hits, http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusOK)
	timer := newFakeTimer()

	var events []Event
	client := newTestClient(timer, WithNotify(func(ev Event) { events = append(events, ev) }))

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
	require.Len(t, events, 2)
	assert.Equal(t, http.StatusServiceUnavailable, events[0].Status)
	assert.Equal(t, 0, events[0].State.Attempt())
	assert.Equal(t, http.StatusBadGateway, events[1].Status)
	assert.Equal(t, 1, events[1].State.Attempt())
}

func TestTransportDoesNotRetryClientErrors(t *testing.T) {
	for _, code := range []int{400, 401, 403, 404, 409, 422} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			var hits int32
			srv := statusServer(t, &hits, code)
			timer := newFakeTimer()

			resp, err := newTestClient(timer).Get(srv.URL)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, code, resp.StatusCode)
			assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
			assert.Empty(t, timer.Delays())
		})
	}
}

func TestTransportReplaysBody(t *testing.T) {
	var hits int32
	var bodies []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b)+"|"+r.Header.Get("X-Request-Id"))
		mu.Unlock()
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-1")

	resp, err := newTestClient(newFakeTimer()).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{`{"a":1}|req-1`, `{"a":1}|req-1`, `{"a":1}|req-1`}, bodies)
}

func TestRetryAfterOverridesBackoff(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	timer := newFakeTimer()
	resp, err := newTestClient(timer, WithRand(fixedRand(0.9))).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, timer.Delays())
}

func TestRetryAfterDateAndCap(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"date in future", now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{"date in past", now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"zero", "0", 0},
		{"capped", "120", DefaultMaxDelay},
		{"garbage falls back to backoff", "soon", time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&hits, 1) > 1 {
					return
				}
				w.Header().Set("Retry-After", tt.header)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			timer := newFakeTimer()
			client := newTestClient(timer, WithClock(func() time.Time { return now }))
			resp, err := client.Get(srv.URL)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, []time.Duration{tt.want}, timer.Delays())
		})
	}
}

// errTransport fails every round trip with err and counts the calls.
type errTransport struct {
	calls int32
	err   error
}

func (e *errTransport) RoundTrip(*http.Request) (*http.Response, error) {
	atomic.AddInt32(&e.calls, 1)
	return nil, e.err
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestNetworkFailuresAreRetried(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"connection reset", &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, ReasonConnReset},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, ReasonConnRefused},
		{"broken pipe", &net.OpError{Op: "write", Net: "tcp", Err: os.NewSyscallError("write", syscall.EPIPE)}, ReasonBrokenPipe},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "example.invalid", IsNotFound: true}, ReasonNotFound},
		{"client timeout", &net.OpError{Op: "dial", Net: "tcp", Err: timeoutErr{}}, ReasonTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := NetworkReason(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.reason, reason)

			base := &errTransport{err: tt.err}
			timer := newFakeTimer()
			r := New(DefaultPolicy(), WithRand(fixedRand(0)), WithTimer(func() backoff.Timer { return timer }))

			req := httptest.NewRequest(http.MethodGet, "http://example.invalid/", nil)
			resp, err := NewTransport(base, r).RoundTrip(req)
			assert.Nil(t, resp)
			assert.Same(t, tt.err, err, "last transport error is surfaced unwrapped")
			assert.EqualValues(t, DefaultMaxRetries+1, atomic.LoadInt32(&base.calls))
			assert.Len(t, timer.Delays(), DefaultMaxRetries)
		})
	}
}

func TestNonRetryableErrorsFailImmediately(t *testing.T) {
	for _, err := range []error{context.Canceled, errors.New("tls: bad certificate")} {
		base := &errTransport{err: err}
		r := New(DefaultPolicy(), WithTimer(func() backoff.Timer { return newFakeTimer() }))

		req := httptest.NewRequest(http.MethodGet, "http://example.invalid/", nil)
		_, got := NewTransport(base, r).RoundTrip(req)
		assert.ErrorIs(t, got, err)
		assert.EqualValues(t, 1, atomic.LoadInt32(&base.calls))
	}
}

func TestBackoffBounds(t *testing.T) {
	p := DefaultPolicy()
	for n := 0; n < 8; n++ {
		low := time.Duration(1<<uint(n)) * time.Second
		high := low + time.Second
		if low > DefaultMaxDelay {
			low = DefaultMaxDelay
		}
		if high > DefaultMaxDelay {
			high = DefaultMaxDelay
		}
		for _, j := range []float64{0, 0.25, 0.5, 0.999} {
			d := p.Backoff(n, j)
			assert.GreaterOrEqual(t, d, low, "attempt %d jitter %v", n, j)
			assert.LessOrEqual(t, d, high, "attempt %d jitter %v", n, j)
		}
	}
	assert.Equal(t, DefaultMaxDelay, p.Backoff(200, 0.5))
}

func TestZeroMaxRetriesSendsOnce(t *testing.T) {
	var hits int32
	srv := statusServer(t, &hits, http.StatusInternalServerError)

	p, err := NewPolicy(WithMaxRetries(0))
	require.NoError(t, err)
	client := &http.Client{Transport: NewTransport(nil, New(p))}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestNewPolicyRejectsNegativeValues(t *testing.T) {
	_, err := NewPolicy(WithMaxRetries(-1))
	assert.Error(t, err)
	_, err = NewPolicy(WithBaseDelay(-time.Second))
	assert.Error(t, err)
	_, err = NewPolicy(WithMaxDelay(-time.Second))
	assert.Error(t, err)
}

func TestContextCancelStopsWaiting(t *testing.T) {
	var hits int32
	srv := statusServer(t, &hits, http.StatusServiceUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	r := New(DefaultPolicy(), WithNotify(func(Event) { cancel() }))
	client := &http.Client{Transport: NewTransport(nil, r)}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestConcurrentRequestsKeepSeparateState(t *testing.T) {
	var flakyHits, downHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/flaky":
			if atomic.AddInt32(&flakyHits, 1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			atomic.AddInt32(&downHits, 1)
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	r := New(DefaultPolicy(), WithTimer(func() backoff.Timer { return newFakeTimer() }))
	client := &http.Client{Transport: NewTransport(nil, r)}

	codes := make(map[string]int)
	var mu sync.Mutex
	var g errgroup.Group
	for _, path := range []string{"/flaky", "/down"} {
		g.Go(func() error {
			resp, err := client.Get(srv.URL + path)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			mu.Lock()
			codes[path] = resp.StatusCode
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, http.StatusOK, codes["/flaky"])
	assert.Equal(t, http.StatusBadGateway, codes["/down"])
	assert.EqualValues(t, 3, atomic.LoadInt32(&flakyHits))
	assert.EqualValues(t, DefaultMaxRetries+1, atomic.LoadInt32(&downHits))
}
