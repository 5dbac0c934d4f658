package task

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence serves the given statuses in order, repeating the last one.
type sequence struct {
	mu       sync.Mutex
	statuses []Status
	fetches  int
}

func (s *sequence) GetTask(_ context.Context, id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fetches
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	s.fetches++
	return &Task{ID: id, Status: s.statuses[i], Progress: &Progress{Percent: float64(10 * s.fetches)}}, nil
}

// fakeClock advances by step every time it is read.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

type instantTimer struct {
	starts []time.Duration
	c      chan time.Time
}

func newInstantTimer() *instantTimer { return &instantTimer{c: make(chan time.Time, 1)} }

func (t *instantTimer) Start(d time.Duration) {
	t.starts = append(t.starts, d)
	t.c <- time.Time{}
}
func (t *instantTimer) Stop()               {}
func (t *instantTimer) C() <-chan time.Time { return t.c }

func TestPollReturnsTerminalSnapshot(t *testing.T) {
	seq := &sequence{statuses: []Status{StatusRunning, StatusRunning, StatusComplete}}
	var seen []Status

	got, err := Poll(context.Background(), seq, "10041",
		WithInterval(0),
		WithProgress(func(t *Task) { seen = append(seen, t.Status) }),
	)
	require.NoError(t, err)

	assert.Equal(t, StatusComplete, got.Status)
	assert.Equal(t, 3, seq.fetches)
	assert.Equal(t, []Status{StatusRunning, StatusRunning, StatusComplete}, seen)
}

func TestPollWaitsIntervalBetweenFetches(t *testing.T) {
	seq := &sequence{statuses: []Status{StatusEnqueued, StatusRunning, StatusFailed}}
	timer := newInstantTimer()

	got, err := Poll(context.Background(), seq, "7",
		WithInterval(3*time.Second),
		WithTimer(func() backoff.Timer { return timer }),
	)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, timer.starts)
}

func TestPollTimesOut(t *testing.T) {
	seq := &sequence{statuses: []Status{StatusEnqueued, StatusRunning}}
	clock := &fakeClock{now: time.Unix(1700000000, 0), step: 400 * time.Millisecond}
	var calls int

	got, err := Poll(context.Background(), seq, "42",
		WithInterval(0),
		WithMaxWait(time.Second),
		WithClock(clock.Now),
		WithProgress(func(*Task) { calls++ }),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "42", te.TaskID)
	assert.Equal(t, time.Second, te.MaxWait)
	assert.Equal(t, StatusRunning, te.LastStatus)
	assert.Contains(t, err.Error(), "Status: RUNNING")

	require.NotNil(t, got)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Equal(t, seq.fetches, calls)
	assert.GreaterOrEqual(t, seq.fetches, 2)
}

func TestPollTerminalWinsOverTimeout(t *testing.T) {
	seq := &sequence{statuses: []Status{StatusDead}}
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Hour}

	got, err := Poll(context.Background(), seq, "1", WithMaxWait(time.Millisecond), WithClock(clock.Now))
	require.NoError(t, err)
	assert.Equal(t, StatusDead, got.Status)
}

func TestPollPropagatesFetchError(t *testing.T) {
	boom := errors.New("Jira API error (404): task not found")
	f := FetcherFunc(func(context.Context, string) (*Task, error) { return nil, boom })

	_, err := Poll(context.Background(), f, "x", WithInterval(0))
	assert.Same(t, boom, err)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestStatusIsTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusEnqueued:        false,
		StatusRunning:         false,
		StatusCancelRequested: false,
		StatusComplete:        true,
		StatusFailed:          true,
		StatusCancelled:       true,
		StatusDead:            true,
	}
	for s, want := range terminal {
		if got := s.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, got, want)
		}
	}
}

func TestProgressDecodesNumberOrObject(t *testing.T) {
	var a Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","status":"RUNNING","progress":35}`), &a))
	require.NotNil(t, a.Progress)
	assert.Equal(t, 35.0, a.Progress.Percent)
	assert.Equal(t, "Progress: 35% (0/0)", a.ProgressLine())

	var b Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"2","status":"RUNNING","progress":{"percent":50,"succeeded":5,"total":10}}`), &b))
	assert.Equal(t, Progress{Percent: 50, Succeeded: 5, Total: 10}, *b.Progress)
	assert.Equal(t, "Progress: 50% (5/10)", b.ProgressLine())
}
