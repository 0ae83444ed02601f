package pomodoro

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adibhanna/pomodoro/internal/models"
)

// fakeScheduler hands out tickers that only fire when the test says so.
type fakeScheduler struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

type fakeTicker struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func()
	stopped  bool
}

func (tk *fakeTicker) Stop() {
	tk.mu.Lock()
	tk.stopped = true
	tk.mu.Unlock()
}

func (tk *fakeTicker) isStopped() bool {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	return tk.stopped
}

func (s *fakeScheduler) Every(interval time.Duration, fn func()) Ticker {
	s.mu.Lock()
	defer s.mu.Unlock()
	tk := &fakeTicker{interval: interval, fn: fn}
	s.tickers = append(s.tickers, tk)
	return tk
}

func (s *fakeScheduler) live() []*fakeTicker {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTicker
	for _, tk := range s.tickers {
		if !tk.isStopped() {
			out = append(out, tk)
		}
	}
	return out
}

func (s *fakeScheduler) created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickers)
}

func (s *fakeScheduler) last() *fakeTicker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tickers) == 0 {
		return nil
	}
	return s.tickers[len(s.tickers)-1]
}

// Tick fires every live ticker n times, one round at a time.
func (s *fakeScheduler) Tick(n int) {
	for i := 0; i < n; i++ {
		for _, tk := range s.live() {
			tk.fn()
		}
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
}

// Now advances one second per call so start and end stamps differ.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func sequentialIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("session-%d", n)
	}
}

func scenarioConfig() models.TimerConfig {
	return models.TimerConfig{
		WorkDuration:           5,
		ShortBreakDuration:     2,
		LongBreakDuration:      3,
		SessionsUntilLongBreak: 2,
		AutoStartBreaks:        true,
		AutoStartPomodoros:     true,
	}
}

func newTestTimer(t testing.TB, cfg models.TimerConfig) (*Timer, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	timer, err := New(cfg,
		WithScheduler(sched),
		WithClock(newFakeClock()),
		WithIDGenerator(sequentialIDs()),
	)
	require.NoError(t, err)
	t.Cleanup(timer.Close)
	return timer, sched
}

// recorder captures every typed event in emission order.
type recorder struct {
	mu     sync.Mutex
	events []string
	ticks  []models.Snapshot
	starts []models.Session
	done   []models.Session
	trans  []models.Transition
}

func recordEvents(t *Timer) *recorder {
	r := &recorder{}
	t.OnTick(func(s models.Snapshot) {
		r.add(fmt.Sprintf("tick:%d", s.RemainingTime))
		r.mu.Lock()
		r.ticks = append(r.ticks, s)
		r.mu.Unlock()
	})
	t.OnStateChange(func(tr models.Transition) {
		r.add(fmt.Sprintf("stateChange:%s->%s", tr.From, tr.To))
		r.mu.Lock()
		r.trans = append(r.trans, tr)
		r.mu.Unlock()
	})
	t.OnSessionStart(func(s models.Session) {
		r.add("sessionStart:" + string(s.Type))
		r.mu.Lock()
		r.starts = append(r.starts, s)
		r.mu.Unlock()
	})
	t.OnSessionComplete(func(s models.Session) {
		r.add("sessionComplete:" + string(s.Type))
		r.mu.Lock()
		r.done = append(r.done, s)
		r.mu.Unlock()
	})
	t.OnPause(func() { r.add("pause") })
	t.OnResume(func() { r.add("resume") })
	t.OnReset(func() { r.add("reset") })
	return r
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// take returns the events recorded so far and clears them.
func (r *recorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}
