package pomodoro

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Ticker is a live periodic schedule. Stop must not block on a callback in
// flight and must be safe to call more than once.
type Ticker interface {
	Stop()
}

// Scheduler starts periodic callbacks. The Timer holds at most one Ticker
// from it at a time.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Ticker
}

// Clock supplies session timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator returns a new unique session identifier.
type IDGenerator func() string

// SystemClock is the default Clock.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// NewSessionID returns a time-ordered UUID (v7: millisecond timestamp plus
// random bits).
func NewSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// TickerScheduler runs each schedule on its own goroutine backed by a
// time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) Ticker {
	h := &tickerHandle{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go h.run(fn)
	return h
}

type tickerHandle struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (h *tickerHandle) run(fn func()) {
	for {
		select {
		case <-h.done:
			return
		case <-h.ticker.C:
			// Stop may have raced the tick.
			select {
			case <-h.done:
				return
			default:
			}
			fn()
		}
	}
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
}
