package pomodoro

import (
	"sync"

	"github.com/adibhanna/pomodoro/internal/log"
	"github.com/adibhanna/pomodoro/internal/models"
)

// EventType names one of the events a Timer emits.
type EventType string

const (
	EventTick            EventType = "tick"
	EventStateChange     EventType = "stateChange"
	EventSessionStart    EventType = "sessionStart"
	EventSessionComplete EventType = "sessionComplete"
	EventPause           EventType = "pause"
	EventResume          EventType = "resume"
	EventReset           EventType = "reset"
)

// Event is the union form of every timer event, used on the Subscribe channel.
// Only the fields matching Type are populated. For EventReset, Session is the
// abandoned session, finalized with Completed false.
type Event struct {
	Type       EventType
	Snapshot   models.Snapshot   // EventTick
	Transition models.Transition // EventStateChange
	Session    models.Session    // EventSessionStart, EventSessionComplete, EventReset
}

// listenerSet holds the callbacks registered for one event name.
type listenerSet[T any] struct {
	mu     sync.Mutex
	nextID uint64
	fns    []listener[T]
	clone  func(T) T // gives each listener its own copy of the payload
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

// add registers fn and returns a func that removes it again.
func (s *listenerSet[T]) add(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.fns = append(s.fns, listener[T]{id: id, fn: fn})
	return func() { s.remove(id) }
}

func (s *listenerSet[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.fns {
		if l.id == id {
			s.fns = append(s.fns[:i:i], s.fns[i+1:]...)
			return
		}
	}
}

func (s *listenerSet[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

// emit calls every listener in registration order. A panicking listener is
// logged and skipped; the rest still run.
func (s *listenerSet[T]) emit(event EventType, payload T) {
	s.mu.Lock()
	fns := make([]listener[T], len(s.fns))
	copy(fns, s.fns)
	s.mu.Unlock()

	for _, l := range fns {
		p := payload
		if s.clone != nil {
			p = s.clone(payload)
		}
		callListener(event, l.fn, p)
	}
}

func callListener[T any](event EventType, fn func(T), payload T) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatTimer, "Event listener panicked", "event", event, "panic", r)
		}
	}()
	fn(payload)
}
