package storage

import (
	"context"
	"sync"

	"github.com/adibhanna/pomodoro/internal/log"
	"github.com/adibhanna/pomodoro/internal/models"
	"github.com/adibhanna/pomodoro/internal/pomodoro"
)

// SessionSaver persists finished sessions. *Storage satisfies it.
type SessionSaver interface {
	SaveSession(session models.Session) error
}

// EventSource delivers every timer event synchronously. *pomodoro.Timer
// satisfies it.
type EventSource interface {
	OnEvent(fn func(pomodoro.Event)) func()
}

// Recorder journals the sessions a Timer finishes: completed phases from
// sessionComplete and abandoned ones from reset.
//
// Finished sessions are queued from the timer's listener and saved on the
// goroutine running Run, so a slow disk never stalls the timer and no
// session is lost while a write is in flight.
type Recorder struct {
	store SessionSaver

	mu      sync.Mutex
	pending []models.Session
	wake    chan struct{}
}

func NewRecorder(store SessionSaver) *Recorder {
	return &Recorder{
		store: store,
		wake:  make(chan struct{}, 1),
	}
}

// Attach starts queueing the sessions src finishes. The returned func
// detaches again.
func (r *Recorder) Attach(src EventSource) func() {
	return src.OnEvent(r.enqueue)
}

func (r *Recorder) enqueue(e pomodoro.Event) {
	session, ok := journaled(e)
	if !ok {
		return
	}
	r.mu.Lock()
	r.pending = append(r.pending, session)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run saves queued sessions until ctx is done. Sessions still queued at that
// point are saved before Run returns. Save failures are logged and do not
// stop the recorder.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.flush()
			return
		case <-r.wake:
			r.flush()
		}
	}
}

func (r *Recorder) flush() {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, session := range batch {
		if err := r.store.SaveSession(session); err != nil {
			log.ErrorErr(log.CatHistory, "Failed to journal session", err,
				"id", session.ID, "type", session.Type)
		}
	}
}

// Handle journals the session carried by e, if any, on the caller's
// goroutine.
func (r *Recorder) Handle(e pomodoro.Event) error {
	session, ok := journaled(e)
	if !ok {
		return nil
	}
	return r.store.SaveSession(session)
}

// journaled picks out the finished session of a sessionComplete or reset
// event. A reset from a state without a session carries none.
func journaled(e pomodoro.Event) (models.Session, bool) {
	switch e.Type {
	case pomodoro.EventSessionComplete:
		return e.Session, true
	case pomodoro.EventReset:
		return e.Session, e.Session.ID != ""
	default:
		return models.Session{}, false
	}
}
