// Package pomodoro implements the pomodoro timer state machine: work and
// break phases, session bookkeeping, the long-break cadence and the
// auto-continuation policy.
//
// A Timer is driven by two kinds of calls: commands (Start, Pause, Resume,
// Reset, UpdateConfig) and ticks fired by its Scheduler. Commands that make no
// sense in the current state are silently ignored. Events are delivered to
// listeners synchronously, in order, after the state change they describe has
// been applied.
package pomodoro

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adibhanna/pomodoro/internal/log"
	"github.com/adibhanna/pomodoro/internal/models"
	"github.com/adibhanna/pomodoro/internal/pubsub"
)

// DefaultTickInterval is the length of one tick.
const DefaultTickInterval = time.Second

// record is the complete mutable state of a Timer. Transitions build a new
// record and replace the old one.
type record struct {
	state     models.State
	session   *models.Session
	remaining int
	completed int
	untilLong int
}

// Timer is the pomodoro state machine. Create one with New.
type Timer struct {
	mu       sync.Mutex
	config   models.TimerConfig
	rec      record
	closed   bool
	ticker   Ticker
	tickGen  uint64
	queue    []Event
	draining bool

	scheduler Scheduler
	clock     Clock
	newID     IDGenerator
	interval  time.Duration

	onTick            listenerSet[models.Snapshot]
	onStateChange     listenerSet[models.Transition]
	onSessionStart    listenerSet[models.Session]
	onSessionComplete listenerSet[models.Session]
	onPause           listenerSet[struct{}]
	onResume          listenerSet[struct{}]
	onReset           listenerSet[struct{}]
	onEvent           listenerSet[Event]
	broker            *pubsub.Broker[Event]
}

// Option configures a Timer.
type Option func(*Timer)

// WithScheduler replaces the default TickerScheduler.
func WithScheduler(s Scheduler) Option {
	return func(t *Timer) { t.scheduler = s }
}

// WithClock replaces SystemClock.
func WithClock(c Clock) Option {
	return func(t *Timer) { t.clock = c }
}

// WithIDGenerator replaces NewSessionID.
func WithIDGenerator(g IDGenerator) Option {
	return func(t *Timer) { t.newID = g }
}

// WithTickInterval changes the real-time length of a tick. One tick always
// counts as one second of phase time.
func WithTickInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// New returns an idle Timer. It fails if config has a non-positive duration
// or long-break interval.
func New(config models.TimerConfig, opts ...Option) (*Timer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("creating timer: %w", err)
	}

	t := &Timer{
		config:    config,
		rec:       record{state: models.StateIdle, untilLong: config.SessionsUntilLongBreak},
		scheduler: TickerScheduler{},
		clock:     SystemClock,
		newID:     NewSessionID,
		interval:  DefaultTickInterval,
		broker:    pubsub.NewBroker[Event](),
	}
	t.onTick.clone = cloneSnapshot
	t.onSessionStart.clone = models.Session.Clone
	t.onSessionComplete.clone = models.Session.Clone
	t.onEvent.clone = cloneEvent
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Start begins a work phase from IDLE, or resumes from PAUSED. It does nothing
// while a phase is already running.
func (t *Timer) Start() {
	t.mu.Lock()
	switch {
	case t.closed:
	case t.rec.state == models.StateIdle:
		t.enterPhaseLocked(models.StateWork)
	case t.rec.state == models.StatePaused:
		t.resumeLocked()
	}
	t.mu.Unlock()
	t.flush()
}

// Pause suspends the running phase. No-op unless a phase is running.
func (t *Timer) Pause() {
	t.mu.Lock()
	if !t.closed && t.rec.state.IsPhase() {
		t.stopTickingLocked()
		from := t.rec.state
		next := t.rec
		next.state = models.StatePaused
		t.rec = next
		t.enqueueTransitionLocked(from, models.StatePaused)
		t.enqueueLocked(Event{Type: EventPause})
	}
	t.mu.Unlock()
	t.flush()
}

// Resume continues the paused phase. No-op unless PAUSED.
func (t *Timer) Resume() {
	t.mu.Lock()
	if !t.closed {
		t.resumeLocked()
	}
	t.mu.Unlock()
	t.flush()
}

// Reset abandons the current phase and returns to IDLE. The session is
// finalized as not completed and the completed-session count is unchanged.
func (t *Timer) Reset() {
	t.mu.Lock()
	if !t.closed && t.rec.state != models.StateIdle {
		t.stopTickingLocked()
		from := t.rec.state
		var abandoned models.Session
		if t.rec.session != nil {
			abandoned = t.finalizeLocked(false)
			log.Debug(log.CatTimer, "Session abandoned", "id", abandoned.ID, "type", abandoned.Type)
		}
		t.rec = record{
			state:     models.StateIdle,
			completed: t.rec.completed,
			untilLong: t.rec.untilLong,
		}
		t.enqueueTransitionLocked(from, models.StateIdle)
		t.enqueueLocked(Event{Type: EventReset, Session: abandoned})
	}
	t.mu.Unlock()
	t.flush()
}

// UpdateConfig merges patch into the configuration. The merged result is
// validated as a whole and rejected, leaving the configuration unchanged, if
// any duration or the long-break interval is not positive.
//
// A new long-break interval resets the remaining-session counter immediately
// only while IDLE; otherwise it applies from the next cycle.
func (t *Timer) UpdateConfig(patch models.ConfigPatch) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	merged := t.config.Merge(patch)
	if err := merged.Validate(); err != nil {
		log.Warn(log.CatTimer, "Rejected config update", "error", err)
		return fmt.Errorf("updating timer config: %w", err)
	}
	t.config = merged
	if t.rec.state == models.StateIdle && patch.SessionsUntilLongBreak != nil {
		next := t.rec
		next.untilLong = merged.SessionsUntilLongBreak
		t.rec = next
	}
	log.Debug(log.CatTimer, "Config updated", "state", t.rec.state,
		"work", merged.WorkDuration, "short", merged.ShortBreakDuration,
		"long", merged.LongBreakDuration, "interval", merged.SessionsUntilLongBreak)
	return nil
}

// Config returns a copy of the current configuration.
func (t *Timer) Config() models.TimerConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config
}

// State returns a snapshot of the read model.
func (t *Timer) State() models.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Close stops ticking and closes Subscribe channels. Commands after Close
// are ignored.
func (t *Timer) Close() {
	t.mu.Lock()
	t.stopTickingLocked()
	t.closed = true
	t.mu.Unlock()
	t.broker.Close()
}

// OnTick registers fn for the per-second snapshot. The tick that completes a
// phase does not emit one. Each On* method returns a func that unregisters.
func (t *Timer) OnTick(fn func(models.Snapshot)) func() {
	return t.onTick.add(fn)
}

func (t *Timer) OnStateChange(fn func(models.Transition)) func() {
	return t.onStateChange.add(fn)
}

func (t *Timer) OnSessionStart(fn func(models.Session)) func() {
	return t.onSessionStart.add(fn)
}

// OnSessionComplete fires only when a phase runs down to zero, never on Reset.
func (t *Timer) OnSessionComplete(fn func(models.Session)) func() {
	return t.onSessionComplete.add(fn)
}

func (t *Timer) OnPause(fn func()) func() {
	return t.onPause.add(func(struct{}) { fn() })
}

func (t *Timer) OnResume(fn func()) func() {
	return t.onResume.add(func(struct{}) { fn() })
}

func (t *Timer) OnReset(fn func()) func() {
	return t.onReset.add(func(struct{}) { fn() })
}

// OnEvent registers fn for every event in its union form, delivered
// synchronously like the named events and after them. Unlike Subscribe it
// never drops an event.
func (t *Timer) OnEvent(fn func(Event)) func() {
	return t.onEvent.add(fn)
}

// Subscribe streams every event until ctx is cancelled or the Timer is
// closed. Slow readers miss events rather than block the Timer.
func (t *Timer) Subscribe(ctx context.Context) <-chan pubsub.Event[Event] {
	return t.broker.Subscribe(ctx)
}

func (t *Timer) tick(gen uint64) {
	t.mu.Lock()
	if t.closed || gen != t.tickGen || t.ticker == nil || !t.rec.state.IsPhase() {
		// Tick from a stopped schedule.
		t.mu.Unlock()
		return
	}

	next := t.rec
	next.remaining--
	if next.remaining <= 0 {
		next.remaining = 0
		t.rec = next
		t.completePhaseLocked()
	} else {
		t.rec = next
		t.enqueueLocked(Event{Type: EventTick, Snapshot: t.snapshotLocked()})
	}
	t.mu.Unlock()
	t.flush()
}

func (t *Timer) completePhaseLocked() {
	done := t.finalizeLocked(true)
	t.enqueueLocked(Event{Type: EventSessionComplete, Session: done})
	log.Info(log.CatTimer, "Session completed", "id", done.ID, "type", done.Type)

	next := t.rec
	next.session = nil

	var nextPhase models.State
	var auto bool
	if done.Type == models.StateWork {
		next.completed++
		next.untilLong--
		if next.untilLong <= 0 {
			nextPhase = models.StateLongBreak
			next.untilLong = t.config.SessionsUntilLongBreak
		} else {
			nextPhase = models.StateShortBreak
		}
		auto = t.config.AutoStartBreaks
	} else {
		nextPhase = models.StateWork
		auto = t.config.AutoStartPomodoros
	}
	t.rec = next

	if auto {
		t.enterPhaseLocked(nextPhase)
		return
	}

	t.stopTickingLocked()
	from := t.rec.state
	t.rec = record{
		state:     models.StateIdle,
		completed: next.completed,
		untilLong: next.untilLong,
	}
	t.enqueueTransitionLocked(from, models.StateIdle)
}

// enterPhaseLocked starts a fresh session of the given phase and (re)starts
// ticking.
func (t *Timer) enterPhaseLocked(phase models.State) {
	from := t.rec.state
	session := &models.Session{
		ID:        t.newID(),
		StartTime: t.clock.Now(),
		Type:      phase,
	}
	t.rec = record{
		state:     phase,
		session:   session,
		remaining: t.config.DurationFor(phase),
		completed: t.rec.completed,
		untilLong: t.rec.untilLong,
	}
	t.enqueueTransitionLocked(from, phase)
	t.enqueueLocked(Event{Type: EventSessionStart, Session: session.Clone()})
	t.startTickingLocked()
}

func (t *Timer) resumeLocked() {
	if t.rec.state != models.StatePaused || t.rec.session == nil {
		return
	}
	phase := t.rec.session.Type
	next := t.rec
	next.state = phase
	t.rec = next
	t.enqueueTransitionLocked(models.StatePaused, phase)
	t.enqueueLocked(Event{Type: EventResume})
	t.startTickingLocked()
}

// finalizeLocked stamps the end time on a copy of the current session and
// installs that copy. Snapshots handed out earlier are never touched.
func (t *Timer) finalizeLocked(completed bool) models.Session {
	s := t.rec.session.Clone()
	end := t.clock.Now()
	s.EndTime = &end
	s.Completed = completed

	next := t.rec
	next.session = &s
	t.rec = next
	return s.Clone()
}

func (t *Timer) startTickingLocked() {
	t.stopTickingLocked()
	t.tickGen++
	gen := t.tickGen
	t.ticker = t.scheduler.Every(t.interval, func() { t.tick(gen) })
}

func (t *Timer) stopTickingLocked() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}

func cloneSnapshot(s models.Snapshot) models.Snapshot {
	if s.CurrentSession != nil {
		c := s.CurrentSession.Clone()
		s.CurrentSession = &c
	}
	return s
}

func cloneEvent(e Event) Event {
	e.Snapshot = cloneSnapshot(e.Snapshot)
	e.Session = e.Session.Clone()
	return e
}

func (t *Timer) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		State:                  t.rec.state,
		RemainingTime:          t.rec.remaining,
		Progress:               progress(t.config.DurationFor(t.rec.state), t.rec.remaining),
		CompletedSessions:      t.rec.completed,
		SessionsUntilLongBreak: t.rec.untilLong,
	}
	if t.rec.session != nil {
		s := t.rec.session.Clone()
		snap.CurrentSession = &s
	}
	return snap
}

// progress is the elapsed fraction of a phase, clamped to [0, 1]. A zero total
// (IDLE, PAUSED) yields 0.
func progress(total, remaining int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(total-remaining) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func (t *Timer) enqueueTransitionLocked(from, to models.State) {
	log.Debug(log.CatTimer, "State change", "from", from, "to", to)
	t.enqueueLocked(Event{Type: EventStateChange, Transition: models.Transition{From: from, To: to}})
}

func (t *Timer) enqueueLocked(e Event) {
	t.queue = append(t.queue, e)
}

// flush delivers queued events outside the lock so listeners may call back
// into the Timer. Events queued by such re-entrant calls are delivered by
// the outer flush, after the events already queued.
func (t *Timer) flush() {
	t.mu.Lock()
	if t.draining {
		t.mu.Unlock()
		return
	}
	t.draining = true
	for len(t.queue) > 0 {
		e := t.queue[0]
		t.queue = t.queue[1:]
		t.mu.Unlock()
		t.dispatch(e)
		t.mu.Lock()
	}
	t.queue = nil
	t.draining = false
	t.mu.Unlock()
}

func (t *Timer) dispatch(e Event) {
	switch e.Type {
	case EventTick:
		t.onTick.emit(e.Type, e.Snapshot)
	case EventStateChange:
		t.onStateChange.emit(e.Type, e.Transition)
	case EventSessionStart:
		t.onSessionStart.emit(e.Type, e.Session)
	case EventSessionComplete:
		t.onSessionComplete.emit(e.Type, e.Session)
	case EventPause:
		t.onPause.emit(e.Type, struct{}{})
	case EventResume:
		t.onResume.emit(e.Type, struct{}{})
	case EventReset:
		t.onReset.emit(e.Type, struct{}{})
	}
	t.onEvent.emit(e.Type, e)
	t.broker.Publish(pubsub.UpdatedEvent, e)
}
