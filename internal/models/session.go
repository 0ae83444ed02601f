package models

import (
	"time"
)

// State is the phase the timer is in. Exactly one value holds at any instant.
type State string

const (
	StateIdle       State = "IDLE"
	StateWork       State = "WORK"
	StateShortBreak State = "SHORT_BREAK"
	StateLongBreak  State = "LONG_BREAK"
	StatePaused     State = "PAUSED"
)

func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is one of the known timer states.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateWork, StateShortBreak, StateLongBreak, StatePaused:
		return true
	default:
		return false
	}
}

// IsPhase reports whether the state is a timed phase (work or a break).
// Sessions only ever carry a phase type.
func (s State) IsPhase() bool {
	return s == StateWork || s == StateShortBreak || s == StateLongBreak
}

// IsBreak reports whether the state is a short or long break.
func (s State) IsBreak() bool {
	return s == StateShortBreak || s == StateLongBreak
}

// Label returns a human-readable name for the state.
func (s State) Label() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateWork:
		return "Focus"
	case StateShortBreak:
		return "Short Break"
	case StateLongBreak:
		return "Long Break"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Session records the execution of one phase.
type Session struct {
	ID        string     `json:"id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Type      State      `json:"type"`
	Completed bool       `json:"completed"` // true only when the phase ran down to zero
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	c := s
	if s.EndTime != nil {
		end := *s.EndTime
		c.EndTime = &end
	}
	return c
}

// Finished reports whether the session has an end timestamp.
func (s Session) Finished() bool {
	return s.EndTime != nil
}

// Elapsed returns the wall time between start and end, or zero while the
// session is still open.
func (s Session) Elapsed() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Transition is the payload of a state change.
type Transition struct {
	From State `json:"from"`
	To   State `json:"to"`
}

// Snapshot is the read model of the timer at one instant. CurrentSession is
// a private copy; mutating it never affects the timer.
type Snapshot struct {
	State                  State    `json:"state"`
	CurrentSession         *Session `json:"current_session,omitempty"`
	RemainingTime          int      `json:"remaining_time"` // seconds
	Progress               float64  `json:"progress"`
	CompletedSessions      int      `json:"completed_sessions"`
	SessionsUntilLongBreak int      `json:"sessions_until_long_break"`
}

// DayStats summarizes the journaled sessions of one calendar day.
type DayStats struct {
	Date             string    `json:"date"`
	SessionsCount    int       `json:"sessions_count"`
	AbandonedCount   int       `json:"abandoned_count"`
	FocusSeconds     int       `json:"focus_seconds"`
	ShortBreaksCount int       `json:"short_breaks_count"`
	LongBreaksCount  int       `json:"long_breaks_count"`
	BreakSeconds     int       `json:"break_seconds"`
	Sessions         []Session `json:"sessions"`
}
