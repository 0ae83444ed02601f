package models

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid timer config")

// ConfigError names the offending field of a rejected configuration.
type ConfigError struct {
	Field string
	Value int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s must be positive, got %d", ErrInvalidConfig, e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// TimerConfig holds the durations and policies of a pomodoro cycle.
// Durations are whole seconds.
type TimerConfig struct {
	WorkDuration           int  `json:"work_duration" mapstructure:"work_duration" yaml:"work_duration"`
	ShortBreakDuration     int  `json:"short_break_duration" mapstructure:"short_break_duration" yaml:"short_break_duration"`
	LongBreakDuration      int  `json:"long_break_duration" mapstructure:"long_break_duration" yaml:"long_break_duration"`
	SessionsUntilLongBreak int  `json:"sessions_until_long_break" mapstructure:"sessions_until_long_break" yaml:"sessions_until_long_break"`
	AutoStartBreaks        bool `json:"auto_start_breaks" mapstructure:"auto_start_breaks" yaml:"auto_start_breaks"`
	AutoStartPomodoros     bool `json:"auto_start_pomodoros" mapstructure:"auto_start_pomodoros" yaml:"auto_start_pomodoros"`
}

func DefaultTimerConfig() TimerConfig {
	return TimerConfig{
		WorkDuration:           25 * 60,
		ShortBreakDuration:     5 * 60,
		LongBreakDuration:      15 * 60,
		SessionsUntilLongBreak: 4,
		AutoStartBreaks:        true,
		AutoStartPomodoros:     false,
	}
}

// Validate reports the first non-positive duration or interval.
func (c TimerConfig) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"work_duration", c.WorkDuration},
		{"short_break_duration", c.ShortBreakDuration},
		{"long_break_duration", c.LongBreakDuration},
		{"sessions_until_long_break", c.SessionsUntilLongBreak},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return &ConfigError{Field: f.name, Value: f.value}
		}
	}
	return nil
}

// DurationFor returns the configured length of a phase in seconds, or 0 for
// IDLE and PAUSED.
func (c TimerConfig) DurationFor(s State) int {
	switch s {
	case StateWork:
		return c.WorkDuration
	case StateShortBreak:
		return c.ShortBreakDuration
	case StateLongBreak:
		return c.LongBreakDuration
	default:
		return 0
	}
}

// ConfigPatch is a partial TimerConfig; nil fields are left unchanged.
type ConfigPatch struct {
	WorkDuration           *int
	ShortBreakDuration     *int
	LongBreakDuration      *int
	SessionsUntilLongBreak *int
	AutoStartBreaks        *bool
	AutoStartPomodoros     *bool
}

// Merge returns c with every non-nil field of p applied.
func (c TimerConfig) Merge(p ConfigPatch) TimerConfig {
	if p.WorkDuration != nil {
		c.WorkDuration = *p.WorkDuration
	}
	if p.ShortBreakDuration != nil {
		c.ShortBreakDuration = *p.ShortBreakDuration
	}
	if p.LongBreakDuration != nil {
		c.LongBreakDuration = *p.LongBreakDuration
	}
	if p.SessionsUntilLongBreak != nil {
		c.SessionsUntilLongBreak = *p.SessionsUntilLongBreak
	}
	if p.AutoStartBreaks != nil {
		c.AutoStartBreaks = *p.AutoStartBreaks
	}
	if p.AutoStartPomodoros != nil {
		c.AutoStartPomodoros = *p.AutoStartPomodoros
	}
	return c
}

// IsEmpty reports whether the patch changes nothing.
func (p ConfigPatch) IsEmpty() bool {
	return p.WorkDuration == nil && p.ShortBreakDuration == nil && p.LongBreakDuration == nil &&
		p.SessionsUntilLongBreak == nil && p.AutoStartBreaks == nil && p.AutoStartPomodoros == nil
}

// Diff builds a patch holding only the fields of to that differ from from.
func Diff(from, to TimerConfig) ConfigPatch {
	var p ConfigPatch
	if from.WorkDuration != to.WorkDuration {
		p.WorkDuration = &to.WorkDuration
	}
	if from.ShortBreakDuration != to.ShortBreakDuration {
		p.ShortBreakDuration = &to.ShortBreakDuration
	}
	if from.LongBreakDuration != to.LongBreakDuration {
		p.LongBreakDuration = &to.LongBreakDuration
	}
	if from.SessionsUntilLongBreak != to.SessionsUntilLongBreak {
		p.SessionsUntilLongBreak = &to.SessionsUntilLongBreak
	}
	if from.AutoStartBreaks != to.AutoStartBreaks {
		p.AutoStartBreaks = &to.AutoStartBreaks
	}
	if from.AutoStartPomodoros != to.AutoStartPomodoros {
		p.AutoStartPomodoros = &to.AutoStartPomodoros
	}
	return p
}
