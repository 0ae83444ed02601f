package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimerConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*TimerConfig)
		field string
	}{
		{"defaults", func(*TimerConfig) {}, ""},
		{"zero work", func(c *TimerConfig) { c.WorkDuration = 0 }, "work_duration"},
		{"negative short", func(c *TimerConfig) { c.ShortBreakDuration = -5 }, "short_break_duration"},
		{"zero long", func(c *TimerConfig) { c.LongBreakDuration = 0 }, "long_break_duration"},
		{"zero interval", func(c *TimerConfig) { c.SessionsUntilLongBreak = 0 }, "sessions_until_long_break"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTimerConfig()
			tt.edit(&cfg)

			err := cfg.Validate()

			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			require.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestTimerConfig_DurationFor(t *testing.T) {
	cfg := DefaultTimerConfig()

	require.Equal(t, 1500, cfg.DurationFor(StateWork))
	require.Equal(t, 300, cfg.DurationFor(StateShortBreak))
	require.Equal(t, 900, cfg.DurationFor(StateLongBreak))
	require.Zero(t, cfg.DurationFor(StateIdle))
	require.Zero(t, cfg.DurationFor(StatePaused))
}

func TestDiff_MergeRoundTrip(t *testing.T) {
	from := DefaultTimerConfig()
	to := from
	to.WorkDuration = 3000
	to.AutoStartPomodoros = true

	patch := Diff(from, to)

	require.NotNil(t, patch.WorkDuration)
	require.NotNil(t, patch.AutoStartPomodoros)
	require.Nil(t, patch.SessionsUntilLongBreak)
	require.Nil(t, patch.ShortBreakDuration)
	require.Equal(t, to, from.Merge(patch))
	require.True(t, Diff(from, from).IsEmpty())
}
