package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adibhanna/pomodoro/internal/models"
)

// isolate points HOME at a temp dir and runs the test from another, so no
// real user config can leak in.
func isolate(t *testing.T) (home, cwd string) {
	t.Helper()
	home = t.TempDir()
	cwd = t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(cwd)
	return home, cwd
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefaults(t *testing.T) {
	home, _ := isolate(t)

	cfg := Defaults()

	require.Equal(t, models.TimerConfig{
		WorkDuration:           1500,
		ShortBreakDuration:     300,
		LongBreakDuration:      900,
		SessionsUntilLongBreak: 4,
		AutoStartBreaks:        true,
		AutoStartPomodoros:     false,
	}, cfg.Timer)
	require.Equal(t, filepath.Join(home, ".pomodoro"), cfg.DataDir)
	require.Equal(t, filepath.Join(home, ".pomodoro", "debug.log"), cfg.LogPath())
	require.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, Validate(cfg))
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	home, _ := isolate(t)

	cfg, path, err := Load("")

	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
	require.Equal(t, filepath.Join(home, ".config", "pomodoro", "config.yaml"), path)
	require.False(t, Exists(path))
}

func TestLoad_ExplicitFile(t *testing.T) {
	_, cwd := isolate(t)
	path := filepath.Join(cwd, "custom.yaml")
	writeFile(t, path, `timer:
  work_duration: 3000
  sessions_until_long_break: 2
  auto_start_pomodoros: true
data_dir: ~/focus
debug: true
`)

	cfg, used, err := Load(path)

	require.NoError(t, err)
	require.Equal(t, path, used)
	require.Equal(t, 3000, cfg.Timer.WorkDuration)
	require.Equal(t, 300, cfg.Timer.ShortBreakDuration, "unset keys keep defaults")
	require.Equal(t, 2, cfg.Timer.SessionsUntilLongBreak)
	require.True(t, cfg.Timer.AutoStartBreaks)
	require.True(t, cfg.Timer.AutoStartPomodoros)
	require.True(t, cfg.Debug)
	home, _ := os.UserHomeDir()
	require.Equal(t, filepath.Join(home, "focus"), cfg.DataDir)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, cwd := isolate(t)

	_, _, err := Load(filepath.Join(cwd, "nope.yaml"))

	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_LocalBeforeUser(t *testing.T) {
	home, _ := isolate(t)
	writeFile(t, filepath.Join(home, ".config", "pomodoro", "config.yaml"), "timer:\n  work_duration: 100\n")
	writeFile(t, LocalConfigPath, "timer:\n  work_duration: 200\n")

	cfg, path, err := Load("")

	require.NoError(t, err)
	require.Equal(t, LocalConfigPath, path)
	require.Equal(t, 200, cfg.Timer.WorkDuration)
}

func TestLoad_UserConfig(t *testing.T) {
	home, _ := isolate(t)
	userPath := filepath.Join(home, ".config", "pomodoro", "config.yaml")
	writeFile(t, userPath, "timer:\n  long_break_duration: 1200\n")

	cfg, path, err := Load("")

	require.NoError(t, err)
	require.Equal(t, userPath, path)
	require.Equal(t, 1200, cfg.Timer.LongBreakDuration)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	_, cwd := isolate(t)
	path := filepath.Join(cwd, "config.yaml")
	writeFile(t, path, "timer:\n  work_duration: 3000\n")
	t.Setenv("POMODORO_TIMER_WORK_DURATION", "60")
	t.Setenv("POMODORO_TIMER_AUTO_START_BREAKS", "false")

	cfg, _, err := Load(path)

	require.NoError(t, err)
	require.Equal(t, 60, cfg.Timer.WorkDuration)
	require.False(t, cfg.Timer.AutoStartBreaks)
}

func TestLoad_LogLevel(t *testing.T) {
	_, cwd := isolate(t)
	path := filepath.Join(cwd, "config.yaml")

	writeFile(t, path, "log_level: warn\n")
	cfg, _, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)

	writeFile(t, path, "log_level: loud\n")
	_, _, err = Load(path)
	require.ErrorContains(t, err, "log_level")
}

func TestLoad_InvalidTimerRejected(t *testing.T) {
	_, cwd := isolate(t)
	path := filepath.Join(cwd, "config.yaml")
	writeFile(t, path, "timer:\n  short_break_duration: 0\n")

	_, _, err := Load(path)

	require.ErrorIs(t, err, models.ErrInvalidConfig)
	var cfgErr *models.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, "short_break_duration", cfgErr.Field)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, cwd := isolate(t)
	path := filepath.Join(cwd, "config.yaml")
	writeFile(t, path, "timer: [unclosed\n")

	_, _, err := Load(path)

	require.Error(t, err)
	require.Contains(t, err.Error(), "reading config")
}

func TestValidate_EmptyDataDir(t *testing.T) {
	cfg := Config{Timer: models.DefaultTimerConfig(), DataDir: "  "}

	require.EqualError(t, Validate(cfg), "data_dir must not be empty")
}

func TestWriteDefaultConfig_RoundTripsDefaults(t *testing.T) {
	_, cwd := isolate(t)
	path := filepath.Join(cwd, "nested", "dir", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Pomodoro Configuration")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
}

func TestMarshal(t *testing.T) {
	cfg := Config{Timer: models.DefaultTimerConfig(), DataDir: "/tmp/p"}

	out, err := Marshal(cfg)

	require.NoError(t, err)
	require.Contains(t, string(out), "work_duration: 1500")
	require.Contains(t, string(out), "sessions_until_long_break: 4")
	require.Contains(t, string(out), "data_dir: /tmp/p")
}
