package stats

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/adibhanna/pomodoro/internal/models"
	"github.com/adibhanna/pomodoro/internal/storage"
)

var today = time.Date(2026, 10, 19, 15, 0, 0, 0, time.Local)

func fixedClock() time.Time { return today }

func seededStore(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(t.TempDir())
	require.NoError(t, err)

	save := func(typ models.State, start time.Time, length time.Duration, completed bool) {
		end := start.Add(length)
		require.NoError(t, s.SaveSession(models.Session{
			StartTime: start, EndTime: &end, Type: typ, Completed: completed,
		}))
	}
	morning := time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local)
	save(models.StateWork, morning, 25*time.Minute, true)
	save(models.StateShortBreak, morning.Add(25*time.Minute), 5*time.Minute, true)
	save(models.StateWork, morning.Add(30*time.Minute), 10*time.Minute, false)
	save(models.StateWork, morning.AddDate(0, 0, -1), 50*time.Minute, true)
	return s
}

func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model)
}

func pressKey(m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_ShowsToday(t *testing.T) {
	m := sized(newWithClock(seededStore(t), t.TempDir(), fixedClock))

	view := m.View()

	require.Contains(t, view, "Monday, October 19, 2026")
	require.Contains(t, view, "Focus: 1 sessions (25m)")
	require.Contains(t, view, "Breaks: 1 short, 0 long (5m)")
	require.Contains(t, view, "Abandoned: 1")
	require.Equal(t, "2026-10-19", m.dayStats.Date)
	require.Len(t, m.dayStats.Sessions, 3)
}

func TestModel_NavigatesDays(t *testing.T) {
	m := sized(newWithClock(seededStore(t), t.TempDir(), fixedClock))

	m, _ = pressKey(m, tea.KeyMsg{Type: tea.KeyLeft})
	require.Equal(t, "2026-10-18", m.dayStats.Date)
	require.Contains(t, m.View(), "Focus: 1 sessions (50m)")

	m, _ = pressKey(m, tea.KeyMsg{Type: tea.KeyLeft})
	require.Contains(t, m.View(), "No sessions on this day.")

	m, _ = pressKey(m, runes("t"))
	require.Equal(t, "2026-10-19", m.dayStats.Date)

	m, _ = pressKey(m, tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, "2026-10-19", m.dayStats.Date, "cannot move past today")
}

func TestModel_Export(t *testing.T) {
	dir := t.TempDir()
	m := sized(newWithClock(seededStore(t), dir, fixedClock))

	_, cmd := pressKey(m, runes("e"))
	require.NotNil(t, cmd)
	msg := cmd()

	result, ok := msg.(exportResultMsg)
	require.True(t, ok)
	require.True(t, result.success, result.message)

	data, err := os.ReadFile(filepath.Join(dir, "pomodoro-2026-10-19.json"))
	require.NoError(t, err)
	var exported models.DayStats
	require.NoError(t, json.Unmarshal(data, &exported))
	require.Equal(t, 1, exported.SessionsCount)
	require.Len(t, exported.Sessions, 3)

	updated, clear := m.Update(msg)
	m = updated.(Model)
	require.NotNil(t, clear)
	require.Contains(t, m.View(), "Exported to")

	updated, _ = m.Update(clearMessageMsg{})
	require.NotContains(t, updated.(Model).View(), "Exported to")
}

type failingSource struct{}

func (failingSource) GetDayStats(string) (models.DayStats, error) {
	return models.DayStats{}, errors.New("journal unreadable")
}

func TestModel_ShowsLoadError(t *testing.T) {
	m := sized(newWithClock(failingSource{}, t.TempDir(), fixedClock))

	require.Contains(t, m.View(), "Error: journal unreadable")
}

func TestModel_BackAndQuit(t *testing.T) {
	m := sized(newWithClock(seededStore(t), t.TempDir(), fixedClock))

	back, cmd := pressKey(m, runes("b"))
	require.NotNil(t, cmd)
	require.False(t, back.ShouldQuit())

	quit, cmd := pressKey(m, runes("q"))
	require.NotNil(t, cmd)
	require.True(t, quit.ShouldQuit())
}

func TestFormatMinutes(t *testing.T) {
	tests := map[int]string{
		0:    "0m",
		59:   "0m",
		1500: "25m",
		3600: "1h",
		3900: "1h 5m",
	}
	for in, want := range tests {
		require.Equal(t, want, FormatMinutes(in), "seconds=%d", in)
	}
}
