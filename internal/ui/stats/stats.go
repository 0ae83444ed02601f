package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adibhanna/pomodoro/internal/log"
	"github.com/adibhanna/pomodoro/internal/models"
	"github.com/adibhanna/pomodoro/internal/storage"
)

// Source is the part of the session journal the history screen reads.
type Source interface {
	GetDayStats(date string) (models.DayStats, error)
}

type Model struct {
	source        Source
	exportDir     string
	now           func() time.Time
	day           time.Time
	dayStats      models.DayStats
	err           error
	width         int
	height        int
	exportMessage string
	showMessage   bool
	quitting      bool
}

// New opens the history screen on today. Exports are written to exportDir.
func New(source Source, exportDir string) Model {
	return newWithClock(source, exportDir, time.Now)
}

func newWithClock(source Source, exportDir string, now func() time.Time) Model {
	m := Model{
		source:    source,
		exportDir: exportDir,
		now:       now,
	}
	m.load(startOfDay(now()))
	return m
}

func (m *Model) load(day time.Time) {
	m.day = day
	m.dayStats, m.err = m.source.GetDayStats(day.Format(storage.DateLayout))
	if m.err != nil {
		log.ErrorErr(log.CatUI, "Failed to load day stats", m.err, "date", day.Format(storage.DateLayout))
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Back):
			return m, tea.Quit
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Prev):
			m.load(m.day.AddDate(0, 0, -1))
		case key.Matches(msg, keys.Next):
			if next := m.day.AddDate(0, 0, 1); !next.After(m.now()) {
				m.load(next)
			}
		case key.Matches(msg, keys.Today):
			m.load(startOfDay(m.now()))
		case key.Matches(msg, keys.Export):
			return m, m.exportDay()
		}
		return m, nil

	case exportResultMsg:
		m.exportMessage = msg.message
		m.showMessage = true
		// Clear message after 3 seconds
		return m, tea.Tick(time.Second*3, func(t time.Time) tea.Msg {
			return clearMessageMsg{}
		})

	case clearMessageMsg:
		m.showMessage = false
		m.exportMessage = ""
		return m, nil
	}

	return m, nil
}

type clearMessageMsg struct{}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	containerStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Padding(2)

	return containerStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderDayView(),
		m.renderHelp(),
	))
}

func (m Model) renderDayView() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF7CCB")).
		MarginBottom(2)

	statsStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FDFF8C")).
		MarginBottom(1)

	sessionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888")).
		PaddingLeft(2)

	title := titleStyle.Render("History - " + m.day.Format("Monday, January 2, 2006"))

	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
		return lipgloss.JoinVertical(lipgloss.Left, title, errStyle.Render("Error: "+m.err.Error()))
	}

	summary := statsStyle.Render(fmt.Sprintf(
		"Focus: %d sessions (%s) | Breaks: %d short, %d long (%s) | Abandoned: %d",
		m.dayStats.SessionsCount,
		FormatMinutes(m.dayStats.FocusSeconds),
		m.dayStats.ShortBreaksCount,
		m.dayStats.LongBreaksCount,
		FormatMinutes(m.dayStats.BreakSeconds),
		m.dayStats.AbandonedCount,
	))

	var sessions string
	if len(m.dayStats.Sessions) == 0 {
		sessions = sessionStyle.Render("No sessions on this day.")
	} else {
		sessions = "\nSessions:\n"
		for i, session := range m.dayStats.Sessions {
			sessions += sessionStyle.Render(sessionLine(i+1, session)) + "\n"
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, summary, sessions)
}

func sessionLine(n int, s models.Session) string {
	status := "[ok]"
	if !s.Completed {
		status = "[--]"
	}
	end := "?"
	if s.EndTime != nil {
		end = s.EndTime.Local().Format("3:04 PM")
	}
	return fmt.Sprintf("%s %d. %-11s %s - %s (%s)",
		status,
		n,
		s.Type.Label(),
		s.StartTime.Local().Format("3:04 PM"),
		end,
		FormatMinutes(int(s.Elapsed().Seconds())),
	)
}

// FormatMinutes renders seconds as "1h 5m", "25m" or "0m".
func FormatMinutes(seconds int) string {
	mins := seconds / 60
	hours := mins / 60
	mins %= 60
	if hours > 0 {
		if mins > 0 {
			return fmt.Sprintf("%dh %dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", mins)
}

func (m Model) renderHelp() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666")).
		MarginTop(2)

	help := "←/→ change day • 't' today • 'e' to export • 'b' to go back • 'q' to quit"

	if m.showMessage && m.exportMessage != "" {
		messageStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
		help = messageStyle.Render(m.exportMessage) + "\n" + help
	}

	return helpStyle.Render(help)
}

func (m Model) exportDay() tea.Cmd {
	stats := m.dayStats
	dir := m.exportDir
	return func() tea.Msg {
		path, err := ExportDay(dir, stats)
		if err != nil {
			log.ErrorErr(log.CatUI, "Export failed", err, "date", stats.Date)
			return exportResultMsg{message: fmt.Sprintf("Export failed: %v", err)}
		}
		return exportResultMsg{success: true, message: "Exported to " + path}
	}
}

// ExportDay writes stats as indented JSON to dir and returns the file path.
func ExportDay(dir string, stats models.DayStats) (string, error) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("pomodoro-%s.json", stats.Date))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ShouldQuit reports whether the user asked to leave the app rather than
// return to the timer.
func (m Model) ShouldQuit() bool {
	return m.quitting
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

type exportResultMsg struct {
	success bool
	message string
}

type keyMap struct {
	Back   key.Binding
	Quit   key.Binding
	Prev   key.Binding
	Next   key.Binding
	Today  key.Binding
	Export key.Binding
}

var keys = keyMap{
	Back: key.NewBinding(
		key.WithKeys("b", "esc"),
		key.WithHelp("b", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Prev: key.NewBinding(
		key.WithKeys("left", "["),
		key.WithHelp("←", "previous day"),
	),
	Next: key.NewBinding(
		key.WithKeys("right", "]"),
		key.WithHelp("→", "next day"),
	),
	Today: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "today"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
}
