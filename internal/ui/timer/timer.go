package timer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adibhanna/pomodoro/internal/log"
	"github.com/adibhanna/pomodoro/internal/models"
	"github.com/adibhanna/pomodoro/internal/pomodoro"
	"github.com/adibhanna/pomodoro/internal/pubsub"
)

// Controller is the part of *pomodoro.Timer the screen drives.
type Controller interface {
	pubsub.Subscriber[pomodoro.Event]
	Start()
	Pause()
	Resume()
	Reset()
	State() models.Snapshot
}

type Model struct {
	timer        Controller
	listener     *pubsub.ContinuousListener[pomodoro.Event]
	snap         models.Snapshot
	status       string
	help         help.Model
	openSettings bool
	openHistory  bool
	quitting     bool
	width        int
	height       int
}

// New subscribes to timer for as long as ctx lives.
func New(ctx context.Context, timer Controller) Model {
	return Model{
		timer:    timer,
		listener: pubsub.NewContinuousListener(ctx, timer),
		snap:     timer.State(),
		help:     help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.listener.Listen()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			m.timer.Start()
		case key.Matches(msg, keys.Pause):
			m.timer.Pause()
		case key.Matches(msg, keys.Resume):
			m.timer.Resume()
		case key.Matches(msg, keys.Reset):
			if m.snap.State != models.StateIdle {
				m.status = "Session abandoned"
			}
			m.timer.Reset()
		case key.Matches(msg, keys.Settings):
			m.openSettings = true
			return m, tea.Quit
		case key.Matches(msg, keys.History):
			m.openHistory = true
			return m, tea.Quit
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		default:
			return m, nil
		}
		m.snap = m.timer.State()
		return m, nil

	case pubsub.Event[pomodoro.Event]:
		m.handleEvent(msg.Payload)
		return m, m.listener.Listen()
	}

	return m, nil
}

func (m *Model) handleEvent(e pomodoro.Event) {
	switch e.Type {
	case pomodoro.EventTick:
		m.snap = e.Snapshot
		return
	case pomodoro.EventSessionComplete:
		if e.Session.Type.IsBreak() {
			m.status = "Break is over"
		} else {
			m.status = "Focus session complete!"
		}
		log.Debug(log.CatUI, "Session complete", "type", e.Session.Type)
	case pomodoro.EventSessionStart:
		m.status = ""
	}
	m.snap = m.timer.State()
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	containerStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Padding(2)

	phaseStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(phaseColor(m.phase())).
		MarginBottom(1)

	timerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(phaseColor(m.phase())).
		Padding(2, 4).
		MarginBottom(2)

	statsStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FDFF8C"))

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888")).
		MarginTop(1).
		MarginBottom(1)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		phaseStyle.Render(m.phaseLabel()),
		timerStyle.Render(FormatRemaining(m.snap.RemainingTime)),
		statsStyle.Render(fmt.Sprintf("Completed: %d • Until long break: %d",
			m.snap.CompletedSessions, m.snap.SessionsUntilLongBreak)),
		statusStyle.Render(m.statusLine()),
		m.help.View(keys.forState(m.snap.State)),
	)

	return containerStyle.Render(content)
}

// phase is the running or paused phase, or IDLE.
func (m Model) phase() models.State {
	if m.snap.State == models.StatePaused && m.snap.CurrentSession != nil {
		return m.snap.CurrentSession.Type
	}
	return m.snap.State
}

func (m Model) phaseLabel() string {
	if m.snap.State == models.StatePaused {
		return m.phase().Label() + " (paused)"
	}
	return m.snap.State.Label()
}

func (m Model) statusLine() string {
	if m.status != "" {
		return m.status
	}
	switch m.snap.State {
	case models.StateIdle:
		return "Press 's' to start a focus session"
	case models.StatePaused:
		return "Paused - press 'r' to resume"
	case models.StateWork:
		return "Focus time! Stay in the zone..."
	default:
		return "Take a breather"
	}
}

// FormatRemaining renders seconds as mm:ss. Hours fold into the minutes.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func phaseColor(s models.State) lipgloss.Color {
	switch s {
	case models.StateWork:
		return lipgloss.Color("#7D56F4")
	case models.StateShortBreak:
		return lipgloss.Color("#4CAF50")
	case models.StateLongBreak:
		return lipgloss.Color("#2196F3")
	default:
		return lipgloss.Color("#666")
	}
}

func (m Model) ShouldOpenSettings() bool {
	return m.openSettings
}

func (m Model) ShouldOpenHistory() bool {
	return m.openHistory
}

func (m Model) ShouldQuit() bool {
	return m.quitting
}

type keyMap struct {
	Start    key.Binding
	Pause    key.Binding
	Resume   key.Binding
	Reset    key.Binding
	Settings key.Binding
	History  key.Binding
	Quit     key.Binding
}

// forState returns the bindings that do something in s.
func (k keyMap) forState(s models.State) help.KeyMap {
	switch s {
	case models.StateIdle:
		return shortHelp{k.Start, k.Settings, k.History, k.Quit}
	case models.StatePaused:
		return shortHelp{k.Resume, k.Reset, k.Settings, k.History, k.Quit}
	default:
		return shortHelp{k.Pause, k.Reset, k.Settings, k.History, k.Quit}
	}
}

type shortHelp []key.Binding

func (h shortHelp) ShortHelp() []key.Binding {
	return h
}

func (h shortHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h}
}

var keys = keyMap{
	Start: key.NewBinding(
		key.WithKeys("s", "enter"),
		key.WithHelp("s", "start"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p", " "),
		key.WithHelp("p", "pause"),
	),
	Resume: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "resume"),
	),
	Reset: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "reset"),
	),
	Settings: key.NewBinding(
		key.WithKeys(","),
		key.WithHelp(",", "settings"),
	),
	History: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "history"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
