package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adibhanna/pomodoro/internal/config"
	"github.com/adibhanna/pomodoro/internal/log"
	"github.com/adibhanna/pomodoro/internal/models"
)

// Applier receives the edited configuration. *pomodoro.Timer satisfies it.
type Applier interface {
	Config() models.TimerConfig
	UpdateConfig(patch models.ConfigPatch) error
}

// HistoryResetter clears the session journal. *storage.Storage satisfies it.
type HistoryResetter interface {
	ResetAllData() error
}

// Field order on screen.
const (
	fieldWork = iota
	fieldShort
	fieldLong
	fieldInterval
	fieldAutoBreaks
	fieldAutoPomodoros
	fieldCount
)

var labels = [fieldCount]string{
	"Focus duration (e.g. 25m, 90s):",
	"Short break duration:",
	"Long break duration:",
	"Focus sessions before a long break:",
	"Start breaks automatically:",
	"Start focus automatically after a break:",
}

type Model struct {
	timer          Applier
	history        HistoryResetter
	configPath     string
	inputs         []textinput.Model // duration and interval fields
	autoBreaks     bool
	autoPomodoros  bool
	focusIndex     int
	saved          bool
	historyCleared bool
	confirmReset   bool
	errorMsg       string
	width          int
	height         int
}

// New builds the form from timer's current configuration. configPath may be
// empty, in which case changes are applied but not persisted; history may be
// nil to hide the clear-history action.
func New(timer Applier, configPath string, history HistoryResetter) Model {
	cfg := timer.Config()

	durationValidation := func(text string) error {
		for _, char := range text {
			if !unicode.IsDigit(char) && !strings.ContainsRune("hms.", char) {
				return errors.New("only durations allowed")
			}
		}
		return nil
	}
	numericValidation := func(text string) error {
		for _, char := range text {
			if !unicode.IsDigit(char) {
				return errors.New("only numbers allowed")
			}
		}
		return nil
	}

	inputs := make([]textinput.Model, fieldInterval+1)
	values := []string{
		FormatDuration(cfg.WorkDuration),
		FormatDuration(cfg.ShortBreakDuration),
		FormatDuration(cfg.LongBreakDuration),
		strconv.Itoa(cfg.SessionsUntilLongBreak),
	}
	placeholders := []string{"25m", "5m", "15m", "4"}
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = placeholders[i]
		inputs[i].SetValue(values[i])
		inputs[i].CharLimit = 10
		inputs[i].Width = 20
		inputs[i].Validate = durationValidation
	}
	inputs[fieldInterval].CharLimit = 2
	inputs[fieldInterval].Validate = numericValidation
	inputs[fieldWork].Focus()

	return Model{
		timer:         timer,
		history:       history,
		configPath:    configPath,
		inputs:        inputs,
		autoBreaks:    cfg.AutoStartBreaks,
		autoPomodoros: cfg.AutoStartPomodoros,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Tab), key.Matches(msg, keys.Down):
			m.focusIndex = (m.focusIndex + 1) % fieldCount
			m.updateFocus()
			return m, nil

		case key.Matches(msg, keys.ShiftTab), key.Matches(msg, keys.Up):
			m.focusIndex = (m.focusIndex - 1 + fieldCount) % fieldCount
			m.updateFocus()
			return m, nil

		case key.Matches(msg, keys.Toggle) && m.focusIndex >= fieldAutoBreaks:
			if m.focusIndex == fieldAutoBreaks {
				m.autoBreaks = !m.autoBreaks
			} else {
				m.autoPomodoros = !m.autoPomodoros
			}
			m.errorMsg = ""
			return m, nil

		case key.Matches(msg, keys.Save):
			if err := m.save(); err != nil {
				m.errorMsg = err.Error()
				m.saved = false
				return m, nil
			}
			m.saved = true
			m.errorMsg = ""
			return m, tea.Quit

		case key.Matches(msg, keys.ClearHistory) && m.history != nil:
			if !m.confirmReset {
				m.confirmReset = true
				return m, nil
			}
			m.confirmReset = false
			if err := m.history.ResetAllData(); err != nil {
				m.errorMsg = err.Error()
				return m, nil
			}
			m.historyCleared = true
			return m, nil

		case key.Matches(msg, keys.Back):
			if m.confirmReset {
				m.confirmReset = false
				return m, nil
			}
			return m, tea.Quit
		}
	}

	cmd := m.updateInputs(msg)
	return m, cmd
}

func (m *Model) updateFocus() {
	for i := range m.inputs {
		if i == m.focusIndex {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		oldValue := m.inputs[i].Value()
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
		if m.inputs[i].Value() != oldValue {
			m.errorMsg = ""
		}
	}
	return tea.Batch(cmds...)
}

// Form reads the fields into a TimerConfig. The result is validated.
func (m Model) Form() (models.TimerConfig, error) {
	var cfg models.TimerConfig
	durations := []struct {
		name string
		dst  *int
	}{
		{"focus duration", &cfg.WorkDuration},
		{"short break duration", &cfg.ShortBreakDuration},
		{"long break duration", &cfg.LongBreakDuration},
	}
	for i, d := range durations {
		seconds, err := ParseDuration(m.inputs[i].Value())
		if err != nil {
			return models.TimerConfig{}, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = seconds
	}

	intervalStr := strings.TrimSpace(m.inputs[fieldInterval].Value())
	if intervalStr == "" {
		return models.TimerConfig{}, errors.New("sessions before a long break is required")
	}
	interval, err := strconv.Atoi(intervalStr)
	if err != nil {
		return models.TimerConfig{}, fmt.Errorf("sessions before a long break: %w", err)
	}
	cfg.SessionsUntilLongBreak = interval
	cfg.AutoStartBreaks = m.autoBreaks
	cfg.AutoStartPomodoros = m.autoPomodoros

	if err := cfg.Validate(); err != nil {
		return models.TimerConfig{}, err
	}
	return cfg, nil
}

func (m *Model) save() error {
	cfg, err := m.Form()
	if err != nil {
		return err
	}
	if err := m.timer.UpdateConfig(models.Diff(m.timer.Config(), cfg)); err != nil {
		return err
	}
	if m.configPath == "" {
		return nil
	}
	if err := config.SaveTimer(m.configPath, cfg); err != nil {
		log.ErrorErr(log.CatUI, "Failed to persist settings", err, "path", m.configPath)
		return err
	}
	return nil
}

// ParseDuration accepts a Go duration ("25m", "1h30m", "90s") or a bare
// number of minutes, and returns whole seconds.
func ParseDuration(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, errors.New("value is required")
	}
	if n, err := strconv.Atoi(text); err == nil {
		return n * 60, nil
	}
	d, err := time.ParseDuration(text)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", text)
	}
	if d%time.Second != 0 {
		return 0, fmt.Errorf("duration %q must be whole seconds", text)
	}
	return int(d / time.Second), nil
}

// FormatDuration renders seconds in the shortest form ParseDuration reads back.
func FormatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	switch {
	case seconds%3600 == 0 && seconds > 0:
		return fmt.Sprintf("%dh", seconds/3600)
	case seconds%60 == 0:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return d.String()
	}
}

// Saved reports whether the form was applied before the screen closed.
func (m Model) Saved() bool {
	return m.saved
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

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF7CCB")).
		MarginBottom(2).
		Align(lipgloss.Center)

	formStyle := lipgloss.NewStyle().
		Align(lipgloss.Left).
		MarginBottom(1)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FDFF8C"))

	focusedLabelStyle := labelStyle.Bold(true).Foreground(lipgloss.Color("#FF7CCB"))

	inputStyle := lipgloss.NewStyle().
		MarginBottom(1)

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4CAF50")).
		Bold(true).
		MarginTop(1)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF6B6B")).
		Bold(true).
		MarginTop(1)

	var form strings.Builder
	for i, label := range labels {
		style := labelStyle
		if i == m.focusIndex {
			style = focusedLabelStyle
		}
		form.WriteString(style.Render(label) + "\n")
		var field string
		switch i {
		case fieldAutoBreaks:
			field = checkbox(m.autoBreaks)
		case fieldAutoPomodoros:
			field = checkbox(m.autoPomodoros)
		default:
			field = m.inputs[i].View()
		}
		form.WriteString(inputStyle.Render(field) + "\n")
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		titleStyle.Render("Settings"),
		formStyle.Render(form.String()),
		m.renderHelp(),
	)

	if m.historyCleared {
		content += "\n" + successStyle.Render("Session history cleared")
	}
	if m.confirmReset {
		content += "\n" + warningStyle.Render("This deletes ALL journaled sessions. Press ctrl+d again to confirm.")
	}
	if m.errorMsg != "" {
		content += "\n" + warningStyle.Render(m.errorMsg)
	}

	return containerStyle.Render(content)
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) renderHelp() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666")).
		MarginTop(1)

	if m.confirmReset {
		return helpStyle.Render("ctrl+d: confirm • esc: cancel")
	}

	text := "tab/↓: next • shift+tab/↑: previous • space: toggle • enter: save • esc: back"
	if m.history != nil {
		text += " • ctrl+d: clear history"
	}
	return helpStyle.Render(text)
}

type keyMap struct {
	Tab          key.Binding
	ShiftTab     key.Binding
	Up           key.Binding
	Down         key.Binding
	Toggle       key.Binding
	Save         key.Binding
	ClearHistory key.Binding
	Back         key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous field"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next field"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "x"),
		key.WithHelp("space", "toggle"),
	),
	Save: key.NewBinding(
		key.WithKeys("enter", "ctrl+s"),
		key.WithHelp("enter", "save"),
	),
	ClearHistory: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "clear history"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "back"),
	),
}
