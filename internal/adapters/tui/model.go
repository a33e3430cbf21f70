// Package tui provides the terminal timer, a Bubbletea front end for one
// user's rotation engine.
package tui

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xvierd/focusflow/internal/config"
	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/engine"
	"github.com/xvierd/focusflow/internal/ports"
	"github.com/xvierd/focusflow/internal/services"
)

// Controller is the timer the model drives. services.StateService
// satisfies it.
type Controller interface {
	TimerState(ctx context.Context) (engine.Snapshot, error)
	TimerCommand(ctx context.Context, cmd ports.TimerCommand) (engine.Snapshot, error)
	LogDistraction(ctx context.Context, category domain.DistractionCategory, description string) (*domain.Distraction, error)
	Subscribe(buffer int) (<-chan services.Update, func())
}

// resolveTheme fills any empty string fields in the given ThemeConfig with defaults.
// If theme is nil, returns the full default theme.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return resolved
}

// updateMsg carries one pushed timer update.
type updateMsg services.Update

// snapshotMsg is the result of a command issued from the keyboard.
type snapshotMsg engine.Snapshot

// distractionMsg reports a logged distraction.
type distractionMsg struct {
	d *domain.Distraction
}

// errMsg is shown under the timer until the next key press.
type errMsg struct {
	err error
}

// closedMsg is sent when the update subscription ends.
type closedMsg struct{}

// Model is the terminal timer state.
type Model struct {
	ctx     context.Context
	ctrl    Controller
	updates <-chan services.Update

	snap      engine.Snapshot
	taskTitle string
	flash     string
	lastError error
	completed int

	keys  KeyMap
	help  help.Model
	input textinput.Model

	logging bool
	theme   config.ThemeConfig
	width   int
	height  int
}

// NewModel creates a model showing initial. updates may be nil, in which
// case the view only changes in response to keys.
func NewModel(ctx context.Context, ctrl Controller, initial engine.Snapshot, updates <-chan services.Update, theme *config.ThemeConfig) Model {
	input := textinput.New()
	input.Placeholder = "What distracted you?"
	input.CharLimit = 200
	input.Width = 40

	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		updates: updates,
		snap:    initial,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		input:   input,
		theme:   resolveTheme(theme),
	}
}

// SetTaskTitle labels the view with the attached task.
func (m *Model) SetTaskTitle(title string) {
	m.taskTitle = title
}

// Snapshot returns the last projection the model rendered.
func (m Model) Snapshot() engine.Snapshot {
	return m.snap
}

// Init starts listening for pushed updates.
func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func waitForUpdate(updates <-chan services.Update) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return updateMsg(u)
	}
}

func (m Model) command(cmd ports.TimerCommand) tea.Cmd {
	return func() tea.Msg {
		snap, err := m.ctrl.TimerCommand(m.ctx, cmd)
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) logDistraction(description string) tea.Cmd {
	return func() tea.Msg {
		d, err := m.ctrl.LogDistraction(m.ctx, "", description)
		if err != nil {
			return errMsg{err}
		}
		return distractionMsg{d}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case updateMsg:
		m.snap = msg.Snapshot
		if msg.Event != nil {
			m.flash = eventText(*msg.Event)
			if !msg.Event.Skipped && msg.Event.WorkComplete() {
				m.completed++
			}
		}
		return m, waitForUpdate(m.updates)

	case closedMsg:
		return m, tea.Quit

	case snapshotMsg:
		m.snap = engine.Snapshot(msg)
		return m, nil

	case distractionMsg:
		m.flash = "Logged: " + msg.d.Description
		return m, nil

	case errMsg:
		m.lastError = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.logging {
			return m.updateInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastError = nil

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Toggle):
		m.flash = ""
		if m.snap.Phase == engine.PhaseRunning {
			return m, m.command(ports.CmdPause)
		}
		return m, m.command(ports.CmdStart)
	case key.Matches(msg, m.keys.Skip):
		return m, m.command(ports.CmdSkip)
	case key.Matches(msg, m.keys.Reset):
		m.flash = ""
		return m, m.command(ports.CmdReset)
	case key.Matches(msg, m.keys.Distraction):
		m.logging = true
		m.input.Reset()
		return m, m.input.Focus()
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.logging = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.logging = false
		m.input.Blur()
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		return m, m.logDistraction(text)
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func eventText(ev engine.Event) string {
	if ev.Skipped {
		return fmt.Sprintf("%s skipped", ev.Finished.Label())
	}
	if ev.Next.IsBreak() {
		return fmt.Sprintf("%s complete. Time for a %s.", ev.Finished.Label(), strings.ToLower(ev.Next.Label()))
	}
	return fmt.Sprintf("%s over. Ready to focus?", ev.Finished.Label())
}

func (m Model) timerColor() lipgloss.Color {
	switch {
	case m.snap.Phase == engine.PhasePaused:
		return lipgloss.Color(m.theme.ColorPaused)
	case m.snap.Kind.IsBreak():
		return lipgloss.Color(m.theme.ColorBreak)
	default:
		return lipgloss.Color(m.theme.ColorWork)
	}
}

func (m Model) progressBar() progress.Model {
	var pbar progress.Model
	switch {
	case m.snap.Phase == engine.PhasePaused:
		pbar = progress.New(progress.WithGradient(m.theme.PausedGradientStart, m.theme.PausedGradientEnd))
	case m.snap.Kind.IsBreak():
		pbar = progress.New(progress.WithGradient(m.theme.BreakGradientStart, m.theme.BreakGradientEnd))
	default:
		pbar = progress.New(progress.WithGradient(m.theme.WorkGradientStart, m.theme.WorkGradientEnd))
	}
	pbar.Width = 40
	if m.width > 0 && m.width < 50 {
		pbar.Width = m.width - 10
	}
	return pbar
}

func phaseLabel(p engine.Phase) string {
	switch p {
	case engine.PhaseRunning:
		return "running"
	case engine.PhasePaused:
		return "paused"
	default:
		return "ready"
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle)).MarginBottom(1)
	statusStyle := lipgloss.NewStyle().Foreground(m.timerColor())
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	sections := []string{
		titleStyle.Render("FocusFlow"),
		statusStyle.Render(fmt.Sprintf("%s · %s", m.snap.Kind.Label(), phaseLabel(m.snap.Phase))),
	}
	if m.taskTitle != "" {
		sections = append(sections, helpStyle.Render("Task: "+m.taskTitle))
	}

	sections = append(sections,
		"",
		renderBigTime(formatClock(m.snap.Remaining()), m.timerColor(), m.width),
		"",
		m.progressBar().ViewAs(m.snap.Progress),
		helpStyle.Render(fmt.Sprintf("Session %d of %d · %d completed", m.snap.CyclePosition, m.snap.SessionsPerCycle, m.completed)),
	)

	if m.flash != "" {
		sections = append(sections, "", statusStyle.Render(m.flash))
	}
	if m.lastError != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
		sections = append(sections, "", errStyle.Render("Error: "+m.lastError.Error()))
	}

	sections = append(sections, "")
	if m.logging {
		sections = append(sections, m.input.View(), helpStyle.Render("enter save · esc cancel"))
	} else {
		sections = append(sections, m.help.View(m.keys))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
