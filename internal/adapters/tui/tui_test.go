package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/focusflow/internal/config"
	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/engine"
	"github.com/xvierd/focusflow/internal/ports"
	"github.com/xvierd/focusflow/internal/services"
)

type fakeController struct {
	snap         engine.Snapshot
	commands     []ports.TimerCommand
	distractions []string
	noActive     bool
	updates      chan services.Update
}

func (f *fakeController) TimerState(ctx context.Context) (engine.Snapshot, error) {
	return f.snap, nil
}

func (f *fakeController) TimerCommand(ctx context.Context, cmd ports.TimerCommand) (engine.Snapshot, error) {
	f.commands = append(f.commands, cmd)
	switch cmd {
	case ports.CmdStart:
		f.snap.Phase = engine.PhaseRunning
	case ports.CmdPause:
		f.snap.Phase = engine.PhasePaused
	}
	return f.snap, nil
}

func (f *fakeController) LogDistraction(ctx context.Context, category domain.DistractionCategory, description string) (*domain.Distraction, error) {
	if f.noActive {
		return nil, domain.ErrNoActiveSession
	}
	f.distractions = append(f.distractions, description)
	return domain.NewDistraction("s1", category, description)
}

func (f *fakeController) Subscribe(buffer int) (<-chan services.Update, func()) {
	if f.updates == nil {
		f.updates = make(chan services.Update, buffer)
	}
	return f.updates, func() {}
}

func idleSnapshot() engine.Snapshot {
	return engine.Snapshot{
		Phase:            engine.PhaseIdle,
		Kind:             engine.KindWork,
		RemainingSeconds: 1500,
		PlannedSeconds:   1500,
		CyclePosition:    1,
		SessionsPerCycle: 4,
	}
}

func newTestModel(ctrl *fakeController) Model {
	return sized(NewModel(context.Background(), ctrl, ctrl.snap, nil, nil))
}

// sized applies a window size and a static cursor so focusing the input
// never schedules a blink.
func sized(m Model) Model {
	m.input.Cursor.SetMode(cursor.CursorStatic)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

// press sends a key and feeds the command it returns back into the model.
func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if cmd != nil {
		if next := cmd(); next != nil {
			if _, quit := next.(tea.QuitMsg); !quit {
				updated, _ = m.Update(next)
				m = updated.(Model)
			}
		}
	}
	return m
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{25 * time.Minute, "25:00"},
		{5 * time.Minute, "05:00"},
		{90 * time.Second, "01:30"},
		{0, "00:00"},
		{-time.Second, "00:00"},
		{61 * time.Minute, "61:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatClock(tt.duration); got != tt.want {
				t.Errorf("formatClock(%v) = %v, want %v", tt.duration, got, tt.want)
			}
		})
	}
}

func TestRenderBigTime(t *testing.T) {
	narrow := renderBigTime("25:00", "#ffffff", 30)
	if strings.Contains(narrow, "\n") {
		t.Error("narrow terminals should get a single line")
	}

	big := renderBigTime("25:00", "#ffffff", 80)
	if lines := strings.Split(big, "\n"); len(lines) != 5 {
		t.Errorf("big time has %d lines, want 5", len(lines))
	}
}

func TestResolveTheme(t *testing.T) {
	defaults := config.DefaultThemeConfig()
	if got := resolveTheme(nil); got != defaults {
		t.Error("nil theme should resolve to defaults")
	}

	got := resolveTheme(&config.ThemeConfig{ColorWork: "#000000"})
	if got.ColorWork != "#000000" {
		t.Errorf("ColorWork = %q, want override", got.ColorWork)
	}
	if got.ColorBreak != defaults.ColorBreak {
		t.Errorf("ColorBreak = %q, want default", got.ColorBreak)
	}
}

func TestModel_ToggleStartsAndPauses(t *testing.T) {
	ctrl := &fakeController{snap: idleSnapshot()}
	m := newTestModel(ctrl)

	m = press(t, m, " ")
	if m.Snapshot().Phase != engine.PhaseRunning {
		t.Fatalf("phase = %s, want running", m.Snapshot().Phase)
	}
	m = press(t, m, "s")
	if m.Snapshot().Phase != engine.PhasePaused {
		t.Fatalf("phase = %s, want paused", m.Snapshot().Phase)
	}
	m = press(t, m, "n")
	_ = press(t, m, "r")

	want := []ports.TimerCommand{ports.CmdStart, ports.CmdPause, ports.CmdSkip, ports.CmdReset}
	if len(ctrl.commands) != len(want) {
		t.Fatalf("commands = %v, want %v", ctrl.commands, want)
	}
	for i := range want {
		if ctrl.commands[i] != want[i] {
			t.Errorf("commands[%d] = %s, want %s", i, ctrl.commands[i], want[i])
		}
	}
}

func TestModel_LogDistraction(t *testing.T) {
	ctrl := &fakeController{snap: idleSnapshot()}
	m := newTestModel(ctrl)

	m = press(t, m, "d")
	if !m.logging {
		t.Fatal("d should open the distraction input")
	}
	// Keys go to the input while logging, not to the timer.
	m = press(t, m, "n")
	m = press(t, m, "s")
	if len(ctrl.commands) != 0 {
		t.Errorf("commands while logging = %v", ctrl.commands)
	}
	m = press(t, m, "enter")

	if m.logging {
		t.Error("enter should close the input")
	}
	if len(ctrl.distractions) != 1 || ctrl.distractions[0] != "ns" {
		t.Errorf("distractions = %v", ctrl.distractions)
	}
	if !strings.Contains(m.View(), "Logged: ns") {
		t.Error("view should confirm the logged distraction")
	}
}

func TestModel_LogDistractionError(t *testing.T) {
	ctrl := &fakeController{snap: idleSnapshot(), noActive: true}
	m := newTestModel(ctrl)

	m = press(t, m, "d")
	m = press(t, m, "x")
	m = press(t, m, "enter")
	if m.lastError == nil {
		t.Fatal("expected error without an active session")
	}
	if !strings.Contains(m.View(), "no active session") {
		t.Error("view should show the error")
	}

	m = press(t, m, "?")
	if m.lastError != nil {
		t.Error("next key press should clear the error")
	}
}

func TestModel_EscCancelsInput(t *testing.T) {
	ctrl := &fakeController{snap: idleSnapshot()}
	m := newTestModel(ctrl)

	m = press(t, m, "d")
	m = press(t, m, "x")
	m = press(t, m, "esc")
	if m.logging || len(ctrl.distractions) != 0 {
		t.Error("esc should discard the distraction")
	}
}

func TestModel_PushedUpdates(t *testing.T) {
	ctrl := &fakeController{snap: idleSnapshot()}
	updates := make(chan services.Update, 1)
	m := sized(NewModel(context.Background(), ctrl, ctrl.snap, updates, nil))

	next := idleSnapshot()
	next.Kind = engine.KindShortBreak
	next.RemainingSeconds = 300
	updates <- services.Update{
		Snapshot: next,
		Event:    &engine.Event{Finished: engine.KindWork, Next: engine.KindShortBreak},
	}

	msg := m.Init()()
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if cmd == nil {
		t.Error("model should keep listening after an update")
	}
	if m.Snapshot().Kind != engine.KindShortBreak {
		t.Errorf("kind = %s, want short_break", m.Snapshot().Kind)
	}
	if m.completed != 1 {
		t.Errorf("completed = %d, want 1", m.completed)
	}
	view := m.View()
	if !strings.Contains(view, "Time for a short break") {
		t.Errorf("view missing transition message:\n%s", view)
	}

	close(updates)
	_, cmd = m.Update(m.Init()())
	if cmd == nil {
		t.Fatal("closed subscription should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("closed subscription should quit")
	}
}

func TestModel_View(t *testing.T) {
	ctrl := &fakeController{snap: idleSnapshot()}
	m := newTestModel(ctrl)
	m.SetTaskTitle("Write report")

	view := m.View()
	for _, want := range []string{"FocusFlow", "Focus · ready", "Task: Write report", "Session 1 of 4"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	loading := NewModel(context.Background(), ctrl, ctrl.snap, nil, nil)
	if loading.View() != "Loading..." {
		t.Error("view before the first resize should be a placeholder")
	}
}

func TestModel_Quit(t *testing.T) {
	ctrl := &fakeController{snap: idleSnapshot()}
	m := newTestModel(ctrl)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestShowStatus(t *testing.T) {
	var buf bytes.Buffer
	snap := idleSnapshot()
	snap.Phase = engine.PhaseRunning
	snap.RemainingSeconds = 90
	ShowStatus(&buf, snap, "Write report")

	out := buf.String()
	for _, want := range []string{"Focus (running)", "Remaining: 01:30", "Session: 1 of 4", "Task: Write report"} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
}
