package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/focusflow/internal/config"
	"github.com/xvierd/focusflow/internal/engine"
)

// Options configures Run.
type Options struct {
	Theme     *config.ThemeConfig
	TaskTitle string
	// Input and Output override the terminal, mainly for tests.
	Input  io.Reader
	Output io.Writer
}

// Run shows the timer until the user quits or ctx is cancelled. The engine
// keeps running in the controller after the view closes.
func Run(ctx context.Context, ctrl Controller, opts Options) error {
	updates, cancel := ctrl.Subscribe(32)
	defer cancel()

	snap, err := ctrl.TimerState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load timer: %w", err)
	}

	model := NewModel(ctx, ctrl, snap, updates, opts.Theme)
	model.SetTaskTitle(opts.TaskTitle)

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil || opts.Output != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input), tea.WithOutput(opts.Output))
	} else {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	if _, err := tea.NewProgram(model, programOpts...).Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// ShowStatus writes a one-shot summary of the timer without starting
// interactive mode.
func ShowStatus(w io.Writer, snap engine.Snapshot, taskTitle string) {
	fmt.Fprintf(w, "%s (%s)\n", snap.Kind.Label(), phaseLabel(snap.Phase))
	fmt.Fprintf(w, "   Remaining: %s\n", formatClock(snap.Remaining()))
	fmt.Fprintf(w, "   Progress: %.0f%%\n", snap.Progress*100)
	fmt.Fprintf(w, "   Session: %d of %d\n", snap.CyclePosition, snap.SessionsPerCycle)
	if taskTitle != "" {
		fmt.Fprintf(w, "   Task: %s\n", taskTitle)
	}
}
