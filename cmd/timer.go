package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/xvierd/focusflow/internal/adapters/notification"
	"github.com/xvierd/focusflow/internal/adapters/tui"
	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/engine"
	"github.com/xvierd/focusflow/internal/ports"
	"github.com/xvierd/focusflow/internal/preset"
	"github.com/xvierd/focusflow/internal/services"
)

var (
	timerPreset string
	timerTask   string
)

// timerCmd opens the terminal timer.
var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Open the terminal timer",
	Long: `Open the full-screen focus timer. A session left running by an
earlier run is restored, or completed if its time is already up.

Presets: 30min (30/5/15), 50min (50/10/30), classic (25/5/15) and custom,
which uses your saved settings.`,
	Args: cobra.NoArgs,
	RunE: runTimer,
}

func addTimerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&timerPreset, "preset", "p", "", "Timer preset: 30min, 50min, classic or custom (default from config)")
	cmd.Flags().StringVarP(&timerTask, "task", "t", "", "Task ID or title to attach to focus sessions")
}

func init() {
	addTimerFlags(timerCmd)
}

func runTimer(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(os.Stdout.Fd()) {
		return errors.New("the timer needs a terminal; use \"focusflow status\" or \"focusflow start\" instead")
	}

	ctx, stop := setupSignalHandler()
	defer stop()

	state, err := localState(ctx)
	if err != nil {
		return err
	}

	taskTitle, err := prepareTimer(ctx, state)
	if err != nil {
		return err
	}

	desktop := notification.NewDesktop(app.config.Notifications)
	if desktop.IsEnabled() {
		app.timer.AddNotifier(desktop)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = app.timer.Run(ctx, app.config.Timer.TickInterval.Std())
	}()

	err = tui.Run(ctx, state, tui.Options{
		Theme:     &app.config.Theme,
		TaskTitle: taskTitle,
	})
	cancel()
	wg.Wait()
	return err
}

// prepareTimer applies the preset, task and repository origin before the
// timer is shown. It returns the attached task's title.
func prepareTimer(ctx context.Context, state *services.StateService) (string, error) {
	userID := state.UserID()

	snap, err := state.TimerState(ctx)
	if err != nil {
		return "", err
	}

	// Switching mode resets the engine, so a restored interval is left alone.
	if snap.Phase == engine.PhaseIdle {
		name := timerPreset
		if name == "" {
			name = app.config.Timer.DefaultPreset
		}
		mode, err := preset.Resolve(name, app.user.Settings)
		if err != nil {
			return "", err
		}
		if mode != snap.Mode {
			if _, err := app.timer.SwitchMode(ctx, userID, mode); err != nil {
				return "", err
			}
		}
	}

	if app.config.CLI.DetectGit {
		wd, _ := os.Getwd()
		branch, commit := app.git.Origin(ctx, wd)
		if err := app.timer.SetOrigin(ctx, userID, branch, commit); err != nil {
			return "", err
		}
	}

	if timerTask == "" {
		return "", nil
	}
	task, err := findTask(ctx, userID, timerTask)
	if err != nil {
		return "", err
	}
	if _, err := app.timer.AttachTask(ctx, userID, &task.ID); err != nil {
		return "", err
	}
	return task.Title, nil
}

// findTask resolves ref as a task ID, then as the best fuzzy title match.
func findTask(ctx context.Context, userID, ref string) (*domain.Task, error) {
	task, err := app.tasks.GetTask(ctx, userID, ref)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	matches, err := app.tasks.ListTasks(ctx, userID, services.ListTasksRequest{Query: ref})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no task matches %q", ref)
	}
	return matches[0], nil
}

// statusCmd prints the timer without opening the interactive view.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the timer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := localState(ctx)
		if err != nil {
			return err
		}
		snap, err := state.TimerState(ctx)
		if err != nil {
			return fmt.Errorf("failed to get timer: %w", err)
		}
		return printSnapshot(cmd, snap)
	},
}

func printSnapshot(cmd *cobra.Command, snap engine.Snapshot) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, snap)
	}

	var title string
	if snap.TaskID != nil {
		if task, err := app.tasks.GetTask(cmd.Context(), app.user.ID, *snap.TaskID); err == nil {
			title = task.Title
		}
	}
	tui.ShowStatus(out, snap, title)
	return nil
}

// timerControlCmds builds the one-shot start, pause, skip and reset
// commands. The running interval is persisted, so the next invocation
// picks it up where this one left it.
func timerControlCmds() []*cobra.Command {
	controls := []struct {
		cmd   ports.TimerCommand
		short string
	}{
		{ports.CmdStart, "Start a focus session or resume a paused one"},
		{ports.CmdPause, "Pause the running interval"},
		{ports.CmdSkip, "End the current interval and load the next one"},
		{ports.CmdReset, "Restart the current interval at full length"},
	}

	cmds := make([]*cobra.Command, 0, len(controls))
	for _, c := range controls {
		timerCommand := c.cmd
		control := &cobra.Command{
			Use:   string(timerCommand),
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				state, err := localState(ctx)
				if err != nil {
					return err
				}
				if timerCommand == ports.CmdStart {
					if _, err := prepareTimer(ctx, state); err != nil {
						return err
					}
				}
				snap, err := state.TimerCommand(ctx, timerCommand)
				if err != nil {
					return fmt.Errorf("failed to %s timer: %w", timerCommand, err)
				}
				return printSnapshot(cmd, snap)
			},
		}
		if timerCommand == ports.CmdStart {
			addTimerFlags(control)
		}
		cmds = append(cmds, control)
	}
	return cmds
}
