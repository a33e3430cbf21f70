package ports

import (
	"context"
	"fmt"

	"github.com/xvierd/focusflow/internal/engine"
)

// TimerCommand represents a user action against a focus timer.
type TimerCommand string

const (
	// CmdStart starts a new interval or resumes a paused one.
	CmdStart TimerCommand = "start"

	// CmdPause pauses the running interval.
	CmdPause TimerCommand = "pause"

	// CmdSkip ends the loaded interval without completing it.
	CmdSkip TimerCommand = "skip"

	// CmdReset reloads the current kind at full length.
	CmdReset TimerCommand = "reset"
)

// ParseTimerCommand validates a command name.
func ParseTimerCommand(s string) (TimerCommand, error) {
	switch TimerCommand(s) {
	case CmdStart, CmdPause, CmdSkip, CmdReset:
		return TimerCommand(s), nil
	}
	return "", fmt.Errorf("unknown timer command %q", s)
}

// Notifier receives interval transitions, e.g. to play a sound or show a
// toast. This is a driven port (implemented by adapters).
type Notifier interface {
	// Notify is called once per transition. Errors are logged by the
	// caller and never affect the timer.
	Notify(ctx context.Context, event engine.Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event engine.Event) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, event engine.Event) error {
	return f(ctx, event)
}
