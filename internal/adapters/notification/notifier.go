// Package notification delivers timer transitions to the desktop and to
// the process log.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/xvierd/focusflow/internal/config"
	"github.com/xvierd/focusflow/internal/engine"
)

// Desktop shows a desktop notification for every transition and rings
// the bell when sound is enabled.
type Desktop struct {
	cfg    config.NotificationConfig
	notify func(title, message string) error
	beep   func() error
}

// NewDesktop creates a desktop notifier with the given configuration.
func NewDesktop(cfg config.NotificationConfig) *Desktop {
	return &Desktop{
		cfg: cfg,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
	}
}

// Notify implements ports.Notifier.
func (n *Desktop) Notify(_ context.Context, ev engine.Event) error {
	if !n.cfg.Enabled {
		return nil
	}
	title, message := Message(ev)
	if err := n.notify(title, message); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	if n.cfg.Sound {
		if err := n.beep(); err != nil {
			return fmt.Errorf("bell: %w", err)
		}
	}
	return nil
}

// IsEnabled returns true if notifications are enabled.
func (n *Desktop) IsEnabled() bool {
	return n.cfg.Enabled
}

// Message renders the title and body shown for ev.
func Message(ev engine.Event) (title, message string) {
	switch {
	case ev.Finished == engine.KindWork && ev.Skipped:
		title = "Focus session skipped"
	case ev.Finished == engine.KindWork:
		title = "🍅 Focus session complete!"
	case ev.Skipped:
		title = "Break skipped"
	default:
		title = "☕ Break over!"
	}

	switch ev.Next {
	case engine.KindLongBreak:
		message = "Time for a long break. You finished a full cycle."
	case engine.KindShortBreak:
		message = "Time for a short break."
	default:
		message = fmt.Sprintf("Ready to focus? Session %d is up next.", ev.CyclePosition)
	}
	return title, message
}

// Log records transitions with slog. The server uses it in place of
// desktop popups.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a log notifier.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Notify implements ports.Notifier.
func (n *Log) Notify(ctx context.Context, ev engine.Event) error {
	n.logger.InfoContext(ctx, "interval finished",
		"user_id", ev.UserID,
		"session_id", ev.SessionID,
		"finished", ev.Finished,
		"next", ev.Next,
		"skipped", ev.Skipped,
		"cycle_position", ev.CyclePosition,
	)
	return nil
}
