// Package engine implements the work/break rotation state machine that
// drives every focus timer. An Engine is single-threaded: callers that
// share one across goroutines must serialize access themselves.
package engine

import (
	"fmt"

	"github.com/xvierd/focusflow/internal/domain"
)

// Kind is the type of interval currently loaded in the engine.
type Kind string

const (
	KindWork       Kind = "work"
	KindShortBreak Kind = "short_break"
	KindLongBreak  Kind = "long_break"
)

// IsBreak returns true for short and long breaks.
func (k Kind) IsBreak() bool {
	return k == KindShortBreak || k == KindLongBreak
}

// SessionType maps the runtime kind to its persisted type.
func (k Kind) SessionType() domain.SessionType {
	if k.IsBreak() {
		return domain.SessionTypeBreak
	}
	return domain.SessionTypeWork
}

// Label returns a human-readable name.
func (k Kind) Label() string {
	switch k {
	case KindShortBreak:
		return "Short Break"
	case KindLongBreak:
		return "Long Break"
	default:
		return "Focus"
	}
}

// Phase is the countdown state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhasePaused  Phase = "paused"
)

// Mode is the rotation configuration. Durations are minutes.
type Mode struct {
	WorkMinutes       int `json:"workMinutes"`
	ShortBreakMinutes int `json:"shortBreakMinutes"`
	LongBreakMinutes  int `json:"longBreakMinutes"`
	SessionsPerCycle  int `json:"sessionsPerCycle"`
}

// ModeFromSettings builds a mode from a user's timer settings.
func ModeFromSettings(s domain.TimerSettings) Mode {
	return Mode{
		WorkMinutes:       s.SessionDuration,
		ShortBreakMinutes: s.ShortBreak,
		LongBreakMinutes:  s.LongBreak,
		SessionsPerCycle:  s.SessionsPerCycle,
	}
}

// Validate checks every field against the same ranges as user settings,
// except that a one-interval cycle is allowed.
func (m Mode) Validate() error {
	checks := []struct {
		field    string
		value    int
		min, max int
	}{
		{"workMinutes", m.WorkMinutes, 1, 120},
		{"shortBreakMinutes", m.ShortBreakMinutes, 1, 30},
		{"longBreakMinutes", m.LongBreakMinutes, 1, 60},
		{"sessionsPerCycle", m.SessionsPerCycle, 1, 8},
	}
	for _, c := range checks {
		if c.value < c.min || c.value > c.max {
			return &domain.ValidationError{
				Field:  c.field,
				Reason: fmt.Sprintf("must be between %d and %d", c.min, c.max),
			}
		}
	}
	return nil
}

// Minutes returns the configured length of kind.
func (m Mode) Minutes(k Kind) int {
	switch k {
	case KindShortBreak:
		return m.ShortBreakMinutes
	case KindLongBreak:
		return m.LongBreakMinutes
	default:
		return m.WorkMinutes
	}
}

// DurationFor returns the length of kind in seconds.
func (m Mode) DurationFor(k Kind) int {
	return m.Minutes(k) * 60
}
