package domain

import "fmt"

// Theme is the UI color scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// TimerSettings holds a user's timer preferences. Durations are minutes.
type TimerSettings struct {
	SessionDuration      int   `json:"sessionDuration"`
	ShortBreak           int   `json:"shortBreak"`
	LongBreak            int   `json:"longBreak"`
	SessionsPerCycle     int   `json:"sessionsPerCycle"`
	SoundEnabled         bool  `json:"soundEnabled"`
	BrowserNotifications bool  `json:"browserNotifications"`
	Theme                Theme `json:"theme"`
}

// DefaultTimerSettings returns the settings a new user starts with.
func DefaultTimerSettings() TimerSettings {
	return TimerSettings{
		SessionDuration:      50,
		ShortBreak:           10,
		LongBreak:            30,
		SessionsPerCycle:     4,
		SoundEnabled:         true,
		BrowserNotifications: false,
		Theme:                ThemeLight,
	}
}

// Validate checks every field against its allowed range.
func (s TimerSettings) Validate() error {
	checks := []struct {
		field    string
		value    int
		min, max int
	}{
		{"sessionDuration", s.SessionDuration, 1, 120},
		{"shortBreak", s.ShortBreak, 1, 30},
		{"longBreak", s.LongBreak, 1, 60},
		{"sessionsPerCycle", s.SessionsPerCycle, 2, 8},
	}
	for _, c := range checks {
		if c.value < c.min || c.value > c.max {
			return &ValidationError{
				Field:  c.field,
				Reason: rangeReason(c.min, c.max),
			}
		}
	}
	if s.Theme != ThemeLight && s.Theme != ThemeDark {
		return invalid("theme", "must be light or dark")
	}
	return nil
}

// WithDefaults fills zero values from DefaultTimerSettings. Booleans are
// left as given.
func (s TimerSettings) WithDefaults() TimerSettings {
	d := DefaultTimerSettings()
	if s.SessionDuration == 0 {
		s.SessionDuration = d.SessionDuration
	}
	if s.ShortBreak == 0 {
		s.ShortBreak = d.ShortBreak
	}
	if s.LongBreak == 0 {
		s.LongBreak = d.LongBreak
	}
	if s.SessionsPerCycle == 0 {
		s.SessionsPerCycle = d.SessionsPerCycle
	}
	if s.Theme == "" {
		s.Theme = d.Theme
	}
	return s
}

func rangeReason(min, max int) string {
	return fmt.Sprintf("must be between %d and %d", min, max)
}
