// Package preset holds the named timer configurations a user can switch
// between. The TUI, the HTTP mode endpoint and the CLI resolve presets here
// instead of hard-coding durations.
package preset

import (
	"fmt"
	"strings"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/engine"
)

// Name identifies a preset.
type Name string

const (
	Thirty  Name = "30min"
	Fifty   Name = "50min"
	Classic Name = "classic"
	Custom  Name = "custom"
)

// Names lists every preset in display order.
var Names = []Name{Fifty, Thirty, Classic, Custom}

// Preset is a named rotation configuration.
type Preset struct {
	Name        Name   `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Mode        engine.Mode
}

var fixed = map[Name]Preset{
	Thirty: {
		Name:        Thirty,
		Label:       "30 Minutes",
		Description: "30 minute focus, 5 minute breaks",
		Mode:        engine.Mode{WorkMinutes: 30, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsPerCycle: 4},
	},
	Fifty: {
		Name:        Fifty,
		Label:       "50 Minutes",
		Description: "50 minute focus, 10 minute breaks",
		Mode:        engine.Mode{WorkMinutes: 50, ShortBreakMinutes: 10, LongBreakMinutes: 30, SessionsPerCycle: 4},
	},
	Classic: {
		Name:        Classic,
		Label:       "Classic",
		Description: "25 minute pomodoro, 5 minute breaks",
		Mode:        engine.Mode{WorkMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsPerCycle: 4},
	},
}

// Parse validates a preset name. Matching ignores case and surrounding
// space.
func Parse(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Names {
		if n == valid {
			return n, nil
		}
	}
	return "", &domain.ValidationError{
		Field:  "preset",
		Reason: fmt.Sprintf("unknown preset %q: must be one of 30min, 50min, classic, custom", s),
	}
}

// Get returns the preset called name. Custom takes its durations from the
// user's settings.
func Get(name Name, settings domain.TimerSettings) (Preset, error) {
	if name == Custom {
		return Preset{
			Name:        Custom,
			Label:       "Custom",
			Description: "durations from your settings",
			Mode:        engine.ModeFromSettings(settings.WithDefaults()),
		}, nil
	}
	p, ok := fixed[name]
	if !ok {
		_, err := Parse(string(name))
		return Preset{}, err
	}
	return p, nil
}

// Resolve parses s and returns its mode.
func Resolve(s string, settings domain.TimerSettings) (engine.Mode, error) {
	name, err := Parse(s)
	if err != nil {
		return engine.Mode{}, err
	}
	p, err := Get(name, settings)
	if err != nil {
		return engine.Mode{}, err
	}
	return p.Mode, nil
}

// All returns every preset, with Custom built from settings.
func All(settings domain.TimerSettings) []Preset {
	out := make([]Preset, 0, len(Names))
	for _, n := range Names {
		p, _ := Get(n, settings)
		out = append(out, p)
	}
	return out
}

// Match returns the fixed preset whose durations equal mode, or Custom.
func Match(mode engine.Mode) Name {
	for _, n := range Names {
		if p, ok := fixed[n]; ok && p.Mode == mode {
			return n
		}
	}
	return Custom
}
