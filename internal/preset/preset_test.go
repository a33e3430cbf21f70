package preset

import (
	"errors"
	"testing"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/engine"
)

func TestResolve(t *testing.T) {
	settings := domain.DefaultTimerSettings()
	settings.SessionDuration = 42
	settings.ShortBreak = 7

	tests := []struct {
		input string
		want  engine.Mode
	}{
		{"30min", engine.Mode{WorkMinutes: 30, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsPerCycle: 4}},
		{"50MIN", engine.Mode{WorkMinutes: 50, ShortBreakMinutes: 10, LongBreakMinutes: 30, SessionsPerCycle: 4}},
		{" classic ", engine.Mode{WorkMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsPerCycle: 4}},
		{"custom", engine.Mode{WorkMinutes: 42, ShortBreakMinutes: 7, LongBreakMinutes: 30, SessionsPerCycle: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Resolve(tt.input, settings)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("resolved mode invalid: %v", err)
			}
		})
	}
}

func TestResolve_Unknown(t *testing.T) {
	_, err := Resolve("90min", domain.DefaultTimerSettings())
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Resolve() error = %v, want ErrValidation", err)
	}
}

func TestAllAndMatch(t *testing.T) {
	all := All(domain.DefaultTimerSettings())
	if len(all) != len(Names) {
		t.Fatalf("All() returned %d presets, want %d", len(all), len(Names))
	}
	for _, p := range all {
		if p.Name == Custom {
			continue
		}
		if got := Match(p.Mode); got != p.Name {
			t.Errorf("Match(%s) = %s", p.Name, got)
		}
	}
	if got := Match(engine.Mode{WorkMinutes: 45, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsPerCycle: 3}); got != Custom {
		t.Errorf("Match(unlisted) = %s, want custom", got)
	}
}
