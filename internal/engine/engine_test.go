package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/focusflow/internal/domain"
)

var fiftyTen = Mode{WorkMinutes: 50, ShortBreakMinutes: 10, LongBreakMinutes: 30, SessionsPerCycle: 4}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestEngine(t *testing.T, mode Mode) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	n := 0
	e, err := New("user-1", mode, WithClock(clock.Now), WithIDs(func() string {
		n++
		return fmt.Sprintf("iv-%d", n)
	}))
	require.NoError(t, err)
	return e, clock
}

// runOut starts the engine and ticks until the loaded interval ends.
func runOut(e *Engine, clock *fakeClock) {
	e.Start()
	for e.Phase() == PhaseRunning {
		clock.t = clock.t.Add(time.Second)
		e.Tick()
	}
}

func TestNew_RejectsInvalidMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		field string
	}{
		{"zero work", Mode{WorkMinutes: 0, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsPerCycle: 4}, "workMinutes"},
		{"huge work", Mode{WorkMinutes: 1 << 58, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsPerCycle: 4}, "workMinutes"},
		{"work over two hours", Mode{WorkMinutes: 121, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsPerCycle: 4}, "workMinutes"},
		{"negative short break", Mode{WorkMinutes: 25, ShortBreakMinutes: -5, LongBreakMinutes: 15, SessionsPerCycle: 4}, "shortBreakMinutes"},
		{"long short break", Mode{WorkMinutes: 25, ShortBreakMinutes: 31, LongBreakMinutes: 15, SessionsPerCycle: 4}, "shortBreakMinutes"},
		{"long long break", Mode{WorkMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 61, SessionsPerCycle: 4}, "longBreakMinutes"},
		{"empty cycle", Mode{WorkMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsPerCycle: 0}, "sessionsPerCycle"},
		{"huge cycle", Mode{WorkMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsPerCycle: 1 << 40}, "sessionsPerCycle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("u", tt.mode)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	_, err := New("u", Mode{WorkMinutes: 120, ShortBreakMinutes: 30, LongBreakMinutes: 60, SessionsPerCycle: 1})
	assert.NoError(t, err, "upper bounds are inclusive")
}

func TestEngine_NaturalCompletion(t *testing.T) {
	for _, minutes := range []int{1, 2, 25} {
		t.Run(fmt.Sprintf("%dm", minutes), func(t *testing.T) {
			mode := Mode{WorkMinutes: minutes, ShortBreakMinutes: 1, LongBreakMinutes: 2, SessionsPerCycle: 4}
			e, _ := newTestEngine(t, mode)

			e.Start()
			for i := 0; i < minutes*60-1; i++ {
				e.Tick()
			}
			assert.Equal(t, PhaseRunning, e.Phase())
			assert.Equal(t, 1, e.Remaining())

			e.Tick()

			assert.Equal(t, PhaseIdle, e.Phase())
			assert.Equal(t, KindShortBreak, e.Kind())
			assert.Equal(t, 60, e.Remaining())

			fx := e.Drain()
			require.Len(t, fx.Commands, 2)
			assert.Equal(t, CommandCreate, fx.Commands[0].Type)
			assert.Equal(t, minutes, fx.Commands[0].DurationMinutes)
			assert.Equal(t, CommandFinish, fx.Commands[1].Type)
			assert.True(t, fx.Commands[1].Completed)
			require.Len(t, fx.Events, 1)
			assert.True(t, fx.Events[0].WorkComplete())
			assert.False(t, fx.Events[0].Skipped)
		})
	}
}

func TestEngine_RemainingNeverIncreasesWhileRunning(t *testing.T) {
	e, _ := newTestEngine(t, Mode{WorkMinutes: 1, ShortBreakMinutes: 1, LongBreakMinutes: 1, SessionsPerCycle: 2})
	e.Start()
	prev := e.Remaining()
	for e.Phase() == PhaseRunning {
		e.Tick()
		if e.Phase() == PhaseRunning {
			assert.LessOrEqual(t, e.Remaining(), prev)
			prev = e.Remaining()
		}
	}
}

func TestEngine_FullCycle(t *testing.T) {
	e, clock := newTestEngine(t, fiftyTen)

	type step struct {
		kind Kind
		pos  int
	}
	want := []step{
		{KindShortBreak, 1}, // after work 1
		{KindWork, 2},
		{KindShortBreak, 2}, // after work 2
		{KindWork, 3},
		{KindShortBreak, 3}, // after work 3
		{KindWork, 4},
		{KindLongBreak, 1}, // after work 4
		{KindWork, 1},
	}

	assert.Equal(t, KindWork, e.Kind())
	assert.Equal(t, 1, e.CyclePosition())

	longBreaks := 0
	for i, w := range want {
		runOut(e, clock)
		assert.Equal(t, w.kind, e.Kind(), "step %d kind", i)
		assert.Equal(t, w.pos, e.CyclePosition(), "step %d cycle position", i)
		assert.Equal(t, fiftyTen.DurationFor(w.kind), e.Remaining(), "step %d remaining", i)
		if e.Kind() == KindLongBreak {
			longBreaks++
		}
	}
	assert.Equal(t, 1, longBreaks)
}

func TestEngine_CyclePositionStaysInRange(t *testing.T) {
	mode := Mode{WorkMinutes: 1, ShortBreakMinutes: 1, LongBreakMinutes: 1, SessionsPerCycle: 3}
	e, _ := newTestEngine(t, mode)
	for i := 0; i < 50; i++ {
		e.Skip()
		assert.GreaterOrEqual(t, e.CyclePosition(), 1)
		assert.LessOrEqual(t, e.CyclePosition(), mode.SessionsPerCycle)
	}
}

func TestEngine_SkipMatchesNaturalTransition(t *testing.T) {
	phases := []struct {
		name  string
		setup func(e *Engine)
	}{
		{"idle", func(e *Engine) {}},
		{"running", func(e *Engine) { e.Start(); e.Tick() }},
		{"paused", func(e *Engine) { e.Start(); e.Tick(); e.Pause() }},
	}

	for _, p := range phases {
		t.Run(p.name, func(t *testing.T) {
			natural, clock := newTestEngine(t, fiftyTen)
			runOut(natural, clock)

			skipped, _ := newTestEngine(t, fiftyTen)
			p.setup(skipped)
			_ = skipped.Drain()
			skipped.Skip()

			assert.Equal(t, natural.Kind(), skipped.Kind())
			assert.Equal(t, natural.CyclePosition(), skipped.CyclePosition())
			assert.Equal(t, natural.Remaining(), skipped.Remaining())
			assert.Equal(t, PhaseIdle, skipped.Phase())

			fx := skipped.Drain()
			require.Len(t, fx.Events, 1)
			assert.True(t, fx.Events[0].Skipped)
			for _, c := range fx.Commands {
				assert.Equal(t, CommandFinish, c.Type)
				assert.False(t, c.Completed, "skipped interval must not be completed")
			}
			if p.name == "idle" {
				assert.Empty(t, fx.Commands)
			} else {
				assert.Len(t, fx.Commands, 1)
			}
		})
	}
}

func TestEngine_PauseResume(t *testing.T) {
	e, _ := newTestEngine(t, fiftyTen)

	e.Start()
	for i := 0; i < 90; i++ {
		e.Tick()
	}
	e.Pause()
	atPause := e.Remaining()
	assert.Equal(t, PhasePaused, e.Phase())

	for i := 0; i < 10; i++ {
		e.Tick()
	}
	assert.Equal(t, atPause, e.Remaining(), "ticks while paused are ignored")

	e.Start()
	assert.Equal(t, PhaseRunning, e.Phase())
	assert.Equal(t, atPause, e.Remaining())

	fx := e.Drain()
	creates := 0
	for _, c := range fx.Commands {
		if c.Type == CommandCreate {
			creates++
		}
	}
	assert.Equal(t, 1, creates, "resume must not create a second record")
}

func TestEngine_PauseResumeRecordsTimestamps(t *testing.T) {
	e, clock := newTestEngine(t, fiftyTen)
	e.Start()
	fx := e.Drain()
	require.Len(t, fx.Commands, 1)
	assert.Equal(t, 1, fx.Commands[0].CyclePosition)

	clock.t = clock.t.Add(time.Minute)
	e.Pause()
	e.Pause()
	fx = e.Drain()
	require.Len(t, fx.Commands, 1, "a second pause is a no-op")
	assert.Equal(t, CommandPause, fx.Commands[0].Type)
	assert.Equal(t, "iv-1", fx.Commands[0].SessionID)
	assert.Equal(t, clock.t, fx.Commands[0].At)

	clock.t = clock.t.Add(2 * time.Hour)
	e.Start()
	fx = e.Drain()
	require.Len(t, fx.Commands, 1)
	assert.Equal(t, CommandResume, fx.Commands[0].Type)
	assert.Equal(t, clock.t, fx.Commands[0].At)
}

func TestEngine_NoOps(t *testing.T) {
	e, _ := newTestEngine(t, fiftyTen)

	e.Pause()
	e.Tick()
	assert.Equal(t, PhaseIdle, e.Phase())
	assert.Equal(t, 3000, e.Remaining())

	e.Start()
	_ = e.Drain()
	e.Start()
	assert.True(t, e.Drain().Empty(), "start while running is a no-op")
}

func TestEngine_Reset(t *testing.T) {
	t.Run("aborts in-flight interval", func(t *testing.T) {
		e, clock := newTestEngine(t, fiftyTen)
		e.Start()
		for i := 0; i < 30; i++ {
			e.Tick()
		}
		clock.t = clock.t.Add(30 * time.Second)
		id := e.Current().ID

		e.Reset()

		assert.Equal(t, PhaseIdle, e.Phase())
		assert.Equal(t, KindWork, e.Kind())
		assert.Equal(t, 3000, e.Remaining())
		assert.Nil(t, e.Current())

		fx := e.Drain()
		require.Len(t, fx.Commands, 2)
		finish := fx.Commands[1]
		assert.Equal(t, CommandFinish, finish.Type)
		assert.Equal(t, id, finish.SessionID)
		assert.False(t, finish.Completed)
		assert.Equal(t, clock.t, finish.EndTime)
		assert.Empty(t, fx.Events)
	})

	t.Run("idle reset keeps kind", func(t *testing.T) {
		e, _ := newTestEngine(t, fiftyTen)
		e.Skip()
		_ = e.Drain()

		e.Reset()

		assert.Equal(t, KindShortBreak, e.Kind())
		assert.Equal(t, 600, e.Remaining())
		assert.True(t, e.Drain().Empty())
	})
}

func TestEngine_SwitchMode(t *testing.T) {
	thirty := Mode{WorkMinutes: 30, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsPerCycle: 4}

	setups := map[string]func(e *Engine, c *fakeClock){
		"idle":          func(e *Engine, c *fakeClock) {},
		"running":       func(e *Engine, c *fakeClock) { e.Start(); e.Tick() },
		"paused":        func(e *Engine, c *fakeClock) { e.Start(); e.Tick(); e.Pause() },
		"on long break": func(e *Engine, c *fakeClock) { e.cyclePosition = 4; runOut(e, c); e.Start() },
		"mid cycle":     func(e *Engine, c *fakeClock) { runOut(e, c); runOut(e, c); runOut(e, c) },
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			e, clock := newTestEngine(t, fiftyTen)
			setup(e, clock)
			inFlight := e.Current() != nil
			_ = e.Drain()

			require.NoError(t, e.SwitchMode(thirty))

			assert.Equal(t, PhaseIdle, e.Phase())
			assert.Equal(t, KindWork, e.Kind())
			assert.Equal(t, 1, e.CyclePosition())
			assert.Equal(t, 30*60, e.Remaining())
			assert.Equal(t, thirty, e.Mode())

			fx := e.Drain()
			if inFlight {
				require.Len(t, fx.Commands, 1)
				assert.False(t, fx.Commands[0].Completed)
			} else {
				assert.Empty(t, fx.Commands)
			}
		})
	}
}

func TestEngine_SwitchModeInvalidKeepsState(t *testing.T) {
	e, _ := newTestEngine(t, fiftyTen)
	e.Start()
	e.Tick()

	err := e.SwitchMode(Mode{WorkMinutes: -5, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsPerCycle: 4})

	require.Error(t, err)
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, PhaseRunning, e.Phase())
	assert.Equal(t, fiftyTen, e.Mode())
	assert.Equal(t, 2999, e.Remaining())
}

func TestEngine_AttachTaskLabelsIntervals(t *testing.T) {
	e, _ := newTestEngine(t, fiftyTen)
	task := "task-9"
	e.AttachTask(&task)
	e.SetOrigin("main", "abc1234")

	e.Start()
	e.Skip()

	fx := e.Drain()
	require.Len(t, fx.Commands, 2)
	require.NotNil(t, fx.Commands[0].TaskID)
	assert.Equal(t, "task-9", *fx.Commands[0].TaskID)
	assert.Equal(t, "main", fx.Commands[0].GitBranch)
	require.Len(t, fx.Events, 1)
	require.NotNil(t, fx.Events[0].TaskID)
}

func TestEngine_Restore(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	t.Run("running session keeps running on wall clock", func(t *testing.T) {
		e, _ := newTestEngine(t, fiftyTen)
		s, _ := domain.NewSession("sess-1", "user-1", domain.SessionTypeWork, 50, start)

		ok := e.Restore(s, start.Add(20*time.Minute))

		require.True(t, ok)
		assert.Equal(t, PhaseRunning, e.Phase())
		assert.Equal(t, KindWork, e.Kind())
		assert.Equal(t, 30*60, e.Remaining())
		assert.Equal(t, "sess-1", e.Snapshot().SessionID)
		assert.True(t, e.Drain().Empty())
	})

	t.Run("paused session stays paused however long ago", func(t *testing.T) {
		e, _ := newTestEngine(t, fiftyTen)
		s, _ := domain.NewSession("sess-p", "user-1", domain.SessionTypeWork, 50, start)
		s.Pause(start.Add(time.Minute))

		ok := e.Restore(s, start.Add(2*time.Hour))

		require.True(t, ok)
		assert.Equal(t, PhasePaused, e.Phase())
		assert.Equal(t, 49*60, e.Remaining())
		assert.True(t, e.Drain().Empty(), "nothing is completed")

		e.Start()
		assert.Equal(t, PhaseRunning, e.Phase())
		fx := e.Drain()
		require.Len(t, fx.Commands, 1, "resuming a restored interval creates no record")
		assert.Equal(t, CommandResume, fx.Commands[0].Type)
		assert.Equal(t, "sess-p", fx.Commands[0].SessionID)
	})

	t.Run("earlier pauses do not count as elapsed", func(t *testing.T) {
		e, _ := newTestEngine(t, fiftyTen)
		s, _ := domain.NewSession("sess-r", "user-1", domain.SessionTypeWork, 50, start)
		s.Pause(start.Add(10 * time.Minute))
		s.Resume(start.Add(70 * time.Minute))

		require.True(t, e.Restore(s, start.Add(80*time.Minute)))
		assert.Equal(t, PhaseRunning, e.Phase())
		assert.Equal(t, 30*60, e.Remaining())
	})

	t.Run("restores cycle position", func(t *testing.T) {
		e, _ := newTestEngine(t, fiftyTen)
		s, _ := domain.NewSession("sess-c", "user-1", domain.SessionTypeWork, 50, start)
		s.CyclePosition = 4

		require.True(t, e.Restore(s, start.Add(time.Minute)))
		assert.Equal(t, 4, e.CyclePosition())

		e.Skip()
		assert.Equal(t, KindLongBreak, e.Kind(), "the fourth work interval leads to a long break")
	})

	t.Run("ignores out of range cycle position", func(t *testing.T) {
		e, _ := newTestEngine(t, fiftyTen)
		s, _ := domain.NewSession("sess-o", "user-1", domain.SessionTypeWork, 50, start)
		s.CyclePosition = 9

		require.True(t, e.Restore(s, start.Add(time.Minute)))
		assert.Equal(t, 1, e.CyclePosition())
	})

	t.Run("completes expired session", func(t *testing.T) {
		e, _ := newTestEngine(t, fiftyTen)
		s, _ := domain.NewSession("sess-2", "user-1", domain.SessionTypeWork, 50, start)

		ok := e.Restore(s, start.Add(2*time.Hour))

		require.True(t, ok)
		assert.Equal(t, PhaseIdle, e.Phase())
		assert.Equal(t, KindShortBreak, e.Kind())
		fx := e.Drain()
		require.Len(t, fx.Commands, 1)
		assert.True(t, fx.Commands[0].Completed)
		assert.Equal(t, s.PlannedEnd(), fx.Commands[0].EndTime)
	})

	t.Run("long break by duration", func(t *testing.T) {
		e, _ := newTestEngine(t, fiftyTen)
		s, _ := domain.NewSession("sess-3", "user-1", domain.SessionTypeBreak, 30, start)

		require.True(t, e.Restore(s, start.Add(time.Minute)))
		assert.Equal(t, KindLongBreak, e.Kind())
	})

	t.Run("rejects other users and closed sessions", func(t *testing.T) {
		e, _ := newTestEngine(t, fiftyTen)
		other, _ := domain.NewSession("x", "someone-else", domain.SessionTypeWork, 50, start)
		assert.False(t, e.Restore(other, start))

		closed, _ := domain.NewSession("y", "user-1", domain.SessionTypeWork, 50, start)
		closed.Finish(false, start)
		assert.False(t, e.Restore(closed, start))
	})
}

func TestEngine_Snapshot(t *testing.T) {
	e, _ := newTestEngine(t, fiftyTen)
	e.Start()
	for i := 0; i < 1500; i++ {
		e.Tick()
	}

	snap := e.Snapshot()

	assert.Equal(t, PhaseRunning, snap.Phase)
	assert.Equal(t, 1500, snap.RemainingSeconds)
	assert.Equal(t, 3000, snap.PlannedSeconds)
	assert.InDelta(t, 0.5, snap.Progress, 1e-9)
	assert.Equal(t, 4, snap.SessionsPerCycle)
	assert.Equal(t, "iv-1", snap.SessionID)
	assert.Equal(t, 25*time.Minute, snap.Remaining())
}
