package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/xvierd/focusflow/internal/domain"
)

// Interval is one countdown period. Its ID doubles as the persisted
// session ID.
type Interval struct {
	ID               string
	Kind             Kind
	PlannedSeconds   int
	RemainingSeconds int
	StartedAt        time.Time
	EndedAt          *time.Time
	Completed        bool
	TaskID           *string
}

// Snapshot is the read-only projection handed to presentation layers.
type Snapshot struct {
	UserID           string  `json:"userId"`
	Phase            Phase   `json:"phase"`
	Kind             Kind    `json:"kind"`
	RemainingSeconds int     `json:"remainingSeconds"`
	PlannedSeconds   int     `json:"plannedSeconds"`
	CyclePosition    int     `json:"cyclePosition"`
	SessionsPerCycle int     `json:"sessionsPerCycle"`
	Progress         float64 `json:"progress"`
	SessionID        string  `json:"sessionId,omitempty"`
	TaskID           *string `json:"taskId,omitempty"`
	Mode             Mode    `json:"mode"`
}

// Remaining returns the countdown as a duration.
func (s Snapshot) Remaining() time.Duration {
	return time.Duration(s.RemainingSeconds) * time.Second
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs overrides interval ID generation.
func WithIDs(next func() string) Option {
	return func(e *Engine) { e.newID = next }
}

// Engine rotates work and break intervals for one user.
type Engine struct {
	userID string
	mode   Mode

	phase         Phase
	kind          Kind
	remaining     int
	cyclePosition int
	current       *Interval

	taskID    *string
	gitBranch string
	gitCommit string

	pending Effects
	now     func() time.Time
	newID   func() string
}

// New returns an idle engine loaded with a work interval.
func New(userID string, mode Mode, opts ...Option) (*Engine, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		userID:        userID,
		mode:          mode,
		phase:         PhaseIdle,
		kind:          KindWork,
		remaining:     mode.DurationFor(KindWork),
		cyclePosition: 1,
		now:           time.Now,
		newID:         func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// UserID returns the owner of the engine.
func (e *Engine) UserID() string { return e.userID }

// Mode returns the active rotation configuration.
func (e *Engine) Mode() Mode { return e.mode }

// Phase returns the countdown state.
func (e *Engine) Phase() Phase { return e.phase }

// Kind returns the interval kind currently loaded.
func (e *Engine) Kind() Kind { return e.kind }

// Remaining returns the seconds left on the loaded interval.
func (e *Engine) Remaining() int { return e.remaining }

// CyclePosition returns the position within the current cycle.
func (e *Engine) CyclePosition() int { return e.cyclePosition }

// Current returns a copy of the in-flight interval, or nil when idle.
func (e *Engine) Current() *Interval {
	if e.current == nil {
		return nil
	}
	iv := *e.current
	return &iv
}

// AttachTask links future intervals to a task. A nil id detaches.
func (e *Engine) AttachTask(taskID *string) {
	if taskID != nil && *taskID == "" {
		taskID = nil
	}
	e.taskID = taskID
}

// SetOrigin labels future intervals with the repository state they ran in.
func (e *Engine) SetOrigin(branch, commit string) {
	e.gitBranch = branch
	e.gitCommit = commit
}

// Start begins a new interval when idle or resumes a paused one.
func (e *Engine) Start() {
	switch e.phase {
	case PhaseRunning:
		return
	case PhasePaused:
		e.phase = PhaseRunning
		e.record(CommandResume)
		return
	}

	now := e.now()
	planned := e.mode.DurationFor(e.kind)
	e.current = &Interval{
		ID:               e.newID(),
		Kind:             e.kind,
		PlannedSeconds:   planned,
		RemainingSeconds: planned,
		StartedAt:        now,
		TaskID:           e.taskID,
	}
	e.remaining = planned
	e.phase = PhaseRunning

	e.pending.Commands = append(e.pending.Commands, Command{
		Type:            CommandCreate,
		SessionID:       e.current.ID,
		UserID:          e.userID,
		Kind:            e.kind,
		DurationMinutes: e.mode.Minutes(e.kind),
		StartTime:       now,
		TaskID:          e.taskID,
		GitBranch:       e.gitBranch,
		GitCommit:       e.gitCommit,
		CyclePosition:   e.cyclePosition,
	})
}

// Pause freezes a running countdown.
func (e *Engine) Pause() {
	if e.phase == PhaseRunning {
		e.phase = PhasePaused
		e.record(CommandPause)
	}
}

// record queues a pause or resume of the in-flight interval.
func (e *Engine) record(t CommandType) {
	if e.current == nil {
		return
	}
	e.pending.Commands = append(e.pending.Commands, Command{
		Type:      t,
		SessionID: e.current.ID,
		UserID:    e.userID,
		At:        e.now(),
	})
}

// Tick advances a running countdown by one second.
func (e *Engine) Tick() {
	if e.phase != PhaseRunning {
		return
	}
	if e.remaining > 0 {
		e.remaining--
	}
	if e.current != nil {
		e.current.RemainingSeconds = e.remaining
	}
	if e.remaining == 0 {
		e.completeInterval(false, e.now())
	}
}

// Skip ends the loaded interval immediately. A skipped interval is never
// recorded as completed.
func (e *Engine) Skip() {
	e.completeInterval(true, e.now())
}

// Reset reloads the current kind at full length. An in-flight interval is
// closed as not completed.
func (e *Engine) Reset() {
	e.abort(e.now())
	e.phase = PhaseIdle
	e.remaining = e.mode.DurationFor(e.kind)
}

// SwitchMode replaces the configuration and returns to an idle work
// interval at the start of a cycle. Invalid modes leave the engine as is.
func (e *Engine) SwitchMode(mode Mode) error {
	if err := mode.Validate(); err != nil {
		return err
	}
	e.abort(e.now())
	e.mode = mode
	e.phase = PhaseIdle
	e.kind = KindWork
	e.cyclePosition = 1
	e.remaining = mode.DurationFor(KindWork)
	return nil
}

// Restore rebuilds in-flight state from a persisted active session, for
// example after a restart. Paused time never counts against the interval.
// A session that was paused comes back paused with the time it had left.
// A running session keeps running on wall-clock time, and completes
// naturally if its planned length has already elapsed. It returns false
// when the engine already has an interval in flight or the session cannot
// be resumed.
func (e *Engine) Restore(s *domain.Session, now time.Time) bool {
	if e.current != nil || s == nil || !s.IsActive() || s.UserID != e.userID {
		return false
	}

	kind := KindWork
	if s.Type == domain.SessionTypeBreak {
		kind = KindShortBreak
		if s.Duration == e.mode.LongBreakMinutes && s.Duration != e.mode.ShortBreakMinutes {
			kind = KindLongBreak
		}
	}

	planned := s.Duration * 60
	remaining := planned - int(s.Elapsed(now)/time.Second)
	if remaining < 0 {
		remaining = 0
	}

	e.kind = kind
	if s.CyclePosition >= 1 && s.CyclePosition <= e.mode.SessionsPerCycle {
		e.cyclePosition = s.CyclePosition
	}
	e.current = &Interval{
		ID:               s.ID,
		Kind:             kind,
		PlannedSeconds:   planned,
		RemainingSeconds: remaining,
		StartedAt:        s.StartTime,
		TaskID:           s.TaskID,
	}
	e.taskID = s.TaskID
	e.remaining = remaining
	e.phase = PhaseRunning

	switch {
	case remaining == 0:
		end := s.PlannedEnd()
		if s.PausedAt != nil {
			end = *s.PausedAt
		}
		e.completeInterval(false, end)
	case s.IsPaused():
		e.phase = PhasePaused
	}
	return true
}

// Snapshot projects the current state.
func (e *Engine) Snapshot() Snapshot {
	planned := e.mode.DurationFor(e.kind)
	if e.current != nil {
		planned = e.current.PlannedSeconds
	}
	progress := 0.0
	if planned > 0 {
		progress = 1 - float64(e.remaining)/float64(planned)
	}
	snap := Snapshot{
		UserID:           e.userID,
		Phase:            e.phase,
		Kind:             e.kind,
		RemainingSeconds: e.remaining,
		PlannedSeconds:   planned,
		CyclePosition:    e.cyclePosition,
		SessionsPerCycle: e.mode.SessionsPerCycle,
		Progress:         progress,
		TaskID:           e.taskID,
		Mode:             e.mode,
	}
	if e.current != nil {
		snap.SessionID = e.current.ID
	}
	return snap
}

// Drain returns and clears queued commands and events.
func (e *Engine) Drain() Effects {
	out := e.pending
	e.pending = Effects{}
	return out
}

// completeInterval finishes the loaded interval and rotates to the next
// kind, leaving the engine idle.
func (e *Engine) completeInterval(skipped bool, at time.Time) {
	finished := e.kind
	var sessionID string
	var taskID *string

	if e.current != nil {
		end := at
		e.current.EndedAt = &end
		e.current.Completed = !skipped
		sessionID = e.current.ID
		taskID = e.current.TaskID
		e.pending.Commands = append(e.pending.Commands, Command{
			Type:      CommandFinish,
			SessionID: sessionID,
			UserID:    e.userID,
			Completed: !skipped,
			EndTime:   at,
		})
		e.current = nil
	}

	if finished == KindWork {
		if e.cyclePosition >= e.mode.SessionsPerCycle {
			e.kind = KindLongBreak
			e.cyclePosition = 1
		} else {
			e.kind = KindShortBreak
		}
	} else {
		e.kind = KindWork
		if finished == KindShortBreak {
			e.cyclePosition++
		}
	}
	if e.cyclePosition > e.mode.SessionsPerCycle {
		e.cyclePosition = e.mode.SessionsPerCycle
	}

	e.remaining = e.mode.DurationFor(e.kind)
	e.phase = PhaseIdle

	e.pending.Events = append(e.pending.Events, Event{
		UserID:        e.userID,
		SessionID:     sessionID,
		TaskID:        taskID,
		Finished:      finished,
		Next:          e.kind,
		Skipped:       skipped,
		CyclePosition: e.cyclePosition,
		At:            at,
	})
}

// abort closes the in-flight interval without completing it.
func (e *Engine) abort(at time.Time) {
	if e.current == nil {
		return
	}
	end := at
	e.current.EndedAt = &end
	e.pending.Commands = append(e.pending.Commands, Command{
		Type:      CommandFinish,
		SessionID: e.current.ID,
		UserID:    e.userID,
		Completed: false,
		EndTime:   at,
	})
	e.current = nil
}
