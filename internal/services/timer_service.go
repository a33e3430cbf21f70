package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/engine"
	"github.com/xvierd/focusflow/internal/ports"
)

// Update is pushed to timer subscribers. Event is set when the update was
// caused by an interval transition.
type Update struct {
	Snapshot engine.Snapshot `json:"snapshot"`
	Event    *engine.Event   `json:"event,omitempty"`
}

// timerEntry guards one user's engine.
type timerEntry struct {
	mu  sync.Mutex
	eng *engine.Engine
}

// TimerService owns one authoritative engine per user. Commands, ticks and
// restores for a user are serialized on that user's entry.
type TimerService struct {
	storage    ports.Storage
	gateway    *SessionGateway
	dispatcher Dispatcher
	notifiers  []ports.Notifier
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string

	mu      sync.Mutex
	entries map[string]*timerEntry

	subMu  sync.RWMutex
	subs   map[string]map[int]chan Update
	nextID int
}

// NewTimerService creates a timer service. Commands drained from engines
// go to dispatcher.
func NewTimerService(storage ports.Storage, gateway *SessionGateway, dispatcher Dispatcher, logger *slog.Logger) *TimerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimerService{
		storage:    storage,
		gateway:    gateway,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		entries:    make(map[string]*timerEntry),
		subs:       make(map[string]map[int]chan Update),
	}
}

// AddNotifier registers a transition sink.
func (s *TimerService) AddNotifier(n ports.Notifier) {
	s.notifiers = append(s.notifiers, n)
}

// SetClock overrides the time source for engines created afterwards.
func (s *TimerService) SetClock(now func() time.Time) {
	s.now = now
}

// SetIDGenerator overrides interval IDs for engines created afterwards.
func (s *TimerService) SetIDGenerator(next func() string) {
	s.newID = next
}

// entry returns userID's engine, building it from the user's settings and
// active session on first use.
func (s *TimerService) entry(ctx context.Context, userID string) (*timerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[userID]; ok {
		return e, nil
	}

	user, err := s.storage.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{engine.WithClock(s.now)}
	if s.newID != nil {
		opts = append(opts, engine.WithIDs(s.newID))
	}
	eng, err := engine.New(userID, engine.ModeFromSettings(user.Settings.WithDefaults()), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build timer: %w", err)
	}

	active, err := s.gateway.GetActiveSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	restored := active != nil && eng.Restore(active, s.now())

	e := &timerEntry{eng: eng}
	s.entries[userID] = e

	if restored {
		s.logger.Info("timer restored", "user_id", userID, "session_id", active.ID, "phase", eng.Phase())
		// An expired session completes on restore and leaves effects to flush.
		e.mu.Lock()
		s.release(ctx, e)
	}
	return e, nil
}

// do runs fn against userID's engine and flushes what it produced.
func (s *TimerService) do(ctx context.Context, userID string, fn func(*engine.Engine) error) (engine.Snapshot, error) {
	e, err := s.entry(ctx, userID)
	if err != nil {
		return engine.Snapshot{}, err
	}

	e.mu.Lock()
	if err := fn(e.eng); err != nil {
		e.mu.Unlock()
		return engine.Snapshot{}, err
	}
	return s.release(ctx, e), nil
}

// release drains the engine, dispatches its commands and unlocks the
// entry. Notifiers and subscribers run after the lock is released.
func (s *TimerService) release(ctx context.Context, e *timerEntry) engine.Snapshot {
	snap := e.eng.Snapshot()
	effects := e.eng.Drain()
	for _, cmd := range effects.Commands {
		s.dispatcher.Dispatch(cmd)
	}
	e.mu.Unlock()

	for i := range effects.Events {
		ev := effects.Events[i]
		s.notify(ctx, ev)
		s.publish(snap.UserID, Update{Snapshot: snap, Event: &ev})
	}
	if len(effects.Events) == 0 {
		s.publish(snap.UserID, Update{Snapshot: snap})
	}
	return snap
}

func (s *TimerService) notify(ctx context.Context, ev engine.Event) {
	for _, n := range s.notifiers {
		if err := n.Notify(ctx, ev); err != nil {
			s.logger.Warn("notification failed", "user_id", ev.UserID, "error", err)
		}
	}
}

// Snapshot returns userID's current timer projection.
func (s *TimerService) Snapshot(ctx context.Context, userID string) (engine.Snapshot, error) {
	e, err := s.entry(ctx, userID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.eng.Snapshot(), nil
}

// Command applies a start, pause, skip or reset.
func (s *TimerService) Command(ctx context.Context, userID string, cmd ports.TimerCommand) (engine.Snapshot, error) {
	return s.do(ctx, userID, func(eng *engine.Engine) error {
		switch cmd {
		case ports.CmdStart:
			eng.Start()
		case ports.CmdPause:
			eng.Pause()
		case ports.CmdSkip:
			eng.Skip()
		case ports.CmdReset:
			eng.Reset()
		default:
			return &domain.ValidationError{Field: "command", Reason: fmt.Sprintf("unknown timer command %q", cmd)}
		}
		return nil
	})
}

// Start starts or resumes userID's timer.
func (s *TimerService) Start(ctx context.Context, userID string) (engine.Snapshot, error) {
	return s.Command(ctx, userID, ports.CmdStart)
}

// Pause pauses userID's timer.
func (s *TimerService) Pause(ctx context.Context, userID string) (engine.Snapshot, error) {
	return s.Command(ctx, userID, ports.CmdPause)
}

// Skip ends the loaded interval without completing it.
func (s *TimerService) Skip(ctx context.Context, userID string) (engine.Snapshot, error) {
	return s.Command(ctx, userID, ports.CmdSkip)
}

// Reset reloads the current kind at full length.
func (s *TimerService) Reset(ctx context.Context, userID string) (engine.Snapshot, error) {
	return s.Command(ctx, userID, ports.CmdReset)
}

// SwitchMode replaces userID's rotation configuration.
func (s *TimerService) SwitchMode(ctx context.Context, userID string, mode engine.Mode) (engine.Snapshot, error) {
	return s.do(ctx, userID, func(eng *engine.Engine) error {
		return eng.SwitchMode(mode)
	})
}

// AttachTask links future intervals to one of userID's tasks. A nil or
// empty id detaches.
func (s *TimerService) AttachTask(ctx context.Context, userID string, taskID *string) (engine.Snapshot, error) {
	if taskID != nil && *taskID != "" {
		if _, err := ownedTask(ctx, s.storage, userID, *taskID); err != nil {
			return engine.Snapshot{}, err
		}
	}
	return s.do(ctx, userID, func(eng *engine.Engine) error {
		eng.AttachTask(taskID)
		return nil
	})
}

// ForgetTask detaches taskID from userID's timer if it is attached. It is
// meant to run when the task is deleted, and does nothing for users whose
// timer was never loaded.
func (s *TimerService) ForgetTask(ctx context.Context, userID, taskID string) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	if attached := e.eng.Snapshot().TaskID; attached == nil || *attached != taskID {
		e.mu.Unlock()
		return
	}
	e.eng.AttachTask(nil)
	s.release(ctx, e)
	s.logger.Info("deleted task detached from timer", "user_id", userID, "task_id", taskID)
}

// ActiveSessionID returns the session of userID's in-flight interval, or
// "" when the timer is idle. Queued session writes are applied first, so
// the returned session exists in storage.
func (s *TimerService) ActiveSessionID(ctx context.Context, userID string) (string, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return "", err
	}
	if f, ok := s.dispatcher.(Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			return "", fmt.Errorf("failed to flush session writes: %w", err)
		}
	}
	return snap.SessionID, nil
}

// SetOrigin labels future intervals with repository state.
func (s *TimerService) SetOrigin(ctx context.Context, userID, branch, commit string) error {
	_, err := s.do(ctx, userID, func(eng *engine.Engine) error {
		eng.SetOrigin(branch, commit)
		return nil
	})
	return err
}

// TickAll advances every running engine by one second.
func (s *TimerService) TickAll(ctx context.Context) {
	s.mu.Lock()
	entries := make([]*timerEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		if e.eng.Phase() != engine.PhaseRunning {
			e.mu.Unlock()
			continue
		}
		e.eng.Tick()
		s.release(ctx, e)
	}
}

// Run ticks running engines once per interval until ctx is cancelled.
func (s *TimerService) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.TickAll(ctx)
		}
	}
}

// Subscribe returns a channel of updates for userID and a func that
// cancels the subscription. Slow readers miss updates.
func (s *TimerService) Subscribe(userID string, buffer int) (<-chan Update, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Update, buffer)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[int]chan Update)
	}
	s.subs[userID][id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs[userID], id)
			if len(s.subs[userID]) == 0 {
				delete(s.subs, userID)
			}
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *TimerService) publish(userID string, u Update) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for _, ch := range s.subs[userID] {
		select {
		case ch <- u:
		default:
		}
	}
}
