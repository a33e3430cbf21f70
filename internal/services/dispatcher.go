package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/xvierd/focusflow/internal/engine"
)

// DefaultQueueSize is the persistence queue length used when none is
// configured.
const DefaultQueueSize = 256

// CommandApplier persists engine commands. SessionGateway implements it.
type CommandApplier interface {
	Apply(ctx context.Context, cmd engine.Command) error
}

// Dispatcher accepts engine commands without blocking the caller.
type Dispatcher interface {
	Dispatch(cmd engine.Command)
}

// Flusher is implemented by dispatchers that apply commands later. Flush
// returns once every command dispatched before the call is applied.
type Flusher interface {
	Flush(ctx context.Context) error
}

// InlineDispatcher applies commands on the calling goroutine. Failures are
// logged only.
type InlineDispatcher struct {
	applier CommandApplier
	logger  *slog.Logger
}

// NewInlineDispatcher creates a synchronous dispatcher.
func NewInlineDispatcher(applier CommandApplier, logger *slog.Logger) *InlineDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &InlineDispatcher{applier: applier, logger: logger}
}

// Dispatch implements Dispatcher.
func (d *InlineDispatcher) Dispatch(cmd engine.Command) {
	if err := d.applier.Apply(context.Background(), cmd); err != nil {
		logApplyError(d.logger, cmd, err)
	}
}

// PersistenceWorker applies commands from a buffered queue on a single
// goroutine, so commands for a session are applied in emission order.
type PersistenceWorker struct {
	applier CommandApplier
	logger  *slog.Logger
	queue   chan engine.Command
	done    chan struct{}

	mu     sync.RWMutex
	closed bool

	// pending counts queued commands not yet applied. idle is closed
	// whenever pending drops to zero.
	pendingMu sync.Mutex
	pending   int
	idle      chan struct{}
}

// NewPersistenceWorker creates a worker with the given queue size.
func NewPersistenceWorker(applier CommandApplier, size int, logger *slog.Logger) *PersistenceWorker {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	idle := make(chan struct{})
	close(idle)
	return &PersistenceWorker{
		applier: applier,
		logger:  logger,
		queue:   make(chan engine.Command, size),
		done:    make(chan struct{}),
		idle:    idle,
	}
}

// Dispatch enqueues cmd. A full or closed queue drops the command.
func (w *PersistenceWorker) Dispatch(cmd engine.Command) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.logger.Warn("persistence worker closed, command dropped",
			"type", cmd.Type, "session_id", cmd.SessionID)
		return
	}

	w.track(1)
	select {
	case w.queue <- cmd:
	default:
		w.track(-1)
		w.logger.Error("persistence queue full, command dropped",
			"type", cmd.Type, "session_id", cmd.SessionID, "user_id", cmd.UserID)
	}
}

func (w *PersistenceWorker) track(delta int) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if w.pending == 0 && delta > 0 {
		w.idle = make(chan struct{})
	}
	w.pending += delta
	if w.pending == 0 {
		close(w.idle)
	}
}

// Flush waits until every command dispatched so far has been applied, the
// worker stops, or ctx is done.
func (w *PersistenceWorker) Flush(ctx context.Context) error {
	w.pendingMu.Lock()
	idle := w.idle
	w.pendingMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies queued commands until the queue is closed and drained or
// ctx is cancelled.
func (w *PersistenceWorker) Run(ctx context.Context) error {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-w.queue:
			if !ok {
				return nil
			}
			if err := w.applier.Apply(ctx, cmd); err != nil {
				logApplyError(w.logger, cmd, err)
			}
			w.track(-1)
		}
	}
}

// Close stops accepting commands. Run returns once the backlog is applied.
func (w *PersistenceWorker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	close(w.queue)
}

// Done is closed when Run returns.
func (w *PersistenceWorker) Done() <-chan struct{} {
	return w.done
}

func logApplyError(logger *slog.Logger, cmd engine.Command, err error) {
	logger.Error("session persistence failed",
		"type", cmd.Type,
		"session_id", cmd.SessionID,
		"user_id", cmd.UserID,
		"error", err,
	)
}
