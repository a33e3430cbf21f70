package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvierd/focusflow/internal/engine"
)

type recordingApplier struct {
	mu      sync.Mutex
	applied []engine.Command
	fail    bool
}

func (r *recordingApplier) Apply(_ context.Context, cmd engine.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, cmd)
	if r.fail {
		return errors.New("disk full")
	}
	return nil
}

func (r *recordingApplier) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.applied))
	for i, c := range r.applied {
		out[i] = c.SessionID
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPersistenceWorker_AppliesInOrder(t *testing.T) {
	applier := &recordingApplier{}
	w := NewPersistenceWorker(applier, 8, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	for _, id := range []string{"a", "b", "c"} {
		w.Dispatch(engine.Command{Type: engine.CommandCreate, SessionID: id})
	}
	w.Close()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not drain after Close")
	}
	assert.Equal(t, []string{"a", "b", "c"}, applier.ids())

	// Dispatch after Close is dropped without panicking.
	w.Dispatch(engine.Command{SessionID: "late"})
	w.Close()
}

func TestPersistenceWorker_DropsWhenFull(t *testing.T) {
	applier := &recordingApplier{}
	w := NewPersistenceWorker(applier, 1, quietLogger())

	w.Dispatch(engine.Command{SessionID: "kept"})
	w.Dispatch(engine.Command{SessionID: "dropped"})
	w.Close()

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, []string{"kept"}, applier.ids())
}

func TestPersistenceWorker_FailuresDoNotStop(t *testing.T) {
	applier := &recordingApplier{fail: true}
	w := NewPersistenceWorker(applier, 4, quietLogger())

	w.Dispatch(engine.Command{SessionID: "x"})
	w.Dispatch(engine.Command{SessionID: "y"})
	w.Close()

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, []string{"x", "y"}, applier.ids())
}

func TestPersistenceWorker_StopsOnCancel(t *testing.T) {
	w := NewPersistenceWorker(&recordingApplier{}, 4, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Run(ctx), context.Canceled)
}

func TestInlineDispatcher(t *testing.T) {
	applier := &recordingApplier{fail: true}
	d := NewInlineDispatcher(applier, quietLogger())
	d.Dispatch(engine.Command{SessionID: "now"})
	assert.Equal(t, []string{"now"}, applier.ids())
}

// gatedApplier holds every Apply until the gate is opened.
type gatedApplier struct {
	recordingApplier
	gate chan struct{}
}

func (g *gatedApplier) Apply(ctx context.Context, cmd engine.Command) error {
	<-g.gate
	return g.recordingApplier.Apply(ctx, cmd)
}

func TestPersistenceWorker_Flush(t *testing.T) {
	applier := &gatedApplier{gate: make(chan struct{})}
	w := NewPersistenceWorker(applier, 8, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, w.Flush(ctx), "an empty queue flushes at once")

	w.Dispatch(engine.Command{SessionID: "a"})
	w.Dispatch(engine.Command{SessionID: "b"})

	short, stop := context.WithTimeout(ctx, 20*time.Millisecond)
	defer stop()
	assert.ErrorIs(t, w.Flush(short), context.DeadlineExceeded, "flush waits for held commands")

	flushed := make(chan error, 1)
	go func() { flushed <- w.Flush(ctx) }()
	close(applier.gate)

	select {
	case err := <-flushed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("flush did not return once the backlog was applied")
	}
	assert.Equal(t, []string{"a", "b"}, applier.ids())
}
