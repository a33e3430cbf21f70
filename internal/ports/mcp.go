package ports

import (
	"context"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/engine"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// MCPStateProvider exposes one user's timer, board and analytics to the
// MCP server. This is a driven port (implemented by services layer).
type MCPStateProvider interface {
	// TimerState returns the current engine projection.
	TimerState(ctx context.Context) (engine.Snapshot, error)

	// TimerCommand applies a command and returns the new projection.
	TimerCommand(ctx context.Context, cmd TimerCommand) (engine.Snapshot, error)

	// ListTasks returns tasks, optionally filtered by status.
	ListTasks(ctx context.Context, status *domain.TaskStatus) ([]*domain.Task, error)

	// CreateTask adds a todo task.
	CreateTask(ctx context.Context, title, description string, priority domain.TaskPriority, estimated int) (*domain.Task, error)

	// MoveTask changes a task's kanban column.
	MoveTask(ctx context.Context, taskID string, status domain.TaskStatus) (*domain.Task, error)

	// LogDistraction records a distraction against the active session.
	LogDistraction(ctx context.Context, category domain.DistractionCategory, description string) (*domain.Distraction, error)

	// Stats returns all-time session analytics.
	Stats(ctx context.Context) (domain.SessionStats, error)

	// Heatmap returns completed sessions per day of year.
	Heatmap(ctx context.Context, year int) (map[string]int, error)
}
