// Package ports defines the interfaces (driven and driving ports)
// for the FocusFlow application following hexagonal architecture principles.
// These interfaces define the contracts between the domain layer and
// external infrastructure.
package ports

import (
	"context"

	"github.com/xvierd/focusflow/internal/domain"
)

// UserRepository defines the interface for account persistence.
// This is a driven port (implemented by adapters).
type UserRepository interface {
	// Save persists a new user. Returns domain.ErrUserExists when the
	// email is already registered.
	Save(ctx context.Context, user *domain.User) error

	// FindByID retrieves a user by its unique identifier.
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// FindByEmail retrieves a user by normalized email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateSettings replaces a user's timer settings.
	UpdateSettings(ctx context.Context, id string, settings domain.TimerSettings) error
}

// SessionRepository defines the interface for focus session persistence.
// This is a driven port (implemented by adapters).
type SessionRepository interface {
	// Save persists a session to storage.
	Save(ctx context.Context, session *domain.Session) error

	// FindByID retrieves a session by its unique identifier.
	FindByID(ctx context.Context, id string) (*domain.Session, error)

	// FindActive returns the user's most recent session that is neither
	// completed nor closed. Returns nil, nil when there is none.
	FindActive(ctx context.Context, userID string) (*domain.Session, error)

	// FindByUser returns the user's sessions newest first.
	FindByUser(ctx context.Context, userID string, filter domain.SessionFilter) ([]*domain.Session, error)

	// FindByTask returns sessions linked to a task, newest first.
	FindByTask(ctx context.Context, taskID string) ([]*domain.Session, error)

	// Update modifies an existing session.
	Update(ctx context.Context, session *domain.Session) error

	// IncrementDistractions bumps the distraction counter of a session.
	IncrementDistractions(ctx context.Context, id string) error
}

// TaskRepository defines the interface for kanban task persistence.
// This is a driven port (implemented by adapters).
type TaskRepository interface {
	// Save persists a task to storage.
	Save(ctx context.Context, task *domain.Task) error

	// FindByID retrieves a task by its unique identifier.
	FindByID(ctx context.Context, id string) (*domain.Task, error)

	// FindByUser returns the user's tasks newest first, optionally
	// filtered by status.
	FindByUser(ctx context.Context, userID string, status *domain.TaskStatus) ([]*domain.Task, error)

	// Search fuzzy-matches the user's task titles, best match first.
	Search(ctx context.Context, userID, query string) ([]*domain.Task, error)

	// Update modifies an existing task.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from storage.
	Delete(ctx context.Context, id string) error
}

// DistractionRepository defines the interface for distraction logging.
// This is a driven port (implemented by adapters).
type DistractionRepository interface {
	// Save persists a distraction.
	Save(ctx context.Context, d *domain.Distraction) error

	// FindBySession returns a session's distractions newest first.
	FindBySession(ctx context.Context, sessionID string) ([]*domain.Distraction, error)
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// Users provides access to account operations.
	Users() UserRepository

	// Sessions provides access to session operations.
	Sessions() SessionRepository

	// Tasks provides access to task operations.
	Tasks() TaskRepository

	// Distractions provides access to distraction operations.
	Distractions() DistractionRepository

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
