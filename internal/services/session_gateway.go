package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/engine"
	"github.com/xvierd/focusflow/internal/ports"
)

// SessionGateway is the only path through which session records are
// created and closed.
type SessionGateway struct {
	storage ports.Storage
	logger  *slog.Logger
}

// NewSessionGateway creates a new session gateway.
func NewSessionGateway(storage ports.Storage, logger *slog.Logger) *SessionGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionGateway{storage: storage, logger: logger}
}

// CreateSessionRequest contains the data needed to open a session record.
type CreateSessionRequest struct {
	ID        string             `json:"id,omitempty"`
	UserID    string             `json:"-"`
	Type      domain.SessionType `json:"type"`
	Duration  int                `json:"duration"`
	StartTime time.Time          `json:"startTime"`
	TaskID    *string            `json:"taskId,omitempty"`
	GitBranch string             `json:"-"`
	GitCommit string             `json:"-"`

	CyclePosition int `json:"cyclePosition,omitempty"`
}

// CreateSession opens a new session record for req.UserID.
func (g *SessionGateway) CreateSession(ctx context.Context, req CreateSessionRequest) (*domain.Session, error) {
	session, err := domain.NewSession(req.ID, req.UserID, req.Type, req.Duration, req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}

	if req.TaskID != nil && *req.TaskID != "" {
		if _, err := ownedTask(ctx, g.storage, req.UserID, *req.TaskID); err != nil {
			return nil, err
		}
		session.TaskID = req.TaskID
	}
	session.GitBranch = req.GitBranch
	session.GitCommit = req.GitCommit
	session.CyclePosition = req.CyclePosition

	if err := g.storage.Sessions().Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// UpdateSession applies upd to one of userID's sessions. The first time
// a work session linked to a task is completed, the task's completed
// session count goes up by one.
func (g *SessionGateway) UpdateSession(ctx context.Context, userID, id string, upd domain.SessionUpdate) (*domain.Session, error) {
	session, err := g.storage.Sessions().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, &domain.NotFoundError{Entity: "session", ID: id}
	}

	wasCompleted := session.Completed
	upd.Apply(session)

	if err := g.storage.Sessions().Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if !wasCompleted && session.Completed && session.IsWork() && session.TaskID != nil {
		if err := g.recordTaskSession(ctx, *session.TaskID); err != nil {
			g.logger.Warn("task progress not recorded", "task_id", *session.TaskID, "error", err)
		}
	}

	return session, nil
}

// GetActiveSession returns userID's open session, or nil when none.
func (g *SessionGateway) GetActiveSession(ctx context.Context, userID string) (*domain.Session, error) {
	session, err := g.storage.Sessions().FindActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active sessions: %w", err)
	}
	return session, nil
}

// ListSessions returns userID's sessions newest first.
func (g *SessionGateway) ListSessions(ctx context.Context, userID string, filter domain.SessionFilter) ([]*domain.Session, error) {
	return g.storage.Sessions().FindByUser(ctx, userID, filter)
}

// Apply persists one engine command.
func (g *SessionGateway) Apply(ctx context.Context, cmd engine.Command) error {
	switch cmd.Type {
	case engine.CommandCreate:
		req := CreateSessionRequest{
			ID:        cmd.SessionID,
			UserID:    cmd.UserID,
			Type:      cmd.Kind.SessionType(),
			Duration:  cmd.DurationMinutes,
			StartTime: cmd.StartTime,
			TaskID:    cmd.TaskID,
			GitBranch: cmd.GitBranch,
			GitCommit: cmd.GitCommit,

			CyclePosition: cmd.CyclePosition,
		}
		if req.TaskID != nil && *req.TaskID != "" {
			// A task deleted while attached must not cost the interval
			// its record.
			if _, err := ownedTask(ctx, g.storage, req.UserID, *req.TaskID); errors.Is(err, domain.ErrNotFound) {
				g.logger.Warn("dropping link to missing task", "session_id", req.ID, "task_id", *req.TaskID)
				req.TaskID = nil
			}
		}
		_, err := g.CreateSession(ctx, req)
		return err
	case engine.CommandFinish:
		completed := cmd.Completed
		end := cmd.EndTime
		_, err := g.UpdateSession(ctx, cmd.UserID, cmd.SessionID, domain.SessionUpdate{
			Completed: &completed,
			EndTime:   &end,
		})
		return err
	case engine.CommandPause:
		at := cmd.At
		_, err := g.UpdateSession(ctx, cmd.UserID, cmd.SessionID, domain.SessionUpdate{PausedAt: &at})
		return err
	case engine.CommandResume:
		at := cmd.At
		_, err := g.UpdateSession(ctx, cmd.UserID, cmd.SessionID, domain.SessionUpdate{ResumedAt: &at})
		return err
	default:
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
}

func (g *SessionGateway) recordTaskSession(ctx context.Context, taskID string) error {
	task, err := g.storage.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	task.RecordSession()
	return g.storage.Tasks().Update(ctx, task)
}

// ownedTask loads a task and hides tasks that belong to someone else.
func ownedTask(ctx context.Context, storage ports.Storage, userID, taskID string) (*domain.Task, error) {
	task, err := storage.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, &domain.NotFoundError{Entity: "task", ID: taskID}
	}
	return task, nil
}
