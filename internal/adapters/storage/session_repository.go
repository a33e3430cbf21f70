package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/ports"
)

const sessionColumns = `
	id, user_id, task_id, type, duration, start_time, end_time,
	completed, distractions, git_branch, git_commit,
	paused_at, paused_seconds, cycle_position
`

// sessionRepository implements ports.SessionRepository using SQLite.
type sessionRepository struct {
	db *sql.DB
}

// newSessionRepository creates a new session repository.
func newSessionRepository(db *sql.DB) ports.SessionRepository {
	return &sessionRepository{db: db}
}

// Save persists a session to storage.
func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.TaskID,
		string(session.Type),
		session.Duration,
		session.StartTime.UTC(),
		utcPtr(session.EndTime),
		session.Completed,
		session.Distractions,
		session.GitBranch,
		session.GitCommit,
		utcPtr(session.PausedAt),
		session.PausedSeconds,
		session.CyclePosition,
	)
	switch {
	case isUniqueConstraintError(err):
		return fmt.Errorf("session %s already exists: %w", session.ID, domain.ErrConflict)
	case isForeignKeyError(err):
		return &domain.ValidationError{Field: "session", Reason: "unknown user or task"}
	case err != nil:
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// FindByID retrieves a session by its unique identifier.
func (r *sessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`

	session, err := r.scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &domain.NotFoundError{Entity: "session", ID: id}
	}
	return session, nil
}

// FindActive returns the most recent open session for a user.
func (r *sessionRepository) FindActive(ctx context.Context, userID string) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = ? AND completed = 0 AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1
	`

	return r.scanSession(r.db.QueryRowContext(ctx, query, userID))
}

// FindByUser returns a user's sessions newest first.
func (r *sessionRepository) FindByUser(ctx context.Context, userID string, filter domain.SessionFilter) ([]*domain.Session, error) {
	var where strings.Builder
	args := []interface{}{userID}

	where.WriteString("user_id = ?")
	if !filter.From.IsZero() {
		where.WriteString(" AND start_time >= ?")
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		where.WriteString(" AND start_time <= ?")
		args = append(args, filter.To.UTC())
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE ` + where.String() + ` ORDER BY start_time DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return r.scanSessions(rows)
}

// FindByTask retrieves all sessions associated with a task.
func (r *sessionRepository) FindByTask(ctx context.Context, taskID string) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE task_id = ? ORDER BY start_time DESC`

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions by task: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return r.scanSessions(rows)
}

// Update modifies an existing session.
func (r *sessionRepository) Update(ctx context.Context, session *domain.Session) error {
	query := `
		UPDATE sessions
		SET task_id = ?, type = ?, duration = ?, start_time = ?, end_time = ?,
		    completed = ?, distractions = ?, git_branch = ?, git_commit = ?,
		    paused_at = ?, paused_seconds = ?, cycle_position = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		session.TaskID,
		string(session.Type),
		session.Duration,
		session.StartTime.UTC(),
		utcPtr(session.EndTime),
		session.Completed,
		session.Distractions,
		session.GitBranch,
		session.GitCommit,
		utcPtr(session.PausedAt),
		session.PausedSeconds,
		session.CyclePosition,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return &domain.NotFoundError{Entity: "session", ID: session.ID}
	}

	return nil
}

// IncrementDistractions bumps the distraction counter of a session.
func (r *sessionRepository) IncrementDistractions(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE sessions SET distractions = distractions + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to count distraction: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return &domain.NotFoundError{Entity: "session", ID: id}
	}
	return nil
}

// scanSession scans a single row. Returns nil, nil when there is no row.
func (r *sessionRepository) scanSession(row *sql.Row) (*domain.Session, error) {
	session, err := scanSessionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return session, nil
}

func (r *sessionRepository) scanSessions(rows *sql.Rows) ([]*domain.Session, error) {
	var sessions []*domain.Session
	for rows.Next() {
		session, err := scanSessionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSessionRow(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var taskID sql.NullString
	var typ string
	var endTime, pausedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&taskID,
		&typ,
		&s.Duration,
		&s.StartTime,
		&endTime,
		&s.Completed,
		&s.Distractions,
		&s.GitBranch,
		&s.GitCommit,
		&pausedAt,
		&s.PausedSeconds,
		&s.CyclePosition,
	)
	if err != nil {
		return nil, err
	}

	s.Type = domain.SessionType(typ)
	s.StartTime = s.StartTime.UTC()
	if taskID.Valid {
		s.TaskID = &taskID.String
	}
	if endTime.Valid {
		t := endTime.Time.UTC()
		s.EndTime = &t
	}
	if pausedAt.Valid {
		t := pausedAt.Time.UTC()
		s.PausedAt = &t
	}
	return &s, nil
}
