package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/ports"
)

// distractionRepository implements ports.DistractionRepository using SQLite.
type distractionRepository struct {
	db *sql.DB
}

func newDistractionRepository(db *sql.DB) ports.DistractionRepository {
	return &distractionRepository{db: db}
}

// Save persists a distraction.
func (r *distractionRepository) Save(ctx context.Context, d *domain.Distraction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO distractions (id, session_id, description, timestamp)
		VALUES (?, ?, ?, ?)
	`, d.ID, d.SessionID, d.Description, d.Timestamp.UTC())
	if isForeignKeyError(err) {
		return &domain.NotFoundError{Entity: "session", ID: d.SessionID}
	}
	if err != nil {
		return fmt.Errorf("failed to save distraction: %w", err)
	}
	return nil
}

// FindBySession returns a session's distractions newest first.
func (r *distractionRepository) FindBySession(ctx context.Context, sessionID string) ([]*domain.Distraction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, description, timestamp
		FROM distractions
		WHERE session_id = ?
		ORDER BY timestamp DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query distractions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Distraction
	for rows.Next() {
		var d domain.Distraction
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Description, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan distraction: %w", err)
		}
		d.Timestamp = d.Timestamp.UTC()
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate distractions: %w", err)
	}
	return out, nil
}

// utcPtr normalizes an optional timestamp for storage.
func utcPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
