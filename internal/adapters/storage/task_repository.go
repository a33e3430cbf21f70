package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/ports"
)

const taskColumns = `
	id, user_id, title, description, status, priority,
	estimated_sessions, completed_sessions, created_at, updated_at
`

// taskRepository implements ports.TaskRepository using SQLite.
type taskRepository struct {
	db *sql.DB
}

// newTaskRepository creates a new task repository.
func newTaskRepository(db *sql.DB) ports.TaskRepository {
	return &taskRepository{db: db}
}

// Save persists a task to storage.
func (r *taskRepository) Save(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.EstimatedSessions,
		task.CompletedSessions,
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
	)
	switch {
	case isUniqueConstraintError(err):
		return fmt.Errorf("task %s already exists: %w", task.ID, domain.ErrConflict)
	case isForeignKeyError(err):
		return &domain.ValidationError{Field: "userId", Reason: "unknown user"}
	case err != nil:
		return fmt.Errorf("failed to save task: %w", err)
	}

	return nil
}

// FindByID retrieves a task by its unique identifier.
func (r *taskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	task, err := scanTaskRow(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "task", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	return task, nil
}

// FindByUser returns a user's tasks newest first.
func (r *taskRepository) FindByUser(ctx context.Context, userID string, status *domain.TaskStatus) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []interface{}{userID}

	if status != nil {
		query += " AND status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTaskRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// Search does a fuzzy search over a user's task titles.
func (r *taskRepository) Search(ctx context.Context, userID, query string) ([]*domain.Task, error) {
	tasks, err := r.FindByUser(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks for fuzzy search: %w", err)
	}
	return fuzzyTasks(query, tasks), nil
}

// Update modifies an existing task.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?,
		    estimated_sessions = ?, completed_sessions = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.EstimatedSessions,
		task.CompletedSessions,
		task.UpdatedAt.UTC(),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return &domain.NotFoundError{Entity: "task", ID: task.ID}
	}

	return nil
}

// Delete removes a task from storage.
func (r *taskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return &domain.NotFoundError{Entity: "task", ID: id}
	}

	return nil
}

func scanTaskRow(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status, priority string

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&task.EstimatedSessions,
		&task.CompletedSessions,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}

// fuzzyTasks ranks tasks by how well their titles match query.
func fuzzyTasks(query string, tasks []*domain.Task) []*domain.Task {
	titles := make([]string, len(tasks))
	for i, task := range tasks {
		titles[i] = task.Title
	}

	matches := fuzzy.Find(query, titles)

	var result []*domain.Task
	for _, match := range matches {
		if match.Score > 0 {
			result = append(result, tasks[match.Index])
		}
	}
	return result
}
