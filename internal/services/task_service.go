// Package services implements the application layer (use cases)
// following hexagonal architecture principles.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/ports"
)

// TaskService handles kanban task use cases.
type TaskService struct {
	storage  ports.Storage
	onDelete []func(ctx context.Context, userID, taskID string)
}

// NewTaskService creates a new task service.
func NewTaskService(storage ports.Storage) *TaskService {
	return &TaskService{storage: storage}
}

// AddTaskRequest contains the data needed to create a new task.
type AddTaskRequest struct {
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Priority          domain.TaskPriority `json:"priority"`
	EstimatedSessions int                 `json:"estimatedSessions"`
}

// AddTask creates a new todo task for userID.
func (s *TaskService) AddTask(ctx context.Context, userID string, req AddTaskRequest) (*domain.Task, error) {
	task, err := domain.NewTask(userID, req.Title)
	if err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	patch := domain.TaskPatch{Description: &req.Description}
	if req.Priority != "" {
		patch.Priority = &req.Priority
	}
	if req.EstimatedSessions != 0 {
		patch.EstimatedSessions = &req.EstimatedSessions
	}
	if err := patch.Apply(task); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	if err := s.storage.Tasks().Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	return task, nil
}

// ListTasksRequest contains filters for listing tasks.
type ListTasksRequest struct {
	Status *domain.TaskStatus
	Query  string
}

// ListTasks retrieves userID's tasks newest first. A query switches to
// fuzzy title search, best match first.
func (s *TaskService) ListTasks(ctx context.Context, userID string, req ListTasksRequest) ([]*domain.Task, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return s.storage.Tasks().FindByUser(ctx, userID, req.Status)
	}

	tasks, err := s.storage.Tasks().Search(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	if req.Status == nil {
		return tasks, nil
	}

	var filtered []*domain.Task
	for _, t := range tasks {
		if t.Status == *req.Status {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// GetTask retrieves one of userID's tasks.
func (s *TaskService) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	return ownedTask(ctx, s.storage, userID, id)
}

// UpdateTask applies a partial update.
func (s *TaskService) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	task, err := ownedTask(ctx, s.storage, userID, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(task); err != nil {
		return nil, err
	}
	if err := s.storage.Tasks().Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// MoveTask places a task in another kanban column.
func (s *TaskService) MoveTask(ctx context.Context, userID, id string, status domain.TaskStatus) (*domain.Task, error) {
	return s.UpdateTask(ctx, userID, id, domain.TaskPatch{Status: &status})
}

// OnDelete registers fn to run after a task is deleted.
func (s *TaskService) OnDelete(fn func(ctx context.Context, userID, taskID string)) {
	s.onDelete = append(s.onDelete, fn)
}

// DeleteTask removes a task. Sessions that referenced it are kept.
func (s *TaskService) DeleteTask(ctx context.Context, userID, id string) error {
	if _, err := ownedTask(ctx, s.storage, userID, id); err != nil {
		return err
	}
	if err := s.storage.Tasks().Delete(ctx, id); err != nil {
		return err
	}
	for _, fn := range s.onDelete {
		fn(ctx, userID, id)
	}
	return nil
}

// Board groups userID's tasks by column.
func (s *TaskService) Board(ctx context.Context, userID string) (map[domain.TaskStatus][]*domain.Task, error) {
	tasks, err := s.storage.Tasks().FindByUser(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	board := make(map[domain.TaskStatus][]*domain.Task, len(domain.TaskStatuses))
	for _, st := range domain.TaskStatuses {
		board[st] = nil
	}
	for _, t := range tasks {
		board[t.Status] = append(board[t.Status], t)
	}
	return board, nil
}
