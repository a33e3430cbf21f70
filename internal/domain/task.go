// Package domain contains the core business entities for FocusFlow.
// These entities represent the fundamental concepts of the focus tracker
// and are independent of any external frameworks or infrastructure.
package domain

import (
	"strings"
	"time"
)

// TaskStatus is the kanban column of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "inprogress"
	StatusDone       TaskStatus = "done"
)

// TaskStatuses lists the kanban columns in board order.
var TaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

// ParseTaskStatus validates a status string.
func ParseTaskStatus(s string) (TaskStatus, error) {
	for _, st := range TaskStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", invalid("status", "must be todo, inprogress or done")
}

// TaskPriority ranks tasks on the board.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// ParseTaskPriority validates a priority string.
func ParseTaskPriority(s string) (TaskPriority, error) {
	switch TaskPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return TaskPriority(s), nil
	}
	return "", invalid("priority", "must be low, medium or high")
}

// Task is a unit of work on the kanban board.
type Task struct {
	ID                string       `json:"id"`
	UserID            string       `json:"userId"`
	Title             string       `json:"title"`
	Description       string       `json:"description,omitempty"`
	Status            TaskStatus   `json:"status"`
	Priority          TaskPriority `json:"priority"`
	EstimatedSessions int          `json:"estimatedSessions"`
	CompletedSessions int          `json:"completedSessions"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// NewTask creates a todo task with medium priority and one estimated
// session.
func NewTask(userID, title string) (*Task, error) {
	if userID == "" {
		return nil, invalid("userId", "is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("title", "cannot be empty")
	}

	now := time.Now().UTC()
	return &Task{
		ID:                generateID(),
		UserID:            userID,
		Title:             title,
		Status:            StatusTodo,
		Priority:          PriorityMedium,
		EstimatedSessions: 1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Move places the task in another column.
func (t *Task) Move(status TaskStatus) {
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
}

// RecordSession counts one naturally completed work interval against the
// task.
func (t *Task) RecordSession() {
	t.CompletedSessions++
	t.UpdatedAt = time.Now().UTC()
}

// Progress returns completed over estimated sessions, capped at 1.
func (t *Task) Progress() float64 {
	if t.EstimatedSessions <= 0 {
		return 0
	}
	p := float64(t.CompletedSessions) / float64(t.EstimatedSessions)
	if p > 1 {
		return 1
	}
	return p
}

// TaskPatch is a partial update to a task. Nil fields are left unchanged.
type TaskPatch struct {
	Title             *string       `json:"title"`
	Description       *string       `json:"description"`
	Status            *TaskStatus   `json:"status"`
	Priority          *TaskPriority `json:"priority"`
	EstimatedSessions *int          `json:"estimatedSessions"`
	CompletedSessions *int          `json:"completedSessions"`
}

// Apply validates the patch and merges it into t. On error t is untouched.
func (p TaskPatch) Apply(t *Task) error {
	next := *t
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return invalid("title", "cannot be empty")
		}
		next.Title = title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Status != nil {
		st, err := ParseTaskStatus(string(*p.Status))
		if err != nil {
			return err
		}
		next.Status = st
	}
	if p.Priority != nil {
		pr, err := ParseTaskPriority(string(*p.Priority))
		if err != nil {
			return err
		}
		next.Priority = pr
	}
	if p.EstimatedSessions != nil {
		if *p.EstimatedSessions < 1 {
			return invalid("estimatedSessions", "must be at least 1")
		}
		next.EstimatedSessions = *p.EstimatedSessions
	}
	if p.CompletedSessions != nil {
		if *p.CompletedSessions < 0 {
			return invalid("completedSessions", "cannot be negative")
		}
		next.CompletedSessions = *p.CompletedSessions
	}
	next.UpdatedAt = time.Now().UTC()
	*t = next
	return nil
}
