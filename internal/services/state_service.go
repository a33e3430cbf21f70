package services

import (
	"context"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/engine"
	"github.com/xvierd/focusflow/internal/ports"
)

// StateService implements the MCPStateProvider interface for a single
// user, the account the CLI runs as.
type StateService struct {
	userID       string
	timer        *TimerService
	tasks        *TaskService
	distractions *DistractionService
	analytics    *AnalyticsService
}

// NewStateService creates a new state service bound to userID.
func NewStateService(userID string, timer *TimerService, tasks *TaskService, distractions *DistractionService, analytics *AnalyticsService) *StateService {
	return &StateService{
		userID:       userID,
		timer:        timer,
		tasks:        tasks,
		distractions: distractions,
		analytics:    analytics,
	}
}

// UserID returns the account the state is bound to.
func (s *StateService) UserID() string {
	return s.userID
}

// TimerState implements ports.MCPStateProvider.
func (s *StateService) TimerState(ctx context.Context) (engine.Snapshot, error) {
	return s.timer.Snapshot(ctx, s.userID)
}

// TimerCommand implements ports.MCPStateProvider.
func (s *StateService) TimerCommand(ctx context.Context, cmd ports.TimerCommand) (engine.Snapshot, error) {
	return s.timer.Command(ctx, s.userID, cmd)
}

// ListTasks implements ports.MCPStateProvider.
func (s *StateService) ListTasks(ctx context.Context, status *domain.TaskStatus) ([]*domain.Task, error) {
	return s.tasks.ListTasks(ctx, s.userID, ListTasksRequest{Status: status})
}

// CreateTask implements ports.MCPStateProvider.
func (s *StateService) CreateTask(ctx context.Context, title, description string, priority domain.TaskPriority, estimated int) (*domain.Task, error) {
	return s.tasks.AddTask(ctx, s.userID, AddTaskRequest{
		Title:             title,
		Description:       description,
		Priority:          priority,
		EstimatedSessions: estimated,
	})
}

// MoveTask implements ports.MCPStateProvider.
func (s *StateService) MoveTask(ctx context.Context, taskID string, status domain.TaskStatus) (*domain.Task, error) {
	return s.tasks.MoveTask(ctx, s.userID, taskID, status)
}

// LogDistraction implements ports.MCPStateProvider.
func (s *StateService) LogDistraction(ctx context.Context, category domain.DistractionCategory, description string) (*domain.Distraction, error) {
	return s.distractions.LogDistraction(ctx, s.userID, LogDistractionRequest{
		Category:    category,
		Description: description,
	})
}

// Stats implements ports.MCPStateProvider.
func (s *StateService) Stats(ctx context.Context) (domain.SessionStats, error) {
	return s.analytics.Stats(ctx, s.userID, domain.SessionFilter{})
}

// Heatmap implements ports.MCPStateProvider.
func (s *StateService) Heatmap(ctx context.Context, year int) (map[string]int, error) {
	return s.analytics.Heatmap(ctx, s.userID, year)
}

// Ensure StateService implements MCPStateProvider.
var _ ports.MCPStateProvider = (*StateService)(nil)

// Subscribe streams timer updates for the bound user.
func (s *StateService) Subscribe(buffer int) (<-chan Update, func()) {
	return s.timer.Subscribe(s.userID, buffer)
}
