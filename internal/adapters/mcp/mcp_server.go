// Package mcp exposes the timer, the task board and analytics as Model
// Context Protocol tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/engine"
	"github.com/xvierd/focusflow/internal/ports"
)

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server        *server.MCPServer
	stateProvider ports.MCPStateProvider
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewServer creates a new MCP server instance.
func NewServer(stateProvider ports.MCPStateProvider, version string) *Server {
	s := &Server{stateProvider: stateProvider}
	s.server = server.NewMCPServer(
		"focusflow",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_timer_state",
			mcp.WithDescription("Get the focus timer: phase, interval kind, remaining time and cycle position"),
		),
		s.handleGetTimerState,
	)

	timerTools := []struct {
		name string
		desc string
		cmd  ports.TimerCommand
	}{
		{"start_timer", "Start a new interval or resume a paused one", ports.CmdStart},
		{"pause_timer", "Pause the running interval", ports.CmdPause},
		{"skip_interval", "End the current interval without completing it and move to the next one", ports.CmdSkip},
		{"reset_timer", "Abort the current interval and reload it at full length", ports.CmdReset},
	}
	for _, tt := range timerTools {
		s.server.AddTool(mcp.NewTool(tt.name, mcp.WithDescription(tt.desc)), s.timerCommandHandler(tt.cmd))
	}

	s.server.AddTool(
		mcp.NewTool(
			"list_tasks",
			mcp.WithDescription("List kanban tasks, optionally filtered by column"),
			mcp.WithString(
				"status",
				mcp.Description("Filter tasks by status"),
				mcp.Enum("todo", "inprogress", "done"),
			),
		),
		s.handleListTasks,
	)

	s.server.AddTool(
		mcp.NewTool(
			"create_task",
			mcp.WithDescription("Create a new task in the todo column"),
			mcp.WithString("title", mcp.Required(), mcp.Description("The title of the task")),
			mcp.WithString("description", mcp.Description("Optional description of the task")),
			mcp.WithString("priority", mcp.Description("Task priority"), mcp.Enum("low", "medium", "high")),
			mcp.WithNumber("estimated_sessions", mcp.Description("Focus sessions the task should take (default 1)")),
		),
		s.handleCreateTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"move_task",
			mcp.WithDescription("Move a task to another kanban column"),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("The ID of the task")),
			mcp.WithString("status", mcp.Required(), mcp.Description("Target column"), mcp.Enum("todo", "inprogress", "done")),
		),
		s.handleMoveTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"log_distraction",
			mcp.WithDescription("Log a distraction against the active focus session"),
			mcp.WithString("description", mcp.Description("What pulled your attention away")),
			mcp.WithString(
				"category",
				mcp.Description("Kind of distraction"),
				mcp.Enum("phone", "email", "colleague", "thought", "noise", "other"),
			),
		),
		s.handleLogDistraction,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_stats",
			mcp.WithDescription("Get all-time focus analytics: totals, completion rate, streaks, best day and hour"),
		),
		s.handleGetStats,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_heatmap",
			mcp.WithDescription("Get completed sessions per day for a calendar year"),
			mcp.WithNumber("year", mcp.Description("Calendar year (default: current year)")),
		),
		s.handleGetHeatmap,
	)
}

// Start serves MCP requests on stdio until the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	return server.ServeStdio(s.server)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

var _ ports.MCPHandler = (*Server)(nil)

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func timerResult(snap engine.Snapshot) map[string]any {
	result := map[string]any{
		"phase":              string(snap.Phase),
		"kind":               snap.Kind.Label(),
		"remaining":          snap.Remaining().String(),
		"remaining_seconds":  snap.RemainingSeconds,
		"progress":           snap.Progress,
		"cycle_position":     snap.CyclePosition,
		"sessions_per_cycle": snap.SessionsPerCycle,
	}
	if snap.SessionID != "" {
		result["session_id"] = snap.SessionID
	}
	if snap.TaskID != nil {
		result["task_id"] = *snap.TaskID
	}
	return result
}

func taskResult(t *domain.Task) map[string]any {
	return map[string]any{
		"id":                 t.ID,
		"title":              t.Title,
		"description":        t.Description,
		"status":             string(t.Status),
		"priority":           string(t.Priority),
		"estimated_sessions": t.EstimatedSessions,
		"completed_sessions": t.CompletedSessions,
		"created_at":         t.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleGetTimerState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.stateProvider.TimerState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get timer state: %w", err)
	}
	return jsonResult(timerResult(snap))
}

func (s *Server) timerCommandHandler(cmd ports.TimerCommand) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := s.stateProvider.TimerCommand(ctx, cmd)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to %s timer: %v", cmd, err)), nil
		}
		return jsonResult(timerResult(snap))
	}
}

func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var status *domain.TaskStatus
	if raw := request.GetString("status", ""); raw != "" {
		st, err := domain.ParseTaskStatus(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		status = &st
	}

	tasks, err := s.stateProvider.ListTasks(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	list := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		list = append(list, taskResult(t))
	}
	result := map[string]any{
		"tasks":       list,
		"total_count": len(list),
	}
	if status != nil {
		result["filter_status"] = string(*status)
	}
	return jsonResult(result)
}

func (s *Server) handleCreateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title is required: " + err.Error()), nil
	}

	task, err := s.stateProvider.CreateTask(ctx,
		title,
		request.GetString("description", ""),
		domain.TaskPriority(request.GetString("priority", "")),
		int(request.GetFloat("estimated_sessions", 0)),
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create task: %v", err)), nil
	}
	return jsonResult(taskResult(task))
}

func (s *Server) handleMoveTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("task_id is required: " + err.Error()), nil
	}
	raw, err := request.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError("status is required: " + err.Error()), nil
	}
	status, err := domain.ParseTaskStatus(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := s.stateProvider.MoveTask(ctx, taskID, status)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to move task: %v", err)), nil
	}
	return jsonResult(taskResult(task))
}

func (s *Server) handleLogDistraction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.stateProvider.LogDistraction(ctx,
		domain.DistractionCategory(request.GetString("category", "")),
		request.GetString("description", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to log distraction: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"id":          d.ID,
		"session_id":  d.SessionID,
		"description": d.Description,
		"timestamp":   d.Timestamp.Format(time.RFC3339),
	})
}

func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.stateProvider.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return jsonResult(stats)
}

func (s *Server) handleGetHeatmap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year := int(request.GetFloat("year", 0))
	if year <= 0 {
		year = time.Now().Year()
	}
	heatmap, err := s.stateProvider.Heatmap(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get heatmap: %w", err)
	}
	return jsonResult(map[string]any{
		"year":   year,
		"days":   heatmap,
		"active": len(heatmap),
	})
}
