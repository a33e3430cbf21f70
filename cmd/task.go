package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/services"
)

var (
	taskDescription string
	taskPriority    string
	taskEstimate    int
	taskListStatus  string
	taskListQuery   string
)

// taskCmd groups the kanban board commands.
var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"tasks"},
	Short:   "Manage the task board",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task to the todo column",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := localState(ctx); err != nil {
			return err
		}

		task, err := app.tasks.AddTask(ctx, app.user.ID, services.AddTaskRequest{
			Title:             strings.Join(args, " "),
			Description:       taskDescription,
			Priority:          domain.TaskPriority(taskPriority),
			EstimatedSessions: taskEstimate,
		})
		if err != nil {
			return fmt.Errorf("failed to add task: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), task)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Task added: %s (ID: %s)\n", task.Title, task.ID)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks, or show the board",
	Long: `List tasks newest first. --query switches to fuzzy title search, best
match first. Without filters the tasks are grouped into board columns.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := localState(ctx); err != nil {
			return err
		}

		req := services.ListTasksRequest{Query: taskListQuery}
		if taskListStatus != "" {
			status, err := domain.ParseTaskStatus(taskListStatus)
			if err != nil {
				return err
			}
			req.Status = &status
		}

		tasks, err := app.tasks.ListTasks(ctx, app.user.ID, req)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if tasks == nil {
				tasks = []*domain.Task{}
			}
			return printJSON(out, map[string]any{
				"tasks": tasks,
				"count": len(tasks),
			})
		}

		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}
		if req.Status != nil || req.Query != "" {
			fmt.Fprintf(out, "📋 Tasks (%d):\n\n", len(tasks))
			for _, task := range tasks {
				printTaskLine(out, task)
			}
			return nil
		}
		renderBoard(out, tasks)
		return nil
	},
}

var taskMoveCmd = &cobra.Command{
	Use:   "move <task> <todo|inprogress|done>",
	Short: "Move a task to another column",
	Long:  "Move a task, given by ID or a fuzzy title match, to another board column.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := localState(ctx); err != nil {
			return err
		}

		status, err := domain.ParseTaskStatus(args[1])
		if err != nil {
			return err
		}
		task, err := findTask(ctx, app.user.ID, args[0])
		if err != nil {
			return err
		}
		task, err = app.tasks.MoveTask(ctx, app.user.ID, task.ID, status)
		if err != nil {
			return fmt.Errorf("failed to move task: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), task)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s → %s\n", statusIcon(task.Status), task.Title, task.Status)
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:     "delete <task-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long:    "Delete a task by ID. Focus sessions that referenced it are kept.",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := localState(ctx); err != nil {
			return err
		}

		task, err := app.tasks.GetTask(ctx, app.user.ID, args[0])
		if err != nil {
			return err
		}
		if err := app.tasks.DeleteTask(ctx, app.user.ID, task.ID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{"message": "task deleted", "id": task.ID})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Task deleted: %s\n", task.Title)
		return nil
	},
}

func init() {
	taskAddCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "Task description")
	taskAddCmd.Flags().StringVarP(&taskPriority, "priority", "p", "", "Priority: low, medium or high (default medium)")
	taskAddCmd.Flags().IntVarP(&taskEstimate, "estimate", "e", 0, "Estimated focus sessions (default 1)")

	taskListCmd.Flags().StringVarP(&taskListStatus, "status", "s", "", "Filter by status (todo, inprogress, done)")
	taskListCmd.Flags().StringVarP(&taskListQuery, "query", "q", "", "Fuzzy search task titles")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskMoveCmd, taskDeleteCmd)
}

func statusIcon(status domain.TaskStatus) string {
	switch status {
	case domain.StatusTodo:
		return "⏳"
	case domain.StatusInProgress:
		return "▶️"
	case domain.StatusDone:
		return "✅"
	default:
		return "❓"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printTaskLine(w io.Writer, task *domain.Task) {
	fmt.Fprintf(w, "%s %s (ID: %s)  [%s] %d/%d sessions\n",
		statusIcon(task.Status), task.Title, shortID(task.ID),
		task.Priority, task.CompletedSessions, task.EstimatedSessions)
}

// renderBoard prints one column per status.
func renderBoard(w io.Writer, tasks []*domain.Task) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C6FE0"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	columns := map[domain.TaskStatus][]*domain.Task{}
	for _, t := range tasks {
		columns[t.Status] = append(columns[t.Status], t)
	}

	labels := map[domain.TaskStatus]string{
		domain.StatusTodo:       "To do",
		domain.StatusInProgress: "In progress",
		domain.StatusDone:       "Done",
	}
	for _, status := range domain.TaskStatuses {
		col := columns[status]
		fmt.Fprintf(w, "%s %s\n", headerStyle.Render(labels[status]), dimStyle.Render(fmt.Sprintf("(%d)", len(col))))
		for _, task := range col {
			fmt.Fprint(w, "  ")
			printTaskLine(w, task)
		}
		fmt.Fprintln(w)
	}
}
