package services

import (
	"context"
	"errors"
	"testing"

	"github.com/xvierd/focusflow/internal/adapters/storage"
	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/ports"
)

func setupTestStorage(t *testing.T) (ports.Storage, func()) {
	store, err := storage.NewMemory()
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	return store, func() { _ = store.Close() }
}

func createTestUser(t *testing.T, store ports.Storage, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(email, "Test", "User", "hash")
	if err != nil {
		t.Fatalf("NewUser() error = %v", err)
	}
	if err := store.Users().Save(context.Background(), user); err != nil {
		t.Fatalf("Users().Save() error = %v", err)
	}
	return user
}

func TestTaskService_AddTask(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	service := NewTaskService(store)
	user := createTestUser(t, store, "tasks@example.com")
	ctx := context.Background()

	t.Run("add valid task", func(t *testing.T) {
		req := AddTaskRequest{
			Title:             "Test Task",
			Description:       "A test task",
			Priority:          domain.PriorityHigh,
			EstimatedSessions: 3,
		}

		task, err := service.AddTask(ctx, user.ID, req)
		if err != nil {
			t.Fatalf("AddTask() error = %v", err)
		}
		if task.Title != req.Title {
			t.Errorf("AddTask() title = %v, want %v", task.Title, req.Title)
		}
		if task.Status != domain.StatusTodo {
			t.Errorf("AddTask() status = %v, want todo", task.Status)
		}
		if task.Priority != domain.PriorityHigh || task.EstimatedSessions != 3 {
			t.Errorf("AddTask() = %+v, want high priority and 3 sessions", task)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		task, err := service.AddTask(ctx, user.ID, AddTaskRequest{Title: "Plain"})
		if err != nil {
			t.Fatalf("AddTask() error = %v", err)
		}
		if task.Priority != domain.PriorityMedium || task.EstimatedSessions != 1 {
			t.Errorf("AddTask() = %+v, want medium priority and 1 session", task)
		}
	})

	t.Run("add task with empty title", func(t *testing.T) {
		_, err := service.AddTask(ctx, user.ID, AddTaskRequest{Title: "  "})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("AddTask() error = %v, want ErrValidation", err)
		}
	})

	t.Run("add task with bad priority", func(t *testing.T) {
		_, err := service.AddTask(ctx, user.ID, AddTaskRequest{Title: "x", Priority: "urgent"})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("AddTask() error = %v, want ErrValidation", err)
		}
	})
}

func TestTaskService_ListTasks(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	service := NewTaskService(store)
	user := createTestUser(t, store, "list@example.com")
	other := createTestUser(t, store, "other@example.com")
	ctx := context.Background()

	_, _ = service.AddTask(ctx, user.ID, AddTaskRequest{Title: "Write docs"})
	second, _ := service.AddTask(ctx, user.ID, AddTaskRequest{Title: "Fix login bug"})
	_, _ = service.AddTask(ctx, other.ID, AddTaskRequest{Title: "Not mine"})
	_, _ = service.MoveTask(ctx, user.ID, second.ID, domain.StatusInProgress)

	t.Run("list all tasks", func(t *testing.T) {
		tasks, err := service.ListTasks(ctx, user.ID, ListTasksRequest{})
		if err != nil {
			t.Errorf("ListTasks() error = %v", err)
		}
		if len(tasks) != 2 {
			t.Errorf("ListTasks() returned %d tasks, want 2", len(tasks))
		}
	})

	t.Run("list by status", func(t *testing.T) {
		status := domain.StatusInProgress
		tasks, err := service.ListTasks(ctx, user.ID, ListTasksRequest{Status: &status})
		if err != nil {
			t.Errorf("ListTasks() error = %v", err)
		}
		if len(tasks) != 1 || tasks[0].ID != second.ID {
			t.Errorf("ListTasks() returned %d tasks, want 1", len(tasks))
		}
	})

	t.Run("fuzzy query", func(t *testing.T) {
		tasks, err := service.ListTasks(ctx, user.ID, ListTasksRequest{Query: "login"})
		if err != nil {
			t.Errorf("ListTasks() error = %v", err)
		}
		if len(tasks) != 1 || tasks[0].ID != second.ID {
			t.Errorf("ListTasks(q=login) = %v", tasks)
		}

		todo := domain.StatusTodo
		tasks, _ = service.ListTasks(ctx, user.ID, ListTasksRequest{Query: "login", Status: &todo})
		if len(tasks) != 0 {
			t.Errorf("ListTasks(q=login, todo) returned %d tasks, want 0", len(tasks))
		}
	})
}

func TestTaskService_GetTask(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	service := NewTaskService(store)
	user := createTestUser(t, store, "get@example.com")
	other := createTestUser(t, store, "intruder@example.com")
	ctx := context.Background()

	task, _ := service.AddTask(ctx, user.ID, AddTaskRequest{Title: "Get Me"})

	t.Run("get existing task", func(t *testing.T) {
		found, err := service.GetTask(ctx, user.ID, task.ID)
		if err != nil {
			t.Errorf("GetTask() error = %v", err)
		}
		if found.ID != task.ID {
			t.Error("GetTask() returned wrong task")
		}
	})

	t.Run("get someone else's task", func(t *testing.T) {
		_, err := service.GetTask(ctx, other.ID, task.ID)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("GetTask() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("get non-existent task", func(t *testing.T) {
		_, err := service.GetTask(ctx, user.ID, "non-existent")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("GetTask() error = %v, want ErrNotFound", err)
		}
	})
}

func TestTaskService_UpdateTask(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	service := NewTaskService(store)
	user := createTestUser(t, store, "update@example.com")
	ctx := context.Background()

	task, _ := service.AddTask(ctx, user.ID, AddTaskRequest{Title: "Update Me"})

	title := "Updated"
	estimated := 4
	updated, err := service.UpdateTask(ctx, user.ID, task.ID, domain.TaskPatch{Title: &title, EstimatedSessions: &estimated})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Title != "Updated" || updated.EstimatedSessions != 4 {
		t.Errorf("UpdateTask() = %+v", updated)
	}

	bad := domain.TaskStatus("archived")
	if _, err := service.UpdateTask(ctx, user.ID, task.ID, domain.TaskPatch{Status: &bad}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("UpdateTask() error = %v, want ErrValidation", err)
	}

	stored, _ := service.GetTask(ctx, user.ID, task.ID)
	if stored.Status != domain.StatusTodo {
		t.Errorf("failed update changed status to %v", stored.Status)
	}
}

func TestTaskService_MoveTask(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	service := NewTaskService(store)
	user := createTestUser(t, store, "move@example.com")
	ctx := context.Background()

	task, _ := service.AddTask(ctx, user.ID, AddTaskRequest{Title: "Start Me"})

	if _, err := service.MoveTask(ctx, user.ID, task.ID, domain.StatusInProgress); err != nil {
		t.Errorf("MoveTask() error = %v", err)
	}

	started, _ := service.GetTask(ctx, user.ID, task.ID)
	if started.Status != domain.StatusInProgress {
		t.Errorf("MoveTask() status = %v, want inprogress", started.Status)
	}

	board, err := service.Board(ctx, user.ID)
	if err != nil {
		t.Fatalf("Board() error = %v", err)
	}
	if len(board[domain.StatusInProgress]) != 1 || len(board[domain.StatusTodo]) != 0 {
		t.Errorf("Board() = %v", board)
	}
}

func TestTaskService_DeleteTask(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	service := NewTaskService(store)
	user := createTestUser(t, store, "delete@example.com")
	other := createTestUser(t, store, "nosy@example.com")
	ctx := context.Background()

	task, _ := service.AddTask(ctx, user.ID, AddTaskRequest{Title: "Delete Me"})

	if err := service.DeleteTask(ctx, other.ID, task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteTask() by other user error = %v, want ErrNotFound", err)
	}

	if err := service.DeleteTask(ctx, user.ID, task.ID); err != nil {
		t.Errorf("DeleteTask() error = %v", err)
	}

	if _, err := service.GetTask(ctx, user.ID, task.ID); err == nil {
		t.Error("DeleteTask() should remove task")
	}
}
