// Package storage provides SQLite and in-memory implementations of the
// storage ports.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/xvierd/focusflow/internal/ports"
	"modernc.org/sqlite"
)

// sqliteStorage implements the ports.Storage interface using SQLite.
type sqliteStorage struct {
	db              *sql.DB
	userRepo        ports.UserRepository
	sessionRepo     ports.SessionRepository
	taskRepo        ports.TaskRepository
	distractionRepo ports.DistractionRepository
}

// Ensure sqliteStorage implements ports.Storage.
var _ ports.Storage = (*sqliteStorage)(nil)

// New creates a new SQLite storage instance.
func New(dbPath string) (ports.Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better performance
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	storage := &sqliteStorage{
		db:              db,
		userRepo:        newUserRepository(db),
		sessionRepo:     newSessionRepository(db),
		taskRepo:        newTaskRepository(db),
		distractionRepo: newDistractionRepository(db),
	}

	if err := storage.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return storage, nil
}

// NewMemory creates a new in-memory SQLite storage instance for testing.
// Every connection to ":memory:" opens a separate database, so the pool
// is pinned to one connection.
func NewMemory() (ports.Storage, error) {
	s, err := New(":memory:")
	if err != nil {
		return nil, err
	}
	s.(*sqliteStorage).db.SetMaxOpenConns(1)
	return s, nil
}

// Users returns the user repository.
func (s *sqliteStorage) Users() ports.UserRepository {
	return s.userRepo
}

// Sessions returns the session repository.
func (s *sqliteStorage) Sessions() ports.SessionRepository {
	return s.sessionRepo
}

// Tasks returns the task repository.
func (s *sqliteStorage) Tasks() ports.TaskRepository {
	return s.taskRepo
}

// Distractions returns the distraction repository.
func (s *sqliteStorage) Distractions() ports.DistractionRepository {
	return s.distractionRepo
}

// Close closes the database connection.
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

// Migrate creates the database schema.
func (s *sqliteStorage) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		settings TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'todo',
		priority TEXT NOT NULL DEFAULT 'medium',
		estimated_sessions INTEGER NOT NULL DEFAULT 1,
		completed_sessions INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		task_id TEXT,
		type TEXT NOT NULL,
		duration INTEGER NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		completed INTEGER NOT NULL DEFAULT 0,
		distractions INTEGER NOT NULL DEFAULT 0,
		git_branch TEXT NOT NULL DEFAULT '',
		git_commit TEXT NOT NULL DEFAULT '',
		paused_at DATETIME,
		paused_seconds INTEGER NOT NULL DEFAULT 0,
		cycle_position INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE SET NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user_start ON sessions(user_id, start_time);
	CREATE INDEX IF NOT EXISTS idx_sessions_task ON sessions(task_id);

	CREATE TABLE IF NOT EXISTS distractions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		description TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_distractions_session ON distractions(session_id, timestamp);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	// Databases created before pause tracking lack these columns.
	for _, col := range []struct{ name, def string }{
		{"paused_at", "DATETIME"},
		{"paused_seconds", "INTEGER NOT NULL DEFAULT 0"},
		{"cycle_position", "INTEGER NOT NULL DEFAULT 0"},
	} {
		if err := s.addColumn("sessions", col.name, col.def); err != nil {
			return err
		}
	}

	return nil
}

// addColumn adds a column to table unless it already exists.
func (s *sqliteStorage) addColumn(table, name, def string) error {
	rows, err := s.db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return fmt.Errorf("failed to inspect %s: %w", table, err)
		}
		if col == name {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	_ = rows.Close()

	if _, err := s.db.Exec(`ALTER TABLE ` + table + ` ADD COLUMN ` + name + ` ` + def); err != nil {
		return fmt.Errorf("failed to add %s.%s: %w", table, name, err)
	}
	return nil
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == 2067 || code == 1555 // SQLITE_CONSTRAINT_UNIQUE, SQLITE_CONSTRAINT_PRIMARYKEY
}

// isForeignKeyError checks if an error is a foreign key violation.
func isForeignKeyError(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == 787 // SQLITE_CONSTRAINT_FOREIGNKEY
}
