package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/ports"
)

// userRepository implements ports.UserRepository using SQLite.
type userRepository struct {
	db *sql.DB
}

// newUserRepository creates a new user repository.
func newUserRepository(db *sql.DB) ports.UserRepository {
	return &userRepository{db: db}
}

// Save persists a new user.
func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	settings, err := json.Marshal(user.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, password_hash, settings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		string(settings),
		user.CreatedAt.UTC(),
	)
	if isUniqueConstraintError(err) {
		return domain.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// FindByID retrieves a user by its unique identifier.
func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, password_hash, settings, created_at
		FROM users WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "user", ID: id}
	}
	return user, err
}

// FindByEmail retrieves a user by normalized email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, password_hash, settings, created_at
		FROM users WHERE email = ?
	`, domain.NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "user", ID: email}
	}
	return user, err
}

// UpdateSettings replaces a user's timer settings.
func (r *userRepository) UpdateSettings(ctx context.Context, id string, settings domain.TimerSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `UPDATE users SET settings = ? WHERE id = ?`, string(data), id)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return &domain.NotFoundError{Entity: "user", ID: id}
	}
	return nil
}

func (r *userRepository) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var settings string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&settings,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if err := json.Unmarshal([]byte(settings), &user.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	user.Settings = user.Settings.WithDefaults()
	user.CreatedAt = user.CreatedAt.UTC()

	return &user, nil
}
