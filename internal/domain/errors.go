package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers
// can classify with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")

	ErrUserExists         = fmt.Errorf("user already exists: %w", ErrConflict)
	ErrInvalidCredentials = &AuthError{Reason: "invalid credentials"}
	ErrNoActiveSession    = fmt.Errorf("no active session: %w", ErrConflict)
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AuthError reports a missing or invalid credential.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return e.Reason
}

func (e *AuthError) Unwrap() error { return ErrUnauthorized }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
