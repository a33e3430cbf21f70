package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/xvierd/focusflow/internal/domain"
)

// HashPassword hashes a plaintext password with bcrypt. A cost of zero
// uses bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if len(password) < domain.MinPasswordLength {
		return "", &domain.ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", domain.MinPasswordLength),
		}
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", &domain.ValidationError{Field: "password", Reason: "is too long"}
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
