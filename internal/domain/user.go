package domain

import (
	"net/mail"
	"strings"
	"time"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// User is an account owning sessions, tasks and settings.
type User struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	FirstName    string        `json:"firstName,omitempty"`
	LastName     string        `json:"lastName,omitempty"`
	PasswordHash string        `json:"-"`
	Settings     TimerSettings `json:"settings"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// NewUser builds a user with default settings. The password must already
// be hashed.
func NewUser(email, firstName, lastName, passwordHash string) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, invalid("password", "is required")
	}
	return &User{
		ID:           generateID(),
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: passwordHash,
		Settings:     DefaultTimerSettings(),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare, already normalized address.
func ValidateEmail(email string) error {
	if email == "" {
		return invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || strings.ToLower(addr.Address) != email {
		return invalid("email", "is not a valid address")
	}
	return nil
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
