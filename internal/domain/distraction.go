package domain

import (
	"strings"
	"time"
)

// DistractionCategory classifies what pulled attention away.
type DistractionCategory string

const (
	DistractionPhone     DistractionCategory = "phone"
	DistractionEmail     DistractionCategory = "email"
	DistractionColleague DistractionCategory = "colleague"
	DistractionThought   DistractionCategory = "thought"
	DistractionNoise     DistractionCategory = "noise"
	DistractionOther     DistractionCategory = "other"
)

var distractionCategories = map[DistractionCategory]bool{
	DistractionPhone:     true,
	DistractionEmail:     true,
	DistractionColleague: true,
	DistractionThought:   true,
	DistractionNoise:     true,
	DistractionOther:     true,
}

// Distraction is an interruption logged against a session.
type Distraction struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewDistraction builds a distraction entry. A non-empty category is
// stored as a "category: " prefix on the description.
func NewDistraction(sessionID string, category DistractionCategory, description string) (*Distraction, error) {
	if sessionID == "" {
		return nil, invalid("sessionId", "is required")
	}
	description = strings.TrimSpace(description)
	if category != "" {
		if !distractionCategories[category] {
			return nil, invalid("category", "unknown distraction category")
		}
		if description == "" {
			description = string(category)
		} else {
			description = string(category) + ": " + description
		}
	}
	if description == "" {
		return nil, invalid("description", "cannot be empty")
	}
	return &Distraction{
		ID:          generateID(),
		SessionID:   sessionID,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}, nil
}
