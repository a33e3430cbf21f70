package domain

import (
	"time"
)

// SessionType is the persisted kind of an interval. Short and long breaks
// share the break type.
type SessionType string

const (
	SessionTypeWork  SessionType = "work"
	SessionTypeBreak SessionType = "break"
)

// ParseSessionType validates a persisted session type.
func ParseSessionType(s string) (SessionType, error) {
	switch SessionType(s) {
	case SessionTypeWork, SessionTypeBreak:
		return SessionType(s), nil
	}
	return "", invalid("type", "must be work or break")
}

// Session is the durable record of one timer interval.
type Session struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	Type         SessionType `json:"type"`
	Duration     int         `json:"duration"` // minutes
	StartTime    time.Time   `json:"startTime"`
	EndTime      *time.Time  `json:"endTime"`
	Completed    bool        `json:"completed"`
	Distractions int         `json:"distractions"`
	TaskID       *string     `json:"taskId"`
	GitBranch    string      `json:"gitBranch,omitempty"`
	GitCommit    string      `json:"gitCommit,omitempty"`

	// PausedAt is set while the countdown is paused. PausedSeconds is the
	// total length of earlier pauses.
	PausedAt      *time.Time `json:"pausedAt,omitempty"`
	PausedSeconds int        `json:"pausedSeconds"`
	// CyclePosition is the work interval's place in its cycle, 1-based.
	// Zero when unknown.
	CyclePosition int `json:"cyclePosition,omitempty"`
}

// NewSession creates an open session record. An empty id is replaced with
// a generated one.
func NewSession(id, userID string, typ SessionType, durationMinutes int, start time.Time) (*Session, error) {
	if userID == "" {
		return nil, invalid("userId", "is required")
	}
	if _, err := ParseSessionType(string(typ)); err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		return nil, invalid("duration", "must be positive")
	}
	if id == "" {
		id = generateID()
	}
	if start.IsZero() {
		start = time.Now()
	}
	return &Session{
		ID:        id,
		UserID:    userID,
		Type:      typ,
		Duration:  durationMinutes,
		StartTime: start.UTC(),
	}, nil
}

// IsActive reports whether the session can still be resumed: it was
// neither completed nor closed with an end time.
func (s *Session) IsActive() bool {
	return !s.Completed && s.EndTime == nil
}

// IsWork returns true for work sessions.
func (s *Session) IsWork() bool {
	return s.Type == SessionTypeWork
}

// PlannedDuration returns the configured length of the session.
func (s *Session) PlannedDuration() time.Duration {
	return time.Duration(s.Duration) * time.Minute
}

// PlannedEnd returns when the session finishes if it is not paused again.
func (s *Session) PlannedEnd() time.Time {
	return s.StartTime.Add(s.PlannedDuration() + time.Duration(s.PausedSeconds)*time.Second)
}

// IsPaused reports whether the countdown was paused when last persisted.
func (s *Session) IsPaused() bool {
	return s.PausedAt != nil
}

// Elapsed returns the countdown time spent as of now. Paused time is not
// counted, and a paused session stops at the moment it was paused.
func (s *Session) Elapsed(now time.Time) time.Duration {
	end := now
	if s.PausedAt != nil {
		end = *s.PausedAt
	}
	elapsed := end.Sub(s.StartTime) - time.Duration(s.PausedSeconds)*time.Second
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Pause marks the countdown paused at at. Closed or already paused
// sessions are left alone.
func (s *Session) Pause(at time.Time) {
	if !s.IsActive() || s.PausedAt != nil {
		return
	}
	at = at.UTC()
	s.PausedAt = &at
}

// Resume ends a pause at at and adds its length to PausedSeconds.
func (s *Session) Resume(at time.Time) {
	if s.PausedAt == nil {
		return
	}
	if d := at.Sub(*s.PausedAt); d > 0 {
		s.PausedSeconds += int(d / time.Second)
	}
	s.PausedAt = nil
}

// Finish closes the session at end. A pending pause is folded into
// PausedSeconds.
func (s *Session) Finish(completed bool, end time.Time) {
	end = end.UTC()
	s.Resume(end)
	s.Completed = completed
	s.EndTime = &end
}

// SessionUpdate is a partial update to a session record.
type SessionUpdate struct {
	Completed *bool      `json:"completed"`
	EndTime   *time.Time `json:"endTime"`
	PausedAt  *time.Time `json:"pausedAt,omitempty"`
	ResumedAt *time.Time `json:"resumedAt,omitempty"`
}

// Apply merges the update into s. Pauses are applied before resumes and
// both before the end time.
func (u SessionUpdate) Apply(s *Session) {
	if u.PausedAt != nil {
		s.Pause(*u.PausedAt)
	}
	if u.ResumedAt != nil {
		s.Resume(*u.ResumedAt)
	}
	if u.Completed != nil {
		s.Completed = *u.Completed
	}
	if u.EndTime != nil {
		end := u.EndTime.UTC()
		s.Resume(end)
		s.EndTime = &end
	}
}

// SessionFilter narrows session listings by start time. Zero bounds are
// open.
type SessionFilter struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the filter bounds, inclusive.
func (f SessionFilter) Contains(t time.Time) bool {
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.After(f.To) {
		return false
	}
	return true
}
