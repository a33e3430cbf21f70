package services

import (
	"context"
	"fmt"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/ports"
)

// DistractionService logs interruptions against sessions.
type DistractionService struct {
	storage ports.Storage
	gateway *SessionGateway
	timer   *TimerService
}

// NewDistractionService creates a new distraction service.
func NewDistractionService(storage ports.Storage, gateway *SessionGateway) *DistractionService {
	return &DistractionService{storage: storage, gateway: gateway}
}

// UseTimer makes the timer's in-flight interval the default session. The
// stored active session can lag behind a timer whose writes are queued.
func (s *DistractionService) UseTimer(timer *TimerService) {
	s.timer = timer
}

// LogDistractionRequest describes one interruption. An empty SessionID
// means the caller's active session.
type LogDistractionRequest struct {
	SessionID   string                     `json:"sessionId"`
	Category    domain.DistractionCategory `json:"category"`
	Description string                     `json:"description"`
}

// LogDistraction records a distraction and bumps the session's counter.
func (s *DistractionService) LogDistraction(ctx context.Context, userID string, req LogDistractionRequest) (*domain.Distraction, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		var err error
		if sessionID, err = s.activeSessionID(ctx, userID); err != nil {
			return nil, err
		}
	} else if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	d, err := domain.NewDistraction(sessionID, req.Category, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Distractions().Save(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save distraction: %w", err)
	}
	if err := s.storage.Sessions().IncrementDistractions(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to count distraction: %w", err)
	}
	return d, nil
}

// activeSessionID resolves the session a distraction belongs to when the
// caller names none.
func (s *DistractionService) activeSessionID(ctx context.Context, userID string) (string, error) {
	if s.timer != nil {
		id, err := s.timer.ActiveSessionID(ctx, userID)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}

	active, err := s.gateway.GetActiveSession(ctx, userID)
	if err != nil {
		return "", err
	}
	if active == nil {
		return "", domain.ErrNoActiveSession
	}
	return active.ID, nil
}

// ListDistractions returns a session's distractions newest first.
func (s *DistractionService) ListDistractions(ctx context.Context, userID, sessionID string) ([]*domain.Distraction, error) {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.storage.Distractions().FindBySession(ctx, sessionID)
}

func (s *DistractionService) ownedSession(ctx context.Context, userID, id string) (*domain.Session, error) {
	session, err := s.storage.Sessions().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, &domain.NotFoundError{Entity: "session", ID: id}
	}
	return session, nil
}
