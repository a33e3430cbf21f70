package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xvierd/focusflow/internal/domain"
)

// AnalyticsService derives statistics from persisted sessions.
type AnalyticsService struct {
	gateway *SessionGateway
	now     func() time.Time
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(gateway *SessionGateway) *AnalyticsService {
	return &AnalyticsService{gateway: gateway, now: time.Now}
}

// SetClock overrides "today" for streak computation.
func (s *AnalyticsService) SetClock(now func() time.Time) {
	s.now = now
}

// Stats summarizes userID's sessions inside filter.
func (s *AnalyticsService) Stats(ctx context.Context, userID string, filter domain.SessionFilter) (domain.SessionStats, error) {
	sessions, err := s.gateway.ListSessions(ctx, userID, filter)
	if err != nil {
		return domain.SessionStats{}, fmt.Errorf("failed to load sessions: %w", err)
	}
	return domain.ComputeStats(sessions, s.now()), nil
}

// Heatmap counts userID's completed sessions per day of year.
func (s *AnalyticsService) Heatmap(ctx context.Context, userID string, year int) (map[string]int, error) {
	if year == 0 {
		year = s.now().UTC().Year()
	}
	filter := domain.SessionFilter{
		From: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
	}
	sessions, err := s.gateway.ListSessions(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return domain.Heatmap(sessions, year), nil
}
