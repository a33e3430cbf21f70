package services

import (
	"context"
	"fmt"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/engine"
	"github.com/xvierd/focusflow/internal/ports"
)

// SettingsService reads and replaces user timer settings.
type SettingsService struct {
	storage ports.Storage
	timer   *TimerService
}

// NewSettingsService creates a settings service. timer may be nil.
func NewSettingsService(storage ports.Storage, timer *TimerService) *SettingsService {
	return &SettingsService{storage: storage, timer: timer}
}

// GetSettings returns userID's timer settings.
func (s *SettingsService) GetSettings(ctx context.Context, userID string) (domain.TimerSettings, error) {
	user, err := s.storage.Users().FindByID(ctx, userID)
	if err != nil {
		return domain.TimerSettings{}, err
	}
	return user.Settings.WithDefaults(), nil
}

// UpdateSettings validates and stores settings. When the durations or
// cycle length change, the user's timer switches to the new mode.
func (s *SettingsService) UpdateSettings(ctx context.Context, userID string, settings domain.TimerSettings) (domain.TimerSettings, error) {
	if err := settings.Validate(); err != nil {
		return domain.TimerSettings{}, err
	}

	current, err := s.GetSettings(ctx, userID)
	if err != nil {
		return domain.TimerSettings{}, err
	}

	if err := s.storage.Users().UpdateSettings(ctx, userID, settings); err != nil {
		return domain.TimerSettings{}, fmt.Errorf("failed to update settings: %w", err)
	}

	mode := engine.ModeFromSettings(settings)
	if s.timer != nil && mode != engine.ModeFromSettings(current) {
		if _, err := s.timer.SwitchMode(ctx, userID, mode); err != nil {
			return domain.TimerSettings{}, err
		}
	}
	return settings, nil
}
