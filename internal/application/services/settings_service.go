package services

import (
	"context"
	"fmt"

	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/logger"
	"github.com/dayflow/core/internal/ports"
)

// UpdateSyncSettingsRequest carries the editable sync configuration.
// lastSyncAt is never writable from the outside.
type UpdateSyncSettingsRequest struct {
	ShareLink     string `json:"shareLink"`
	WriteEndpoint string `json:"writeEndpoint"`
	Enabled       bool   `json:"enabled"`
	AutoSync      bool   `json:"autoSync"`
}

// SettingsService manages device preferences and the sync configuration.
// None of these writes touch the modification clock: sync config and theme
// are device-local, not user data.
type SettingsService struct {
	settingsRepo ports.SettingsRepository
	syncService  *SyncService
	logger       *logger.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingsRepo ports.SettingsRepository, syncService *SyncService, appLogger *logger.Logger) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		syncService:  syncService,
		logger:       appLogger,
	}
}

// GetSyncSettings returns the persisted sync configuration
func (s *SettingsService) GetSyncSettings(ctx context.Context) (*entities.SyncSettings, error) {
	return s.settingsRepo.GetSyncSettings(ctx)
}

// UpdateSyncSettings saves the editable sync fields, carrying the existing
// lastSyncAt forward, and recomputes the engine's Disabled/Idle state.
func (s *SettingsService) UpdateSyncSettings(ctx context.Context, req UpdateSyncSettingsRequest) (*entities.SyncSettings, error) {
	current, err := s.settingsRepo.GetSyncSettings(ctx)
	if err != nil {
		return nil, err
	}

	updated := &entities.SyncSettings{
		ShareLink:     req.ShareLink,
		WriteEndpoint: req.WriteEndpoint,
		Enabled:       req.Enabled && req.ShareLink != "",
		AutoSync:      req.AutoSync,
		LastSyncAt:    current.LastSyncAt,
	}

	if err := s.settingsRepo.SaveSyncSettings(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save sync settings: %w", err)
	}

	if s.syncService != nil {
		if err := s.syncService.RefreshEnabledState(ctx); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Sync settings updated",
		"enabled", updated.Enabled,
		"auto_sync", updated.AutoSync,
		"has_endpoint", updated.WriteEndpoint != "",
	)

	return updated, nil
}

// GetTheme returns the UI theme preference
func (s *SettingsService) GetTheme(ctx context.Context) (string, error) {
	return s.settingsRepo.GetTheme(ctx)
}

// SaveTheme persists the UI theme preference
func (s *SettingsService) SaveTheme(ctx context.Context, theme string) error {
	if err := s.settingsRepo.SaveTheme(ctx, theme); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}
