package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dayflow/core/internal/application/services"
	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/logger"
	"github.com/dayflow/core/internal/ports"
)

// SyncHandler handles sync, sync settings, and data export/import requests
type SyncHandler struct {
	syncService     *services.SyncService
	snapshotService *services.SnapshotService
	settingsService *services.SettingsService
	logger          *logger.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncService *services.SyncService, snapshotService *services.SnapshotService, settingsService *services.SettingsService, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		syncService:     syncService,
		snapshotService: snapshotService,
		settingsService: settingsService,
		logger:          logger,
	}
}

// Sync handles a manual sync trigger
func (h *SyncHandler) Sync(c echo.Context) error {
	result, err := h.syncService.Sync(c.Request().Context())
	if err != nil {
		switch {
		case errors.Is(err, entities.ErrSyncInProgress):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, entities.ErrNotConfigured):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		// Transport and import failures still produce a result carrying
		// the error for the UI; sync errors are status, not a crash.
		h.logger.Error("Sync failed", "error", err)
		return c.JSON(http.StatusOK, result)
	}

	return c.JSON(http.StatusOK, result)
}

// Status reports the engine's current state
func (h *SyncHandler) Status(c echo.Context) error {
	state, note := h.syncService.State()
	return c.JSON(http.StatusOK, map[string]string{
		"state": string(state),
		"note":  note,
	})
}

// GetSyncSettings returns the persisted sync configuration
func (h *SyncHandler) GetSyncSettings(c echo.Context) error {
	settings, err := h.settingsService.GetSyncSettings(c.Request().Context())
	if err != nil {
		h.logger.Error("Get sync settings failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read sync settings")
	}

	return c.JSON(http.StatusOK, settings)
}

// UpdateSyncSettings saves the editable sync configuration
func (h *SyncHandler) UpdateSyncSettings(c echo.Context) error {
	var req services.UpdateSyncSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	settings, err := h.settingsService.UpdateSyncSettings(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Update sync settings failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, settings)
}

// GetTheme returns the UI theme preference
func (h *SyncHandler) GetTheme(c echo.Context) error {
	theme, err := h.settingsService.GetTheme(c.Request().Context())
	if err != nil {
		h.logger.Error("Get theme failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read theme")
	}

	return c.JSON(http.StatusOK, map[string]string{"theme": theme})
}

// SaveTheme persists the UI theme preference. Theme edits are device-local
// and never advance the modification clock.
func (h *SyncHandler) SaveTheme(c echo.Context) error {
	var req struct {
		Theme string `json:"theme" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.settingsService.SaveTheme(c.Request().Context(), req.Theme); err != nil {
		h.logger.Error("Save theme failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save theme")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Theme saved"})
}

// Export handles a full data export download
func (h *SyncHandler) Export(c echo.Context) error {
	snap, err := h.snapshotService.Export(c.Request().Context())
	if err != nil {
		h.logger.Error("Export failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export data")
	}

	return c.JSON(http.StatusOK, snap)
}

// Import handles a user-initiated restore from an uploaded snapshot. The
// modification clock is stamped from the snapshot (restore default).
func (h *SyncHandler) Import(c echo.Context) error {
	var snap entities.Snapshot
	if err := c.Bind(&snap); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	stats, err := h.snapshotService.Import(c.Request().Context(), &snap, ports.ImportOptions{})
	if err != nil {
		if errors.Is(err, entities.ErrInvalidFormat) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error("Import failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to import data")
	}

	return c.JSON(http.StatusOK, stats)
}
