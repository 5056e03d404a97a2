package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/logger"
	"github.com/dayflow/core/internal/ports"
)

// AutoSync debounces store mutation notifications into sync runs. It is
// handed to the stores as a plain notifier function at construction time
// instead of living behind a module-level callback variable.
//
// A burst of notifications collapses to one sync. A notification arriving
// while a sync is in flight is not dropped but coalesced into exactly one
// trailing sync.
type AutoSync struct {
	sync         ports.SyncService
	settingsRepo ports.SettingsRepository
	logger       *logger.Logger
	delay        time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewAutoSync creates a new auto-sync trigger with the given debounce delay.
func NewAutoSync(syncService ports.SyncService, settingsRepo ports.SettingsRepository, delay time.Duration, appLogger *logger.Logger) *AutoSync {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &AutoSync{
		sync:         syncService,
		settingsRepo: settingsRepo,
		logger:       appLogger.WithComponent("autosync"),
		delay:        delay,
	}
}

// Notify schedules a debounced sync; each call resets the delay.
func (a *AutoSync) Notify() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

// Stop cancels any pending trigger.
func (a *AutoSync) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *AutoSync) fire() {
	ctx := context.Background()

	settings, err := a.settingsRepo.GetSyncSettings(ctx)
	if err != nil {
		a.logger.Error("Failed to read sync settings", "error", err)
		return
	}
	if !settings.IsEnabled() || !settings.AutoSync {
		return
	}

	_, err = a.sync.Sync(ctx)
	if errors.Is(err, entities.ErrSyncInProgress) {
		// A manual or earlier auto sync is running; re-arm once so the
		// trigger is coalesced into a single trailing run.
		a.logger.Debug("Sync in flight, scheduling trailing sync")
		a.Notify()
		return
	}
	if err != nil {
		// The engine already surfaced the error state; auto-sync does not
		// retry on its own.
		a.logger.Warn("Auto sync failed", "error", err)
	}
}
