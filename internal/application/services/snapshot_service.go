package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/logger"
	"github.com/dayflow/core/internal/ports"
)

// SnapshotService builds complete data exports and restores them. Export is
// a pure read; Import is a destructive whole-store replace, never a merge.
type SnapshotService struct {
	itemRepo     ports.ItemRepository
	moodRepo     ports.MoodRepository
	settingsRepo ports.SettingsRepository
	logger       *logger.Logger
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(itemRepo ports.ItemRepository, moodRepo ports.MoodRepository, settingsRepo ports.SettingsRepository, appLogger *logger.Logger) *SnapshotService {
	return &SnapshotService{
		itemRepo:     itemRepo,
		moodRepo:     moodRepo,
		settingsRepo: settingsRepo,
		logger:       appLogger,
	}
}

// Export reads all items, all mood entries, and the user-data subset of
// settings into a snapshot. Device-local settings (sync config, theme,
// timezone) are excluded. Ids and timestamps are carried verbatim so that
// re-importing the output reproduces the exact same store.
func (s *SnapshotService) Export(ctx context.Context) (*entities.Snapshot, error) {
	items, err := s.itemRepo.List(ctx, ports.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("export items: %w", err)
	}

	moods, err := s.moodRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export mood entries: %w", err)
	}

	settings, err := s.settingsRepo.UserData(ctx)
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}

	modified, err := s.settingsRepo.GetModified(ctx)
	if err != nil {
		return nil, fmt.Errorf("read modification clock: %w", err)
	}

	snap := &entities.Snapshot{
		Version:    entities.SnapshotVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Data: &entities.SnapshotData{
			Tasks:    make([]entities.Item, 0, len(items)),
			Habits:   make([]entities.MoodEntry, 0, len(moods)),
			Settings: settings,
		},
	}
	if modified != "" {
		snap.LocalModifiedAt = &modified
	}

	for _, item := range items {
		snap.Data.Tasks = append(snap.Data.Tasks, *item)
	}
	for _, mood := range moods {
		snap.Data.Habits = append(snap.Data.Habits, *mood)
	}

	return snap, nil
}

// Import replaces the entire store with the snapshot's contents: items and
// mood entries are cleared and re-inserted verbatim (one transaction per
// collection), settings are upserted key by key without clearing keys the
// snapshot does not carry.
//
// With opts.PreserveLocalTimestamp false (the user-initiated restore
// default) the modification clock is stamped with the snapshot's own
// timestamp, falling back to the current time. With true the clock is left
// untouched and the caller must set it right after, otherwise the next sync
// tick would see a spurious "local is newer".
func (s *SnapshotService) Import(ctx context.Context, snap *entities.Snapshot, opts ports.ImportOptions) (*entities.ImportStats, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	stats := &entities.ImportStats{}

	items := snap.Data.Tasks
	if items == nil {
		items = []entities.Item{}
	}
	if err := s.itemRepo.ReplaceAll(ctx, items); err != nil {
		return nil, fmt.Errorf("import items: %w", err)
	}
	stats.Tasks = len(items)

	moods := snap.Data.Habits
	if moods == nil {
		moods = []entities.MoodEntry{}
	}
	if err := s.moodRepo.ReplaceAll(ctx, moods); err != nil {
		return nil, fmt.Errorf("import mood entries: %w", err)
	}
	stats.Habits = len(moods)

	for key, value := range snap.Data.Settings {
		if err := s.settingsRepo.SetRaw(ctx, key, value); err != nil {
			return nil, fmt.Errorf("import setting %s: %w", key, err)
		}
		stats.Settings++
	}

	if !opts.PreserveLocalTimestamp {
		ts := snap.EffectiveTimestamp()
		if ts == "" {
			ts = entities.NowLocal()
		}
		if err := s.settingsRepo.SetModifiedRaw(ctx, ts); err != nil {
			return nil, fmt.Errorf("stamp modification clock: %w", err)
		}
	}

	s.logger.Info("Snapshot imported",
		"tasks", stats.Tasks,
		"habits", stats.Habits,
		"settings", stats.Settings,
		"preserve_clock", opts.PreserveLocalTimestamp,
	)

	return stats, nil
}
