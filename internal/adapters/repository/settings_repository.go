package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/database"
	"github.com/dayflow/core/internal/ports"
)

// Settings keys. The settings table is a key/value collection for import
// and export compatibility, but every key this build knows about goes
// through a typed accessor.
const (
	keyAvailableTags = "availableTags"
	keyTaskOrder     = "taskOrder"
	keySync          = "sync"
	keyTheme         = "theme"
	keyTimezone      = "timezone"
	keyModifiedAt    = "localDataModifiedAt"
)

// userDataKeys is the exportable subset of settings: the tag list and
// persisted grouping state. Device-local keys (sync config, theme,
// timezone, the modification clock itself) are deliberately absent.
var userDataKeys = []string{keyAvailableTags, keyTaskOrder}

// SettingsRepositoryImpl implements the SettingsRepository interface
type SettingsRepositoryImpl struct {
	db *database.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) ports.SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

func (r *SettingsRepositoryImpl) getValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.DB.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

func (r *SettingsRepositoryImpl) setValue(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := r.db.DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (r *SettingsRepositoryImpl) GetTags(ctx context.Context) ([]entities.Tag, error) {
	value, ok, err := r.getValue(ctx, keyAvailableTags)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []entities.Tag{}, nil
	}

	var tags []entities.Tag
	if err := json.Unmarshal([]byte(value), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if tags == nil {
		tags = []entities.Tag{}
	}

	return tags, nil
}

func (r *SettingsRepositoryImpl) SaveTags(ctx context.Context, tags []entities.Tag) error {
	if tags == nil {
		tags = []entities.Tag{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	return r.setValue(ctx, keyAvailableTags, string(raw))
}

// GetSyncSettings returns the persisted sync configuration, applying
// defaults for a fresh install: disabled, no auto-sync, never synced.
func (r *SettingsRepositoryImpl) GetSyncSettings(ctx context.Context) (*entities.SyncSettings, error) {
	value, ok, err := r.getValue(ctx, keySync)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &entities.SyncSettings{}, nil
	}

	var settings entities.SyncSettings
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return nil, fmt.Errorf("decode sync settings: %w", err)
	}

	// Guard the "never synced" sentinel: an empty string would be
	// indistinguishable from a garbage timestamp downstream.
	if settings.LastSyncAt != nil && *settings.LastSyncAt == "" {
		settings.LastSyncAt = nil
	}

	return &settings, nil
}

func (r *SettingsRepositoryImpl) SaveSyncSettings(ctx context.Context, s *entities.SyncSettings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode sync settings: %w", err)
	}
	return r.setValue(ctx, keySync, string(raw))
}

func (r *SettingsRepositoryImpl) GetTheme(ctx context.Context) (string, error) {
	value, ok, err := r.getValue(ctx, keyTheme)
	if err != nil {
		return "", err
	}
	if !ok {
		return "system", nil
	}

	var theme string
	if err := json.Unmarshal([]byte(value), &theme); err != nil {
		return "", fmt.Errorf("decode theme: %w", err)
	}
	return theme, nil
}

func (r *SettingsRepositoryImpl) SaveTheme(ctx context.Context, theme string) error {
	raw, err := json.Marshal(theme)
	if err != nil {
		return fmt.Errorf("encode theme: %w", err)
	}
	return r.setValue(ctx, keyTheme, string(raw))
}

func (r *SettingsRepositoryImpl) GetRaw(ctx context.Context, key string) (json.RawMessage, bool, error) {
	value, ok, err := r.getValue(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	return json.RawMessage(value), true, nil
}

func (r *SettingsRepositoryImpl) SetRaw(ctx context.Context, key string, value json.RawMessage) error {
	return r.setValue(ctx, key, string(value))
}

func (r *SettingsRepositoryImpl) UserData(ctx context.Context) (map[string]json.RawMessage, error) {
	data := make(map[string]json.RawMessage)
	for _, key := range userDataKeys {
		raw, ok, err := r.GetRaw(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			data[key] = raw
		}
	}
	return data, nil
}

// TouchModified advances the modification clock to now. It never moves the
// clock backwards on purpose; every mutation stamps "now" regardless of any
// timestamp carried by the mutated record.
func (r *SettingsRepositoryImpl) TouchModified(ctx context.Context) error {
	return r.setValue(ctx, keyModifiedAt, entities.NowLocal())
}

// SetModifiedRaw writes an exact clock value. Only the import path uses
// this: after pulling remote data the clock must equal the remote's
// timestamp, which is in the past.
func (r *SettingsRepositoryImpl) SetModifiedRaw(ctx context.Context, ts string) error {
	return r.setValue(ctx, keyModifiedAt, ts)
}

// GetModified returns the clock value, or "" when no mutation has ever
// happened on this device.
func (r *SettingsRepositoryImpl) GetModified(ctx context.Context) (string, error) {
	value, ok, err := r.getValue(ctx, keyModifiedAt)
	if err != nil || !ok {
		return "", err
	}
	return value, nil
}
