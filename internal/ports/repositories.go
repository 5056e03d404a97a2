package ports

import (
	"context"
	"encoding/json"

	"github.com/dayflow/core/internal/domain/entities"
)

// ItemRepository defines the interface for task data operations
type ItemRepository interface {
	Create(ctx context.Context, item *entities.Item) error
	GetByID(ctx context.Context, id string) (*entities.Item, error)
	Update(ctx context.Context, item *entities.Item) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ItemFilter) ([]*entities.Item, error)
	Count(ctx context.Context) (int64, error)
	// ReplaceAll atomically clears the collection and inserts the given
	// items verbatim. Readers never observe the intermediate empty state.
	ReplaceAll(ctx context.Context, items []entities.Item) error
}

// MoodRepository defines the interface for mood entry data operations
type MoodRepository interface {
	// Upsert writes the entry for its date. When an entry for that date
	// already exists it is updated in place, preserving the stored id.
	Upsert(ctx context.Context, entry *entities.MoodEntry) error
	GetByDate(ctx context.Context, date string) (*entities.MoodEntry, error)
	ListByYear(ctx context.Context, year int) ([]*entities.MoodEntry, error)
	List(ctx context.Context) ([]*entities.MoodEntry, error)
	Delete(ctx context.Context, date string) error
	ReplaceAll(ctx context.Context, entries []entities.MoodEntry) error
}

// SettingsRepository defines the typed interface over the settings
// key/value collection, including the modification clock.
type SettingsRepository interface {
	GetTags(ctx context.Context) ([]entities.Tag, error)
	SaveTags(ctx context.Context, tags []entities.Tag) error

	GetSyncSettings(ctx context.Context) (*entities.SyncSettings, error)
	SaveSyncSettings(ctx context.Context, s *entities.SyncSettings) error

	GetTheme(ctx context.Context) (string, error)
	SaveTheme(ctx context.Context, theme string) error

	// Raw access for snapshot passthrough of keys this build does not
	// model. GetRaw returns false when the key is absent.
	GetRaw(ctx context.Context, key string) (json.RawMessage, bool, error)
	SetRaw(ctx context.Context, key string, value json.RawMessage) error

	// UserData returns the exportable settings subset: the tag list and any
	// persisted grouping state, never device-local keys (sync config,
	// theme, timezone).
	UserData(ctx context.Context) (map[string]json.RawMessage, error)

	// Modification clock. TouchModified advances the clock to now;
	// SetModifiedRaw writes an exact (possibly past) value and exists only
	// for the import path.
	TouchModified(ctx context.Context) error
	SetModifiedRaw(ctx context.Context, ts string) error
	GetModified(ctx context.Context) (string, error)
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	DueDate   *string // exact date match
	Someday   bool    // only unscheduled items
	Done      *bool
	TagID     *string
	Search    *string
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}
