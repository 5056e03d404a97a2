package ports

import (
	"context"

	"github.com/dayflow/core/internal/domain/entities"
)

// RemoteTransport is the two-function contract the sync engine depends on.
// FetchRemote resolves a sharing link and returns the parsed snapshot;
// PushRemote is a best-effort send whose success only means the request did
// not error — the write target may return an opaque response.
type RemoteTransport interface {
	FetchRemote(ctx context.Context, shareLink string) (*entities.Snapshot, error)
	PushRemote(ctx context.Context, writeEndpoint string, snap *entities.Snapshot) error
}

// ItemService interface for task operations
type ItemService interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*entities.Item, error)
	GetItem(ctx context.Context, id string) (*entities.Item, error)
	UpdateItem(ctx context.Context, id string, req UpdateItemRequest) (*entities.Item, error)
	ToggleDone(ctx context.Context, id string) (*entities.Item, error)
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context, filter ItemFilter) ([]*entities.Item, error)
}

// MoodService interface for mood/habit entry operations
type MoodService interface {
	UpsertEntry(ctx context.Context, req UpsertMoodRequest) (*entities.MoodEntry, error)
	GetEntry(ctx context.Context, date string) (*entities.MoodEntry, error)
	ListEntries(ctx context.Context, year int) ([]*entities.MoodEntry, error)
	DeleteEntry(ctx context.Context, date string) error
}

// TagService interface for tag list operations inside the settings record
type TagService interface {
	ListTags(ctx context.Context) ([]entities.Tag, error)
	AddTag(ctx context.Context, req TagRequest) (*entities.Tag, error)
	UpdateTag(ctx context.Context, id string, req TagRequest) (*entities.Tag, error)
	RemoveTag(ctx context.Context, id string) error
}

// SnapshotService builds full data exports and restores them.
type SnapshotService interface {
	Export(ctx context.Context) (*entities.Snapshot, error)
	Import(ctx context.Context, snap *entities.Snapshot, opts ImportOptions) (*entities.ImportStats, error)
}

// SyncService runs the last-write-wins sync protocol.
type SyncService interface {
	Sync(ctx context.Context) (*entities.SyncResult, error)
	State() (entities.SyncState, string)
}

// ImportOptions controls snapshot import behavior. PreserveLocalTimestamp
// leaves the modification clock untouched; the caller then owns setting it
// to the exact remote value. The user-initiated restore path keeps it false.
type ImportOptions struct {
	PreserveLocalTimestamp bool
}

// Request types

type CreateItemRequest struct {
	Content string   `json:"content" validate:"required"`
	DueDate *string  `json:"dueDate"`
	Note    *string  `json:"note"`
	Tags    []string `json:"tags"`
}

type UpdateItemRequest struct {
	Content *string   `json:"content"`
	DueDate *string   `json:"dueDate"`
	Note    *string   `json:"note"`
	Tags    *[]string `json:"tags"`
}

type UpsertMoodRequest struct {
	Date  string  `json:"date" validate:"required"`
	Score int     `json:"score" validate:"required,min=1,max=10"`
	Note  *string `json:"note"`
}

type TagRequest struct {
	Name     string  `json:"name" validate:"required"`
	Color    string  `json:"color"`
	Deadline *string `json:"deadline"`
}
