package entities

import (
	"errors"
	"strings"
)

// Common errors
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrMoodEntryNotFound = errors.New("mood entry not found")
	ErrTagNotFound       = errors.New("tag not found")
	ErrEmptyContent      = errors.New("content must not be empty")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidScore      = errors.New("score must be between 1 and 10")
	ErrInvalidLink       = errors.New("no file id found in share link")
	ErrFetchFailed       = errors.New("failed to fetch remote data")
	ErrSyncTimeout       = errors.New("remote request timed out")
	ErrInvalidFormat     = errors.New("invalid backup format: missing data")
	ErrNotConfigured     = errors.New("sync is not configured")
	ErrSyncInProgress    = errors.New("a sync is already in progress")
)

// Item represents a single task. DueDate is a YYYY-MM-DD date string or nil
// for unscheduled ("someday") items. DoneAt is a local timestamp string or
// nil while the item is open.
type Item struct {
	ID        string   `json:"id" db:"id"`
	Content   string   `json:"content" db:"content"`
	DueDate   *string  `json:"dueDate" db:"due_date"`
	DoneAt    *string  `json:"doneAt" db:"done_at"`
	Note      *string  `json:"note" db:"note"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"createdAt" db:"created_at"`
	UpdatedAt string   `json:"updatedAt" db:"updated_at"`
}

// MoodEntry records one mood/habit score for a calendar date. Date is the
// natural key: at most one entry exists per date. Year caches the date's
// year for coarse range scans and is recomputed on every write.
type MoodEntry struct {
	ID        string  `json:"id" db:"id"`
	Date      string  `json:"date" db:"date"`
	Score     int     `json:"score" db:"score"`
	Note      *string `json:"note" db:"note"`
	Year      int     `json:"year" db:"year"`
	CreatedAt string  `json:"createdAt" db:"created_at"`
	UpdatedAt string  `json:"updatedAt" db:"updated_at"`
}

// Tag lives inside the settings record, not in its own collection. Items
// reference tags by id with no referential integrity; a dangling tag id on
// an item is rendered as "no tag", never treated as an error.
type Tag struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Deadline    *string `json:"deadline,omitempty"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

// SyncSettings is the persisted sync configuration. LastSyncAt nil is the
// literal "never synced" signal and must never be collapsed to "".
type SyncSettings struct {
	ShareLink     string  `json:"shareLink"`
	WriteEndpoint string  `json:"writeEndpoint"`
	Enabled       bool    `json:"enabled"`
	AutoSync      bool    `json:"autoSync"`
	LastSyncAt    *string `json:"lastSyncAt"`
}

// SyncAction is the outcome of a sync run as reported to the UI.
type SyncAction string

const (
	SyncActionPulled   SyncAction = "pulled"
	SyncActionPushed   SyncAction = "pushed"
	SyncActionUpToDate SyncAction = "upToDate"
	SyncActionError    SyncAction = "error"
)

// SyncState is the engine's externally visible state.
type SyncState string

const (
	SyncStateDisabled SyncState = "disabled"
	SyncStateIdle     SyncState = "idle"
	SyncStateSyncing  SyncState = "syncing"
	SyncStatePulled   SyncState = "pulled"
	SyncStatePushed   SyncState = "pushed"
	SyncStateUpToDate SyncState = "upToDate"
	SyncStateError    SyncState = "error"
)

// SyncResult is returned to the caller of a sync run.
type SyncResult struct {
	Action         SyncAction `json:"action"`
	TasksImported  int        `json:"tasksImported,omitempty"`
	HabitsImported int        `json:"habitsImported,omitempty"`
	Note           string     `json:"note,omitempty"`
	IsFirstSync    bool       `json:"isFirstSync,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Business logic methods for Item

func (i *Item) IsDone() bool {
	return i.DoneAt != nil && *i.DoneAt != ""
}

func (i *Item) IsScheduled() bool {
	return i.DueDate != nil && *i.DueDate != ""
}

func (i *Item) Validate() error {
	if strings.TrimSpace(i.Content) == "" {
		return ErrEmptyContent
	}
	if i.DueDate != nil && *i.DueDate != "" {
		if !IsDateString(*i.DueDate) {
			return ErrInvalidDate
		}
	}
	return nil
}

// HasTag reports whether the item references the given tag id. Duplicate
// tag ids are allowed by construction and tolerated here.
func (i *Item) HasTag(tagID string) bool {
	for _, id := range i.Tags {
		if id == tagID {
			return true
		}
	}
	return false
}

// Business logic methods for MoodEntry

func (m *MoodEntry) Validate() error {
	if !IsDateString(m.Date) {
		return ErrInvalidDate
	}
	if m.Score < 1 || m.Score > 10 {
		return ErrInvalidScore
	}
	return nil
}

// RecomputeYear refreshes the cached year from the entry's date.
func (m *MoodEntry) RecomputeYear() {
	m.Year = YearOf(m.Date)
}

// Business logic methods for Tag

func (t *Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("tag name must not be empty")
	}
	return nil
}

// Business logic methods for SyncSettings

// IsEnabled is true only when a share link is present and sync was
// explicitly switched on.
func (s *SyncSettings) IsEnabled() bool {
	return s.Enabled && s.ShareLink != ""
}

func (s *SyncSettings) HasSynced() bool {
	return s.LastSyncAt != nil
}
