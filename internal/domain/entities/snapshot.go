package entities

import "encoding/json"

// SnapshotVersion is the wire format version written into every export.
const SnapshotVersion = 1

// Snapshot is the complete exported representation of all user data at a
// point in time. LocalModifiedAt inside the snapshot is the authoritative
// value compared during sync; SyncedAt and ExportedAt are fallbacks for
// payloads produced by older exporters.
type Snapshot struct {
	Version         int           `json:"version"`
	ExportedAt      string        `json:"exportedAt"`
	LocalModifiedAt *string       `json:"localModifiedAt"`
	SyncedAt        string        `json:"syncedAt,omitempty"`
	Data            *SnapshotData `json:"data"`
}

// SnapshotData holds the exported collections. Settings is kept as raw JSON
// per key so that keys written by other clients survive a round trip
// untouched; well-known keys are decoded where needed.
type SnapshotData struct {
	Tasks    []Item                     `json:"tasks"`
	Habits   []MoodEntry                `json:"habits"`
	Settings map[string]json.RawMessage `json:"settings"`
}

// ImportStats reports what an import wrote, for UI feedback.
type ImportStats struct {
	Tasks    int `json:"tasksImported"`
	Habits   int `json:"habitsImported"`
	Settings int `json:"settingsImported"`
}

// Validate checks the minimal shape contract: a snapshot without a data
// object cannot be imported.
func (s *Snapshot) Validate() error {
	if s == nil || s.Data == nil {
		return ErrInvalidFormat
	}
	return nil
}

// EffectiveTimestamp returns the snapshot's authoritative modification
// timestamp: localModifiedAt when present, then syncedAt, then exportedAt.
// Returns "" when none is set.
func (s *Snapshot) EffectiveTimestamp() string {
	if s.LocalModifiedAt != nil && *s.LocalModifiedAt != "" {
		return *s.LocalModifiedAt
	}
	if s.SyncedAt != "" {
		return s.SyncedAt
	}
	return s.ExportedAt
}
