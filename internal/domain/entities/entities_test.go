package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochMillis(t *testing.T) {
	assert.Equal(t, int64(0), EpochMillis(""))
	assert.Equal(t, int64(0), EpochMillis("not a timestamp"))

	earlier := EpochMillis("2024-01-01T10:00:00.000")
	later := EpochMillis("2024-01-02T09:00:00.000")
	require.NotZero(t, earlier)
	require.NotZero(t, later)
	assert.Greater(t, later, earlier)

	// RFC3339 payloads from older exporters still parse.
	assert.NotZero(t, EpochMillis("2024-01-01T10:00:00Z"))
}

func TestLocalTimestampRoundTrip(t *testing.T) {
	now := NowLocal()
	parsed, err := ParseLocalTimestamp(now)
	require.NoError(t, err)
	assert.Equal(t, now, parsed.Format(LocalTimestampLayout))
}

func TestYearOf(t *testing.T) {
	assert.Equal(t, 2024, YearOf("2024-06-15"))
	assert.Equal(t, 0, YearOf("junk"))
}

func TestItemValidate(t *testing.T) {
	item := &Item{Content: "   "}
	assert.ErrorIs(t, item.Validate(), ErrEmptyContent)

	due := "2024-13-99"
	item = &Item{Content: "water plants", DueDate: &due}
	assert.ErrorIs(t, item.Validate(), ErrInvalidDate)

	ok := "2024-06-15"
	item = &Item{Content: "water plants", DueDate: &ok}
	assert.NoError(t, item.Validate())
}

func TestItemHasTagToleratesDuplicates(t *testing.T) {
	item := &Item{Content: "x", Tags: []string{"a", "a", "b"}}
	assert.True(t, item.HasTag("a"))
	assert.False(t, item.HasTag("c"))
}

func TestMoodEntryValidate(t *testing.T) {
	entry := &MoodEntry{Date: "2024-06-15", Score: 0}
	assert.ErrorIs(t, entry.Validate(), ErrInvalidScore)

	entry = &MoodEntry{Date: "2024-06-15", Score: 11}
	assert.ErrorIs(t, entry.Validate(), ErrInvalidScore)

	entry = &MoodEntry{Date: "nope", Score: 5}
	assert.ErrorIs(t, entry.Validate(), ErrInvalidDate)

	entry = &MoodEntry{Date: "2024-06-15", Score: 5}
	assert.NoError(t, entry.Validate())
}

func TestSnapshotEffectiveTimestamp(t *testing.T) {
	modified := "2024-01-02T09:00:00.000"

	snap := &Snapshot{
		LocalModifiedAt: &modified,
		SyncedAt:        "2024-01-03T00:00:00Z",
		ExportedAt:      "2024-01-04T00:00:00Z",
	}
	assert.Equal(t, modified, snap.EffectiveTimestamp())

	snap.LocalModifiedAt = nil
	assert.Equal(t, "2024-01-03T00:00:00Z", snap.EffectiveTimestamp())

	snap.SyncedAt = ""
	assert.Equal(t, "2024-01-04T00:00:00Z", snap.EffectiveTimestamp())

	snap.ExportedAt = ""
	assert.Equal(t, "", snap.EffectiveTimestamp())
}

func TestSnapshotValidate(t *testing.T) {
	snap := &Snapshot{Version: 1}
	assert.ErrorIs(t, snap.Validate(), ErrInvalidFormat)

	snap.Data = &SnapshotData{}
	assert.NoError(t, snap.Validate())
}

func TestSyncSettingsIsEnabled(t *testing.T) {
	s := &SyncSettings{Enabled: true}
	assert.False(t, s.IsEnabled(), "enabled without a share link is not enabled")

	s.ShareLink = "https://drive.google.com/file/d/ABC123/view"
	assert.True(t, s.IsEnabled())

	s.Enabled = false
	assert.False(t, s.IsEnabled())
}
