package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/testutil"
)

func TestMoodRepositoryUpsert(t *testing.T) {
	_, _, moods, _ := testutil.SetupTestDB(t)
	ctx := context.Background()

	entry := &entities.MoodEntry{Date: "2024-06-15", Score: 7, Note: testutil.StrPtr("good day")}
	require.NoError(t, moods.Upsert(ctx, entry))
	assert.NotEmpty(t, entry.ID, "upsert assigns an id when none is given")
	assert.Equal(t, 2024, entry.Year)

	firstID := entry.ID

	// A second write for the same date updates in place and keeps the id.
	again := &entities.MoodEntry{Date: "2024-06-15", Score: 4, Note: testutil.StrPtr("reconsidered")}
	require.NoError(t, moods.Upsert(ctx, again))
	assert.Equal(t, firstID, again.ID)

	got, err := moods.GetByDate(ctx, "2024-06-15")
	require.NoError(t, err)
	assert.Equal(t, firstID, got.ID)
	assert.Equal(t, 4, got.Score)
	require.NotNil(t, got.Note)
	assert.Equal(t, "reconsidered", *got.Note)

	all, err := moods.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "one entry per date")
}

func TestMoodRepositoryListByYear(t *testing.T) {
	_, _, moods, _ := testutil.SetupTestDB(t)
	ctx := context.Background()

	for _, date := range []string{"2023-12-31", "2024-01-01", "2024-07-04"} {
		require.NoError(t, moods.Upsert(ctx, &entities.MoodEntry{Date: date, Score: 5}))
	}

	year2024, err := moods.ListByYear(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, year2024, 2)
	assert.Equal(t, "2024-01-01", year2024[0].Date)
	assert.Equal(t, "2024-07-04", year2024[1].Date)

	year2022, err := moods.ListByYear(ctx, 2022)
	require.NoError(t, err)
	assert.Empty(t, year2022)
}

func TestMoodRepositoryDelete(t *testing.T) {
	_, _, moods, _ := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, moods.Upsert(ctx, &entities.MoodEntry{Date: "2024-06-15", Score: 6}))
	require.NoError(t, moods.Delete(ctx, "2024-06-15"))

	_, err := moods.GetByDate(ctx, "2024-06-15")
	assert.ErrorIs(t, err, entities.ErrMoodEntryNotFound)

	assert.ErrorIs(t, moods.Delete(ctx, "2024-06-15"), entities.ErrMoodEntryNotFound)
}

func TestMoodRepositoryReplaceAll(t *testing.T) {
	_, _, moods, _ := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, moods.Upsert(ctx, &entities.MoodEntry{Date: "2024-06-15", Score: 6}))

	replacement := []entities.MoodEntry{
		{ID: "m1", Date: "2024-01-01", Score: 8, Year: 2024, CreatedAt: "2024-01-01T20:00:00.000", UpdatedAt: "2024-01-01T20:00:00.000"},
		{ID: "m2", Date: "2024-01-02", Score: 3, Year: 2024, CreatedAt: "2024-01-02T20:00:00.000", UpdatedAt: "2024-01-02T20:00:00.000"},
	}
	require.NoError(t, moods.ReplaceAll(ctx, replacement))

	all, err := moods.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = moods.GetByDate(ctx, "2024-06-15")
	assert.ErrorIs(t, err, entities.ErrMoodEntryNotFound)
}
