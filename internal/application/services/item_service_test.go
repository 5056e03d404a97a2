package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayflow/core/internal/application/services"
	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/ports"
	"github.com/dayflow/core/internal/testutil"
)

type itemFixture struct {
	svc      *services.ItemService
	settings ports.SettingsRepository
	notified int
}

func newItemFixture(t *testing.T) *itemFixture {
	_, items, _, settings := testutil.SetupTestDB(t)
	f := &itemFixture{settings: settings}
	f.svc = services.NewItemService(items, settings, testutil.Logger(), func() { f.notified++ })
	return f
}

func TestItemServiceCreate(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	item, err := f.svc.CreateItem(ctx, ports.CreateItemRequest{
		Content: "  water plants  ",
		DueDate: testutil.StrPtr("2024-06-15"),
		Tags:    []string{"t1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "water plants", item.Content, "content is trimmed")
	assert.NotEmpty(t, item.CreatedAt)
	assert.Equal(t, item.CreatedAt, item.UpdatedAt)

	// Every mutation advances the clock and pokes the notifier.
	clock, err := f.settings.GetModified(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, clock)
	assert.Equal(t, 1, f.notified)
}

func TestItemServiceCreateRejectsEmptyContent(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateItem(ctx, ports.CreateItemRequest{Content: "   "})
	assert.ErrorIs(t, err, entities.ErrEmptyContent)

	clock, err := f.settings.GetModified(ctx)
	require.NoError(t, err)
	assert.Empty(t, clock, "a rejected write does not move the clock")
	assert.Zero(t, f.notified)
}

func TestItemServiceUpdate(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	item, err := f.svc.CreateItem(ctx, ports.CreateItemRequest{
		Content: "water plants",
		DueDate: testutil.StrPtr("2024-06-15"),
		Note:    testutil.StrPtr("the fern too"),
	})
	require.NoError(t, err)

	// Empty due date clears the schedule; empty note clears the note.
	updated, err := f.svc.UpdateItem(ctx, item.ID, ports.UpdateItemRequest{
		Content: testutil.StrPtr("water all plants"),
		DueDate: testutil.StrPtr(""),
		Note:    testutil.StrPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "water all plants", updated.Content)
	assert.Nil(t, updated.DueDate)
	assert.Nil(t, updated.Note)
	assert.False(t, updated.IsScheduled())

	assert.Equal(t, 2, f.notified)
}

func TestItemServiceUpdateMissing(t *testing.T) {
	f := newItemFixture(t)

	_, err := f.svc.UpdateItem(context.Background(), "missing", ports.UpdateItemRequest{})
	assert.ErrorIs(t, err, entities.ErrItemNotFound)
}

func TestItemServiceToggleDone(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	item, err := f.svc.CreateItem(ctx, ports.CreateItemRequest{Content: "water plants"})
	require.NoError(t, err)
	require.False(t, item.IsDone())

	toggled, err := f.svc.ToggleDone(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsDone())
	require.NotNil(t, toggled.DoneAt)

	back, err := f.svc.ToggleDone(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, back.IsDone())
	assert.Nil(t, back.DoneAt)

	assert.Equal(t, 3, f.notified, "create plus two toggles")
}

func TestItemServiceDelete(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	item, err := f.svc.CreateItem(ctx, ports.CreateItemRequest{Content: "water plants"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteItem(ctx, item.ID))
	_, err = f.svc.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, entities.ErrItemNotFound)

	assert.ErrorIs(t, f.svc.DeleteItem(ctx, item.ID), entities.ErrItemNotFound)
	assert.Equal(t, 2, f.notified, "create and the one successful delete")
}
