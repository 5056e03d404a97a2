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

func newTagFixture(t *testing.T) (*services.TagService, *services.ItemService, ports.SettingsRepository) {
	_, items, _, settings := testutil.SetupTestDB(t)
	tagSvc := services.NewTagService(settings, testutil.Logger(), nil)
	itemSvc := services.NewItemService(items, settings, testutil.Logger(), nil)
	return tagSvc, itemSvc, settings
}

func TestTagServiceAddUpdateRemove(t *testing.T) {
	tags, _, _ := newTagFixture(t)
	ctx := context.Background()

	tag, err := tags.AddTag(ctx, ports.TagRequest{Name: "  errand  ", Color: "#ff0000"})
	require.NoError(t, err)
	assert.NotEmpty(t, tag.ID)
	assert.Equal(t, "errand", tag.Name)

	updated, err := tags.UpdateTag(ctx, tag.ID, ports.TagRequest{Name: "errands", Color: "#00ff00"})
	require.NoError(t, err)
	assert.Equal(t, "errands", updated.Name)
	assert.Equal(t, "#00ff00", updated.Color)

	list, err := tags.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "errands", list[0].Name)

	require.NoError(t, tags.RemoveTag(ctx, tag.ID))
	list, err = tags.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTagServiceUnknownID(t *testing.T) {
	tags, _, _ := newTagFixture(t)
	ctx := context.Background()

	_, err := tags.UpdateTag(ctx, "missing", ports.TagRequest{Name: "x"})
	assert.ErrorIs(t, err, entities.ErrTagNotFound)
	assert.ErrorIs(t, tags.RemoveTag(ctx, "missing"), entities.ErrTagNotFound)
}

func TestTagServiceRemoveLeavesItemReferences(t *testing.T) {
	tags, items, _ := newTagFixture(t)
	ctx := context.Background()

	tag, err := tags.AddTag(ctx, ports.TagRequest{Name: "errand"})
	require.NoError(t, err)

	item, err := items.CreateItem(ctx, ports.CreateItemRequest{
		Content: "buy milk",
		Tags:    []string{tag.ID},
	})
	require.NoError(t, err)

	// Removing the tag leaves the item's reference dangling on purpose.
	require.NoError(t, tags.RemoveTag(ctx, tag.ID))

	got, err := items.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{tag.ID}, got.Tags)
}

func TestTagServiceMutationsBumpClock(t *testing.T) {
	tags, _, settings := newTagFixture(t)
	ctx := context.Background()

	before, err := settings.GetModified(ctx)
	require.NoError(t, err)
	require.Empty(t, before)

	_, err = tags.AddTag(ctx, ports.TagRequest{Name: "errand"})
	require.NoError(t, err)

	after, err := settings.GetModified(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, after)
}
