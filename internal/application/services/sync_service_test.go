package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayflow/core/internal/application/services"
	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/ports"
	"github.com/dayflow/core/internal/testutil"
)

// fakeTransport serves a canned snapshot and records pushes.
type fakeTransport struct {
	snap       *entities.Snapshot
	fetchErr   error
	pushErr    error
	fetchCalls int
	pushed     []*entities.Snapshot
	fetchGate  chan struct{} // when set, FetchRemote blocks until closed
}

func (f *fakeTransport) FetchRemote(ctx context.Context, shareLink string) (*entities.Snapshot, error) {
	f.fetchCalls++
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snap, nil
}

func (f *fakeTransport) PushRemote(ctx context.Context, writeEndpoint string, snap *entities.Snapshot) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, snap)
	return nil
}

type syncFixture struct {
	sync      *services.SyncService
	transport *fakeTransport
	items     ports.ItemRepository
	moods     ports.MoodRepository
	settings  ports.SettingsRepository
}

func newSyncFixture(t *testing.T, transport *fakeTransport) *syncFixture {
	_, items, moods, settings := testutil.SetupTestDB(t)
	snapshots := services.NewSnapshotService(items, moods, settings, testutil.Logger())
	return &syncFixture{
		sync:      services.NewSyncService(transport, snapshots, settings, testutil.Logger()),
		transport: transport,
		items:     items,
		moods:     moods,
		settings:  settings,
	}
}

func (f *syncFixture) configure(t *testing.T, s *entities.SyncSettings) {
	t.Helper()
	require.NoError(t, f.settings.SaveSyncSettings(context.Background(), s))
}

func remoteSnapshot(modifiedAt string, tasks ...entities.Item) *entities.Snapshot {
	snap := &entities.Snapshot{
		Version:    entities.SnapshotVersion,
		ExportedAt: "2024-01-02T09:00:01Z",
		Data:       &entities.SnapshotData{Tasks: tasks},
	}
	if modifiedAt != "" {
		snap.LocalModifiedAt = &modifiedAt
	}
	return snap
}

const shareLink = "https://drive.google.com/file/d/ABC123/view"

func TestSyncNotConfigured(t *testing.T) {
	f := newSyncFixture(t, &fakeTransport{})

	_, err := f.sync.Sync(context.Background())
	assert.ErrorIs(t, err, entities.ErrNotConfigured)
	assert.Zero(t, f.transport.fetchCalls, "no network before configuration")
}

func TestSyncFirstSyncAlwaysPulls(t *testing.T) {
	ctx := context.Background()
	remote := remoteSnapshot("2024-01-01T10:00:00.000",
		entities.Item{ID: "r1", Content: "from remote"})
	f := newSyncFixture(t, &fakeTransport{snap: remote})
	f.configure(t, &entities.SyncSettings{
		ShareLink:     shareLink,
		WriteEndpoint: "https://script.example.com/exec",
		Enabled:       true,
	})

	// Local data exists and is newer than the remote. On a first sync it
	// loses anyway: the device adopts the remote state wholesale.
	require.NoError(t, f.items.Create(ctx, &entities.Item{ID: "l1", Content: "local only"}))
	require.NoError(t, f.settings.SetModifiedRaw(ctx, "2024-06-01T08:00:00.000"))

	result, err := f.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.SyncActionPulled, result.Action)
	assert.True(t, result.IsFirstSync)
	assert.Equal(t, 1, result.TasksImported)
	assert.Empty(t, f.transport.pushed, "first sync never pushes")

	_, err = f.items.GetByID(ctx, "l1")
	assert.ErrorIs(t, err, entities.ErrItemNotFound)
	_, err = f.items.GetByID(ctx, "r1")
	require.NoError(t, err)

	clock, err := f.settings.GetModified(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T10:00:00.000", clock, "clock adopts the remote timestamp")

	sync, err := f.settings.GetSyncSettings(ctx)
	require.NoError(t, err)
	assert.True(t, sync.HasSynced())
}

func TestSyncRemoteNewerPulls(t *testing.T) {
	ctx := context.Background()
	remote := remoteSnapshot("2024-01-02T09:00:00.000",
		entities.Item{ID: "r1", Content: "remote wins"})
	f := newSyncFixture(t, &fakeTransport{snap: remote})
	f.configure(t, &entities.SyncSettings{
		ShareLink:  shareLink,
		Enabled:    true,
		LastSyncAt: testutil.StrPtr("2024-01-01T12:00:00.000"),
	})
	require.NoError(t, f.settings.SetModifiedRaw(ctx, "2024-01-01T10:00:00.000"))

	result, err := f.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.SyncActionPulled, result.Action)
	assert.False(t, result.IsFirstSync)

	got, err := f.items.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "remote wins", got.Content)

	clock, err := f.settings.GetModified(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T09:00:00.000", clock)
}

func TestSyncLocalNewerPushes(t *testing.T) {
	ctx := context.Background()
	remote := remoteSnapshot("2024-01-01T10:00:00.000")
	f := newSyncFixture(t, &fakeTransport{snap: remote})
	f.configure(t, &entities.SyncSettings{
		ShareLink:     shareLink,
		WriteEndpoint: "https://script.example.com/exec",
		Enabled:       true,
		LastSyncAt:    testutil.StrPtr("2024-01-01T12:00:00.000"),
	})
	require.NoError(t, f.items.Create(ctx, &entities.Item{ID: "l1", Content: "local wins"}))
	require.NoError(t, f.settings.SetModifiedRaw(ctx, "2024-01-02T09:00:00.000"))

	result, err := f.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.SyncActionPushed, result.Action)

	require.Len(t, f.transport.pushed, 1)
	sent := f.transport.pushed[0]
	assert.NotEmpty(t, sent.SyncedAt)
	require.Len(t, sent.Data.Tasks, 1)
	assert.Equal(t, "l1", sent.Data.Tasks[0].ID)

	// Pushing does not move the modification clock.
	clock, err := f.settings.GetModified(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T09:00:00.000", clock)
}

func TestSyncLocalNewerWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	remote := remoteSnapshot("2024-01-01T10:00:00.000")
	f := newSyncFixture(t, &fakeTransport{snap: remote})
	f.configure(t, &entities.SyncSettings{
		ShareLink:  shareLink,
		Enabled:    true,
		LastSyncAt: testutil.StrPtr("2024-01-01T12:00:00.000"),
	})
	require.NoError(t, f.items.Create(ctx, &entities.Item{ID: "l1", Content: "stranded"}))
	require.NoError(t, f.settings.SetModifiedRaw(ctx, "2024-01-02T09:00:00.000"))

	result, err := f.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.SyncActionUpToDate, result.Action)
	assert.NotEmpty(t, result.Note)
	assert.Empty(t, f.transport.pushed)

	// Local data is untouched.
	_, err = f.items.GetByID(ctx, "l1")
	require.NoError(t, err)
}

func TestSyncTieIsNoOp(t *testing.T) {
	ctx := context.Background()
	ts := "2024-01-02T09:00:00.000"
	remote := remoteSnapshot(ts, entities.Item{ID: "r1", Content: "remote copy"})
	f := newSyncFixture(t, &fakeTransport{snap: remote})
	f.configure(t, &entities.SyncSettings{
		ShareLink:     shareLink,
		WriteEndpoint: "https://script.example.com/exec",
		Enabled:       true,
		LastSyncAt:    testutil.StrPtr("2024-01-01T12:00:00.000"),
	})
	require.NoError(t, f.items.Create(ctx, &entities.Item{ID: "l1", Content: "local copy"}))
	require.NoError(t, f.settings.SetModifiedRaw(ctx, ts))

	result, err := f.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.SyncActionUpToDate, result.Action)
	assert.Empty(t, f.transport.pushed, "a tie never pushes")

	// Nothing imported either.
	_, err = f.items.GetByID(ctx, "l1")
	require.NoError(t, err)

	sync, err := f.settings.GetSyncSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, sync.LastSyncAt)
	assert.NotEqual(t, "2024-01-01T12:00:00.000", *sync.LastSyncAt, "lastSyncAt still advances")
}

func TestSyncFetchErrorLeavesLastSyncAt(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, &fakeTransport{fetchErr: entities.ErrFetchFailed})
	f.configure(t, &entities.SyncSettings{ShareLink: shareLink, Enabled: true})

	result, err := f.sync.Sync(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrFetchFailed)
	require.NotNil(t, result)
	assert.Equal(t, entities.SyncActionError, result.Action)
	assert.NotEmpty(t, result.Error)

	state, note := f.sync.State()
	assert.Equal(t, entities.SyncStateError, state)
	assert.NotEmpty(t, note)

	sync, err := f.settings.GetSyncSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, sync.LastSyncAt, "a failed run never counts as a sync")
}

func TestSyncRejectsConcurrentRun(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	remote := remoteSnapshot("2024-01-02T09:00:00.000")
	f := newSyncFixture(t, &fakeTransport{snap: remote, fetchGate: gate})
	f.configure(t, &entities.SyncSettings{
		ShareLink:  shareLink,
		Enabled:    true,
		LastSyncAt: testutil.StrPtr("2024-01-01T12:00:00.000"),
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.sync.Sync(ctx)
		done <- err
	}()

	// Wait until the first run is visibly in flight.
	require.Eventually(t, func() bool {
		state, _ := f.sync.State()
		return state == entities.SyncStateSyncing
	}, time.Second, time.Millisecond)

	_, err := f.sync.Sync(ctx)
	assert.ErrorIs(t, err, entities.ErrSyncInProgress)

	close(gate)
	require.NoError(t, <-done)
}

func TestSyncKeepsSettingsEditedDuringRun(t *testing.T) {
	ctx := context.Background()
	ts := "2024-01-02T09:00:00.000"
	gate := make(chan struct{})
	f := newSyncFixture(t, &fakeTransport{snap: remoteSnapshot(ts), fetchGate: gate})
	f.configure(t, &entities.SyncSettings{
		ShareLink:  shareLink,
		Enabled:    true,
		LastSyncAt: testutil.StrPtr("2024-01-01T12:00:00.000"),
	})
	require.NoError(t, f.settings.SetModifiedRaw(ctx, ts))

	done := make(chan error, 1)
	go func() {
		_, err := f.sync.Sync(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool {
		state, _ := f.sync.State()
		return state == entities.SyncStateSyncing
	}, time.Second, time.Millisecond)

	// The user configures a write endpoint while the fetch is in flight.
	f.configure(t, &entities.SyncSettings{
		ShareLink:     shareLink,
		WriteEndpoint: "https://script.example.com/exec",
		Enabled:       true,
		LastSyncAt:    testutil.StrPtr("2024-01-01T12:00:00.000"),
	})

	close(gate)
	require.NoError(t, <-done)

	// Stamping lastSyncAt must not clobber the concurrent edit.
	sync, err := f.settings.GetSyncSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://script.example.com/exec", sync.WriteEndpoint)
	require.NotNil(t, sync.LastSyncAt)
	assert.NotEqual(t, "2024-01-01T12:00:00.000", *sync.LastSyncAt)
}

func TestRefreshEnabledState(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, &fakeTransport{})

	// Unconfigured store reads as disabled.
	require.NoError(t, f.sync.RefreshEnabledState(ctx))
	state, _ := f.sync.State()
	assert.Equal(t, entities.SyncStateDisabled, state)

	f.configure(t, &entities.SyncSettings{ShareLink: shareLink, Enabled: true})
	require.NoError(t, f.sync.RefreshEnabledState(ctx))
	state, _ = f.sync.State()
	assert.Equal(t, entities.SyncStateIdle, state)

	f.configure(t, &entities.SyncSettings{ShareLink: shareLink, Enabled: false})
	require.NoError(t, f.sync.RefreshEnabledState(ctx))
	state, _ = f.sync.State()
	assert.Equal(t, entities.SyncStateDisabled, state)
}
