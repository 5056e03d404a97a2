package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayflow/core/internal/application/services"
	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/ports"
	"github.com/dayflow/core/internal/testutil"
)

// countingSync records Sync calls and answers from a scripted error queue.
type countingSync struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (c *countingSync) Sync(ctx context.Context) (*entities.SyncResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &entities.SyncResult{Action: entities.SyncActionUpToDate}, nil
}

func (c *countingSync) State() (entities.SyncState, string) {
	return entities.SyncStateIdle, ""
}

func (c *countingSync) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newAutoSyncFixture(t *testing.T, engine ports.SyncService, enabled bool) *services.AutoSync {
	_, _, _, settings := testutil.SetupTestDB(t)
	require.NoError(t, settings.SaveSyncSettings(context.Background(), &entities.SyncSettings{
		ShareLink: "https://drive.google.com/file/d/ABC123/view",
		Enabled:   enabled,
		AutoSync:  enabled,
	}))

	auto := services.NewAutoSync(engine, settings, 20*time.Millisecond, testutil.Logger())
	t.Cleanup(auto.Stop)
	return auto
}

func TestAutoSyncCollapsesBurst(t *testing.T) {
	engine := &countingSync{}
	auto := newAutoSyncFixture(t, engine, true)

	// A rapid burst of mutations produces exactly one sync.
	for i := 0; i < 5; i++ {
		auto.Notify()
	}

	require.Eventually(t, func() bool { return engine.count() == 1 },
		time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, engine.count(), "no extra runs after the burst settles")
}

func TestAutoSyncEachNotifyResetsDelay(t *testing.T) {
	engine := &countingSync{}
	auto := newAutoSyncFixture(t, engine, true)

	// Keep poking inside the debounce window; nothing may fire meanwhile.
	for i := 0; i < 4; i++ {
		auto.Notify()
		time.Sleep(10 * time.Millisecond)
		assert.Zero(t, engine.count())
	}

	require.Eventually(t, func() bool { return engine.count() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestAutoSyncSkipsWhenDisabled(t *testing.T) {
	engine := &countingSync{}
	auto := newAutoSyncFixture(t, engine, false)

	auto.Notify()
	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, engine.count(), "disabled settings suppress the run at fire time")
}

func TestAutoSyncTrailsInFlightSync(t *testing.T) {
	engine := &countingSync{errs: []error{entities.ErrSyncInProgress}}
	auto := newAutoSyncFixture(t, engine, true)

	auto.Notify()

	// The rejected attempt re-arms once and the trailing run succeeds.
	require.Eventually(t, func() bool { return engine.count() == 2 },
		time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 2, engine.count(), "exactly one trailing run")
}

func TestAutoSyncStopCancelsPending(t *testing.T) {
	engine := &countingSync{}
	auto := newAutoSyncFixture(t, engine, true)

	auto.Notify()
	auto.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, engine.count())
}
