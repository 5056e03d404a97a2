package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/logger"
	"github.com/dayflow/core/internal/ports"
)

// Auto-revert delays for transient display states. These are a UI
// affordance only and never gate the next sync attempt.
const (
	successRevertDelay = 3 * time.Second
	errorRevertDelay   = 5 * time.Second
)

// SyncService runs the last-write-wins sync protocol against the shared
// cloud file. At most one sync is in flight at any time; a concurrent call
// is rejected with ErrSyncInProgress rather than queued, which guarantees
// two imports can never race on the local store.
type SyncService struct {
	transport    ports.RemoteTransport
	snapshots    ports.SnapshotService
	settingsRepo ports.SettingsRepository
	logger       *logger.Logger

	successRevert time.Duration
	errorRevert   time.Duration

	mu          sync.Mutex
	state       entities.SyncState
	stateNote   string
	syncing     bool
	revertTimer *time.Timer
}

// NewSyncService creates a new sync engine
func NewSyncService(transport ports.RemoteTransport, snapshots ports.SnapshotService, settingsRepo ports.SettingsRepository, appLogger *logger.Logger) *SyncService {
	return &SyncService{
		transport:     transport,
		snapshots:     snapshots,
		settingsRepo:  settingsRepo,
		logger:        appLogger.WithComponent("sync"),
		successRevert: successRevertDelay,
		errorRevert:   errorRevertDelay,
		state:         entities.SyncStateIdle,
	}
}

// State returns the engine's current display state and note.
func (s *SyncService) State() (entities.SyncState, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.stateNote
}

// RefreshEnabledState recomputes Disabled vs Idle from the persisted sync
// settings. Called after the settings record changes.
func (s *SyncService) RefreshEnabledState(ctx context.Context) error {
	settings, err := s.settingsRepo.GetSyncSettings(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncing {
		return nil
	}
	if settings.IsEnabled() {
		if s.state == entities.SyncStateDisabled {
			s.state = entities.SyncStateIdle
			s.stateNote = ""
		}
	} else {
		s.state = entities.SyncStateDisabled
		s.stateNote = ""
	}
	return nil
}

func (s *SyncService) setState(state entities.SyncState, note string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.revertTimer != nil {
		s.revertTimer.Stop()
		s.revertTimer = nil
	}

	s.state = state
	s.stateNote = note

	// Transient outcome states fall back on their own.
	var delay time.Duration
	switch state {
	case entities.SyncStatePulled, entities.SyncStatePushed, entities.SyncStateUpToDate:
		delay = s.successRevert
	case entities.SyncStateError:
		delay = s.errorRevert
	default:
		return
	}

	s.revertTimer = time.AfterFunc(delay, func() {
		// The settings may have been edited since the outcome was shown;
		// a disabled engine must not resurface as Idle.
		resting := entities.SyncStateIdle
		if settings, err := s.settingsRepo.GetSyncSettings(context.Background()); err == nil && !settings.IsEnabled() {
			resting = entities.SyncStateDisabled
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == state && !s.syncing {
			s.state = resting
			s.stateNote = ""
		}
	})
}

func (s *SyncService) beginSync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.syncing {
		return entities.ErrSyncInProgress
	}

	s.syncing = true
	if s.revertTimer != nil {
		s.revertTimer.Stop()
		s.revertTimer = nil
	}
	s.state = entities.SyncStateSyncing
	s.stateNote = ""
	return nil
}

func (s *SyncService) endSync() {
	s.mu.Lock()
	s.syncing = false
	s.mu.Unlock()
}

// Sync runs one full sync pass: fetch the remote snapshot, decide between
// pull, push and no-op by comparing modification timestamps, and apply the
// decision. Every failure is converted into the Error state and an error
// result; nothing propagates further. There is no internal retry — a retry
// is a fresh Sync call.
func (s *SyncService) Sync(ctx context.Context) (*entities.SyncResult, error) {
	if err := s.beginSync(); err != nil {
		return nil, err
	}
	defer s.endSync()

	start := time.Now()

	result, err := s.run(ctx)
	if err != nil {
		s.setState(entities.SyncStateError, err.Error())
		s.logger.LogSyncOutcome(string(entities.SyncActionError), false, float64(time.Since(start).Milliseconds()), err)
		return &entities.SyncResult{
			Action: entities.SyncActionError,
			Error:  err.Error(),
		}, err
	}

	switch result.Action {
	case entities.SyncActionPulled:
		s.setState(entities.SyncStatePulled, "")
	case entities.SyncActionPushed:
		s.setState(entities.SyncStatePushed, "")
	default:
		s.setState(entities.SyncStateUpToDate, result.Note)
	}

	s.logger.LogSyncOutcome(string(result.Action), result.IsFirstSync, float64(time.Since(start).Milliseconds()), nil)

	return result, nil
}

func (s *SyncService) run(ctx context.Context) (*entities.SyncResult, error) {
	settings, err := s.settingsRepo.GetSyncSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sync settings: %w", err)
	}

	if settings.ShareLink == "" {
		return nil, entities.ErrNotConfigured
	}

	isFirstSync := !settings.HasSynced()

	remote, err := s.transport.FetchRemote(ctx, settings.ShareLink)
	if err != nil {
		return nil, err
	}

	if isFirstSync {
		return s.bootstrap(ctx, remote)
	}

	local, err := s.settingsRepo.GetModified(ctx)
	if err != nil {
		return nil, fmt.Errorf("read modification clock: %w", err)
	}

	localTime := entities.EpochMillis(local)
	remoteTime := entities.EpochMillis(remote.EffectiveTimestamp())

	switch {
	case localTime > remoteTime && settings.WriteEndpoint != "":
		return s.push(ctx, settings)

	case remoteTime > localTime:
		return s.pull(ctx, remote, false)

	case localTime > remoteTime:
		// Local is newer but there is nowhere to push. lastSyncAt is still
		// advanced so the UI does not immediately re-prompt.
		if err := s.markSynced(ctx); err != nil {
			return nil, err
		}
		return &entities.SyncResult{
			Action: entities.SyncActionUpToDate,
			Note:   "local data is newer but no write endpoint is configured",
		}, nil

	default:
		// Exact tie, including both sides never touched: do nothing.
		// Pushing on a tie would only burn network for identical data.
		if err := s.markSynced(ctx); err != nil {
			return nil, err
		}
		return &entities.SyncResult{Action: entities.SyncActionUpToDate}, nil
	}
}

// bootstrap handles the very first sync on a device: the remote snapshot is
// imported unconditionally, discarding any local data. Pushing is never
// allowed here so a fresh, empty install cannot clobber an established
// remote backup.
func (s *SyncService) bootstrap(ctx context.Context, remote *entities.Snapshot) (*entities.SyncResult, error) {
	result, err := s.pull(ctx, remote, true)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SyncService) pull(ctx context.Context, remote *entities.Snapshot, firstSync bool) (*entities.SyncResult, error) {
	stats, err := s.snapshots.Import(ctx, remote, ports.ImportOptions{PreserveLocalTimestamp: true})
	if err != nil {
		return nil, err
	}

	// The clock must end up equal to the remote's timestamp, not "now" —
	// otherwise the next tick would read local as newer and push right
	// back. A remote with no timestamp leaves the clock as-is.
	if ts := remote.EffectiveTimestamp(); ts != "" {
		if err := s.settingsRepo.SetModifiedRaw(ctx, ts); err != nil {
			return nil, fmt.Errorf("set modification clock: %w", err)
		}
	}

	if err := s.markSynced(ctx); err != nil {
		return nil, err
	}

	return &entities.SyncResult{
		Action:         entities.SyncActionPulled,
		TasksImported:  stats.Tasks,
		HabitsImported: stats.Habits,
		IsFirstSync:    firstSync,
	}, nil
}

func (s *SyncService) push(ctx context.Context, settings *entities.SyncSettings) (*entities.SyncResult, error) {
	snap, err := s.snapshots.Export(ctx)
	if err != nil {
		return nil, err
	}
	snap.SyncedAt = time.Now().UTC().Format(time.RFC3339)

	if err := s.transport.PushRemote(ctx, settings.WriteEndpoint, snap); err != nil {
		return nil, err
	}

	if err := s.markSynced(ctx); err != nil {
		return nil, err
	}

	return &entities.SyncResult{Action: entities.SyncActionPushed}, nil
}

// markSynced stamps lastSyncAt with the current time. It is only called on
// a successful outcome; any failure leaves the previous value in place.
// The settings record is re-read here rather than reusing the copy the run
// started with: an edit that landed while the fetch or import was in
// flight must survive the stamp.
func (s *SyncService) markSynced(ctx context.Context) error {
	settings, err := s.settingsRepo.GetSyncSettings(ctx)
	if err != nil {
		return fmt.Errorf("update last sync time: %w", err)
	}

	now := entities.NowLocal()
	settings.LastSyncAt = &now
	if err := s.settingsRepo.SaveSyncSettings(ctx, settings); err != nil {
		return fmt.Errorf("update last sync time: %w", err)
	}
	return nil
}
