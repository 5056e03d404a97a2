package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/logger"
	"github.com/dayflow/core/internal/ports"
)

// Share link shapes recognized for file id extraction, first match wins.
var fileIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/uc\?.*?id=([a-zA-Z0-9_-]+)`),
}

const defaultBaseURL = "https://drive.google.com"

// DriveTransport fetches and pushes snapshots against a shared cloud file.
// It implements ports.RemoteTransport.
type DriveTransport struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	logger  *logger.Logger
}

// NewDriveTransport creates a new transport with the given request timeout.
func NewDriveTransport(timeout time.Duration, appLogger *logger.Logger) ports.RemoteTransport {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DriveTransport{
		client:  &http.Client{},
		baseURL: defaultBaseURL,
		timeout: timeout,
		logger:  appLogger.WithComponent("transport"),
	}
}

// ExtractFileID pulls the file identifier out of a sharing link. Returns ""
// when no known URL shape matches.
func ExtractFileID(shareLink string) string {
	for _, pattern := range fileIDPatterns {
		if m := pattern.FindStringSubmatch(shareLink); m != nil {
			return m[1]
		}
	}
	return ""
}

// FetchRemote resolves the share link and retrieves the remote snapshot.
// Caching is disabled so a poll always observes the live file.
func (t *DriveTransport) FetchRemote(ctx context.Context, shareLink string) (*entities.Snapshot, error) {
	fileID := ExtractFileID(shareLink)
	if fileID == "" {
		return nil, entities.ErrInvalidLink
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/uc?export=download&id=%s", t.baseURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrFetchFailed, err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", entities.ErrSyncTimeout, t.timeout)
		}
		return nil, fmt.Errorf("%w: %v", entities.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", entities.ErrFetchFailed, resp.StatusCode)
	}

	var snap entities.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON: %v", entities.ErrFetchFailed, err)
	}

	t.logger.Debugw("Fetched remote snapshot", "file_id", fileID, "remote_modified", snap.EffectiveTimestamp())

	return &snap, nil
}

// PushRemote sends the snapshot to the write endpoint. The target may
// answer with an opaque response, so success only means the send did not
// error; the response status is deliberately not interpreted.
func (t *DriveTransport) PushRemote(ctx context.Context, writeEndpoint string, snap *entities.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, writeEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", entities.ErrFetchFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", entities.ErrSyncTimeout, t.timeout)
		}
		return fmt.Errorf("%w: %v", entities.ErrFetchFailed, err)
	}
	resp.Body.Close()

	t.logger.Debugw("Pushed snapshot", "bytes", len(payload))

	return nil
}
