// Package gallery runs every gallery operation through the same pipeline:
// validate, change the store, serialize it, write the local snapshot and push
// the snapshot to the configured remote.
//
// A failed push never undoes the local change; it is reported in the
// CommitResult returned next to the operation's own result.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go-photo-gallery/internal/backup"
	"go-photo-gallery/internal/logging"
	"go-photo-gallery/internal/remote"
	"go-photo-gallery/internal/store"
	"go-photo-gallery/internal/utils"
	"go-photo-gallery/internal/websocket"
)

// ErrSnapshotWrite means the store changed but the local snapshot file could
// not be rewritten.
var ErrSnapshotWrite = errors.New("changes saved but the local snapshot could not be written")

// Notifier receives pipeline events, typically the websocket status feed.
type Notifier interface {
	Publish(eventType string, data interface{})
}

type Options struct {
	SnapshotPath string
	SyncOnBoot   bool
	Images       utils.ImageOptions
	// Pusher is optional; without one snapshots stay local.
	Pusher   remote.Pusher
	Notifier Notifier
	Now      func() time.Time
}

// CommitResult reports what happened after the store was changed.
type CommitResult struct {
	SnapshotPath  string             `json:"snapshot_path"`
	Synced        bool               `json:"synced"`
	Sync          *remote.SyncResult `json:"sync,omitempty"`
	SyncError     string             `json:"sync_error,omitempty"`
	SyncErrorKind remote.Kind        `json:"sync_error_kind,omitempty"`
	Err           error              `json:"-"`
}

type Service struct {
	mu    sync.Mutex
	store *store.Store
	opts  Options
}

func NewService(st *store.Store, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Images == (utils.ImageOptions{}) {
		opts.Images = utils.DefaultImageOptions
	}
	return &Service{store: st, opts: opts}
}

// BootReport summarizes startup.
type BootReport struct {
	Restore      *backup.RestoreReport `json:"restore,omitempty"`
	RestoreError string                `json:"restore_error,omitempty"`
	Seeded       int                   `json:"seeded"`
	Commit       *CommitResult         `json:"commit,omitempty"`
}

// Bootstrap restores the local snapshot, makes sure the schema and default
// folders exist and writes a fresh snapshot. A snapshot with the wrong shape
// is left on disk untouched so it can be inspected; the next mutation
// replaces it.
func (s *Service) Bootstrap(ctx context.Context) (*BootReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := logging.With("gallery")

	report := &BootReport{}
	restored, err := backup.Restore(ctx, s.store.DB(), s.opts.SnapshotPath)
	var formatErr *backup.FormatError
	switch {
	case errors.As(err, &formatErr):
		report.RestoreError = err.Error()
		log.Error().Err(err).Msg("snapshot ignored, continuing with the current database")
	case err != nil:
		return nil, err
	default:
		report.Restore = restored
	}

	if err := s.store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}
	seeded, err := s.store.SeedDefaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed default folders: %w", err)
	}
	report.Seeded = seeded

	if formatErr != nil {
		return report, nil
	}
	report.Commit, err = s.commit(ctx, s.opts.SyncOnBoot)
	return report, err
}

// Backup writes the snapshot and pushes it, without changing the store.
func (s *Service) Backup(ctx context.Context) (*CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, true)
}

// Export returns the current content of the store.
func (s *Service) Export(ctx context.Context) (*backup.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return backup.Serialize(ctx, s.store.DB())
}

// RestoreLocal reloads the store from the local snapshot file.
func (s *Service) RestoreLocal(ctx context.Context) (*backup.RestoreReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := backup.Restore(ctx, s.store.DB(), s.opts.SnapshotPath)
	if err != nil {
		return nil, err
	}
	s.notify(websocket.RestoreFinished, report)
	return report, nil
}

// RestoreUpload restores from an uploaded document. The document is checked
// from a temporary file first, so a malformed upload leaves both the store and
// the local snapshot alone. On success the snapshot is rewritten from the
// store and pushed.
func (s *Service) RestoreUpload(ctx context.Context, data []byte) (*backup.RestoreReport, *CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.opts.SnapshotPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "restore-*.json")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	report, err := backup.Restore(ctx, s.store.DB(), tmp.Name())
	if err != nil {
		return nil, nil, err
	}
	if report.Status != backup.StatusRestored {
		return nil, nil, &backup.FormatError{Reason: "uploaded document is empty"}
	}
	s.notify(websocket.RestoreFinished, report)

	commit, err := s.commit(ctx, true)
	return report, commit, err
}

// commit serializes the store, writes the snapshot and optionally pushes it.
// Callers hold s.mu.
func (s *Service) commit(ctx context.Context, push bool) (*CommitResult, error) {
	log := logging.With("gallery")
	result := &CommitResult{SnapshotPath: s.opts.SnapshotPath}

	snap, err := backup.Serialize(ctx, s.store.DB())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotWrite, err)
	}
	if err := backup.WriteSnapshot(snap, s.opts.SnapshotPath); err != nil {
		log.Error().Err(err).Str("path", s.opts.SnapshotPath).Msg("failed to write snapshot")
		return nil, fmt.Errorf("%w: %v", ErrSnapshotWrite, err)
	}
	s.notify(websocket.SnapshotWritten, map[string]interface{}{
		"path":    s.opts.SnapshotPath,
		"folders": len(snap.Folders),
		"images":  len(snap.Images),
		"surveys": len(snap.Surveys),
	})

	if !push || s.opts.Pusher == nil {
		return result, nil
	}

	pushed, err := s.opts.Pusher.Push(ctx, s.opts.SnapshotPath)
	if err != nil {
		result.Err = err
		result.SyncError = err.Error()
		result.SyncErrorKind = remote.KindOf(err)
		log.Warn().Err(err).Str("kind", string(result.SyncErrorKind)).Msg("remote sync failed, local snapshot kept")
		s.notify(websocket.SyncFailed, map[string]interface{}{
			"kind":  result.SyncErrorKind,
			"error": result.SyncError,
		})
		return result, nil
	}
	result.Synced = true
	result.Sync = pushed
	s.notify(websocket.SyncSucceeded, pushed)
	return result, nil
}

func (s *Service) notify(eventType websocket.EventType, data interface{}) {
	if s.opts.Notifier != nil {
		s.opts.Notifier.Publish(string(eventType), data)
	}
}
