package storage

import (
	"go-photo-gallery/internal/config"
	"go-photo-gallery/internal/remote"
)

// NewPusher returns the remote selected by cfg.Provider. It returns nil for
// "none"; snapshots then stay on local disk.
func NewPusher(cfg config.RemoteConfig) (remote.Pusher, error) {
	switch cfg.Provider {
	case config.RemoteGitHub:
		return remote.NewGitHubClient(cfg), nil
	case config.RemoteS3:
		mirror, err := NewS3Mirror(cfg.S3)
		if err != nil {
			return nil, err
		}
		return mirror, nil
	default:
		return nil, nil
	}
}
