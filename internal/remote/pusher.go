// Package remote pushes the local snapshot file to an off-host copy.
//
// The GitHub client commits the file through the contents API, using the
// blob sha as a compare-and-swap token so a concurrent edit on the remote
// side surfaces as a KindConflict error instead of being overwritten.
package remote

import "context"

// Pusher uploads the snapshot file at path.
type Pusher interface {
	Push(ctx context.Context, path string) (*SyncResult, error)
}

// SyncResult describes a successful push.
type SyncResult struct {
	Provider   string `json:"provider"`
	Target     string `json:"target"`
	Path       string `json:"path"`
	Login      string `json:"login,omitempty"`
	CommitSHA  string `json:"commit_sha,omitempty"`
	ContentSHA string `json:"content_sha,omitempty"`
	Created    bool   `json:"created"`
}
