package remote

import (
	"errors"
	"fmt"
)

// Precondition failures. Push returns them wrapped in an *Error of
// KindPrecondition before any request is made.
var (
	ErrMissingToken      = errors.New("GitHub token is not configured")
	ErrMalformedToken    = errors.New("GitHub token must start with ghp_ or github_pat_")
	ErrMissingRepository = errors.New("repository URL is not configured")
	ErrInvalidRepository = errors.New("repository URL must look like https://github.com/owner/repo, git@github.com:owner/repo or owner/repo")
	ErrSnapshotMissing   = errors.New("local snapshot file does not exist")
	ErrSnapshotEmpty     = errors.New("local snapshot file is empty")
)

type Kind string

const (
	KindPrecondition Kind = "precondition"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindRateLimited  Kind = "rate_limited"
	KindConflict     Kind = "conflict"
	KindHTTP         Kind = "http"
	KindTransport    Kind = "transport"
)

// Error is a failed push. Step names the protocol stage that failed.
type Error struct {
	Kind    Kind
	Step    string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("sync %s failed", e.Step)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" when err is not a remote error.
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return ""
}

func preconditionError(err error) *Error {
	return &Error{Kind: KindPrecondition, Step: "precondition", Err: err}
}
