package backup

import (
	"errors"
	"fmt"
)

// ErrSchemaRebuild means the tables could not be recreated; the restore
// transaction was rolled back and the previous data is intact.
var ErrSchemaRebuild = errors.New("failed to recreate schema")

// FormatError aborts a restore before the store is touched.
type FormatError struct {
	// Key is the top-level key at fault, empty for whole-document problems.
	Key    string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := "invalid snapshot: "
	if e.Key != "" {
		msg += fmt.Sprintf("key %q ", e.Key)
	}
	msg += e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// RowError describes one skipped record.
type RowError struct {
	Collection string `json:"collection"`
	Index      int    `json:"index"`
	Reason     string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s[%d]: %s", e.Collection, e.Index, e.Reason)
}
