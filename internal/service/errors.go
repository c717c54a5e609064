package service

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidStatus = errors.New("invalid task status")
	ErrInvalidRule   = errors.New("invalid threshold rule")
	ErrMissingUser   = errors.New("acting user is required")
	ErrInvalidInput  = errors.New("invalid input")
	// ErrDedupKeyHeld is returned when re-opening a task whose condition is
	// already tracked by another open task.
	ErrDedupKeyHeld = errors.New("another open task tracks the same condition")
)

// DataError reports a record that could not be validated. The rest of the
// batch is unaffected.
type DataError struct {
	RecordID string `json:"record_id"`
	Reason   string `json:"reason"`
}

func (e DataError) Error() string {
	return fmt.Sprintf("record %s: %s", e.RecordID, e.Reason)
}

// ItemError is a per-item failure collected by a batch operation. Key names
// the item (dedup key, user id, record id, ...).
type ItemError struct {
	Key string
	Err error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}
