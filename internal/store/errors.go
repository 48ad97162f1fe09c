package store

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a missing or unauthorized resource lookup.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate indicates a unique constraint rejected the write.
var ErrDuplicate = errors.New("record already exists")

// FetchError wraps a failed read of shift records.
type FetchError struct {
	OwnerID int64
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch shifts for user %d: %v", e.OwnerID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError wraps a rejected shift insert.
type WriteError struct {
	OwnerID int64
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("insert shift for user %d: %v", e.OwnerID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
