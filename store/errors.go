package store

import "errors"

var (
	// ErrDuplicate indicates a record already exists for the thread.
	ErrDuplicate = errors.New("feature request already exists for this thread")

	// ErrNotFound indicates no record exists for the thread.
	ErrNotFound = errors.New("feature request not found")
)
