package session

import "errors"

var (
	// ErrExists is returned by Create when the thread already has a session
	// in memory or a durable record.
	ErrExists = errors.New("session already exists")

	// ErrNotFound is returned when no active session has the thread id.
	ErrNotFound = errors.New("session not found")

	// ErrUnknownState is returned when parsing an unrecognized state name.
	ErrUnknownState = errors.New("unknown session state")
)
