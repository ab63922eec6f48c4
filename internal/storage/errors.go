package storage

import "errors"

var (
	// ErrConflict is returned by Insert when the short code is already taken.
	ErrConflict = errors.New("data conflict")

	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable wraps failures of the underlying persistence layer.
	ErrUnavailable = errors.New("storage unavailable")
)
