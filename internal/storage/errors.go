package storage

import "errors"

// Storage errors shared by all store implementations.
var (
	// ErrNotFound is returned when no result set has been persisted yet.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
