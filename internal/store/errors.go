package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("content not found")

	// ErrInvalidInput indicates the caller supplied an unusable request.
	ErrInvalidInput = errors.New("invalid input")
)

// ConflictError is returned when new content hashes identically to an
// existing record.
type ConflictError struct {
	ExistingID string
	Hash       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("content already exists as %s (hash %s)", e.ExistingID, e.Hash)
}
