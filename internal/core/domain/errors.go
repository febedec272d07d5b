package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates a configuration or validation failure.
	// It is always detected before the run performs any write.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrHashing indicates a document could not be hashed.
	ErrHashing = errors.New("hashing failed")

	// ErrDestination indicates the destination reported failed items.
	// Partial failures are never downgraded to skips.
	ErrDestination = errors.New("destination operation failed")

	// ErrRecordManager indicates the ledger violated its contract.
	ErrRecordManager = errors.New("record manager error")

	// ErrRunInProgress indicates another run holds the lock for a namespace.
	ErrRunInProgress = errors.New("indexing run in progress")

	// ErrClosed indicates an adapter was used after Close.
	ErrClosed = errors.New("closed")
)

// HashingError reports a document whose metadata could not be serialised.
type HashingError struct {
	// ContentPrefix is the start of the offending document's content.
	ContentPrefix string

	// Err is the underlying serialisation error.
	Err error
}

// Error implements the error interface.
func (e *HashingError) Error() string {
	return fmt.Sprintf("failed to hash metadata of document starting with %q: %v; "+
		"metadata must be serialisable as JSON", e.ContentPrefix, e.Err)
}

// Unwrap returns the underlying cause.
func (e *HashingError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrHashing) match any HashingError.
func (e *HashingError) Is(target error) bool {
	return target == ErrHashing
}
