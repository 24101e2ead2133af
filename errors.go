package lsmkv

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by DB operations. Use errors.Is to test for
// them; Get additionally distinguishes "never written" from "deleted" via
// NotFoundError.
var (
	// ErrIOError wraps an underlying filesystem failure.
	ErrIOError = errors.New("db: I/O error")

	// ErrCorruption indicates on-disk data failed a format or checksum
	// check.
	ErrCorruption = errors.New("db: corruption")

	// ErrInvalidArgument indicates a caller-supplied argument is invalid,
	// such as an empty database path or a database directory that is
	// missing (without CreateIfMissing) or already exists (with
	// ErrorIfExists).
	ErrInvalidArgument = errors.New("db: invalid argument")

	// ErrClosed indicates an operation was attempted on a DB that has
	// already been closed.
	ErrClosed = errors.New("db: closed")

	// ErrNotFound is the sentinel wrapped by every NotFoundError. Test
	// against it with errors.Is rather than comparing to NotFoundError
	// directly.
	ErrNotFound = errors.New("db: not found")
)

// NotFoundError is returned by Get when key has no live value. Deleted
// distinguishes a key that was explicitly deleted from one that was never
// written; both forms satisfy errors.Is(err, ErrNotFound).
type NotFoundError struct {
	Key     []byte
	Deleted bool
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Deleted {
		return fmt.Sprintf("db: key %q was deleted", e.Key)
	}
	return fmt.Sprintf("db: key %q not found", e.Key)
}

// Unwrap allows errors.Is(err, ErrNotFound) to succeed for any
// NotFoundError.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
