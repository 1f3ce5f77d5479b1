package store

import "errors"

var (
	// ErrNotFound means the record does not exist (or the id is malformed).
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate means a unique constraint (email/username) was violated.
	ErrDuplicate = errors.New("duplicate record")
)
