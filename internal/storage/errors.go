package storage

import "errors"

var (
	// ErrNotFound means no record matched the tenant and key.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey means the key is already taken. Reports, feedback, runs
	// and audit events are append-only and never overwritten.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput means a record failed basic checks before storage.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict means a concurrent writer changed the same tenant state first,
	// e.g. two activations racing for the single active slot.
	ErrConflict = errors.New("concurrent modification conflict")
)
