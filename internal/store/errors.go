package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store. This is the generic version of the entity-specific not
	// found errors below.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a
	// duplicate of a unique entity (e.g. a second flower for the same
	// session).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation or a
	// database constraint before being stored.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrNoPendingTask is returned by ClaimNext when no task is eligible
	// for processing. Callers treat it as an idle tick, not a failure.
	ErrNoPendingTask = errors.New("no pending task")

	// Entity-specific "not found" errors

	// ErrTaskNotFound indicates that the requested task does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrFlowerNotFound indicates that the requested flower does not exist.
	ErrFlowerNotFound = fmt.Errorf("%w: flower", ErrNotFound)

	// ErrSessionNotFound indicates that the requested focus session does not exist.
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrFlowerExists indicates that a flower already exists for the
	// session. Callers use this for idempotent generation requests.
	ErrFlowerExists = fmt.Errorf("%w: flower for session", ErrDuplicate)
)

// IsNotFound checks if the error is any kind of "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
