package service

import "errors"

// Sentinel errors returned by the service layer. The API layer maps
// these onto HTTP status codes.
var (
	// ErrSessionNotFound indicates the session does not exist or does
	// not belong to the requesting user.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotCompleted indicates flower generation was requested
	// for a session that has not been completed.
	ErrSessionNotCompleted = errors.New("session is not completed")

	// ErrSessionNotInProgress indicates a lifecycle change was
	// requested for a session that is not in progress.
	ErrSessionNotInProgress = errors.New("session is not in progress")

	// ErrTaskNotFound indicates the task does not exist or does not
	// belong to the requesting user.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotRetryable indicates a retry was requested for a task
	// that is not in the failed state.
	ErrTaskNotRetryable = errors.New("only failed tasks can be retried")

	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")
)
