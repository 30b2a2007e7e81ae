package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthorized is returned when an operation is not permitted
	// for the requesting user.
	ErrUnauthorized = errors.New("unauthorized operation")

	// ErrInvalidTaskStatus is returned when a task status value is not
	// one of the recognized states.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidTransition is returned when a task status change does
	// not follow the pipeline state machine.
	ErrInvalidTransition = errors.New("invalid task status transition")

	// ErrInvalidSessionStatus is returned when a focus session status
	// value is not recognized.
	ErrInvalidSessionStatus = errors.New("invalid session status")
)
