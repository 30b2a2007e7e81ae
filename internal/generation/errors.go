package generation

import "errors"

// Common generation errors. Callers classify failures with errors.Is.
var (
	// ErrInvalidConfig is returned when the generator is constructed
	// with missing or invalid configuration (API key, model names).
	ErrInvalidConfig = errors.New("invalid generation configuration")

	// ErrTransientFailure is returned for failures that may succeed on
	// a later attempt (network errors, rate limits, service hiccups).
	ErrTransientFailure = errors.New("transient generation failure")

	// ErrInvalidResponse is returned when the model responds but the
	// response cannot be used (empty candidates, missing image data).
	ErrInvalidResponse = errors.New("invalid generation response")

	// ErrContentBlocked is returned when the model refuses the request
	// on safety grounds.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrEmptyPrompt is returned when a generation call is made with an
	// empty prompt or reason.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
)
