package gemini

import "errors"

// ErrEmptyReason is returned when a prompt is requested for a session
// with no intention text.
var ErrEmptyReason = errors.New("session reason cannot be empty")
