package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of a focus session.
type SessionStatus string

// Possible session status values
const (
	SessionStatusInProgress  SessionStatus = "in_progress"
	SessionStatusCompleted   SessionStatus = "completed"
	SessionStatusInterrupted SessionStatus = "interrupted"
)

// Common validation errors for FocusSession
var (
	ErrEmptySessionID       = errors.New("session ID cannot be empty")
	ErrEmptySessionUserID   = errors.New("session user ID cannot be empty")
	ErrEmptySessionReason   = errors.New("session reason cannot be empty")
	ErrInvalidDuration      = errors.New("session duration must be positive")
	ErrSessionNotInProgress = errors.New("session is not in progress")
)

// FocusSession records one focus attempt. Its reason and duration are
// the two inputs to flower prompt generation; the pipeline only ever
// reads sessions.
type FocusSession struct {
	ID              uuid.UUID     `json:"id"`
	UserID          uuid.UUID     `json:"user_id"`
	Reason          string        `json:"reason"`
	DurationSeconds int           `json:"duration_seconds"`
	Status          SessionStatus `json:"status"`
	Interrupted     bool          `json:"interrupted"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
}

// NewFocusSession creates an in-progress session starting now.
func NewFocusSession(userID uuid.UUID, reason string, durationSeconds int) (*FocusSession, error) {
	session := &FocusSession{
		ID:              uuid.New(),
		UserID:          userID,
		Reason:          reason,
		DurationSeconds: durationSeconds,
		Status:          SessionStatusInProgress,
		StartedAt:       time.Now().UTC(),
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the FocusSession has valid data.
func (s *FocusSession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySessionID
	}

	if s.UserID == uuid.Nil {
		return ErrEmptySessionUserID
	}

	if s.Reason == "" {
		return ErrEmptySessionReason
	}

	if s.DurationSeconds <= 0 {
		return ErrInvalidDuration
	}

	if !isValidSessionStatus(s.Status) {
		return ErrInvalidSessionStatus
	}

	return nil
}

// Complete marks an in-progress session as completed.
func (s *FocusSession) Complete() error {
	if s.Status != SessionStatusInProgress {
		return ErrSessionNotInProgress
	}

	now := time.Now().UTC()
	s.Status = SessionStatusCompleted
	s.CompletedAt = &now
	return nil
}

// Interrupt marks an in-progress session as interrupted.
func (s *FocusSession) Interrupt() error {
	if s.Status != SessionStatusInProgress {
		return ErrSessionNotInProgress
	}

	now := time.Now().UTC()
	s.Status = SessionStatusInterrupted
	s.Interrupted = true
	s.CompletedAt = &now
	return nil
}

// isValidSessionStatus checks if the given status is a valid SessionStatus.
func isValidSessionStatus(status SessionStatus) bool {
	switch status {
	case SessionStatusInProgress, SessionStatusCompleted, SessionStatusInterrupted:
		return true
	default:
		return false
	}
}
