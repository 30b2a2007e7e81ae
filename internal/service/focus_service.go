package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/store"
)

// FocusService manages the focus session lifecycle. Completed sessions
// are the raw material for flower generation.
type FocusService interface {
	// StartSession begins a focus session for the user.
	StartSession(ctx context.Context, userID uuid.UUID, reason string, durationSeconds int) (*domain.FocusSession, error)

	// CompleteSession marks an in-progress session completed and rolls
	// its minutes into the user's totals.
	CompleteSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.FocusSession, error)

	// InterruptSession marks an in-progress session interrupted.
	// Interrupted sessions never grow flowers.
	InterruptSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.FocusSession, error)
}

type focusService struct {
	logger   *slog.Logger
	sessions store.SessionStore
	users    store.UserStore
}

// NewFocusService creates a FocusService.
func NewFocusService(logger *slog.Logger, sessions store.SessionStore, users store.UserStore) (FocusService, error) {
	switch {
	case logger == nil:
		return nil, errors.New("logger cannot be nil")
	case sessions == nil:
		return nil, errors.New("session store cannot be nil")
	case users == nil:
		return nil, errors.New("user store cannot be nil")
	}

	return &focusService{
		logger:   logger.With(slog.String("component", "focus_service")),
		sessions: sessions,
		users:    users,
	}, nil
}

func (s *focusService) StartSession(ctx context.Context, userID uuid.UUID, reason string, durationSeconds int) (*domain.FocusSession, error) {
	session, err := domain.NewFocusSession(userID, reason, durationSeconds)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	s.logger.InfoContext(ctx, "Focus session started",
		slog.String("session_id", session.ID.String()),
		slog.Int("duration_seconds", durationSeconds))

	return session, nil
}

func (s *focusService) CompleteSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.FocusSession, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if err := session.Complete(); err != nil {
		return nil, ErrSessionNotInProgress
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	minutes := session.DurationSeconds / 60
	if err := s.users.AddFocusTime(ctx, userID, minutes, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("updating focus totals: %w", err)
	}

	s.logger.InfoContext(ctx, "Focus session completed",
		slog.String("session_id", sessionID.String()),
		slog.Int("minutes", minutes))

	return session, nil
}

func (s *focusService) InterruptSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.FocusSession, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if err := session.Interrupt(); err != nil {
		return nil, ErrSessionNotInProgress
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	s.logger.InfoContext(ctx, "Focus session interrupted",
		slog.String("session_id", sessionID.String()))

	return session, nil
}

func (s *focusService) ownedSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.FocusSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
