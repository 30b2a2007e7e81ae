package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/zengarden/zengarden-api/internal/domain"
)

// SessionStore defines the interface for focus-session persistence.
type SessionStore interface {
	// Create saves a new focus session to the store.
	Create(ctx context.Context, session *domain.FocusSession) error

	// GetByID retrieves a session by its unique ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FocusSession, error)

	// Update saves lifecycle changes (status, interrupted flag,
	// completion time) to an existing session.
	// Returns ErrSessionNotFound if the session does not exist.
	Update(ctx context.Context, session *domain.FocusSession) error

	// WithTx returns a new SessionStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) SessionStore
}
