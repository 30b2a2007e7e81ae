package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/zengarden/zengarden-api/internal/domain"
)

// UserStore defines the read-mutate boundary this service has with user
// rows. Accounts are owned by the wallet-login service; this service
// only reads them and bumps aggregate counters.
type UserStore interface {
	// GetByID retrieves a user by its unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// IncrementFlowerCount adds one to the user's total_flowers counter.
	IncrementFlowerCount(ctx context.Context, id uuid.UUID) error

	// AddFocusTime adds the given minutes to total_focus_minutes and
	// stamps last_focus_date.
	AddFocusTime(ctx context.Context, id uuid.UUID, minutes int, when time.Time) error

	// WithTx returns a new UserStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) UserStore
}
