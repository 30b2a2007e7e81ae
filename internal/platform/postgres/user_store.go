package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/platform/logger"
	"github.com/zengarden/zengarden-api/internal/store"
)

// PostgresUserStore implements the store.UserStore interface using
// PostgreSQL. User rows are created by the wallet-login service; only
// reads and counter updates happen here.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgresUserStore.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, wallet_address, nickname, total_flowers, total_focus_minutes, last_focus_date, created_at
		FROM users
		WHERE id = $1
	`

	var user domain.User
	var walletAddress, nickname sql.NullString
	var lastFocusDate sql.NullTime

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&walletAddress,
		&nickname,
		&user.TotalFlowers,
		&user.TotalFocusMinutes,
		&lastFocusDate,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, MapError(err)
	}

	user.WalletAddress = walletAddress.String
	user.Nickname = nickname.String
	if lastFocusDate.Valid {
		user.LastFocusDate = &lastFocusDate.Time
	}

	return &user, nil
}

// IncrementFlowerCount implements store.UserStore.IncrementFlowerCount
func (s *PostgresUserStore) IncrementFlowerCount(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE users SET total_flowers = total_flowers + 1 WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to increment flower count",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "user")
}

// AddFocusTime implements store.UserStore.AddFocusTime
func (s *PostgresUserStore) AddFocusTime(ctx context.Context, id uuid.UUID, minutes int, when time.Time) error {
	query := `
		UPDATE users
		SET total_focus_minutes = total_focus_minutes + $1, last_focus_date = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, minutes, when, id)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "user")
}

// WithTx implements store.UserStore.WithTx
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{
		db:     tx,
		logger: s.logger,
	}
}
