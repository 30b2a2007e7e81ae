package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/platform/logger"
	"github.com/zengarden/zengarden-api/internal/store"
)

// PostgresFlowerStore implements the store.FlowerStore interface using
// PostgreSQL.
type PostgresFlowerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlowerStore creates a new PostgresFlowerStore.
// If logger is nil, a default logger will be used.
func NewPostgresFlowerStore(db store.DBTX, logger *slog.Logger) *PostgresFlowerStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlowerStore{
		db:     db,
		logger: logger.With(slog.String("component", "flower_store")),
	}
}

// Ensure PostgresFlowerStore implements store.FlowerStore interface
var _ store.FlowerStore = (*PostgresFlowerStore)(nil)

const flowerColumns = `id, user_id, session_id, prompt, image_url, metadata_url, tx_hash, token_id, minted, created_at, updated_at`

// Create implements store.FlowerStore.Create
func (s *PostgresFlowerStore) Create(ctx context.Context, flower *domain.Flower) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := flower.Validate(); err != nil {
		log.Warn("flower validation failed during create",
			slog.String("error", err.Error()),
			slog.String("flower_id", flower.ID.String()))
		return err
	}

	query := `
		INSERT INTO flowers (id, user_id, session_id, minted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		flower.ID,
		flower.UserID,
		flower.SessionID,
		flower.Minted,
		flower.CreatedAt,
		flower.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("flower already exists for session",
				slog.String("session_id", flower.SessionID.String()))
			return fmt.Errorf("%w: session %s", store.ErrFlowerExists, flower.SessionID)
		}

		log.Error("failed to create flower",
			slog.String("error", err.Error()),
			slog.String("flower_id", flower.ID.String()),
			slog.String("user_id", flower.UserID.String()))
		return MapError(err)
	}

	log.Info("flower created",
		slog.String("flower_id", flower.ID.String()),
		slog.String("session_id", flower.SessionID.String()))
	return nil
}

// GetByID implements store.FlowerStore.GetByID
func (s *PostgresFlowerStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flower, error) {
	query := fmt.Sprintf(`SELECT %s FROM flowers WHERE id = $1`, flowerColumns)
	return s.scanFlower(s.db.QueryRowContext(ctx, query, id))
}

// GetBySessionID implements store.FlowerStore.GetBySessionID
func (s *PostgresFlowerStore) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.Flower, error) {
	query := fmt.Sprintf(`SELECT %s FROM flowers WHERE session_id = $1`, flowerColumns)
	return s.scanFlower(s.db.QueryRowContext(ctx, query, sessionID))
}

// SetPrompt implements store.FlowerStore.SetPrompt
func (s *PostgresFlowerStore) SetPrompt(ctx context.Context, id uuid.UUID, prompt string) error {
	return s.updateColumns(ctx, id, `prompt = $1`, prompt)
}

// SetImageURL implements store.FlowerStore.SetImageURL
func (s *PostgresFlowerStore) SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	return s.updateColumns(ctx, id, `image_url = $1`, imageURL)
}

// SetMetadataURL implements store.FlowerStore.SetMetadataURL
func (s *PostgresFlowerStore) SetMetadataURL(ctx context.Context, id uuid.UUID, metadataURL string) error {
	return s.updateColumns(ctx, id, `metadata_url = $1`, metadataURL)
}

// SetMintResult implements store.FlowerStore.SetMintResult
func (s *PostgresFlowerStore) SetMintResult(ctx context.Context, id uuid.UUID, txHash string, tokenID int64) error {
	query := `
		UPDATE flowers
		SET tx_hash = $1, token_id = $2, minted = TRUE, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, txHash, tokenID, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "flower")
}

// ListByUserID implements store.FlowerStore.ListByUserID
func (s *PostgresFlowerStore) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*store.FlowerDetail, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT f.id, f.user_id, f.session_id, f.prompt, f.image_url, f.metadata_url,
			f.tx_hash, f.token_id, f.minted, f.created_at, f.updated_at,
			fs.reason, fs.duration_seconds,
			ft.id, ft.status, ft.error, ft.retry_count
		FROM flowers f
		JOIN focus_sessions fs ON fs.id = f.session_id
		JOIN flower_tasks ft ON ft.flower_id = f.id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list flowers",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var details []*store.FlowerDetail
	for rows.Next() {
		var d store.FlowerDetail
		var prompt, imageURL, metadataURL, txHash, taskErr sql.NullString
		var tokenID sql.NullInt64

		err := rows.Scan(
			&d.Flower.ID,
			&d.Flower.UserID,
			&d.Flower.SessionID,
			&prompt,
			&imageURL,
			&metadataURL,
			&txHash,
			&tokenID,
			&d.Flower.Minted,
			&d.Flower.CreatedAt,
			&d.Flower.UpdatedAt,
			&d.SessionReason,
			&d.SessionDuration,
			&d.TaskID,
			&d.TaskStatus,
			&taskErr,
			&d.TaskRetryCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flower row: %w", err)
		}

		d.Flower.Prompt = prompt.String
		d.Flower.ImageURL = imageURL.String
		d.Flower.MetadataURL = metadataURL.String
		d.Flower.TxHash = txHash.String
		if tokenID.Valid {
			d.Flower.TokenID = &tokenID.Int64
		}
		d.TaskError = taskErr.String

		details = append(details, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flower rows: %w", err)
	}

	return details, nil
}

// WithTx implements store.FlowerStore.WithTx
func (s *PostgresFlowerStore) WithTx(tx *sql.Tx) store.FlowerStore {
	return &PostgresFlowerStore{
		db:     tx,
		logger: s.logger,
	}
}

// updateColumns runs a single-column update plus the updated_at stamp.
func (s *PostgresFlowerStore) updateColumns(ctx context.Context, id uuid.UUID, assignment string, value any) error {
	query := fmt.Sprintf(`UPDATE flowers SET %s, updated_at = $2 WHERE id = $3`, assignment)
	result, err := s.db.ExecContext(ctx, query, value, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "flower")
}

// scanFlower scans one flower row, mapping sql.ErrNoRows to
// ErrFlowerNotFound.
func (s *PostgresFlowerStore) scanFlower(row *sql.Row) (*domain.Flower, error) {
	var flower domain.Flower
	var prompt, imageURL, metadataURL, txHash sql.NullString
	var tokenID sql.NullInt64

	err := row.Scan(
		&flower.ID,
		&flower.UserID,
		&flower.SessionID,
		&prompt,
		&imageURL,
		&metadataURL,
		&txHash,
		&tokenID,
		&flower.Minted,
		&flower.CreatedAt,
		&flower.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrFlowerNotFound
		}
		return nil, MapError(err)
	}

	flower.Prompt = prompt.String
	flower.ImageURL = imageURL.String
	flower.MetadataURL = metadataURL.String
	flower.TxHash = txHash.String
	if tokenID.Valid {
		flower.TokenID = &tokenID.Int64
	}

	return &flower, nil
}
