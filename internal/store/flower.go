package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/zengarden/zengarden-api/internal/domain"
)

// FlowerDetail is a flower joined with the session inputs that produced
// it and the state of its generation task, as returned to listing
// endpoints that the garden UI polls.
type FlowerDetail struct {
	Flower          domain.Flower     `json:"flower"`
	SessionReason   string            `json:"session_reason"`
	SessionDuration int               `json:"session_duration_seconds"`
	TaskID          uuid.UUID         `json:"task_id"`
	TaskStatus      domain.TaskStatus `json:"task_status"`
	TaskError       string            `json:"task_error,omitempty"`
	TaskRetryCount  int               `json:"task_retry_count"`
}

// FlowerStore defines the interface for flower persistence. The pipeline
// mutates flowers incrementally, one column group per stage, so partial
// progress survives later-stage failures.
type FlowerStore interface {
	// Create saves a new flower to the store.
	// Returns ErrFlowerExists if the session already has a flower.
	Create(ctx context.Context, flower *domain.Flower) error

	// GetByID retrieves a flower by its unique ID.
	// Returns ErrFlowerNotFound if the flower does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flower, error)

	// GetBySessionID retrieves the flower created for the given session.
	// Returns ErrFlowerNotFound if no flower exists for the session.
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.Flower, error)

	// SetPrompt persists the generated image prompt (after the generate
	// stage succeeds).
	SetPrompt(ctx context.Context, id uuid.UUID, prompt string) error

	// SetImageURL persists the public image URL (after the image upload
	// stage succeeds).
	SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error

	// SetMetadataURL persists the public metadata URL (after the
	// metadata upload stage succeeds).
	SetMetadataURL(ctx context.Context, id uuid.UUID, metadataURL string) error

	// SetMintResult persists the on-chain mint outcome and flips minted
	// to true.
	SetMintResult(ctx context.Context, id uuid.UUID, txHash string, tokenID int64) error

	// ListByUserID returns the user's flowers newest first, each joined
	// with its session inputs and task state.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*FlowerDetail, error)

	// WithTx returns a new FlowerStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) FlowerStore
}
