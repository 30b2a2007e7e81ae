package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Flower
var (
	ErrEmptyFlowerID        = errors.New("flower ID cannot be empty")
	ErrEmptyFlowerUserID    = errors.New("flower user ID cannot be empty")
	ErrEmptyFlowerSessionID = errors.New("flower session ID cannot be empty")
)

// Flower is the artifact produced by a completed focus session. It is
// created empty alongside its FlowerTask and filled in incrementally by
// the pipeline stages: prompt and image URL after generation and upload,
// metadata URL and mint details after minting. Minted stays false when
// the mint stage fails or is skipped, even though the image exists.
type Flower struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	SessionID   uuid.UUID `json:"session_id"`
	Prompt      string    `json:"prompt,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	MetadataURL string    `json:"metadata_url,omitempty"`
	TxHash      string    `json:"tx_hash,omitempty"`
	TokenID     *int64    `json:"token_id,omitempty"`
	Minted      bool      `json:"minted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewFlower creates an empty flower for the given user and session.
func NewFlower(userID, sessionID uuid.UUID) (*Flower, error) {
	now := time.Now().UTC()
	flower := &Flower{
		ID:        uuid.New(),
		UserID:    userID,
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := flower.Validate(); err != nil {
		return nil, err
	}

	return flower, nil
}

// Validate checks if the Flower has valid data.
func (f *Flower) Validate() error {
	if f.ID == uuid.Nil {
		return ErrEmptyFlowerID
	}

	if f.UserID == uuid.Nil {
		return ErrEmptyFlowerUserID
	}

	if f.SessionID == uuid.Nil {
		return ErrEmptyFlowerSessionID
	}

	return nil
}
