package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"resty.dev/v3"

	"github.com/zengarden/zengarden-api/internal/config"
	"github.com/zengarden/zengarden-api/internal/minting"
)

// RelayMinter implements the minting.Minter interface over the relay's
// HTTP API. When no relay URL is configured the minter is disabled and
// Mint returns minting.ErrNotConfigured.
type RelayMinter struct {
	logger     *slog.Logger
	client     *resty.Client
	collection string
	enabled    bool
}

// Interface guard.
var _ minting.Minter = (*RelayMinter)(nil)

type mintRequest struct {
	Recipient   string `json:"recipient"`
	MetadataURL string `json:"metadataUrl"`
	Name        string `json:"name"`
	Collection  string `json:"collection,omitempty"`
}

type mintResponse struct {
	TxHash  string `json:"txHash"`
	TokenID int64  `json:"tokenId"`
	Error   string `json:"error,omitempty"`
}

// NewRelayMinter creates a RelayMinter from the given configuration. An
// empty relay URL disables minting rather than erroring: deployments
// without a relay still grow flowers, they just never mint.
func NewRelayMinter(logger *slog.Logger, cfg config.MinterConfig) (*RelayMinter, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	log := logger.With(slog.String("component", "relay_minter"))

	if cfg.RelayURL == "" {
		log.Info("No relay URL configured, minting disabled")
		return &RelayMinter{logger: log, enabled: false}, nil
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: relay API key cannot be empty", minting.ErrInvalidConfig)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.RelayURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+cfg.APIKey)

	return &RelayMinter{
		logger:     log,
		client:     client,
		collection: cfg.CollectionName,
		enabled:    true,
	}, nil
}

// Enabled reports whether this deployment can mint at all.
func (m *RelayMinter) Enabled() bool {
	return m.enabled
}

// Mint submits a mint request for the given recipient and metadata URL
// and returns the transaction hash and token id.
func (m *RelayMinter) Mint(ctx context.Context, recipient, metadataURL, name string) (*minting.MintResult, error) {
	if !m.enabled {
		return nil, minting.ErrNotConfigured
	}

	checksummed, err := ChecksumAddress(recipient)
	if err != nil {
		return nil, err
	}

	if metadataURL == "" {
		return nil, fmt.Errorf("%w: metadata URL cannot be empty", minting.ErrMintFailed)
	}

	var result mintResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(mintRequest{
			Recipient:   checksummed,
			MetadataURL: metadataURL,
			Name:        name,
			Collection:  m.collection,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/mint")
	if err != nil {
		return nil, fmt.Errorf("%w: relay request failed: %v", minting.ErrMintFailed, err)
	}

	if resp.IsError() {
		msg := result.Error
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("%w: relay returned %d: %s", minting.ErrMintFailed, resp.StatusCode(), msg)
	}

	if result.TxHash == "" {
		return nil, fmt.Errorf("%w: relay response missing tx hash", minting.ErrMintFailed)
	}

	m.logger.InfoContext(ctx, "NFT minted",
		slog.String("recipient", checksummed),
		slog.String("tx_hash", result.TxHash),
		slog.Int64("token_id", result.TokenID))

	return &minting.MintResult{TxHash: result.TxHash, TokenID: result.TokenID}, nil
}
