// Package minting defines the interface for minting flower NFTs through
// the chain relay service.
package minting

import (
	"context"
	"errors"
)

// Common minting errors.
var (
	// ErrInvalidConfig indicates the minter configuration is incomplete
	// or invalid.
	ErrInvalidConfig = errors.New("invalid minter configuration")

	// ErrNotConfigured indicates minting is disabled for this
	// deployment. The pipeline treats it as a skip, not a failure.
	ErrNotConfigured = errors.New("minter not configured")

	// ErrInvalidRecipient indicates the recipient wallet address is
	// malformed.
	ErrInvalidRecipient = errors.New("invalid recipient address")

	// ErrMintFailed indicates the relay rejected or failed the mint.
	ErrMintFailed = errors.New("mint failed")
)

// MintResult carries the on-chain outcome of a successful mint.
type MintResult struct {
	TxHash  string
	TokenID int64
}

// Minter submits mint requests to the chain relay.
//
// Implementations must be safe for concurrent use.
type Minter interface {
	// Mint requests an NFT for the given recipient wallet, pointing at
	// the uploaded metadata document.
	Mint(ctx context.Context, recipient, metadataURL, name string) (*MintResult, error)
}
