// Package storage defines the interface for persisting flower assets
// to object storage.
package storage

import (
	"context"
	"errors"
)

// Common storage errors.
var (
	// ErrInvalidConfig indicates the storage client configuration is
	// incomplete or invalid.
	ErrInvalidConfig = errors.New("invalid storage configuration")

	// ErrUploadFailed indicates the object could not be written.
	ErrUploadFailed = errors.New("upload failed")

	// ErrEmptyObject indicates an upload was attempted with no data.
	ErrEmptyObject = errors.New("object data cannot be empty")
)

// Storage persists flower assets and returns their public URLs.
//
// Implementations must be safe for concurrent use.
type Storage interface {
	// PutObject writes raw bytes under the given key with the given
	// content type and returns the object's public URL.
	PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// PutJSON marshals v to JSON, writes it under the given key and
	// returns the object's public URL.
	PutJSON(ctx context.Context, key string, v any) (string, error)
}
