package services

import (
	"context"
	"io"
)

// StorageInterface defines the interface for storage operations
// This allows switching between S3 and local storage implementations
type StorageInterface interface {
	// Upload stores the content of reader under key
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes the object stored under key
	Delete(ctx context.Context, key string) error

	// GetObject retrieves an object from storage
	GetObject(ctx context.Context, key string) (io.ReadCloser, string, error)

	// GetFileURL returns the full URL for a given key
	GetFileURL(key string) string
}
