package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the interface for export artifact storage
type ObjectStorage interface {
	// Ensure prepares the backing store (bucket or directory)
	Ensure(ctx context.Context) error

	// Upload uploads an artifact to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download downloads an artifact from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the URL for accessing an artifact
	GetURL(key string) string

	// Delete deletes an artifact from storage; absent keys are a no-op
	Delete(ctx context.Context, key string) error

	// Exists checks if an artifact exists
	Exists(ctx context.Context, key string) (bool, error)
}
