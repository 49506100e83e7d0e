package gcs

import (
	"context"
	"io"
)

// StorageService provides an interface for cloud storage operations on
// uploaded statements. This interface enables mocking in handlers and jobs.
type StorageService interface {
	// Upload streams r into bucket/object and returns the gs:// URI.
	Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) (string, error)

	// Fetch downloads the object bytes for a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}
