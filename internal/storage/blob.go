// Package storage provides whole-document persistence backends for shop data.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates that the requested document has never been written.
var ErrNotFound = errors.New("document not found")

// Blob loads and saves named documents as a whole. Implementations must never leave a
// partially written document behind.
type Blob interface {
	// Load returns the stored document or ErrNotFound.
	Load(ctx context.Context, name string) ([]byte, error)
	// Save replaces the stored document.
	Save(ctx context.Context, name string, data []byte) error
	// HealthCheck reports whether the backend is reachable and writable.
	HealthCheck(ctx context.Context) error
}
