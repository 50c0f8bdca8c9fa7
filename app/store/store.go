package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("object not found")

// Metadata describes a stored object without its body.
type Metadata struct {
	Size         int64
	LastModified time.Time
}

// ObjectStore abstracts the bucket operations the lock needs. Absence of
// an object is reported as ErrNotFound, not as a generic failure.
type ObjectStore interface {
	// Head returns metadata for a key without fetching the body.
	Head(ctx context.Context, key string) (Metadata, error)
	// Get fetches the body stored at a key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the object at a key with the given body.
	Put(ctx context.Context, key string, body []byte) error
	// Delete removes the object at a key.
	Delete(ctx context.Context, key string) error
}
