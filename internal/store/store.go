// Package store provides the two external storage capabilities the cache is
// built on: a key-value metadata store (one JSON pool record per cache key)
// and a blob store for the image bytes. Both are eventually consistent; a
// read right after a write may not observe it, and callers are written not
// to depend on that.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key or object does not exist.
var ErrNotFound = errors.New("store: not found")

// MetadataStore is the key-value store for pool records.
type MetadataStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error

	// Scan pages through all metadata keys. It returns a batch of keys and
	// the cursor for the next page; a returned cursor of 0 means the scan
	// is complete.
	Scan(ctx context.Context, cursor uint64, count int64) (keys []string, next uint64, err error)
}

// Object is a blob read back from the object store.
type Object struct {
	Data        []byte
	ContentType string
	Size        int64
}

// ObjectStore is the blob store holding cached image bytes.
type ObjectStore interface {
	Get(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}
