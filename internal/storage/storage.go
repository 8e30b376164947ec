// Package storage holds the file storage abstraction for uploaded document
// bytes. Two backends exist: a local-directory store (the prototype default)
// and an S3-compatible object store (MinIO). Implementations stream; they
// never buffer whole files in memory.
package storage

import (
	"context"
	"io"
)

// PutOptions carries optional parameters for storing an object. Size should
// be the exact byte count when known, -1 otherwise. ContentType and Metadata
// are optional.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// Storage stores and retrieves uploaded file content by key.
type Storage interface {
	// Put writes an object under the given key from the provided reader.
	Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (ObjectInfo, error)
	// Get opens an object's content for streaming reads.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
}
