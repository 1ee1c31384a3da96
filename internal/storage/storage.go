package storage

// Package storage holds the object-store abstraction backing the template
// registry. Implementations stream to and from an S3-compatible backend and
// never touch local disk.

import (
	"context"
	"io"
	"time"
)

// UploadOptions carries optional parameters for storing an object. Size is
// the exact byte count when known, -1 otherwise.
type UploadOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object store client. Safe for concurrent use.
type Storage interface {
	// Put stores an object under key from the reader.
	Put(ctx context.Context, key string, r io.Reader, opt UploadOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader with its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited download URL for the object.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
