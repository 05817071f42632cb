// Package storage prepares conversion outputs on local disk and provides
// the object stores used to persist job records.
//
// ObjectStore is the port; LocalStore keeps objects as files under a root
// directory and S3Store keeps them in a bucket.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore stores small objects by key.
type ObjectStore interface {
	// PutObject writes data under key and returns its location (path or URL).
	PutObject(ctx context.Context, key string, data io.Reader) (location string, err error)

	// GetObject opens the object stored under key.
	// The caller is responsible for closing the returned ReadCloser.
	// Returns ErrObjectNotFound if the key does not exist.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	// ListKeys returns every key under prefix, sorted.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}
