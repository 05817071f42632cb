// Package metadata records job descriptors after dispatch.
//
// A Sink is the write port used by the converter. Every backend wraps its
// failures in ErrWrite so callers can tell a lost record apart from a
// failed conversion.
package metadata

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/maauso/mediaconv/internal/job"
)

var (
	// ErrWrite wraps every failure to persist a descriptor.
	ErrWrite = errors.New("metadata: write failed")
	// ErrNotFound is returned when a descriptor cannot be found by ID.
	ErrNotFound = errors.New("metadata: descriptor not found")
	// ErrNotReadable is returned by sinks that only accept writes.
	ErrNotReadable = errors.New("metadata: backend does not support reads")
)

// Sink persists descriptors. Writing an existing ID replaces the record.
type Sink interface {
	Write(ctx context.Context, d *job.Descriptor) error
}

// Reader looks up persisted descriptors.
type Reader interface {
	// FindByID returns ErrNotFound when id is unknown.
	FindByID(ctx context.Context, id string) (*job.Descriptor, error)

	// List returns the most recent descriptors first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*job.Descriptor, error)
}

// Store is a Sink that can also be read back.
type Store interface {
	Sink
	Reader
}

// Nop discards every descriptor.
type Nop struct{}

// Compile-time check that Nop implements Store.
var _ Store = Nop{}

// Write does nothing.
func (Nop) Write(context.Context, *job.Descriptor) error { return nil }

// FindByID always fails with ErrNotReadable.
func (Nop) FindByID(context.Context, string) (*job.Descriptor, error) {
	return nil, ErrNotReadable
}

// List always fails with ErrNotReadable.
func (Nop) List(context.Context, int) ([]*job.Descriptor, error) {
	return nil, ErrNotReadable
}

// sortRecent orders descriptors newest first, breaking ties by ID, and
// applies limit.
func sortRecent(ds []*job.Descriptor, limit int) []*job.Descriptor {
	slices.SortFunc(ds, func(a, b *job.Descriptor) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(ds) > limit {
		ds = ds[:limit]
	}
	return ds
}
