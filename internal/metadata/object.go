package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/storage"
)

// Compile-time check that ObjectSink implements Store.
var _ Store = (*ObjectSink)(nil)

// ObjectSink writes each descriptor as a JSON object at <prefix>/<id>.json
// in an object store. It backs both the dir and the s3 backends.
type ObjectSink struct {
	store  storage.ObjectStore
	prefix string
}

// NewObjectSink creates a sink over store. prefix may be empty.
func NewObjectSink(store storage.ObjectStore, prefix string) *ObjectSink {
	return &ObjectSink{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *ObjectSink) key(id string) string {
	if s.prefix == "" {
		return id + ".json"
	}
	return path.Join(s.prefix, id+".json")
}

// Write encodes d and stores it, replacing any previous record.
func (s *ObjectSink) Write(ctx context.Context, d *job.Descriptor) error {
	body, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode descriptor %s: %v", ErrWrite, d.ID, err)
	}
	if _, err := s.store.PutObject(ctx, s.key(d.ID), bytes.NewReader(body)); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// FindByID reads and decodes a single record.
func (s *ObjectSink) FindByID(ctx context.Context, id string) (*job.Descriptor, error) {
	rc, err := s.store.GetObject(ctx, s.key(id))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("metadata: read %s: %w", id, err)
	}
	defer func() { _ = rc.Close() }()

	var d job.Descriptor
	if err := json.NewDecoder(rc).Decode(&d); err != nil {
		return nil, fmt.Errorf("metadata: decode %s: %w", id, err)
	}
	return &d, nil
}

// List reads every record under the prefix. Objects that fail to decode
// are skipped.
func (s *ObjectSink) List(ctx context.Context, limit int) ([]*job.Descriptor, error) {
	listPrefix := ""
	if s.prefix != "" {
		listPrefix = s.prefix + "/"
	}
	keys, err := s.store.ListKeys(ctx, listPrefix)
	if err != nil {
		return nil, fmt.Errorf("metadata: list: %w", err)
	}

	result := make([]*job.Descriptor, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimPrefix(key, listPrefix)
		if strings.Contains(name, "/") || !strings.HasSuffix(name, ".json") {
			continue
		}
		d, err := s.FindByID(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		result = append(result, d)
	}
	return sortRecent(result, limit), nil
}
