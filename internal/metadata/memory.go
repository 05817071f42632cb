package metadata

import (
	"context"
	"sync"

	"github.com/maauso/mediaconv/internal/job"
)

// Compile-time check that MemorySink implements Store.
var _ Store = (*MemorySink)(nil)

// MemorySink keeps descriptors in a map guarded by an RWMutex.
// Records live as long as the process; useful for tests and dry runs.
type MemorySink struct {
	mu   sync.RWMutex
	jobs map[string]*job.Descriptor
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		jobs: make(map[string]*job.Descriptor),
	}
}

// Write stores a clone so later mutations by the caller are not seen.
func (s *MemorySink) Write(_ context.Context, d *job.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[d.ID] = d.Clone()
	return nil
}

// FindByID returns a clone of the stored descriptor.
func (s *MemorySink) FindByID(_ context.Context, id string) (*job.Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

// List returns clones of the stored descriptors, newest first.
func (s *MemorySink) List(_ context.Context, limit int) ([]*job.Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*job.Descriptor, 0, len(s.jobs))
	for _, d := range s.jobs {
		result = append(result, d.Clone())
	}
	return sortRecent(result, limit), nil
}
