package dispatch

import (
	"context"
	"fmt"

	"github.com/maauso/mediaconv/internal/job"
)

// Enqueuer accepts descriptors into a local queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, d *job.Descriptor) error
}

// Spool enqueues tasks for a mediaconv worker (the spool method).
type Spool struct {
	queue Enqueuer
}

// Compile-time check that Spool implements Dispatcher.
var _ Dispatcher = (*Spool)(nil)

// NewSpool creates a spool backend.
func NewSpool(queue Enqueuer) *Spool {
	return &Spool{queue: queue}
}

// Submit enqueues the task's single command.
func (s *Spool) Submit(ctx context.Context, task Task) (*job.Descriptor, error) {
	step, err := singleStep(task)
	if err != nil {
		return nil, err
	}

	d := job.New(job.MethodSpool, task.Name, step.Argv())
	d.DependsOn = task.DependsOn
	if err := s.queue.Enqueue(ctx, d); err != nil {
		return nil, fmt.Errorf("spool dispatch: %w", err)
	}
	return d, nil
}
