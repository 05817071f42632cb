package dispatch

import (
	"context"
	"fmt"

	"github.com/maauso/mediaconv/internal/farm"
	"github.com/maauso/mediaconv/internal/job"
)

// Farm submits tasks to the render-farm queue (the smedge method).
type Farm struct {
	client farm.Client
}

// Compile-time check that Farm implements Dispatcher.
var _ Dispatcher = (*Farm)(nil)

// NewFarm creates a farm backend.
func NewFarm(client farm.Client) *Farm {
	return &Farm{client: client}
}

// Submit queues the task's single command and returns an IN_QUEUE
// descriptor carrying the farm job id.
func (f *Farm) Submit(ctx context.Context, task Task) (*job.Descriptor, error) {
	step, err := singleStep(task)
	if err != nil {
		return nil, err
	}

	d := job.New(job.MethodSmedge, task.Name, step.Argv())
	d.DependsOn = task.DependsOn

	jobID, err := f.client.Submit(ctx, farm.SubmitRequest{
		Name:         task.Name,
		Command:      d.Command,
		WaitForJobID: task.DependsOn,
	})
	if err != nil {
		return nil, fmt.Errorf("farm dispatch: %w", err)
	}
	d.JobID = jobID
	return d, nil
}
