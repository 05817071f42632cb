// Package dispatch hands conversion commands to an execution backend.
//
// Every backend implements Dispatcher: Local runs the tool in this process,
// Farm submits to the render-farm queue, Spool enqueues into the local
// spool, and Unimplemented stands in for farms that aren't supported yet.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/media"
)

var (
	// ErrMethodNotImplemented is returned by placeholder backends.
	ErrMethodNotImplemented = errors.New("processing method not implemented")
	// ErrMethodNotConfigured is returned when no backend is registered for a method.
	ErrMethodNotConfigured = errors.New("processing method not configured")
	// ErrEmptyTask is returned when a task carries no command.
	ErrEmptyTask = errors.New("dispatch: task has no command")
	// ErrSingleCommand is returned when a queue backend gets a multi-step task.
	ErrSingleCommand = errors.New("dispatch: queue backends take exactly one command")
)

// Task is a unit of work for a backend.
type Task struct {
	// Name is the human-readable command name.
	Name string
	// Steps are run in order; a failing step stops the task. Queue backends
	// accept a single step.
	Steps []media.Invocation
	// DependsOn is a job id the task must wait for. Ignored by Local.
	DependsOn string
}

// Single creates a one-step task.
func Single(name string, inv media.Invocation) Task {
	return Task{Name: name, Steps: []media.Invocation{inv}}
}

// Dispatcher runs or submits a task and returns its descriptor.
type Dispatcher interface {
	Submit(ctx context.Context, task Task) (*job.Descriptor, error)
}

// Registry maps processing methods to backends.
type Registry map[job.Method]Dispatcher

// For returns the backend registered for m.
func (r Registry) For(m job.Method) (Dispatcher, error) {
	d, ok := r[m]
	if !ok || d == nil {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotConfigured, m)
	}
	return d, nil
}

func singleStep(task Task) (media.Invocation, error) {
	switch len(task.Steps) {
	case 0:
		return media.Invocation{}, ErrEmptyTask
	case 1:
		if task.Steps[0].IsZero() {
			return media.Invocation{}, ErrEmptyTask
		}
		return task.Steps[0], nil
	default:
		return media.Invocation{}, fmt.Errorf("%w: got %d", ErrSingleCommand, len(task.Steps))
	}
}

// Unimplemented is a placeholder backend for a method without support.
type Unimplemented struct {
	Method job.Method
}

// Compile-time check that Unimplemented implements Dispatcher.
var _ Dispatcher = Unimplemented{}

// Submit always fails with ErrMethodNotImplemented.
func (u Unimplemented) Submit(context.Context, Task) (*job.Descriptor, error) {
	return nil, fmt.Errorf("%w: %s", ErrMethodNotImplemented, u.Method)
}
