// Package job provides the Descriptor record for dispatched conversions.
// A Descriptor is created when a conversion is handed to an execution
// backend, receives its output path once, and is then persisted as is.
package job

import (
	"errors"
	"fmt"
	"time"

	"github.com/maauso/mediaconv/internal/job/id"
)

// Method selects the execution backend for a conversion.
type Method string

const (
	// MethodLocal runs the external tool as a blocking subprocess.
	MethodLocal Method = "local"
	// MethodSmedge submits a re-invocation of mediaconv to the render-farm queue.
	MethodSmedge Method = "smedge"
	// MethodSpool enqueues a re-invocation into the local spool queue.
	MethodSpool Method = "spool"
	// MethodDeadline is reserved for a Deadline farm backend.
	MethodDeadline Method = "deadline"
)

// Methods lists every known processing method.
var Methods = []Method{MethodLocal, MethodSmedge, MethodSpool, MethodDeadline}

// IsValid returns true if the method is one of the known methods.
func (m Method) IsValid() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// IsRemote reports whether the method hands work to another process
// instead of running the tool in the caller.
func (m Method) IsRemote() bool {
	return m != MethodLocal
}

// ParseMethod converts a string into a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
	return m, nil
}

// Status represents the current state of a dispatched conversion.
type Status string

const (
	// StatusInQueue indicates the job was submitted and waits for a worker.
	StatusInQueue Status = "IN_QUEUE"
	// StatusRunning indicates the external tool is running.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the tool exited with status zero.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the tool exited non-zero or never ran.
	StatusFailed Status = "FAILED"
)

var (
	// ErrInvalidTransition is returned when an invalid state transition is attempted.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrUnknownMethod is returned when a processing method is not recognised.
	ErrUnknownMethod = errors.New("unknown processing method")
	// ErrOutputAttached is returned when an output path is attached twice.
	ErrOutputAttached = errors.New("output path already attached")
)

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusInQueue:   {StatusRunning, StatusFailed},
	StatusRunning:   {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
}

func canTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Descriptor records a single dispatched conversion.
type Descriptor struct {
	// ID is the local identifier for this descriptor.
	ID string `json:"id"`
	// JobID is the identifier assigned by a remote queue, empty for local runs.
	JobID string `json:"job_id,omitempty"`
	// Method is the backend that handled the conversion.
	Method Method `json:"method"`
	// Name is the human-readable command name sent to the backend.
	Name string `json:"name"`
	// Command is the argv that was submitted or, for local tasks, the last step run.
	Command []string `json:"command"`
	// DependsOn is the job id this one waits for, if any.
	DependsOn string `json:"depends_on,omitempty"`
	// PID is the process id of a local run.
	PID int `json:"pid,omitempty"`
	// ExitCode is the exit status of a local run.
	ExitCode int `json:"exit_code"`
	// Status is the current state.
	Status Status `json:"status"`
	// FileOut is the output file or sequence pattern.
	FileOut string `json:"file_out"`
	// Frames is the number of frame invocations behind a sequence conversion.
	Frames int `json:"frames,omitempty"`
	// Error holds the stderr tail or failure reason.
	Error string `json:"error,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// New creates a Descriptor in IN_QUEUE status with a generated ID.
func New(method Method, name string, command []string) *Descriptor {
	return NewWithID(id.Generate(), method, name, command)
}

// NewWithID creates a Descriptor with the given ID.
func NewWithID(descriptorID string, method Method, name string, command []string) *Descriptor {
	argv := make([]string, len(command))
	copy(argv, command)
	return &Descriptor{
		ID:        descriptorID,
		Method:    method,
		Name:      name,
		Command:   argv,
		Status:    StatusInQueue,
		CreatedAt: time.Now(),
	}
}

// TransitionTo changes the status and stamps the matching timestamp.
// Returns ErrInvalidTransition if the transition is not allowed.
func (d *Descriptor) TransitionTo(status Status) error {
	if !canTransition(d.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, status)
	}
	d.Status = status
	now := time.Now()
	switch status {
	case StatusRunning:
		d.StartedAt = now
	case StatusCompleted, StatusFailed:
		d.FinishedAt = now
	}
	return nil
}

// Start transitions the descriptor from IN_QUEUE to RUNNING.
func (d *Descriptor) Start() error {
	return d.TransitionTo(StatusRunning)
}

// Complete transitions the descriptor to COMPLETED.
func (d *Descriptor) Complete() error {
	return d.TransitionTo(StatusCompleted)
}

// Fail records the reason and transitions the descriptor to FAILED.
func (d *Descriptor) Fail(reason string) error {
	if err := d.TransitionTo(StatusFailed); err != nil {
		return err
	}
	d.Error = reason
	return nil
}

// AttachOutput sets the output path. It may be called once.
func (d *Descriptor) AttachOutput(path string) error {
	if d.FileOut != "" {
		return ErrOutputAttached
	}
	d.FileOut = path
	return nil
}

// Clone creates a deep copy of the descriptor.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	c.Command = make([]string, len(d.Command))
	copy(c.Command, d.Command)
	return &c
}
