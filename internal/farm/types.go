// Package farm provides an HTTP client for the render-farm job queue used
// by the smedge processing method.
package farm

// Status represents the status of a farm job as reported by the queue.
type Status string

// Farm job statuses.
const (
	StatusInQueue   Status = "IN_QUEUE"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// SubmitRequest describes a command line to run on the farm.
type SubmitRequest struct {
	// Name is shown in the farm queue.
	Name string `json:"name"`
	// Command is the argv the farm executes.
	Command []string `json:"command"`
	// WaitForJobID holds the job back until another farm job finishes.
	WaitForJobID string `json:"wait_for_job_id,omitempty"`
	// Pool selects the farm pool; empty uses the client default.
	Pool string `json:"pool,omitempty"`
}

// submitResponse represents the response from POST /jobs.
type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// JobStatus is the response from GET /jobs/{id}.
type JobStatus struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}
