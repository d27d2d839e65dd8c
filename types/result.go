package types

import "time"

// Status represents the outcome of an execution
type Status string

const (
	StatusPassed  Status = "passed"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// Statuses lists every status in reporting order
var Statuses = []Status{StatusPassed, StatusPending, StatusFailed}

// ExecutionResult captures the outcome of one execution of an example body.
// The same shape is used for a single iteration and for the aggregate of a loop.
type ExecutionResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	RunTime    time.Duration
	Status     Status
	// Exception is nil when absent
	Exception error
	// PendingMessage is empty when absent
	PendingMessage string
}

// Finish records the finish time and derives the run time from it.
func (r *ExecutionResult) Finish(at time.Time) {
	r.FinishedAt = at
	r.RunTime = r.FinishedAt.Sub(r.StartedAt)
	if r.RunTime < 0 {
		r.RunTime = 0
	}
}

// IsPending reports whether a pending message is present
func (r ExecutionResult) IsPending() bool {
	return r.PendingMessage != ""
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPassed, StatusPending, StatusFailed:
		return true
	}
	return false
}
