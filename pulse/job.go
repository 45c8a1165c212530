// Package pulse runs units of work on a fixed pool of workers.
//
// A caller hands the pool a finite list of jobs; each worker takes one job
// at a time from a shared queue and runs the registered handler on it. Run
// blocks until every job has a terminal status.
package pulse

import (
	"time"
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether no further transitions can happen.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Job is one unit of work. A job is owned by exactly one worker between
// dequeue and completion, so handlers may write Result without locking.
type Job struct {
	ID      string    `json:"id"`
	Payload string    `json:"payload"`
	Status  JobStatus `json:"status"`

	// Result is set by the handler.
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	Err    error       `json:"-"`

	WorkerID   int       `json:"worker_id"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// NewJob creates a queued job.
func NewJob(id, payload string) *Job {
	return &Job{ID: id, Payload: payload, Status: JobStatusQueued}
}

// Duration is the wall time the job spent executing.
func (j *Job) Duration() time.Duration {
	if j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

func (j *Job) fail(err error) {
	j.Status = JobStatusFailed
	j.Err = err
	j.Error = err.Error()
}
