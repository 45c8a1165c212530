package pulse

import (
	"context"
)

// JobHandler executes one kind of job.
type JobHandler interface {
	// Execute processes the job. A returned error fails only this job.
	Execute(ctx context.Context, job *Job) error

	// Name identifies the handler in logs.
	Name() string
}

// HandlerFunc adapts a function to JobHandler.
type HandlerFunc struct {
	HandlerName string
	Fn          func(ctx context.Context, job *Job) error
}

// Execute calls Fn.
func (h HandlerFunc) Execute(ctx context.Context, job *Job) error {
	return h.Fn(ctx, job)
}

// Name returns HandlerName.
func (h HandlerFunc) Name() string {
	return h.HandlerName
}
