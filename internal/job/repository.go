package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when a job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// Repository defines the interface for job bookkeeping.
// Jobs are only kept for as long as the process runs.
type Repository interface {
	// Save stores a job, replacing any job with the same ID.
	Save(ctx context.Context, job *Job) error

	// FindByID retrieves a job by its unique identifier.
	// Returns ErrJobNotFound if the job does not exist.
	FindByID(ctx context.Context, id string) (*Job, error)

	// FindActive returns the job that has not reached a terminal state.
	// Returns ErrJobNotFound if every job is DONE or FAILED.
	FindActive(ctx context.Context) (*Job, error)

	// List returns all jobs, oldest first.
	List(ctx context.Context) ([]*Job, error)
}
