// Package scheduler defines scheduled job functionality.

package scheduler

import (
	"context"

	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
)

// Scheduler defines a set of methods for managing and running scheduled
// train scripts.
type Scheduler interface {
	CreateJob(ctx context.Context, job modeldto.NewJob) (*modeldto.Job, error)
	UpdateJob(ctx context.Context, jobID string, job modeldto.NewJob) (*modeldto.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	GetJob(ctx context.Context, jobID string) (*modeldto.Job, error)
	ListJobs(ctx context.Context) ([]modeldto.Job, error)
	RunNow(ctx context.Context, jobID string) error
	Start()
}
