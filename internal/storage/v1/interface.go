// Package storage defines persistence functionality for analytics sessions,
// runtime configuration and scheduled jobs.

package storage

import (
	"context"

	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelstorage"
)

type Analytics interface {
	SaveSession(ctx context.Context, session modelstorage.SessionStorageEntry) error
	GetSessions(ctx context.Context, since string) ([]modelstorage.SessionStorageEntry, error)
	PurgeSessions(ctx context.Context) error
}

type RuntimeConfigurer interface {
	GetRuntimeConfig(ctx context.Context) (*modelstorage.RuntimeConfigStorageEntry, error)
	SaveRuntimeConfig(ctx context.Context, entry modelstorage.RuntimeConfigStorageEntry) error
}

type Jobs interface {
	AddJob(ctx context.Context, job modelstorage.JobStorageEntry) error
	GetJob(ctx context.Context, jobID string) (*modelstorage.JobStorageEntry, error)
	GetJobs(ctx context.Context) ([]modelstorage.JobStorageEntry, error)
	UpdateJob(ctx context.Context, job modelstorage.JobStorageEntry) error
	DeleteJob(ctx context.Context, jobID string) error
}

type Storage interface {
	Analytics
	RuntimeConfigurer
	Jobs
	Ping(ctx context.Context) error
}
