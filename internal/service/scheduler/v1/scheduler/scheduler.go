// Package scheduler implements cron-driven execution of stored train
// scripts. A polling loop checks every 30 seconds whether a job became due
// since its last run.

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelstorage"
	schedulerErrors "github.com/danilovkiri/dk-go-trainqueue/internal/service/scheduler/v1/errors"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/script/v1"
	"github.com/danilovkiri/dk-go-trainqueue/internal/storage/v1"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const pollInterval = 30 * time.Second

// Scheduler defines attributes of a struct available to its methods.
type Scheduler struct {
	storage storage.Jobs
	runner  script.Interpreter
	parser  cron.Parser
	ctx     context.Context
	log     *zerolog.Logger
	wg      *sync.WaitGroup
	now     func() time.Time
}

// InitScheduler initializes a job scheduler. Start must be called to launch
// the polling loop.
func InitScheduler(ctx context.Context, st storage.Jobs, runner script.Interpreter, log *zerolog.Logger, wg *sync.WaitGroup) (*Scheduler, error) {
	if st == nil {
		return nil, &schedulerErrors.SchedulerFoundNilArgument{Msg: "nil storage was passed to scheduler initializer"}
	}
	if runner == nil {
		return nil, &schedulerErrors.SchedulerFoundNilArgument{Msg: "nil script runner was passed to scheduler initializer"}
	}
	return &Scheduler{
		storage: st,
		runner:  runner,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		ctx:     ctx,
		log:     log,
		wg:      wg,
		now:     time.Now,
	}, nil
}

// CreateJob validates and stores a new scheduled job.
func (s *Scheduler) CreateJob(ctx context.Context, job modeldto.NewJob) (*modeldto.Job, error) {
	if job.Name == "" {
		return nil, &schedulerErrors.InvalidJobError{Msg: "job name must not be empty"}
	}
	if _, err := s.parser.Parse(job.CronExpression); err != nil {
		return nil, &schedulerErrors.InvalidCronError{Expression: job.CronExpression, Err: err}
	}
	if err := s.runner.Validate(job.Script); err != nil {
		return nil, err
	}
	entry := modelstorage.JobStorageEntry{
		ID:             uuid.New().String(),
		Name:           job.Name,
		Description:    job.Description,
		Script:         job.Script,
		CronExpression: job.CronExpression,
		Enabled:        job.Enabled,
		CreatedAt:      s.now().Format(time.RFC3339),
	}
	if err := s.storage.AddJob(ctx, entry); err != nil {
		return nil, err
	}
	dto := toDTO(entry)
	return &dto, nil
}

// UpdateJob validates and replaces the mutable fields of a stored job.
func (s *Scheduler) UpdateJob(ctx context.Context, jobID string, job modeldto.NewJob) (*modeldto.Job, error) {
	if _, err := s.parser.Parse(job.CronExpression); err != nil {
		return nil, &schedulerErrors.InvalidCronError{Expression: job.CronExpression, Err: err}
	}
	if err := s.runner.Validate(job.Script); err != nil {
		return nil, err
	}
	entry, err := s.storage.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	entry.Name = job.Name
	entry.Description = job.Description
	entry.Script = job.Script
	entry.CronExpression = job.CronExpression
	entry.Enabled = job.Enabled
	if err := s.storage.UpdateJob(ctx, *entry); err != nil {
		return nil, err
	}
	dto := toDTO(*entry)
	return &dto, nil
}

// DeleteJob removes a stored job.
func (s *Scheduler) DeleteJob(ctx context.Context, jobID string) error {
	return s.storage.DeleteJob(ctx, jobID)
}

// GetJob retrieves one stored job.
func (s *Scheduler) GetJob(ctx context.Context, jobID string) (*modeldto.Job, error) {
	entry, err := s.storage.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*entry)
	return &dto, nil
}

// ListJobs retrieves all stored jobs.
func (s *Scheduler) ListJobs(ctx context.Context) ([]modeldto.Job, error) {
	entries, err := s.storage.GetJobs(ctx)
	if err != nil {
		return nil, err
	}
	jobs := make([]modeldto.Job, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, toDTO(entry))
	}
	return jobs, nil
}

// RunNow executes a stored job immediately regardless of its schedule.
func (s *Scheduler) RunNow(ctx context.Context, jobID string) error {
	entry, err := s.storage.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	s.executeJob(ctx, entry)
	return nil
}

// Start launches the polling loop which runs due jobs until the scheduler
// context is cancelled.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		s.log.Info().Msg("job scheduler started")
		for {
			select {
			case <-s.ctx.Done():
				s.log.Info().Msg("job scheduler stopped")
				return
			case <-ticker.C:
				s.runDueJobs()
			}
		}
	}()
}

func (s *Scheduler) runDueJobs() {
	listCtx, cancel := context.WithTimeout(s.ctx, pollInterval)
	jobs, err := s.storage.GetJobs(listCtx)
	cancel()
	if err != nil {
		s.log.Error().Err(err).Msg("could not list jobs for schedule check")
		return
	}
	now := s.now()
	for i := range jobs {
		job := jobs[i]
		if !job.Enabled {
			continue
		}
		due, err := s.isDue(job, now)
		if err != nil {
			s.log.Error().Err(err).Msg(fmt.Sprintf("could not evaluate schedule for job %s", job.ID))
			continue
		}
		if due {
			// scripts may legitimately run longer than the poll interval,
			// only service shutdown cancels them
			s.executeJob(s.ctx, &job)
		}
	}
}

// isDue reports whether the job's next scheduled instant after its last run
// has passed.
func (s *Scheduler) isDue(job modelstorage.JobStorageEntry, now time.Time) (bool, error) {
	schedule, err := s.parser.Parse(job.CronExpression)
	if err != nil {
		return false, &schedulerErrors.InvalidCronError{Expression: job.CronExpression, Err: err}
	}
	anchor := job.LastRun
	if anchor == "" {
		anchor = job.CreatedAt
	}
	anchorTime, err := time.Parse(time.RFC3339, anchor)
	if err != nil {
		return false, err
	}
	return !schedule.Next(anchorTime).After(now), nil
}

func (s *Scheduler) executeJob(ctx context.Context, job *modelstorage.JobStorageEntry) {
	s.log.Info().Msg(fmt.Sprintf("executing scheduled job %s (%s)", job.Name, job.ID))
	job.LastRun = s.now().Format(time.RFC3339)
	job.RunCount++
	_, err := s.runner.Run(ctx, job.Script)
	if err != nil {
		job.LastResult = fmt.Sprintf("error: %s", err)
		s.log.Error().Err(err).Msg(fmt.Sprintf("scheduled job %s failed", job.ID))
	} else {
		job.LastResult = "success"
	}
	if err := s.storage.UpdateJob(ctx, *job); err != nil {
		s.log.Error().Err(err).Msg(fmt.Sprintf("could not persist run bookkeeping for job %s", job.ID))
	}
}

func toDTO(entry modelstorage.JobStorageEntry) modeldto.Job {
	return modeldto.Job{
		ID:             entry.ID,
		Name:           entry.Name,
		Description:    entry.Description,
		Script:         entry.Script,
		CronExpression: entry.CronExpression,
		Enabled:        entry.Enabled,
		CreatedAt:      entry.CreatedAt,
		LastRun:        entry.LastRun,
		LastResult:     entry.LastResult,
		RunCount:       entry.RunCount,
	}
}
