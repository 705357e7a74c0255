package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/logger"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelstorage"
	schedulerErrors "github.com/danilovkiri/dk-go-trainqueue/internal/service/scheduler/v1/errors"
	scriptErrors "github.com/danilovkiri/dk-go-trainqueue/internal/service/script/v1/errors"
	storageErrors "github.com/danilovkiri/dk-go-trainqueue/internal/storage/v1/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobStorage struct {
	jobs map[string]modelstorage.JobStorageEntry
}

func newFakeJobStorage() *fakeJobStorage {
	return &fakeJobStorage{jobs: make(map[string]modelstorage.JobStorageEntry)}
}

func (f *fakeJobStorage) AddJob(_ context.Context, job modelstorage.JobStorageEntry) error {
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobStorage) GetJob(_ context.Context, jobID string) (*modelstorage.JobStorageEntry, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, &storageErrors.NotFoundError{ID: jobID}
	}
	return &job, nil
}

func (f *fakeJobStorage) GetJobs(_ context.Context) ([]modelstorage.JobStorageEntry, error) {
	out := make([]modelstorage.JobStorageEntry, 0, len(f.jobs))
	for _, job := range f.jobs {
		out = append(out, job)
	}
	return out, nil
}

func (f *fakeJobStorage) UpdateJob(_ context.Context, job modelstorage.JobStorageEntry) error {
	if _, ok := f.jobs[job.ID]; !ok {
		return &storageErrors.NotFoundError{ID: job.ID}
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobStorage) DeleteJob(_ context.Context, jobID string) error {
	if _, ok := f.jobs[jobID]; !ok {
		return &storageErrors.NotFoundError{ID: jobID}
	}
	delete(f.jobs, jobID)
	return nil
}

type fakeRunner struct {
	runs        int
	hadDeadline bool
}

func (f *fakeRunner) Validate(script string) error {
	if script == "broken" {
		return &scriptErrors.SyntaxError{Line: 1, Msg: "unknown command"}
	}
	return nil
}

func (f *fakeRunner) Run(ctx context.Context, _ string) (int, error) {
	f.runs++
	_, f.hadDeadline = ctx.Deadline()
	return 1, nil
}

func (f *fakeRunner) Stop() {}

func setupScheduler(t *testing.T) (*Scheduler, *fakeJobStorage, *fakeRunner) {
	t.Helper()
	log := logger.InitLog("scheduler-test")
	st := newFakeJobStorage()
	runner := &fakeRunner{}
	s, err := InitScheduler(context.Background(), st, runner, log, &sync.WaitGroup{})
	require.NoError(t, err)
	return s, st, runner
}

func TestCreateJobValidation(t *testing.T) {
	s, _, _ := setupScheduler(t)
	var invalidCronError *schedulerErrors.InvalidCronError
	_, err := s.CreateJob(context.Background(), modeldto.NewJob{Name: "n", Script: "horn", CronExpression: "not-cron"})
	assert.ErrorAs(t, err, &invalidCronError)

	var syntaxError *scriptErrors.SyntaxError
	_, err = s.CreateJob(context.Background(), modeldto.NewJob{Name: "n", Script: "broken", CronExpression: "*/5 * * * *"})
	assert.ErrorAs(t, err, &syntaxError)

	var invalidJobError *schedulerErrors.InvalidJobError
	_, err = s.CreateJob(context.Background(), modeldto.NewJob{Script: "horn", CronExpression: "*/5 * * * *"})
	assert.ErrorAs(t, err, &invalidJobError)

	job, err := s.CreateJob(context.Background(), modeldto.NewJob{Name: "morning run", Script: "horn", CronExpression: "0 9 * * *", Enabled: true})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, 0, job.RunCount)
}

func TestUpdateAndDeleteJob(t *testing.T) {
	s, _, _ := setupScheduler(t)
	job, err := s.CreateJob(context.Background(), modeldto.NewJob{Name: "n", Script: "horn", CronExpression: "0 9 * * *"})
	require.NoError(t, err)

	updated, err := s.UpdateJob(context.Background(), job.ID, modeldto.NewJob{Name: "renamed", Script: "bell on", CronExpression: "0 10 * * *", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)

	var notFoundError *storageErrors.NotFoundError
	_, err = s.UpdateJob(context.Background(), "missing", modeldto.NewJob{Name: "x", Script: "horn", CronExpression: "0 9 * * *"})
	assert.ErrorAs(t, err, &notFoundError)

	require.NoError(t, s.DeleteJob(context.Background(), job.ID))
	assert.ErrorAs(t, s.DeleteJob(context.Background(), job.ID), &notFoundError)
}

func TestRunNowUpdatesBookkeeping(t *testing.T) {
	s, st, runner := setupScheduler(t)
	job, err := s.CreateJob(context.Background(), modeldto.NewJob{Name: "n", Script: "horn", CronExpression: "0 9 * * *"})
	require.NoError(t, err)

	require.NoError(t, s.RunNow(context.Background(), job.ID))
	assert.Equal(t, 1, runner.runs)
	stored := st.jobs[job.ID]
	assert.Equal(t, 1, stored.RunCount)
	assert.Equal(t, "success", stored.LastResult)
	assert.NotEmpty(t, stored.LastRun)
}

func TestDueJobExecutionOutlivesPollInterval(t *testing.T) {
	s, st, runner := setupScheduler(t)
	st.jobs["job1"] = modelstorage.JobStorageEntry{
		ID:             "job1",
		Name:           "nightly loop",
		Script:         "horn",
		CronExpression: "* * * * *",
		Enabled:        true,
		CreatedAt:      s.now().Add(-time.Hour).Format(time.RFC3339),
	}
	s.runDueJobs()
	require.Equal(t, 1, runner.runs)
	assert.False(t, runner.hadDeadline)
	assert.Equal(t, "success", st.jobs["job1"].LastResult)
}

func TestIsDue(t *testing.T) {
	s, _, _ := setupScheduler(t)
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	job := modelstorage.JobStorageEntry{
		CronExpression: "0 9 * * *",
		CreatedAt:      now.Add(-24 * time.Hour).Format(time.RFC3339),
	}

	// never ran and the 09:00 slot has passed
	due, err := s.isDue(job, now)
	require.NoError(t, err)
	assert.True(t, due)

	// already ran after the last scheduled instant
	job.LastRun = now.Add(-10 * time.Minute).Format(time.RFC3339)
	due, err = s.isDue(job, now)
	require.NoError(t, err)
	assert.False(t, due)

	// last run predates the most recent scheduled instant
	job.LastRun = now.Add(-2 * time.Hour).Format(time.RFC3339)
	due, err = s.isDue(job, now)
	require.NoError(t, err)
	assert.True(t, due)
}
