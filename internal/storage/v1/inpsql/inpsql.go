// Package inpsql implements PSQL-based storage for analytics sessions,
// runtime configuration and scheduled jobs.

package inpsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/danilovkiri/dk-go-trainqueue/internal/config"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelstorage"
	storageErrors "github.com/danilovkiri/dk-go-trainqueue/internal/storage/v1/errors"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog"
)

// Storage defines attributes of a struct available to its methods.
type Storage struct {
	mu  sync.Mutex
	Cfg *config.StorageConfig
	DB  *sql.DB
	log *zerolog.Logger
}

// InitStorage initializes a Storage object, sets its attributes and creates
// the tables. The DB connection is closed upon context cancellation.
func InitStorage(ctx context.Context, cfg *config.StorageConfig, log *zerolog.Logger, wg *sync.WaitGroup) (*Storage, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open PSQL DB")
	}
	st := Storage{
		Cfg: cfg,
		DB:  db,
		log: log,
	}
	err = st.createTables(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create PSQL tables")
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		err := st.DB.Close()
		if err != nil {
			st.log.Error().Err(err).Msg("could not close PSQL DB connection")
		}
		st.log.Info().Msg("PSQL DB connection closed")
	}()
	log.Info().Msg("PSQL DB connection was established")
	return &st, nil
}

// SaveSession stores one finished control session.
func (s *Storage) SaveSession(ctx context.Context, session modelstorage.SessionStorageEntry) error {
	newSessionStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO sessions (session_id, user_id, username, joined_at, started_at, ended_at, wait_seconds, duration_seconds, speed_count, direction_count, horn_count, bell_count, lights_count, emergency_count) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer newSessionStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := newSessionStmt.ExecContext(ctx, session.SessionID, session.UserID, session.Username, session.JoinedAt, session.StartedAt, session.EndedAt, session.WaitSeconds, session.DurationSeconds, session.SpeedCount, session.DirectionCount, session.HornCount, session.BellCount, session.LightsCount, session.EmergencyCount)
		if err != nil {
			if err, ok := err.(*pgconn.PgError); ok && err.Code == pgerrcode.UniqueViolation {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: session.SessionID}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("saving session failed for %s", session.SessionID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("saving session failed for %s", session.SessionID))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("saving session done for %s", session.SessionID))
		return nil
	}
}

// GetSessions retrieves sessions which ended at or after the given RFC3339
// instant, or all sessions when since is empty.
func (s *Storage) GetSessions(ctx context.Context, since string) ([]modelstorage.SessionStorageEntry, error) {
	query := "SELECT * FROM sessions"
	args := make([]interface{}, 0, 1)
	if since != "" {
		query += " WHERE ended_at >= $1"
		args = append(args, since)
	}
	selectStmt, err := s.DB.PrepareContext(ctx, query)
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan []modelstorage.SessionStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		rows, err := selectStmt.QueryContext(ctx, args...)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer rows.Close()
		var queryOutput []modelstorage.SessionStorageEntry
		for rows.Next() {
			var queryOutputRow modelstorage.SessionStorageEntry
			err = rows.Scan(&queryOutputRow.ID, &queryOutputRow.SessionID, &queryOutputRow.UserID, &queryOutputRow.Username, &queryOutputRow.JoinedAt, &queryOutputRow.StartedAt, &queryOutputRow.EndedAt, &queryOutputRow.WaitSeconds, &queryOutputRow.DurationSeconds, &queryOutputRow.SpeedCount, &queryOutputRow.DirectionCount, &queryOutputRow.HornCount, &queryOutputRow.BellCount, &queryOutputRow.LightsCount, &queryOutputRow.EmergencyCount)
			if err != nil {
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
				return
			}
			queryOutput = append(queryOutput, queryOutputRow)
		}
		err = rows.Err()
		if err != nil {
			chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("getting sessions failed")
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("getting sessions failed")
		return nil, methodErr
	case sessions := <-chanOk:
		s.log.Info().Msg("getting sessions done")
		return sessions, nil
	}
}

// PurgeSessions removes all stored analytics sessions.
func (s *Storage) PurgeSessions(ctx context.Context) error {
	deleteStmt, err := s.DB.PrepareContext(ctx, "DELETE FROM sessions")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer deleteStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := deleteStmt.ExecContext(ctx)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("purging sessions failed")
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("purging sessions failed")
		return methodErr
	case <-chanOk:
		s.log.Info().Msg("purging sessions done")
		return nil
	}
}

// GetRuntimeConfig retrieves the persisted runtime configuration row.
func (s *Storage) GetRuntimeConfig(ctx context.Context) (*modelstorage.RuntimeConfigStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT * FROM runtime_config WHERE id = 1")
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan modelstorage.RuntimeConfigStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var queryOutput modelstorage.RuntimeConfigStorageEntry
		err := selectStmt.QueryRowContext(ctx).Scan(&queryOutput.ID, &queryOutput.SlotDurationSeconds, &queryOutput.AllowInfiniteWhenAlone, &queryOutput.ControlsJSON, &queryOutput.UpdatedAt)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				chanEr <- &storageErrors.NotFoundError{Err: err, ID: "runtime_config"}
			default:
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			}
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("getting runtime config failed")
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		return nil, methodErr
	case entry := <-chanOk:
		return &entry, nil
	}
}

// SaveRuntimeConfig upserts the single runtime configuration row.
func (s *Storage) SaveRuntimeConfig(ctx context.Context, entry modelstorage.RuntimeConfigStorageEntry) error {
	upsertStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO runtime_config (id, slot_duration_seconds, allow_infinite_when_alone, controls, updated_at) VALUES (1, $1, $2, $3, $4) ON CONFLICT (id) DO UPDATE SET slot_duration_seconds = $1, allow_infinite_when_alone = $2, controls = $3, updated_at = $4")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer upsertStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := upsertStmt.ExecContext(ctx, entry.SlotDurationSeconds, entry.AllowInfiniteWhenAlone, entry.ControlsJSON, entry.UpdatedAt)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("saving runtime config failed")
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("saving runtime config failed")
		return methodErr
	case <-chanOk:
		s.log.Info().Msg("saving runtime config done")
		return nil
	}
}

// AddJob stores a new scheduled job.
func (s *Storage) AddJob(ctx context.Context, job modelstorage.JobStorageEntry) error {
	newJobStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO scheduled_jobs (job_id, name, description, script, cron_expression, enabled, created_at, last_run, last_result, run_count) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer newJobStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := newJobStmt.ExecContext(ctx, job.ID, job.Name, job.Description, job.Script, job.CronExpression, job.Enabled, job.CreatedAt, job.LastRun, job.LastResult, job.RunCount)
		if err != nil {
			if err, ok := err.(*pgconn.PgError); ok && err.Code == pgerrcode.UniqueViolation {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: job.ID}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("adding job failed for %s", job.ID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("adding job failed for %s", job.ID))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("adding job done for %s", job.ID))
		return nil
	}
}

// GetJob retrieves one scheduled job by its identifier.
func (s *Storage) GetJob(ctx context.Context, jobID string) (*modelstorage.JobStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT job_id, name, description, script, cron_expression, enabled, created_at, last_run, last_result, run_count FROM scheduled_jobs WHERE job_id = $1")
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan modelstorage.JobStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var queryOutput modelstorage.JobStorageEntry
		err := selectStmt.QueryRowContext(ctx, jobID).Scan(&queryOutput.ID, &queryOutput.Name, &queryOutput.Description, &queryOutput.Script, &queryOutput.CronExpression, &queryOutput.Enabled, &queryOutput.CreatedAt, &queryOutput.LastRun, &queryOutput.LastResult, &queryOutput.RunCount)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				chanEr <- &storageErrors.NotFoundError{Err: err, ID: jobID}
			default:
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			}
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("getting job failed for %s", jobID))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		return nil, methodErr
	case job := <-chanOk:
		return &job, nil
	}
}

// GetJobs retrieves all scheduled jobs.
func (s *Storage) GetJobs(ctx context.Context) ([]modelstorage.JobStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT job_id, name, description, script, cron_expression, enabled, created_at, last_run, last_result, run_count FROM scheduled_jobs ORDER BY created_at")
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan []modelstorage.JobStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		rows, err := selectStmt.QueryContext(ctx)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer rows.Close()
		var queryOutput []modelstorage.JobStorageEntry
		for rows.Next() {
			var queryOutputRow modelstorage.JobStorageEntry
			err = rows.Scan(&queryOutputRow.ID, &queryOutputRow.Name, &queryOutputRow.Description, &queryOutputRow.Script, &queryOutputRow.CronExpression, &queryOutputRow.Enabled, &queryOutputRow.CreatedAt, &queryOutputRow.LastRun, &queryOutputRow.LastResult, &queryOutputRow.RunCount)
			if err != nil {
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
				return
			}
			queryOutput = append(queryOutput, queryOutputRow)
		}
		err = rows.Err()
		if err != nil {
			chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("getting jobs failed")
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("getting jobs failed")
		return nil, methodErr
	case jobs := <-chanOk:
		return jobs, nil
	}
}

// UpdateJob replaces all mutable fields of a scheduled job.
func (s *Storage) UpdateJob(ctx context.Context, job modelstorage.JobStorageEntry) error {
	updateStmt, err := s.DB.PrepareContext(ctx, "UPDATE scheduled_jobs SET name = $2, description = $3, script = $4, cron_expression = $5, enabled = $6, last_run = $7, last_result = $8, run_count = $9 WHERE job_id = $1")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer updateStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		result, err := updateStmt.ExecContext(ctx, job.ID, job.Name, job.Description, job.Script, job.CronExpression, job.Enabled, job.LastRun, job.LastResult, job.RunCount)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		affected, err := result.RowsAffected()
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		if affected == 0 {
			chanEr <- &storageErrors.NotFoundError{ID: job.ID}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("updating job failed for %s", job.ID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("updating job failed for %s", job.ID))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("updating job done for %s", job.ID))
		return nil
	}
}

// DeleteJob removes a scheduled job by its identifier.
func (s *Storage) DeleteJob(ctx context.Context, jobID string) error {
	deleteStmt, err := s.DB.PrepareContext(ctx, "DELETE FROM scheduled_jobs WHERE job_id = $1")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer deleteStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		result, err := deleteStmt.ExecContext(ctx, jobID)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		affected, err := result.RowsAffected()
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		if affected == 0 {
			chanEr <- &storageErrors.NotFoundError{ID: jobID}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("deleting job failed for %s", jobID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("deleting job failed for %s", jobID))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("deleting job done for %s", jobID))
		return nil
	}
}

// Ping checks the PSQL DB connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Storage) createTables(ctx context.Context) error {
	var queries []string
	query := `CREATE TABLE IF NOT EXISTS sessions (
		id               BIGSERIAL   NOT NULL,
		session_id       TEXT        NOT NULL UNIQUE,
		user_id          TEXT        NOT NULL,
		username         TEXT        NOT NULL,
		joined_at        TIMESTAMPTZ NOT NULL,
		started_at       TIMESTAMPTZ NOT NULL,
		ended_at         TIMESTAMPTZ NOT NULL,
		wait_seconds     NUMERIC(10, 2) NOT NULL,
		duration_seconds NUMERIC(10, 2) NOT NULL,
		speed_count      BIGINT      NOT NULL,
		direction_count  BIGINT      NOT NULL,
		horn_count       BIGINT      NOT NULL,
		bell_count       BIGINT      NOT NULL,
		lights_count     BIGINT      NOT NULL,
		emergency_count  BIGINT      NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS runtime_config (
		id                        BIGINT      NOT NULL UNIQUE,
		slot_duration_seconds     BIGINT      NOT NULL,
		allow_infinite_when_alone BOOLEAN     NOT NULL,
		controls                  TEXT        NOT NULL,
		updated_at                TIMESTAMPTZ NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS scheduled_jobs (
		job_id          TEXT        NOT NULL UNIQUE,
		name            TEXT        NOT NULL,
		description     TEXT        NOT NULL,
		script          TEXT        NOT NULL,
		cron_expression TEXT        NOT NULL,
		enabled         BOOLEAN     NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		last_run        TEXT        NOT NULL,
		last_result     TEXT        NOT NULL,
		run_count       BIGINT      NOT NULL
	);`
	queries = append(queries, query)
	for _, subquery := range queries {
		_, err := s.DB.ExecContext(ctx, subquery)
		if err != nil {
			return err
		}
	}
	return nil
}
