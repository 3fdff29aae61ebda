package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/domain"
	"github.com/reflecta/reflecta-api/internal/platform/logger"
	"github.com/reflecta/reflecta-api/internal/store"
)

// PostgresJobStore implements the store.JobStore interface using PostgreSQL.
// The analysis_jobs table is the only shared mutable resource between worker
// processes; all cross-worker coordination happens through Claim's single
// conditional UPDATE.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgreSQL implementation of the
// JobStore interface. If logger is nil, a default logger is used.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements store.JobStore interface
var _ store.JobStore = (*PostgresJobStore)(nil)

// jobColumns is the canonical select list for analysis job rows.
const jobColumns = "id, kind, journal_id, status, attempts, last_error, created_at, updated_at"

// Enqueue implements store.JobStore.Enqueue.
func (s *PostgresJobStore) Enqueue(ctx context.Context, journalID uuid.UUID) (*domain.AnalysisJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	job, err := domain.NewAnalysisJob(journalID)
	if err != nil {
		log.Warn("job validation failed during enqueue",
			slog.String("error", err.Error()),
			slog.String("journal_id", journalID.String()))
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO analysis_jobs (id, kind, journal_id, status, attempts, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULL, $6, $7)
	`

	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		job.Kind,
		job.JournalID,
		job.Status,
		job.Attempts,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to enqueue analysis job",
			slog.String("error", err.Error()),
			slog.String("journal_id", journalID.String()))
		return nil, MapError(err)
	}

	log.Info("analysis job enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("journal_id", journalID.String()))
	return job, nil
}

// FetchPending implements store.JobStore.FetchPending. It is a pure read:
// returned jobs stay pending until individually claimed.
func (s *PostgresJobStore) FetchPending(ctx context.Context, limit int) ([]*domain.AnalysisJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT ` + jobColumns + `
		FROM analysis_jobs
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, domain.JobStatusPending, limit)
	if err != nil {
		log.Error("failed to query pending jobs", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var jobs []*domain.AnalysisJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			log.Error("failed to scan job row", slog.String("error", err.Error()))
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning job rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if jobs == nil {
		jobs = []*domain.AnalysisJob{}
	}

	return jobs, nil
}

// Claim implements store.JobStore.Claim. Exclusivity rests entirely on the
// conditional UPDATE below: the WHERE clause only matches while the job is
// still pending, and PostgreSQL serializes writes to a single row, so of any
// number of concurrent claimants exactly one sees an affected row. A lost
// race returns (nil, false, nil); it is not an error.
func (s *PostgresJobStore) Claim(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE analysis_jobs
		SET status = $1, attempts = attempts + 1, last_error = NULL, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + jobColumns

	row := s.db.QueryRowContext(ctx, query,
		domain.JobStatusProcessing,
		time.Now().UTC(),
		jobID,
		domain.JobStatusPending,
	)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("job already claimed by another worker",
				slog.String("job_id", jobID.String()))
			return nil, false, nil
		}
		log.Error("failed to claim job",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return nil, false, MapError(err)
	}

	log.Info("job claimed",
		slog.String("job_id", job.ID.String()),
		slog.Int("attempts", job.Attempts))
	return job, true, nil
}

// MarkDone implements store.JobStore.MarkDone. Idempotent; marking a
// missing job is treated as a no-op.
func (s *PostgresJobStore) MarkDone(ctx context.Context, jobID uuid.UUID) error {
	return s.setStatus(ctx, jobID, domain.JobStatusDone, sql.NullString{})
}

// MarkFailed implements store.JobStore.MarkFailed.
func (s *PostgresJobStore) MarkFailed(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	return s.setStatus(ctx, jobID, domain.JobStatusFailed, sql.NullString{String: errMsg, Valid: errMsg != ""})
}

// Reset implements store.JobStore.Reset.
func (s *PostgresJobStore) Reset(ctx context.Context, jobID uuid.UUID) error {
	return s.setStatus(ctx, jobID, domain.JobStatusPending, sql.NullString{})
}

// setStatus updates a job's status and last error. A zero affected-row count
// is logged and treated as a no-op, matching MarkDone's idempotency contract.
func (s *PostgresJobStore) setStatus(ctx context.Context, jobID uuid.UUID, status domain.JobStatus, lastError sql.NullString) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE analysis_jobs
		SET status = $1, last_error = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, status, lastError, time.Now().UTC(), jobID)
	if err != nil {
		log.Error("failed to update job status",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return MapError(err)
	}

	if rowsAffected == 0 {
		log.Warn("no job found to update status",
			slog.String("job_id", jobID.String()),
			slog.String("status", string(status)))
		return nil
	}

	log.Info("job status updated",
		slog.String("job_id", jobID.String()),
		slog.String("status", string(status)))
	return nil
}

// GetByID implements store.JobStore.GetByID.
func (s *PostgresJobStore) GetByID(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + jobColumns + ` FROM analysis_jobs WHERE id = $1`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		log.Error("failed to get job by ID",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return nil, MapError(err)
	}

	return job, nil
}

// WithTx implements store.JobStore.WithTx.
func (s *PostgresJobStore) WithTx(tx *sql.Tx) store.JobStore {
	return &PostgresJobStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.AnalysisJob, error) {
	var job domain.AnalysisJob
	var status string
	var lastError sql.NullString

	err := row.Scan(
		&job.ID,
		&job.Kind,
		&job.JournalID,
		&status,
		&job.Attempts,
		&lastError,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = domain.JobStatus(status)
	job.LastError = lastError.String
	return &job, nil
}
