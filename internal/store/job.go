package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/domain"
)

// JobStore defines the interface for the durable analysis job queue. The
// backing table is the sole source of truth for job state; all coordination
// between worker processes happens through Claim's atomic conditional update.
// Version: 1.0
type JobStore interface {
	// Enqueue inserts a new pending job for the given journal and returns it.
	// Returns ErrInvalidEntity if journalID is empty. Enqueue never
	// deduplicates: multiple pending jobs for the same journal can coexist.
	Enqueue(ctx context.Context, journalID uuid.UUID) (*domain.AnalysisJob, error)

	// FetchPending returns up to limit jobs with pending status, ordered by
	// creation time ascending (oldest first). It is a read, not a claim:
	// no job state is mutated.
	FetchPending(ctx context.Context, limit int) ([]*domain.AnalysisJob, error)

	// Claim atomically transitions a job from pending to processing, but
	// only if its status is still pending. On success it increments the
	// attempts counter, clears the last error and returns the updated job
	// with claimed=true. If another worker already claimed the job (or it
	// no longer exists as pending), it returns claimed=false with a nil
	// error: losing the race is an expected, non-exceptional outcome.
	Claim(ctx context.Context, jobID uuid.UUID) (job *domain.AnalysisJob, claimed bool, err error)

	// MarkDone sets the job status to done. Idempotent; marking a missing
	// job is a no-op.
	MarkDone(ctx context.Context, jobID uuid.UUID) error

	// MarkFailed sets the job status to failed and records the error message.
	MarkFailed(ctx context.Context, jobID uuid.UUID, errMsg string) error

	// Reset returns a job to pending and clears its last error. Used for
	// manual retry of a previously failed job; there is no automatic retry.
	Reset(ctx context.Context, jobID uuid.UUID) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, error)

	// WithTx returns a new JobStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) JobStore
}
