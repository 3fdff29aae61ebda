package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/domain"
	"github.com/reflecta/reflecta-api/internal/store"
)

// StuckJobThreshold is how long a job may sit in processing before a reset
// treats it as abandoned by a dead worker. Claim bumps updated_at, so a
// fresher timestamp means a worker is still on it. The poller's processing
// timeout is two minutes; anything past this threshold is not coming back.
const StuckJobThreshold = 10 * time.Minute

// JobService exposes the manual recovery surface of the analysis job queue.
// There is no automatic retry: a failed job stays failed until someone
// resets it.
type JobService interface {
	// GetJob retrieves an analysis job by ID.
	GetJob(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, error)

	// ResetJob returns a job to the pending state so the next poll cycle
	// picks it up again. Failed jobs are always resettable; a processing
	// job only becomes resettable once it has been stuck past
	// StuckJobThreshold.
	ResetJob(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, error)
}

type jobServiceImpl struct {
	jobStore store.JobStore
	logger   *slog.Logger
}

// NewJobService creates a new JobService.
func NewJobService(jobStore store.JobStore, logger *slog.Logger) (JobService, error) {
	if jobStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "jobStore cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &jobServiceImpl{
		jobStore: jobStore,
		logger:   logger.With("component", "job_service"),
	}, nil
}

// GetJob retrieves an analysis job by ID.
func (s *jobServiceImpl) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, error) {
	job, err := s.jobStore.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, NewServiceError("get_job", "failed to retrieve job", err)
	}
	return job, nil
}

// ResetJob returns a failed or stuck job to the pending state.
func (s *jobServiceImpl) ResetJob(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, error) {
	job, err := s.jobStore.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, NewServiceError("reset_job", "failed to retrieve job", err)
	}

	if !resettable(job) {
		s.logger.Warn("reset requested for non-resettable job",
			"job_id", jobID,
			"status", job.Status)
		return nil, ErrJobNotResettable
	}

	if err := s.jobStore.Reset(ctx, jobID); err != nil {
		s.logger.Error("failed to reset job",
			"error", err,
			"job_id", jobID)
		return nil, NewServiceError("reset_job", "failed to reset job", err)
	}

	s.logger.Info("job reset to pending", "job_id", jobID)

	job.Status = domain.JobStatusPending
	job.LastError = ""
	return job, nil
}

// resettable reports whether a reset may move the job back to pending.
// Pending and done jobs never qualify, and a processing job only does once
// its last status change is older than StuckJobThreshold.
func resettable(job *domain.AnalysisJob) bool {
	switch job.Status {
	case domain.JobStatusFailed:
		return true
	case domain.JobStatusProcessing:
		return time.Since(job.UpdatedAt) >= StuckJobThreshold
	default:
		return false
	}
}
