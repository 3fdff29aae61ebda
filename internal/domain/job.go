package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the processing state of an analysis job.
type JobStatus string

// Possible job status values. A job starts pending, moves to processing
// exactly once per successful claim, and ends done or failed. A failed job
// only returns to pending through an explicit reset.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// JobKindAnalyzeJournal is the only job kind currently produced.
const JobKindAnalyzeJournal = "analyze_journal"

// Common validation errors for AnalysisJob
var (
	ErrEmptyJobID        = errors.New("job ID cannot be empty")
	ErrEmptyJobJournalID = errors.New("job journal ID cannot be empty")
	ErrInvalidJobStatus  = errors.New("invalid job status")
)

// AnalysisJob is a durable record representing one unit of analysis work.
// The backing store is the sole source of truth for job state; at most one
// worker holds a given job in processing at any instant.
type AnalysisJob struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	JournalID uuid.UUID `json:"journal_id"`
	Status    JobStatus `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAnalysisJob creates a new pending AnalysisJob for the given journal.
// Returns an error if validation fails.
func NewAnalysisJob(journalID uuid.UUID) (*AnalysisJob, error) {
	job := &AnalysisJob{
		ID:        uuid.New(),
		Kind:      JobKindAnalyzeJournal,
		JournalID: journalID,
		Status:    JobStatusPending,
		Attempts:  0,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the AnalysisJob has valid data.
func (j *AnalysisJob) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.JournalID == uuid.Nil {
		return ErrEmptyJobJournalID
	}

	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	return nil
}

// Terminal reports whether the job has reached a final state. A failed job
// is terminal until explicitly reset.
func (j *AnalysisJob) Terminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}

func isValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusPending, JobStatusProcessing, JobStatusDone, JobStatusFailed:
		return true
	default:
		return false
	}
}
