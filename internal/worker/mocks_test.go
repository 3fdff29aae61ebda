package worker

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	"github.com/reflecta/reflecta-api/internal/analyzer"
	"github.com/reflecta/reflecta-api/internal/domain"
	"github.com/reflecta/reflecta-api/internal/store"
)

// memJobStore is an in-memory store.JobStore with the same claim semantics
// as the postgres implementation: a conditional transition guarded by a
// single lock stands in for the database's single-row write serialization.
type memJobStore struct {
	mu    sync.Mutex
	jobs  map[uuid.UUID]*domain.AnalysisJob
	order []uuid.UUID

	// fetchFailures makes the next N FetchPending calls fail.
	fetchFailures int
	fetchErr      error
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: map[uuid.UUID]*domain.AnalysisJob{}}
}

func (s *memJobStore) Enqueue(ctx context.Context, journalID uuid.UUID) (*domain.AnalysisJob, error) {
	job, err := domain.NewAnalysisJob(journalID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	return copyJob(job), nil
}

func (s *memJobStore) FetchPending(ctx context.Context, limit int) ([]*domain.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fetchFailures > 0 {
		s.fetchFailures--
		return nil, s.fetchErr
	}

	out := []*domain.AnalysisJob{}
	for _, id := range s.order {
		if len(out) == limit {
			break
		}
		if job := s.jobs[id]; job.Status == domain.JobStatusPending {
			out = append(out, copyJob(job))
		}
	}
	return out, nil
}

func (s *memJobStore) Claim(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.Status != domain.JobStatusPending {
		return nil, false, nil
	}

	job.Status = domain.JobStatusProcessing
	job.Attempts++
	job.LastError = ""
	return copyJob(job), true, nil
}

func (s *memJobStore) MarkDone(ctx context.Context, jobID uuid.UUID) error {
	return s.setStatus(jobID, domain.JobStatusDone, "")
}

func (s *memJobStore) MarkFailed(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	return s.setStatus(jobID, domain.JobStatusFailed, errMsg)
}

func (s *memJobStore) Reset(ctx context.Context, jobID uuid.UUID) error {
	return s.setStatus(jobID, domain.JobStatusPending, "")
}

func (s *memJobStore) setStatus(jobID uuid.UUID, status domain.JobStatus, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	job.Status = status
	job.LastError = lastError
	return nil
}

func (s *memJobStore) GetByID(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return copyJob(job), nil
}

func (s *memJobStore) WithTx(tx *sql.Tx) store.JobStore { return s }

func (s *memJobStore) snapshot(jobID uuid.UUID) *domain.AnalysisJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		return copyJob(job)
	}
	return nil
}

func copyJob(job *domain.AnalysisJob) *domain.AnalysisJob {
	c := *job
	return &c
}

var _ store.JobStore = (*memJobStore)(nil)

// memJournalStore is an in-memory store.JournalStore holding journals by ID.
type memJournalStore struct {
	mu       sync.Mutex
	journals map[uuid.UUID]*domain.Journal
}

func newMemJournalStore() *memJournalStore {
	return &memJournalStore{journals: map[uuid.UUID]*domain.Journal{}}
}

func (s *memJournalStore) Create(ctx context.Context, journal *domain.Journal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *journal
	s.journals[journal.ID] = &c
	return nil
}

func (s *memJournalStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	journal, ok := s.journals[id]
	if !ok {
		return nil, store.ErrJournalNotFound
	}
	c := *journal
	return &c, nil
}

func (s *memJournalStore) GetForUser(ctx context.Context, userID, id uuid.UUID) (*domain.Journal, error) {
	journal, err := s.GetByID(ctx, id)
	if err != nil || journal.UserID != userID {
		return nil, store.ErrJournalNotFound
	}
	return journal, nil
}

func (s *memJournalStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Journal, int, error) {
	return []*domain.Journal{}, 0, nil
}

func (s *memJournalStore) Update(ctx context.Context, journal *domain.Journal) error {
	return s.Create(ctx, journal)
}

func (s *memJournalStore) UpdateHighlights(ctx context.Context, id uuid.UUID, summary string, keywords []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	journal, ok := s.journals[id]
	if !ok {
		return store.ErrJournalNotFound
	}
	journal.SetHighlights(summary, keywords)
	return nil
}

func (s *memJournalStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.journals, id)
	return nil
}

func (s *memJournalStore) WithTx(tx *sql.Tx) store.JournalStore { return s }

var _ store.JournalStore = (*memJournalStore)(nil)

// stubAnalyzer delegates to a function, defaulting to the placeholder.
type stubAnalyzer struct {
	analyzeFn func(ctx context.Context, text string) (*analyzer.RawAnalysis, error)
}

func (a *stubAnalyzer) Analyze(ctx context.Context, text string) (*analyzer.RawAnalysis, error) {
	if a.analyzeFn != nil {
		return a.analyzeFn(ctx, text)
	}
	return analyzer.PlaceholderAnalysis(text), nil
}

var _ analyzer.Analyzer = (*stubAnalyzer)(nil)

// stubSaver records saved analyses, optionally failing instead.
type stubSaver struct {
	mu    sync.Mutex
	saved []*domain.Analysis
	err   error
}

func (s *stubSaver) SaveAnalysis(ctx context.Context, journal *domain.Journal, raw *analyzer.RawAnalysis) (*domain.Analysis, error) {
	if s.err != nil {
		return nil, s.err
	}

	analysis, err := analyzer.Normalize(raw, journal.ID, journal.UserID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, analysis)
	return analysis, nil
}

func (s *stubSaver) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

var _ AnalysisSaver = (*stubSaver)(nil)
