package service

import (
	"context"
	"database/sql"
	"sort"

	"github.com/google/uuid"

	"github.com/reflecta/reflecta-api/internal/domain"
	"github.com/reflecta/reflecta-api/internal/events"
	"github.com/reflecta/reflecta-api/internal/store"
)

type highlightCall struct {
	journalID uuid.UUID
	summary   string
	keywords  []string
}

// fakeJournalStore is a map-backed store.JournalStore recording the calls the
// services make against it.
type fakeJournalStore struct {
	journals map[uuid.UUID]*domain.Journal

	highlights          []highlightCall
	updateHighlightsErr error
	updateErr           error
	listErr             error

	lastListLimit  int
	lastListOffset int
}

func newFakeJournalStore() *fakeJournalStore {
	return &fakeJournalStore{journals: map[uuid.UUID]*domain.Journal{}}
}

func (s *fakeJournalStore) add(journal *domain.Journal) {
	c := *journal
	s.journals[journal.ID] = &c
}

func (s *fakeJournalStore) Create(ctx context.Context, journal *domain.Journal) error {
	s.add(journal)
	return nil
}

func (s *fakeJournalStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Journal, error) {
	journal, ok := s.journals[id]
	if !ok {
		return nil, store.ErrJournalNotFound
	}
	c := *journal
	return &c, nil
}

func (s *fakeJournalStore) GetForUser(ctx context.Context, userID, id uuid.UUID) (*domain.Journal, error) {
	journal, err := s.GetByID(ctx, id)
	if err != nil || journal.UserID != userID {
		return nil, store.ErrJournalNotFound
	}
	return journal, nil
}

func (s *fakeJournalStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Journal, int, error) {
	s.lastListLimit = limit
	s.lastListOffset = offset
	if s.listErr != nil {
		return nil, 0, s.listErr
	}

	owned := []*domain.Journal{}
	for _, journal := range s.journals {
		if journal.UserID == userID {
			c := *journal
			owned = append(owned, &c)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })
	return owned, len(owned), nil
}

func (s *fakeJournalStore) Update(ctx context.Context, journal *domain.Journal) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.journals[journal.ID]; !ok {
		return store.ErrJournalNotFound
	}
	s.add(journal)
	return nil
}

func (s *fakeJournalStore) UpdateHighlights(ctx context.Context, id uuid.UUID, summary string, keywords []string) error {
	if s.updateHighlightsErr != nil {
		return s.updateHighlightsErr
	}
	s.highlights = append(s.highlights, highlightCall{journalID: id, summary: summary, keywords: keywords})
	if journal, ok := s.journals[id]; ok {
		journal.SetHighlights(summary, keywords)
	}
	return nil
}

func (s *fakeJournalStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	journal, ok := s.journals[id]
	if !ok || journal.UserID != userID {
		return store.ErrJournalNotFound
	}
	delete(s.journals, id)
	return nil
}

func (s *fakeJournalStore) WithTx(tx *sql.Tx) store.JournalStore { return s }

var _ store.JournalStore = (*fakeJournalStore)(nil)

// fakeAnalysisStore is a map-backed store.AnalysisStore.
type fakeAnalysisStore struct {
	analyses map[uuid.UUID]*domain.Analysis

	createErr         error
	updateReframesErr error
	updateCalls       int
}

func newFakeAnalysisStore() *fakeAnalysisStore {
	return &fakeAnalysisStore{analyses: map[uuid.UUID]*domain.Analysis{}}
}

func (s *fakeAnalysisStore) add(analysis *domain.Analysis) {
	c := *analysis
	s.analyses[analysis.ID] = &c
}

func (s *fakeAnalysisStore) Create(ctx context.Context, analysis *domain.Analysis) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.add(analysis)
	return nil
}

func (s *fakeAnalysisStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Analysis, error) {
	analysis, ok := s.analyses[id]
	if !ok || analysis.UserID != userID {
		return nil, store.ErrAnalysisNotFound
	}
	c := *analysis
	c.Reframes = append([]domain.Reframe{}, analysis.Reframes...)
	return &c, nil
}

func (s *fakeAnalysisStore) GetByJournal(ctx context.Context, userID, journalID uuid.UUID) (*domain.Analysis, error) {
	var latest *domain.Analysis
	for _, analysis := range s.analyses {
		if analysis.UserID != userID || analysis.JournalID != journalID {
			continue
		}
		if latest == nil || analysis.CreatedAt.After(latest.CreatedAt) {
			latest = analysis
		}
	}
	if latest == nil {
		return nil, store.ErrAnalysisNotFound
	}
	c := *latest
	return &c, nil
}

func (s *fakeAnalysisStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Analysis, int, error) {
	owned := []*domain.Analysis{}
	for _, analysis := range s.analyses {
		if analysis.UserID == userID {
			c := *analysis
			owned = append(owned, &c)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })
	return owned, len(owned), nil
}

func (s *fakeAnalysisStore) UpdateReframes(ctx context.Context, analysis *domain.Analysis) error {
	if s.updateReframesErr != nil {
		return s.updateReframesErr
	}
	stored, ok := s.analyses[analysis.ID]
	if !ok {
		return store.ErrAnalysisNotFound
	}
	stored.Reframes = append([]domain.Reframe{}, analysis.Reframes...)
	s.updateCalls++
	return nil
}

func (s *fakeAnalysisStore) WithTx(tx *sql.Tx) store.AnalysisStore { return s }

var _ store.AnalysisStore = (*fakeAnalysisStore)(nil)

// fakeJobStore is a map-backed store.JobStore.
type fakeJobStore struct {
	jobs map[uuid.UUID]*domain.AnalysisJob

	resetErr   error
	resetCalls int
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: map[uuid.UUID]*domain.AnalysisJob{}}
}

func (s *fakeJobStore) add(job *domain.AnalysisJob) {
	c := *job
	s.jobs[job.ID] = &c
}

func (s *fakeJobStore) Enqueue(ctx context.Context, journalID uuid.UUID) (*domain.AnalysisJob, error) {
	job, err := domain.NewAnalysisJob(journalID)
	if err != nil {
		return nil, err
	}
	s.add(job)
	return job, nil
}

func (s *fakeJobStore) FetchPending(ctx context.Context, limit int) ([]*domain.AnalysisJob, error) {
	return []*domain.AnalysisJob{}, nil
}

func (s *fakeJobStore) Claim(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, bool, error) {
	return nil, false, nil
}

func (s *fakeJobStore) MarkDone(ctx context.Context, jobID uuid.UUID) error { return nil }

func (s *fakeJobStore) MarkFailed(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	return nil
}

func (s *fakeJobStore) Reset(ctx context.Context, jobID uuid.UUID) error {
	if s.resetErr != nil {
		return s.resetErr
	}
	if job, ok := s.jobs[jobID]; ok {
		job.Status = domain.JobStatusPending
		job.LastError = ""
	}
	s.resetCalls++
	return nil
}

func (s *fakeJobStore) GetByID(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	c := *job
	return &c, nil
}

func (s *fakeJobStore) WithTx(tx *sql.Tx) store.JobStore { return s }

var _ store.JobStore = (*fakeJobStore)(nil)

// fakeEmitter records emitted events, optionally failing every emit.
type fakeEmitter struct {
	events []*events.AnalysisRequestEvent
	err    error
}

func (e *fakeEmitter) EmitEvent(ctx context.Context, event *events.AnalysisRequestEvent) error {
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	return nil
}

var _ events.EventEmitter = (*fakeEmitter)(nil)
