package service

import (
	"context"
	"database/sql"
	"errors"
	"expvar"
	"log/slog"

	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/domain"
	"github.com/reflecta/reflecta-api/internal/events"
	"github.com/reflecta/reflecta-api/internal/store"
)

// enqueueFailures counts analysis enqueue attempts that failed after the
// journal write succeeded. The write is never rolled back for a failed
// enqueue, so this counter is the only visible trace of the lost request
// besides the log line.
var enqueueFailures = expvar.NewInt("journal_analysis_enqueue_failures")

// JournalPage is one page of a user's journals.
type JournalPage struct {
	Items []*domain.Journal `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// CreateJournalInput carries the fields accepted when creating a journal.
// Only EntryText is required.
type CreateJournalInput struct {
	EntryText  string
	MoodScore  *int
	Tags       []string
	PromptType string
}

// UpdateJournalInput carries the mutable journal fields for an update. Nil
// fields are left unchanged.
type UpdateJournalInput struct {
	EntryText  *string
	MoodScore  *int
	Tags       []string
	PromptType *string
}

// JournalService provides journal-related operations, including the
// best-effort handoff of new entries to the analysis pipeline.
type JournalService interface {
	// CreateJournal persists a new journal entry and requests analysis for
	// it. The analysis request is best effort: its failure is logged and
	// counted but never fails the create.
	CreateJournal(ctx context.Context, userID uuid.UUID, input CreateJournalInput) (*domain.Journal, error)

	// GetJournal retrieves a journal owned by userID.
	GetJournal(ctx context.Context, userID, journalID uuid.UUID) (*domain.Journal, error)

	// ListJournals returns a page of the user's journals, newest first.
	ListJournals(ctx context.Context, userID uuid.UUID, page, limit int) (*JournalPage, error)

	// UpdateJournal applies the non-nil fields of input to a journal owned
	// by userID. A change to the entry text requests re-analysis; updates to
	// mood, tags, or prompt type alone do not.
	UpdateJournal(ctx context.Context, userID, journalID uuid.UUID, input UpdateJournalInput) (*domain.Journal, error)

	// DeleteJournal removes a journal owned by userID.
	DeleteJournal(ctx context.Context, userID, journalID uuid.UUID) error
}

type journalServiceImpl struct {
	db           *sql.DB
	journalStore store.JournalStore
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

// NewJournalService creates a new JournalService.
// It returns an error if any of the required dependencies are nil.
func NewJournalService(
	db *sql.DB,
	journalStore store.JournalStore,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (JournalService, error) {
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if journalStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "journalStore cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &journalServiceImpl{
		db:           db,
		journalStore: journalStore,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "journal_service"),
	}, nil
}

// CreateJournal persists a new journal entry and requests analysis for it.
func (s *journalServiceImpl) CreateJournal(
	ctx context.Context,
	userID uuid.UUID,
	input CreateJournalInput,
) (*domain.Journal, error) {
	journal, err := domain.NewJournal(userID, input.EntryText, input.MoodScore)
	if err != nil {
		s.logger.Warn("invalid journal input",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("create_journal", "invalid journal", err)
	}

	if input.Tags != nil {
		journal.Tags = input.Tags
	}
	journal.PromptType = input.PromptType

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.journalStore.WithTx(tx).Create(ctx, journal)
	})
	if err != nil {
		s.logger.Error("failed to save journal",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("create_journal", "failed to save journal", err)
	}

	s.logger.Info("journal created",
		"journal_id", journal.ID,
		"user_id", userID)

	s.requestAnalysis(ctx, journal)

	return journal, nil
}

// GetJournal retrieves a journal owned by userID.
func (s *journalServiceImpl) GetJournal(ctx context.Context, userID, journalID uuid.UUID) (*domain.Journal, error) {
	journal, err := s.journalStore.GetForUser(ctx, userID, journalID)
	if err != nil {
		if errors.Is(err, store.ErrJournalNotFound) {
			return nil, ErrJournalNotFound
		}
		s.logger.Error("failed to get journal",
			"error", err,
			"journal_id", journalID,
			"user_id", userID)
		return nil, NewServiceError("get_journal", "failed to retrieve journal", err)
	}
	return journal, nil
}

// ListJournals returns a page of the user's journals, newest first.
func (s *journalServiceImpl) ListJournals(ctx context.Context, userID uuid.UUID, page, limit int) (*JournalPage, error) {
	page, limit, offset := NormalizePagination(page, limit)

	items, total, err := s.journalStore.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list journals",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("list_journals", "failed to list journals", err)
	}

	return &JournalPage{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// UpdateJournal applies input to a journal owned by userID.
func (s *journalServiceImpl) UpdateJournal(
	ctx context.Context,
	userID, journalID uuid.UUID,
	input UpdateJournalInput,
) (*domain.Journal, error) {
	journal, err := s.journalStore.GetForUser(ctx, userID, journalID)
	if err != nil {
		if errors.Is(err, store.ErrJournalNotFound) {
			return nil, ErrJournalNotFound
		}
		return nil, NewServiceError("update_journal", "failed to retrieve journal", err)
	}

	textChanged := false
	if input.EntryText != nil && *input.EntryText != journal.EntryText {
		journal.EntryText = *input.EntryText
		textChanged = true
	}
	if input.MoodScore != nil {
		journal.MoodScore = input.MoodScore
	}
	if input.Tags != nil {
		journal.Tags = input.Tags
	}
	if input.PromptType != nil {
		journal.PromptType = *input.PromptType
	}

	if err := journal.Validate(); err != nil {
		return nil, NewServiceError("update_journal", "invalid journal", err)
	}

	if err := s.journalStore.Update(ctx, journal); err != nil {
		if errors.Is(err, store.ErrJournalNotFound) {
			return nil, ErrJournalNotFound
		}
		s.logger.Error("failed to update journal",
			"error", err,
			"journal_id", journalID)
		return nil, NewServiceError("update_journal", "failed to save journal", err)
	}

	s.logger.Info("journal updated",
		"journal_id", journalID,
		"entry_text_changed", textChanged)

	// Metadata edits keep the existing analysis; the entry text is the
	// analyzer's sole input.
	if textChanged {
		s.requestAnalysis(ctx, journal)
	}

	return journal, nil
}

// DeleteJournal removes a journal owned by userID.
func (s *journalServiceImpl) DeleteJournal(ctx context.Context, userID, journalID uuid.UUID) error {
	if err := s.journalStore.Delete(ctx, userID, journalID); err != nil {
		if errors.Is(err, store.ErrJournalNotFound) {
			return ErrJournalNotFound
		}
		s.logger.Error("failed to delete journal",
			"error", err,
			"journal_id", journalID,
			"user_id", userID)
		return NewServiceError("delete_journal", "failed to delete journal", err)
	}

	s.logger.Info("journal deleted",
		"journal_id", journalID,
		"user_id", userID)
	return nil
}

// requestAnalysis emits an analysis request event for the journal. Failure is
// logged and counted but never propagated; the journal write already
// succeeded and a lost analysis is recoverable by editing the entry or
// resetting the job later.
func (s *journalServiceImpl) requestAnalysis(ctx context.Context, journal *domain.Journal) {
	payload := events.AnalysisRequestPayload{
		JournalID: journal.ID.String(),
		UserID:    journal.UserID.String(),
	}

	event, err := events.NewAnalysisRequestEvent(events.EventTypeAnalysisRequested, payload)
	if err != nil {
		enqueueFailures.Add(1)
		s.logger.Error("failed to build analysis request event",
			"error", err,
			"journal_id", journal.ID)
		return
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		enqueueFailures.Add(1)
		s.logger.Error("failed to request analysis for journal",
			"error", err,
			"journal_id", journal.ID,
			"event_id", event.ID)
		return
	}

	s.logger.Debug("analysis requested",
		"journal_id", journal.ID,
		"event_id", event.ID)
}
