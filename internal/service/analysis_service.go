package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/analyzer"
	"github.com/reflecta/reflecta-api/internal/domain"
	"github.com/reflecta/reflecta-api/internal/store"
)

// AnalysisPage is one page of a user's analyses.
type AnalysisPage struct {
	Items []*domain.Analysis `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// AnalysisService provides operations over analysis records: the worker-side
// write path and the user-facing query surface.
type AnalysisService interface {
	// SaveAnalysis normalizes raw analyzer output into a canonical Analysis
	// record, persists it, and best-effort denormalizes the summary and
	// keywords onto the journal. Only the record write can fail the call.
	SaveAnalysis(ctx context.Context, journal *domain.Journal, raw *analyzer.RawAnalysis) (*domain.Analysis, error)

	// GetForJournal returns the most recent analysis for a journal owned by
	// userID, or (nil, nil) when no analysis exists yet. Absence is a normal
	// state while a job is pending or has failed, not an error.
	GetForJournal(ctx context.Context, userID, journalID uuid.UUID) (*domain.Analysis, error)

	// ListAnalyses returns a page of the user's analyses, newest first.
	ListAnalyses(ctx context.Context, userID uuid.UUID, page, limit int) (*AnalysisPage, error)

	// AcceptReframe marks the reframe at index on an analysis owned by
	// userID as accepted and persists the change.
	AcceptReframe(ctx context.Context, userID, analysisID uuid.UUID, index int) (*domain.Analysis, error)
}

type analysisServiceImpl struct {
	analysisStore store.AnalysisStore
	journalStore  store.JournalStore
	logger        *slog.Logger
}

// NewAnalysisService creates a new AnalysisService.
// It returns an error if any of the required dependencies are nil.
func NewAnalysisService(
	analysisStore store.AnalysisStore,
	journalStore store.JournalStore,
	logger *slog.Logger,
) (AnalysisService, error) {
	if analysisStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "analysisStore cannot be nil"}
	}
	if journalStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "journalStore cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &analysisServiceImpl{
		analysisStore: analysisStore,
		journalStore:  journalStore,
		logger:        logger.With("component", "analysis_service"),
	}, nil
}

// SaveAnalysis normalizes and persists raw analyzer output for a journal.
func (s *analysisServiceImpl) SaveAnalysis(
	ctx context.Context,
	journal *domain.Journal,
	raw *analyzer.RawAnalysis,
) (*domain.Analysis, error) {
	analysis, err := analyzer.Normalize(raw, journal.ID, journal.UserID)
	if err != nil {
		s.logger.Error("failed to normalize analysis",
			"error", err,
			"journal_id", journal.ID)
		return nil, NewServiceError("save_analysis", "failed to normalize analyzer output", err)
	}

	if err := s.analysisStore.Create(ctx, analysis); err != nil {
		s.logger.Error("failed to persist analysis",
			"error", err,
			"journal_id", journal.ID)
		return nil, NewServiceError("save_analysis", "failed to persist analysis", err)
	}

	// Denormalized highlights are a convenience copy for list rendering.
	// Losing them does not lose the analysis, so failure here is non-fatal.
	summary := raw.SummaryText()
	keywords := raw.KeywordList()
	if summary != "" || len(keywords) > 0 {
		if err := s.journalStore.UpdateHighlights(ctx, journal.ID, summary, keywords); err != nil {
			s.logger.Warn("failed to denormalize analysis highlights onto journal",
				"error", err,
				"journal_id", journal.ID,
				"analysis_id", analysis.ID)
		}
	}

	s.logger.Info("analysis saved",
		"analysis_id", analysis.ID,
		"journal_id", journal.ID,
		"version", analysis.Version)
	return analysis, nil
}

// GetForJournal returns the most recent analysis for a journal, or nil when
// none exists.
func (s *analysisServiceImpl) GetForJournal(ctx context.Context, userID, journalID uuid.UUID) (*domain.Analysis, error) {
	// Verify the journal exists and is owned before treating a missing
	// analysis as "not yet analyzed".
	if _, err := s.journalStore.GetForUser(ctx, userID, journalID); err != nil {
		if errors.Is(err, store.ErrJournalNotFound) {
			return nil, ErrJournalNotFound
		}
		return nil, NewServiceError("get_analysis", "failed to verify journal", err)
	}

	analysis, err := s.analysisStore.GetByJournal(ctx, userID, journalID)
	if err != nil {
		if errors.Is(err, store.ErrAnalysisNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to get analysis for journal",
			"error", err,
			"journal_id", journalID)
		return nil, NewServiceError("get_analysis", "failed to retrieve analysis", err)
	}

	return analysis, nil
}

// ListAnalyses returns a page of the user's analyses, newest first.
func (s *analysisServiceImpl) ListAnalyses(ctx context.Context, userID uuid.UUID, page, limit int) (*AnalysisPage, error) {
	page, limit, offset := NormalizePagination(page, limit)

	items, total, err := s.analysisStore.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list analyses",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("list_analyses", "failed to list analyses", err)
	}

	return &AnalysisPage{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// AcceptReframe marks a reframe as accepted and persists the change.
func (s *analysisServiceImpl) AcceptReframe(
	ctx context.Context,
	userID, analysisID uuid.UUID,
	index int,
) (*domain.Analysis, error) {
	analysis, err := s.analysisStore.GetByID(ctx, userID, analysisID)
	if err != nil {
		if errors.Is(err, store.ErrAnalysisNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, NewServiceError("accept_reframe", "failed to retrieve analysis", err)
	}

	if err := analysis.AcceptReframe(index); err != nil {
		if errors.Is(err, domain.ErrReframeIndexOutOfRange) {
			return nil, ErrReframeIndexOutOfRange
		}
		return nil, NewServiceError("accept_reframe", "failed to accept reframe", err)
	}

	if err := s.analysisStore.UpdateReframes(ctx, analysis); err != nil {
		if errors.Is(err, store.ErrAnalysisNotFound) {
			return nil, ErrAnalysisNotFound
		}
		s.logger.Error("failed to persist accepted reframe",
			"error", err,
			"analysis_id", analysisID)
		return nil, NewServiceError("accept_reframe", "failed to persist reframe", err)
	}

	s.logger.Info("reframe accepted",
		"analysis_id", analysisID,
		"reframe_index", index,
		"user_id", userID)
	return analysis, nil
}
