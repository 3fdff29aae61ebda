package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/domain"
)

// AnalysisStore defines the interface for analysis record persistence.
// Analyses are append-only history: records are created once and, apart
// from the per-reframe accepted flag, never change.
// Version: 1.0
type AnalysisStore interface {
	// Create saves a new analysis to the store.
	Create(ctx context.Context, analysis *domain.Analysis) error

	// GetByID retrieves an analysis by ID scoped to its owner.
	// Returns ErrAnalysisNotFound if absent or not owned by userID.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Analysis, error)

	// GetByJournal retrieves the most recent analysis for a journal scoped
	// to its owner. Returns ErrAnalysisNotFound if none exists.
	GetByJournal(ctx context.Context, userID, journalID uuid.UUID) (*domain.Analysis, error)

	// ListByUser returns the user's analyses newest first, with the total
	// count for pagination.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Analysis, int, error)

	// UpdateReframes persists the reframes of an existing analysis. This is
	// the only mutation path after creation, used by the accept operation.
	// Returns ErrAnalysisNotFound if the analysis does not exist.
	UpdateReframes(ctx context.Context, analysis *domain.Analysis) error

	// WithTx returns a new AnalysisStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AnalysisStore
}
