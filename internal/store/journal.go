package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/domain"
)

// JournalStore defines the interface for journal data persistence.
// Version: 1.0
type JournalStore interface {
	// Create saves a new journal to the store.
	// It handles domain validation internally.
	Create(ctx context.Context, journal *domain.Journal) error

	// GetByID retrieves a journal by its unique ID.
	// Returns ErrJournalNotFound if the journal does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Journal, error)

	// GetForUser retrieves a journal by ID scoped to its owner.
	// Returns ErrJournalNotFound if the journal does not exist or is not
	// owned by userID.
	GetForUser(ctx context.Context, userID, id uuid.UUID) (*domain.Journal, error)

	// ListByUser returns the user's journals newest first, with the total
	// count for pagination.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Journal, int, error)

	// Update saves changes to an existing journal.
	// Returns ErrJournalNotFound if the journal does not exist.
	Update(ctx context.Context, journal *domain.Journal) error

	// UpdateHighlights writes the denormalized analysis summary and keywords
	// onto the journal. Returns ErrJournalNotFound if the journal is gone.
	UpdateHighlights(ctx context.Context, id uuid.UUID, summary string, keywords []string) error

	// Delete removes a journal owned by userID.
	// Returns ErrJournalNotFound if the journal does not exist or is not owned.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// WithTx returns a new JournalStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) JournalStore
}
