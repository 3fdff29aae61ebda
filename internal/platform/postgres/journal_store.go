package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/domain"
	"github.com/reflecta/reflecta-api/internal/platform/logger"
	"github.com/reflecta/reflecta-api/internal/store"
)

// PostgresJournalStore implements the store.JournalStore interface using
// PostgreSQL. Tags and keywords are stored as JSONB arrays alongside the
// scalar columns.
type PostgresJournalStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJournalStore creates a new PostgreSQL implementation of the
// JournalStore interface. If logger is nil, a default logger is used.
func NewPostgresJournalStore(db store.DBTX, logger *slog.Logger) *PostgresJournalStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJournalStore{
		db:     db,
		logger: logger.With(slog.String("component", "journal_store")),
	}
}

// Ensure PostgresJournalStore implements store.JournalStore interface
var _ store.JournalStore = (*PostgresJournalStore)(nil)

const journalColumns = "id, user_id, entry_text, mood_score, tags, prompt_type, summary, keywords, created_at, updated_at"

// Create implements store.JournalStore.Create.
func (s *PostgresJournalStore) Create(ctx context.Context, journal *domain.Journal) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := journal.Validate(); err != nil {
		log.Warn("journal validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", journal.UserID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	keywords, err := marshalStrings(journal.Keywords)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	tags, err := marshalStrings(journal.Tags)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO journals (id, user_id, entry_text, mood_score, tags, prompt_type, summary, keywords, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.db.ExecContext(ctx, query,
		journal.ID,
		journal.UserID,
		journal.EntryText,
		journal.MoodScore,
		tags,
		journal.PromptType,
		journal.Summary,
		keywords,
		journal.CreatedAt,
		journal.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create journal",
			slog.String("error", err.Error()),
			slog.String("user_id", journal.UserID.String()))
		return MapError(err)
	}

	log.Info("journal created",
		slog.String("journal_id", journal.ID.String()),
		slog.String("user_id", journal.UserID.String()))
	return nil
}

// GetByID implements store.JournalStore.GetByID.
func (s *PostgresJournalStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Journal, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + journalColumns + ` FROM journals WHERE id = $1`

	journal, err := scanJournal(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJournalNotFound
		}
		log.Error("failed to get journal by ID",
			slog.String("error", err.Error()),
			slog.String("journal_id", id.String()))
		return nil, MapError(err)
	}

	return journal, nil
}

// GetForUser implements store.JournalStore.GetForUser. Ownership scoping is
// done in the WHERE clause so a foreign journal is indistinguishable from a
// missing one.
func (s *PostgresJournalStore) GetForUser(ctx context.Context, userID, id uuid.UUID) (*domain.Journal, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + journalColumns + ` FROM journals WHERE id = $1 AND user_id = $2`

	journal, err := scanJournal(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJournalNotFound
		}
		log.Error("failed to get journal for user",
			slog.String("error", err.Error()),
			slog.String("journal_id", id.String()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	return journal, nil
}

// ListByUser implements store.JournalStore.ListByUser.
func (s *PostgresJournalStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Journal, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var total int
	countQuery := `SELECT COUNT(*) FROM journals WHERE user_id = $1`
	if err := s.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		log.Error("failed to count journals",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, MapError(err)
	}

	query := `
		SELECT ` + journalColumns + `
		FROM journals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to list journals",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	journals := []*domain.Journal{}
	for rows.Next() {
		journal, err := scanJournal(rows)
		if err != nil {
			log.Error("failed to scan journal row", slog.String("error", err.Error()))
			return nil, 0, err
		}
		journals = append(journals, journal)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning journal rows", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	return journals, total, nil
}

// Update implements store.JournalStore.Update.
func (s *PostgresJournalStore) Update(ctx context.Context, journal *domain.Journal) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := journal.Validate(); err != nil {
		log.Warn("journal validation failed during update",
			slog.String("error", err.Error()),
			slog.String("journal_id", journal.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	keywords, err := marshalStrings(journal.Keywords)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	tags, err := marshalStrings(journal.Tags)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	journal.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE journals
		SET entry_text = $1, mood_score = $2, tags = $3, prompt_type = $4, summary = $5, keywords = $6, updated_at = $7
		WHERE id = $8 AND user_id = $9
	`

	result, err := s.db.ExecContext(ctx, query,
		journal.EntryText,
		journal.MoodScore,
		tags,
		journal.PromptType,
		journal.Summary,
		keywords,
		journal.UpdatedAt,
		journal.ID,
		journal.UserID,
	)
	if err != nil {
		log.Error("failed to update journal",
			slog.String("error", err.Error()),
			slog.String("journal_id", journal.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("journal_id", journal.ID.String()))
		return MapError(err)
	}

	if rowsAffected == 0 {
		return store.ErrJournalNotFound
	}

	log.Info("journal updated", slog.String("journal_id", journal.ID.String()))
	return nil
}

// UpdateHighlights implements store.JournalStore.UpdateHighlights. It is
// deliberately not scoped to a user: the worker calls it after analysis
// without an authenticated caller, and the journal ID came from the job row.
func (s *PostgresJournalStore) UpdateHighlights(ctx context.Context, id uuid.UUID, summary string, keywords []string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	encoded, err := marshalStrings(keywords)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE journals
		SET summary = $1, keywords = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, summary, encoded, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update journal highlights",
			slog.String("error", err.Error()),
			slog.String("journal_id", id.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}

	if rowsAffected == 0 {
		return store.ErrJournalNotFound
	}

	log.Debug("journal highlights updated", slog.String("journal_id", id.String()))
	return nil
}

// Delete implements store.JournalStore.Delete.
func (s *PostgresJournalStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM journals WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		log.Error("failed to delete journal",
			slog.String("error", err.Error()),
			slog.String("journal_id", id.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}

	if rowsAffected == 0 {
		return store.ErrJournalNotFound
	}

	log.Info("journal deleted",
		slog.String("journal_id", id.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// WithTx implements store.JournalStore.WithTx.
func (s *PostgresJournalStore) WithTx(tx *sql.Tx) store.JournalStore {
	return &PostgresJournalStore{
		db:     tx,
		logger: s.logger,
	}
}

// marshalStrings encodes a string slice for a JSONB column, normalizing nil
// to an empty array.
func marshalStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func scanJournal(row rowScanner) (*domain.Journal, error) {
	var journal domain.Journal
	var moodScore sql.NullInt64
	var summary sql.NullString
	var tags []byte
	var keywords []byte

	err := row.Scan(
		&journal.ID,
		&journal.UserID,
		&journal.EntryText,
		&moodScore,
		&tags,
		&journal.PromptType,
		&summary,
		&keywords,
		&journal.CreatedAt,
		&journal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if moodScore.Valid {
		score := int(moodScore.Int64)
		journal.MoodScore = &score
	}
	journal.Summary = summary.String

	journal.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &journal.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode journal tags: %w", err)
		}
	}

	journal.Keywords = []string{}
	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &journal.Keywords); err != nil {
			return nil, fmt.Errorf("failed to decode journal keywords: %w", err)
		}
	}

	return &journal, nil
}
