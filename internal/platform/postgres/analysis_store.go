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

// PostgresAnalysisStore implements the store.AnalysisStore interface using
// PostgreSQL. The structured analysis fields (thoughts, emotions, reframes
// and so on) are stored as JSONB columns so the schema does not have to
// change with every prompt revision.
type PostgresAnalysisStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAnalysisStore creates a new PostgreSQL implementation of the
// AnalysisStore interface. If logger is nil, a default logger is used.
func NewPostgresAnalysisStore(db store.DBTX, logger *slog.Logger) *PostgresAnalysisStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAnalysisStore{
		db:     db,
		logger: logger.With(slog.String("component", "analysis_store")),
	}
}

// Ensure PostgresAnalysisStore implements store.AnalysisStore interface
var _ store.AnalysisStore = (*PostgresAnalysisStore)(nil)

const analysisColumns = `id, journal_id, user_id, negative_thoughts, emotions, distortions,
	evidence_for, evidence_against, reframes, suggested_actions, worksheet_prefill,
	version, created_at, updated_at`

// Create implements store.AnalysisStore.Create.
func (s *PostgresAnalysisStore) Create(ctx context.Context, analysis *domain.Analysis) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := analysis.Validate(); err != nil {
		log.Warn("analysis validation failed during create",
			slog.String("error", err.Error()),
			slog.String("journal_id", analysis.JournalID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	enc, err := encodeAnalysis(analysis)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO analyses (id, journal_id, user_id, negative_thoughts, emotions, distortions,
			evidence_for, evidence_against, reframes, suggested_actions, worksheet_prefill,
			version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = s.db.ExecContext(ctx, query,
		analysis.ID,
		analysis.JournalID,
		analysis.UserID,
		enc.negativeThoughts,
		enc.emotions,
		enc.distortions,
		enc.evidenceFor,
		enc.evidenceAgainst,
		enc.reframes,
		enc.suggestedActions,
		enc.worksheetPrefill,
		analysis.Version,
		analysis.CreatedAt,
		analysis.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create analysis",
			slog.String("error", err.Error()),
			slog.String("journal_id", analysis.JournalID.String()))
		return MapError(err)
	}

	log.Info("analysis created",
		slog.String("analysis_id", analysis.ID.String()),
		slog.String("journal_id", analysis.JournalID.String()))
	return nil
}

// GetByID implements store.AnalysisStore.GetByID.
func (s *PostgresAnalysisStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Analysis, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE id = $1 AND user_id = $2`

	analysis, err := scanAnalysis(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAnalysisNotFound
		}
		log.Error("failed to get analysis by ID",
			slog.String("error", err.Error()),
			slog.String("analysis_id", id.String()))
		return nil, MapError(err)
	}

	return analysis, nil
}

// GetByJournal implements store.AnalysisStore.GetByJournal. A journal may
// accumulate several analyses over manual retries; the newest wins.
func (s *PostgresAnalysisStore) GetByJournal(ctx context.Context, userID, journalID uuid.UUID) (*domain.Analysis, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE journal_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	analysis, err := scanAnalysis(s.db.QueryRowContext(ctx, query, journalID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAnalysisNotFound
		}
		log.Error("failed to get analysis by journal",
			slog.String("error", err.Error()),
			slog.String("journal_id", journalID.String()))
		return nil, MapError(err)
	}

	return analysis, nil
}

// ListByUser implements store.AnalysisStore.ListByUser.
func (s *PostgresAnalysisStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Analysis, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var total int
	countQuery := `SELECT COUNT(*) FROM analyses WHERE user_id = $1`
	if err := s.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		log.Error("failed to count analyses",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, MapError(err)
	}

	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to list analyses",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	analyses := []*domain.Analysis{}
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			log.Error("failed to scan analysis row", slog.String("error", err.Error()))
			return nil, 0, err
		}
		analyses = append(analyses, analysis)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning analysis rows", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	return analyses, total, nil
}

// UpdateReframes implements store.AnalysisStore.UpdateReframes.
func (s *PostgresAnalysisStore) UpdateReframes(ctx context.Context, analysis *domain.Analysis) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	reframes, err := json.Marshal(analysis.Reframes)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE analyses
		SET reframes = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
	`

	result, err := s.db.ExecContext(ctx, query, reframes, time.Now().UTC(), analysis.ID, analysis.UserID)
	if err != nil {
		log.Error("failed to update analysis reframes",
			slog.String("error", err.Error()),
			slog.String("analysis_id", analysis.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}

	if rowsAffected == 0 {
		return store.ErrAnalysisNotFound
	}

	log.Info("analysis reframes updated", slog.String("analysis_id", analysis.ID.String()))
	return nil
}

// WithTx implements store.AnalysisStore.WithTx.
func (s *PostgresAnalysisStore) WithTx(tx *sql.Tx) store.AnalysisStore {
	return &PostgresAnalysisStore{
		db:     tx,
		logger: s.logger,
	}
}

// encodedAnalysis holds the JSONB-bound columns of an analysis row.
type encodedAnalysis struct {
	negativeThoughts []byte
	emotions         []byte
	distortions      []byte
	evidenceFor      []byte
	evidenceAgainst  []byte
	reframes         []byte
	suggestedActions []byte
	worksheetPrefill []byte
}

func encodeAnalysis(a *domain.Analysis) (*encodedAnalysis, error) {
	var enc encodedAnalysis
	var err error

	fields := []struct {
		dst *[]byte
		src any
	}{
		{&enc.negativeThoughts, a.NegativeThoughts},
		{&enc.emotions, a.Emotions},
		{&enc.distortions, a.Distortions},
		{&enc.evidenceFor, a.EvidenceFor},
		{&enc.evidenceAgainst, a.EvidenceAgainst},
		{&enc.reframes, a.Reframes},
		{&enc.suggestedActions, a.SuggestedActions},
		{&enc.worksheetPrefill, a.WorksheetPrefill},
	}
	for _, f := range fields {
		if *f.dst, err = json.Marshal(f.src); err != nil {
			return nil, err
		}
	}

	return &enc, nil
}

func scanAnalysis(row rowScanner) (*domain.Analysis, error) {
	var analysis domain.Analysis
	var version sql.NullString
	var negativeThoughts, emotions, distortions []byte
	var evidenceFor, evidenceAgainst []byte
	var reframes, suggestedActions, worksheetPrefill []byte

	err := row.Scan(
		&analysis.ID,
		&analysis.JournalID,
		&analysis.UserID,
		&negativeThoughts,
		&emotions,
		&distortions,
		&evidenceFor,
		&evidenceAgainst,
		&reframes,
		&suggestedActions,
		&worksheetPrefill,
		&version,
		&analysis.CreatedAt,
		&analysis.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	analysis.Version = version.String

	analysis.NegativeThoughts = []domain.Thought{}
	analysis.Emotions = []domain.Emotion{}
	analysis.Distortions = []domain.Distortion{}
	analysis.EvidenceFor = []string{}
	analysis.EvidenceAgainst = []string{}
	analysis.Reframes = []domain.Reframe{}
	analysis.SuggestedActions = []domain.Action{}
	analysis.WorksheetPrefill = map[string]string{}

	fields := []struct {
		src []byte
		dst any
	}{
		{negativeThoughts, &analysis.NegativeThoughts},
		{emotions, &analysis.Emotions},
		{distortions, &analysis.Distortions},
		{evidenceFor, &analysis.EvidenceFor},
		{evidenceAgainst, &analysis.EvidenceAgainst},
		{reframes, &analysis.Reframes},
		{suggestedActions, &analysis.SuggestedActions},
		{worksheetPrefill, &analysis.WorksheetPrefill},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode analysis column: %w", err)
		}
	}

	return &analysis, nil
}
