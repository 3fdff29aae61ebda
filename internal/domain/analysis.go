package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Analysis
var (
	ErrEmptyAnalysisID        = errors.New("analysis ID cannot be empty")
	ErrEmptyAnalysisJournalID = errors.New("analysis journal ID cannot be empty")
	ErrEmptyAnalysisUserID    = errors.New("analysis user ID cannot be empty")

	// ErrReframeIndexOutOfRange is returned by AcceptReframe when the index
	// is outside [0, len(reframes)).
	ErrReframeIndexOutOfRange = errors.New("reframe index out of range")
)

// Thought is a single negative thought extracted from a journal entry.
type Thought struct {
	Text string `json:"text"`
}

// Emotion is a named emotion with an intensity score in [0, 1].
type Emotion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Distortion is a cognitive distortion identified in the entry, optionally
// with the excerpt that triggered it.
type Distortion struct {
	Type    string `json:"type"`
	Excerpt string `json:"excerpt,omitempty"`
}

// Reframe pairs an original thought with a suggested rational response.
// AcceptedByUser is the only field on an Analysis that may change after
// creation, via Analysis.AcceptReframe.
type Reframe struct {
	OriginalThought  string `json:"original_thought"`
	RationalResponse string `json:"rational_response"`
	AcceptedByUser   bool   `json:"accepted_by_user"`
}

// Action is a concrete suggested action for the user.
type Action struct {
	Text string `json:"text"`
}

// Analysis is the canonical persisted record produced from one successful
// analyzer call. It is append-only history: a journal may accumulate more
// than one analysis across manual retries; callers display the most recent.
type Analysis struct {
	ID               uuid.UUID         `json:"id"`
	JournalID        uuid.UUID         `json:"journal_id"`
	UserID           uuid.UUID         `json:"user_id"`
	NegativeThoughts []Thought         `json:"negative_thoughts"`
	Emotions         []Emotion         `json:"emotions"`
	Distortions      []Distortion      `json:"distortions"`
	EvidenceFor      []string          `json:"evidence_for"`
	EvidenceAgainst  []string          `json:"evidence_against"`
	Reframes         []Reframe         `json:"reframes"`
	SuggestedActions []Action          `json:"suggested_actions"`
	WorksheetPrefill map[string]string `json:"worksheet_prefill"`
	Version          string            `json:"version,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewAnalysis creates an empty Analysis shell for the given journal and
// owner. Field slices start empty, never nil, so the record is always
// schema-valid even when the analyzer produced nothing usable.
func NewAnalysis(journalID, userID uuid.UUID) (*Analysis, error) {
	analysis := &Analysis{
		ID:               uuid.New(),
		JournalID:        journalID,
		UserID:           userID,
		NegativeThoughts: []Thought{},
		Emotions:         []Emotion{},
		Distortions:      []Distortion{},
		EvidenceFor:      []string{},
		EvidenceAgainst:  []string{},
		Reframes:         []Reframe{},
		SuggestedActions: []Action{},
		WorksheetPrefill: map[string]string{},
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}

	if err := analysis.Validate(); err != nil {
		return nil, err
	}

	return analysis, nil
}

// Validate checks if the Analysis has valid data.
func (a *Analysis) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAnalysisID
	}

	if a.JournalID == uuid.Nil {
		return ErrEmptyAnalysisJournalID
	}

	if a.UserID == uuid.Nil {
		return ErrEmptyAnalysisUserID
	}

	return nil
}

// AcceptReframe marks the reframe at index as accepted by the user. This is
// the only permitted mutation of an Analysis after creation.
// Returns ErrReframeIndexOutOfRange without modifying state if the index is
// invalid.
func (a *Analysis) AcceptReframe(index int) error {
	if index < 0 || index >= len(a.Reframes) {
		return ErrReframeIndexOutOfRange
	}

	a.Reframes[index].AcceptedByUser = true
	a.UpdatedAt = time.Now().UTC()
	return nil
}
