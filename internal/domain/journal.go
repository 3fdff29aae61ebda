package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Journal
var (
	ErrEmptyJournalID     = errors.New("journal ID cannot be empty")
	ErrEmptyJournalUserID = errors.New("journal user ID cannot be empty")
	ErrEmptyEntryText     = errors.New("journal entry text cannot be empty")
	ErrEntryTextTooLong   = errors.New("journal entry text cannot exceed 5000 characters")
	ErrInvalidMoodScore   = errors.New("mood score must be between 1 and 10")
)

// MaxEntryTextLength is the upper bound on a journal entry's text.
const MaxEntryTextLength = 5000

// Journal represents a free-text entry submitted by a user. Tags and
// PromptType are optional client-supplied metadata and never feed the
// analyzer. Summary and Keywords are denormalized highlights copied from
// the most recent analysis for fast list rendering; the canonical analysis
// record is the Analysis entity.
type Journal struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	EntryText  string    `json:"entry_text"`
	MoodScore  *int      `json:"mood_score,omitempty"`
	Tags       []string  `json:"tags"`
	PromptType string    `json:"prompt_type,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Keywords   []string  `json:"keywords,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewJournal creates a new Journal with the given user ID, entry text and
// optional mood score. It generates a new UUID for the journal ID and sets
// the creation/update timestamps.
// Returns an error if validation fails.
func NewJournal(userID uuid.UUID, entryText string, moodScore *int) (*Journal, error) {
	journal := &Journal{
		ID:        uuid.New(),
		UserID:    userID,
		EntryText: entryText,
		MoodScore: moodScore,
		Tags:      []string{},
		Keywords:  []string{},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := journal.Validate(); err != nil {
		return nil, err
	}

	return journal, nil
}

// Validate checks if the Journal has valid data.
// Returns an error if any field fails validation.
func (j *Journal) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJournalID
	}

	if j.UserID == uuid.Nil {
		return ErrEmptyJournalUserID
	}

	if j.EntryText == "" {
		return ErrEmptyEntryText
	}

	if len(j.EntryText) > MaxEntryTextLength {
		return ErrEntryTextTooLong
	}

	if j.MoodScore != nil && (*j.MoodScore < 1 || *j.MoodScore > 10) {
		return ErrInvalidMoodScore
	}

	return nil
}

// SetHighlights records the denormalized analysis summary and keywords on
// the journal and bumps the UpdatedAt timestamp. Empty values leave the
// existing highlight untouched.
func (j *Journal) SetHighlights(summary string, keywords []string) {
	if summary != "" {
		j.Summary = summary
	}
	if len(keywords) > 0 {
		j.Keywords = keywords
	}
	j.UpdatedAt = time.Now().UTC()
}
