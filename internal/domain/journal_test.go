package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJournal(t *testing.T) {
	t.Parallel()

	t.Run("creates a valid journal", func(t *testing.T) {
		t.Parallel()

		mood := 7
		journal, err := NewJournal(uuid.New(), "Today went better than expected.", &mood)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, journal.ID)
		assert.Equal(t, "Today went better than expected.", journal.EntryText)
		assert.Equal(t, 7, *journal.MoodScore)
		assert.NotNil(t, journal.Keywords)
		assert.NotNil(t, journal.Tags)
		assert.Empty(t, journal.Tags)
		assert.Empty(t, journal.PromptType)
		assert.False(t, journal.CreatedAt.IsZero())
	})

	t.Run("mood score is optional", func(t *testing.T) {
		t.Parallel()

		journal, err := NewJournal(uuid.New(), "No mood today.", nil)
		require.NoError(t, err)
		assert.Nil(t, journal.MoodScore)
	})

	t.Run("rejects empty entry text", func(t *testing.T) {
		t.Parallel()

		_, err := NewJournal(uuid.New(), "", nil)
		assert.ErrorIs(t, err, ErrEmptyEntryText)
	})

	t.Run("rejects entry text over the limit", func(t *testing.T) {
		t.Parallel()

		_, err := NewJournal(uuid.New(), strings.Repeat("a", MaxEntryTextLength+1), nil)
		assert.ErrorIs(t, err, ErrEntryTextTooLong)
	})

	t.Run("accepts entry text at exactly the limit", func(t *testing.T) {
		t.Parallel()

		_, err := NewJournal(uuid.New(), strings.Repeat("a", MaxEntryTextLength), nil)
		assert.NoError(t, err)
	})

	t.Run("rejects out of range mood scores", func(t *testing.T) {
		t.Parallel()

		for _, score := range []int{0, -1, 11} {
			s := score
			_, err := NewJournal(uuid.New(), "text", &s)
			assert.ErrorIs(t, err, ErrInvalidMoodScore, "score %d", score)
		}
	})

	t.Run("rejects nil user ID", func(t *testing.T) {
		t.Parallel()

		_, err := NewJournal(uuid.Nil, "text", nil)
		assert.ErrorIs(t, err, ErrEmptyJournalUserID)
	})
}

func TestSetHighlights(t *testing.T) {
	t.Parallel()

	t.Run("records summary and keywords", func(t *testing.T) {
		t.Parallel()

		journal, err := NewJournal(uuid.New(), "text", nil)
		require.NoError(t, err)

		journal.SetHighlights("A rough day at work.", []string{"work", "stress"})
		assert.Equal(t, "A rough day at work.", journal.Summary)
		assert.Equal(t, []string{"work", "stress"}, journal.Keywords)
	})

	t.Run("empty values leave existing highlights untouched", func(t *testing.T) {
		t.Parallel()

		journal, err := NewJournal(uuid.New(), "text", nil)
		require.NoError(t, err)

		journal.SetHighlights("summary", []string{"one"})
		journal.SetHighlights("", nil)

		assert.Equal(t, "summary", journal.Summary)
		assert.Equal(t, []string{"one"}, journal.Keywords)
	})
}
