package analyzer

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflecta/reflecta-api/internal/domain"
)

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	journalID := uuid.New()
	userID := uuid.New()

	t.Run("nil raw yields a valid empty analysis", func(t *testing.T) {
		t.Parallel()

		analysis, err := Normalize(nil, journalID, userID)
		require.NoError(t, err)

		assert.Equal(t, journalID, analysis.JournalID)
		assert.Equal(t, userID, analysis.UserID)
		assert.Empty(t, analysis.NegativeThoughts)
		assert.NotNil(t, analysis.NegativeThoughts)
		assert.NotNil(t, analysis.WorksheetPrefill)
	})

	t.Run("garbage in every field yields a valid empty analysis", func(t *testing.T) {
		t.Parallel()

		input := &RawAnalysis{
			Summary:          raw(`42`),
			Keywords:         raw(`"not an array"`),
			NegativeThoughts: raw(`{"oops": true}`),
			Emotions:         raw(`3.14`),
			Distortions:      raw(`null`),
			EvidenceFor:      raw(`false`),
			EvidenceAgainst:  raw(`"still not an array"`),
			Reframes:         raw(`{}`),
			SuggestedActions: raw(`17`),
			WorksheetPrefill: raw(`["wrong shape"]`),
		}

		analysis, err := Normalize(input, journalID, userID)
		require.NoError(t, err)

		assert.NotNil(t, analysis.NegativeThoughts)
		assert.Empty(t, analysis.NegativeThoughts)
		assert.NotNil(t, analysis.Emotions)
		assert.Empty(t, analysis.Emotions)
		assert.NotNil(t, analysis.Distortions)
		assert.Empty(t, analysis.Distortions)
		assert.NotNil(t, analysis.EvidenceFor)
		assert.Empty(t, analysis.EvidenceFor)
		assert.NotNil(t, analysis.EvidenceAgainst)
		assert.Empty(t, analysis.EvidenceAgainst)
		assert.NotNil(t, analysis.Reframes)
		assert.Empty(t, analysis.Reframes)
		assert.NotNil(t, analysis.SuggestedActions)
		assert.Empty(t, analysis.SuggestedActions)
		assert.NotNil(t, analysis.WorksheetPrefill)
		assert.Empty(t, analysis.WorksheetPrefill)
	})

	t.Run("well-formed input maps field by field", func(t *testing.T) {
		t.Parallel()

		input := &RawAnalysis{
			NegativeThoughts: raw(`[{"excerpt": "I always fail"}]`),
			Emotions:         raw(`[{"name": "anxiety", "score": 0.8}]`),
			Distortions:      raw(`[{"type": "Catastrophizing", "excerpt": "everything is ruined"}]`),
			EvidenceFor:      raw(`["missed the deadline"]`),
			EvidenceAgainst:  raw(`["shipped on time last month"]`),
			Reframes:         raw(`[{"originalThought": "I always fail", "rationalResponse": "One miss is not a pattern."}]`),
			SuggestedActions: raw(`[{"text": "Take a walk."}]`),
			WorksheetPrefill: raw(`{"situation": "work deadline", "emotion": "anxious"}`),
			Version:          "gemini-v1",
		}

		analysis, err := Normalize(input, journalID, userID)
		require.NoError(t, err)

		require.Len(t, analysis.NegativeThoughts, 1)
		assert.Equal(t, "I always fail", analysis.NegativeThoughts[0].Text)

		require.Len(t, analysis.Emotions, 1)
		assert.Equal(t, domain.Emotion{Name: "anxiety", Score: 0.8}, analysis.Emotions[0])

		require.Len(t, analysis.Distortions, 1)
		assert.Equal(t, domain.Distortion{Type: "Catastrophizing", Excerpt: "everything is ruined"}, analysis.Distortions[0])

		assert.Equal(t, []string{"missed the deadline"}, analysis.EvidenceFor)
		assert.Equal(t, []string{"shipped on time last month"}, analysis.EvidenceAgainst)

		require.Len(t, analysis.Reframes, 1)
		assert.Equal(t, "I always fail", analysis.Reframes[0].OriginalThought)
		assert.Equal(t, "One miss is not a pattern.", analysis.Reframes[0].RationalResponse)
		assert.False(t, analysis.Reframes[0].AcceptedByUser)

		require.Len(t, analysis.SuggestedActions, 1)
		assert.Equal(t, "Take a walk.", analysis.SuggestedActions[0].Text)

		assert.Equal(t, map[string]string{"situation": "work deadline", "emotion": "anxious"}, analysis.WorksheetPrefill)
		assert.Equal(t, "gemini-v1", analysis.Version)
	})

	t.Run("string elements where objects were expected", func(t *testing.T) {
		t.Parallel()

		input := &RawAnalysis{
			NegativeThoughts: raw(`["I always fail", ""]`),
			Emotions:         raw(`["dread"]`),
			Distortions:      raw(`["Mind Reading"]`),
			Reframes:         raw(`["It probably went fine."]`),
			SuggestedActions: raw(`["Call a friend."]`),
		}

		analysis, err := Normalize(input, journalID, userID)
		require.NoError(t, err)

		require.Len(t, analysis.NegativeThoughts, 1)
		assert.Equal(t, "I always fail", analysis.NegativeThoughts[0].Text)

		require.Len(t, analysis.Emotions, 1)
		assert.Equal(t, domain.Emotion{Name: "dread", Score: 0}, analysis.Emotions[0])

		require.Len(t, analysis.Distortions, 1)
		assert.Equal(t, "Mind Reading", analysis.Distortions[0].Type)

		require.Len(t, analysis.Reframes, 1)
		assert.Empty(t, analysis.Reframes[0].OriginalThought)
		assert.Equal(t, "It probably went fine.", analysis.Reframes[0].RationalResponse)

		require.Len(t, analysis.SuggestedActions, 1)
		assert.Equal(t, "Call a friend.", analysis.SuggestedActions[0].Text)
	})

	t.Run("emotion scores are clamped to the unit interval", func(t *testing.T) {
		t.Parallel()

		input := &RawAnalysis{
			Emotions: raw(`[
				{"name": "rage", "score": 7.5},
				{"name": "calm", "score": -2},
				{"name": "hope", "score": 0.4}
			]`),
		}

		analysis, err := Normalize(input, journalID, userID)
		require.NoError(t, err)

		require.Len(t, analysis.Emotions, 3)
		assert.Equal(t, 1.0, analysis.Emotions[0].Score)
		assert.Equal(t, 0.0, analysis.Emotions[1].Score)
		assert.Equal(t, 0.4, analysis.Emotions[2].Score)
	})

	t.Run("worksheet prefill stringifies non-string values", func(t *testing.T) {
		t.Parallel()

		input := &RawAnalysis{
			WorksheetPrefill: raw(`{"emotion": "anxious", "intensity": 7, "tags": ["a", "b"]}`),
		}

		analysis, err := Normalize(input, journalID, userID)
		require.NoError(t, err)

		assert.Equal(t, "anxious", analysis.WorksheetPrefill["emotion"])
		assert.Equal(t, "7", analysis.WorksheetPrefill["intensity"])
		assert.Equal(t, `["a","b"]`, analysis.WorksheetPrefill["tags"])
	})

	t.Run("rejects nil journal ID", func(t *testing.T) {
		t.Parallel()

		_, err := Normalize(&RawAnalysis{}, uuid.Nil, userID)
		assert.ErrorIs(t, err, domain.ErrEmptyAnalysisJournalID)
	})
}

func TestDistortionOf(t *testing.T) {
	t.Parallel()

	t.Run("object with distortionType key", func(t *testing.T) {
		t.Parallel()

		d, ok := distortionOf(raw(`{"distortionType": "Labeling", "excerpt": "I am a loser"}`))
		require.True(t, ok)
		assert.Equal(t, domain.Distortion{Type: "Labeling", Excerpt: "I am a loser"}, d)
	})

	t.Run("double-encoded object string", func(t *testing.T) {
		t.Parallel()

		d, ok := distortionOf(raw(`"{\"type\": \"Catastrophizing\"}"`))
		require.True(t, ok)
		assert.Equal(t, "Catastrophizing", d.Type)
	})

	t.Run("double-encoded array string takes the first element", func(t *testing.T) {
		t.Parallel()

		d, ok := distortionOf(raw(`"[{\"distortionType\": \"All-or-Nothing\"}, {\"type\": \"Labeling\"}]"`))
		require.True(t, ok)
		assert.Equal(t, "All-or-Nothing", d.Type)
	})

	t.Run("unparsable nested string is taken literally", func(t *testing.T) {
		t.Parallel()

		d, ok := distortionOf(raw(`"{not json at all"`))
		require.True(t, ok)
		assert.Equal(t, "{not json at all", d.Type)
	})

	t.Run("number element falls back to its literal", func(t *testing.T) {
		t.Parallel()

		d, ok := distortionOf(raw(`42`))
		require.True(t, ok)
		assert.Equal(t, "42", d.Type)
	})

	t.Run("empty string is dropped", func(t *testing.T) {
		t.Parallel()

		_, ok := distortionOf(raw(`""`))
		assert.False(t, ok)
	})
}

func TestTextOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain string", `"hello"`, "hello"},
		{"text key", `{"text": "from text"}`, "from text"},
		{"excerpt key", `{"excerpt": "from excerpt"}`, "from excerpt"},
		{"thought key", `{"thought": "from thought"}`, "from thought"},
		{"originalThought key", `{"originalThought": "from original"}`, "from original"},
		{"text wins over excerpt", `{"text": "t", "excerpt": "e"}`, "t"},
		{"number falls back to literal", `42`, "42"},
		{"object without known keys falls back to literal", `{"foo": 1}`, `{"foo":1}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, textOf(raw(tc.input)))
		})
	}
}

func TestSummaryText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", (&RawAnalysis{}).SummaryText())
	assert.Equal(t, "a summary", (&RawAnalysis{Summary: raw(`"a summary"`)}).SummaryText())
	assert.Equal(t, "42", (&RawAnalysis{Summary: raw(`42`)}).SummaryText())
}

func TestKeywordList(t *testing.T) {
	t.Parallel()

	assert.Empty(t, (&RawAnalysis{}).KeywordList())
	assert.Empty(t, (&RawAnalysis{Keywords: raw(`"scalar"`)}).KeywordList())
	assert.Equal(t, []string{"work", "sleep"}, (&RawAnalysis{Keywords: raw(`["work", "sleep"]`)}).KeywordList())
}
