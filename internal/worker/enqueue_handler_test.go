package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflecta/reflecta-api/internal/domain"
	"github.com/reflecta/reflecta-api/internal/events"
)

func TestJobEnqueueHandler(t *testing.T) {
	t.Parallel()

	t.Run("enqueues a pending job for the journal", func(t *testing.T) {
		t.Parallel()

		jobStore := newMemJobStore()
		handler := NewJobEnqueueHandler(jobStore, nil)

		journalID := uuid.New()
		event, err := events.NewAnalysisRequestEvent(events.EventTypeAnalysisRequested, events.AnalysisRequestPayload{
			JournalID: journalID.String(),
			UserID:    uuid.New().String(),
		})
		require.NoError(t, err)

		require.NoError(t, handler.HandleEvent(context.Background(), event))

		pending, err := jobStore.FetchPending(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, journalID, pending[0].JournalID)
		assert.Equal(t, domain.JobStatusPending, pending[0].Status)
		assert.Equal(t, domain.JobKindAnalyzeJournal, pending[0].Kind)
	})

	t.Run("ignores events of other types", func(t *testing.T) {
		t.Parallel()

		jobStore := newMemJobStore()
		handler := NewJobEnqueueHandler(jobStore, nil)

		event, err := events.NewAnalysisRequestEvent("something_else", events.AnalysisRequestPayload{
			JournalID: uuid.New().String(),
		})
		require.NoError(t, err)

		require.NoError(t, handler.HandleEvent(context.Background(), event))

		pending, err := jobStore.FetchPending(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("rejects an unparsable payload", func(t *testing.T) {
		t.Parallel()

		handler := NewJobEnqueueHandler(newMemJobStore(), nil)

		event := &events.AnalysisRequestEvent{
			ID:        uuid.New(),
			Type:      events.EventTypeAnalysisRequested,
			Payload:   json.RawMessage(`not json`),
			CreatedAt: time.Now(),
		}

		assert.Error(t, handler.HandleEvent(context.Background(), event))
	})

	t.Run("rejects an invalid journal ID", func(t *testing.T) {
		t.Parallel()

		handler := NewJobEnqueueHandler(newMemJobStore(), nil)

		event, err := events.NewAnalysisRequestEvent(events.EventTypeAnalysisRequested, events.AnalysisRequestPayload{
			JournalID: "not-a-uuid",
		})
		require.NoError(t, err)

		assert.Error(t, handler.HandleEvent(context.Background(), event))
	})
}
