package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/events"
	"github.com/reflecta/reflecta-api/internal/store"
)

// JobEnqueueHandler implements the events.EventHandler interface, turning
// analysis request events into durable queue rows. It is the only component
// that writes to the queue on behalf of the API.
type JobEnqueueHandler struct {
	jobStore store.JobStore
	logger   *slog.Logger
}

// NewJobEnqueueHandler creates a new event handler that persists analysis
// jobs through the given store.
func NewJobEnqueueHandler(jobStore store.JobStore, logger *slog.Logger) *JobEnqueueHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobEnqueueHandler{
		jobStore: jobStore,
		logger:   logger.With("component", "job_enqueue_handler"),
	}
}

// HandleEvent processes analysis request events by enqueuing a job for the
// referenced journal. Events of other types are ignored.
func (h *JobEnqueueHandler) HandleEvent(ctx context.Context, event *events.AnalysisRequestEvent) error {
	if event.Type != events.EventTypeAnalysisRequested {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload events.AnalysisRequestPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	journalID, err := uuid.Parse(payload.JournalID)
	if err != nil {
		h.logger.Error("invalid journal ID in event payload",
			"error", err,
			"journal_id", payload.JournalID,
			"event_id", event.ID)
		return fmt.Errorf("invalid journal ID: %w", err)
	}

	job, err := h.jobStore.Enqueue(ctx, journalID)
	if err != nil {
		h.logger.Error("failed to enqueue analysis job",
			"error", err,
			"journal_id", journalID,
			"event_id", event.ID)
		return fmt.Errorf("failed to enqueue analysis job: %w", err)
	}

	h.logger.Info("analysis job enqueued from event",
		"job_id", job.ID,
		"journal_id", journalID,
		"event_id", event.ID)
	return nil
}

// Ensure JobEnqueueHandler implements events.EventHandler
var _ events.EventHandler = (*JobEnqueueHandler)(nil)
