package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventTypeAnalysisRequested identifies events asking for a journal to be
// analyzed.
const EventTypeAnalysisRequested = "analysis_requested"

// AnalysisRequestPayload is the payload carried by an analysis request event.
type AnalysisRequestPayload struct {
	JournalID string `json:"journal_id"`
	UserID    string `json:"user_id"`
}

// AnalysisRequestEvent represents a request to enqueue background analysis
// work. It carries the necessary information without direct dependencies on
// the store or worker packages.
type AnalysisRequestEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates the kind of work being requested
	Type string `json:"type"`

	// Payload contains the request-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *AnalysisRequestEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewAnalysisRequestEvent creates a new AnalysisRequestEvent with the
// specified type and payload.
func NewAnalysisRequestEvent(eventType string, payload interface{}) (*AnalysisRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &AnalysisRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *AnalysisRequestEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *AnalysisRequestEvent) error
}
