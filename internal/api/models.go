package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/domain"
)

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=3,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public shape of a user account.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UpdateProfileRequest is the request body for updating the current user.
// A password change requires both the old and the new password.
type UpdateProfileRequest struct {
	Name        string `json:"name"         validate:"omitempty,min=3,max=100"`
	OldPassword string `json:"old_password" validate:"omitempty,max=72"`
	NewPassword string `json:"new_password" validate:"omitempty,min=8,max=72"`
}

// CreateJournalRequest is the request body for creating a journal entry.
type CreateJournalRequest struct {
	EntryText  string   `json:"entry_text"  validate:"required,max=5000"`
	MoodScore  *int     `json:"mood_score"  validate:"omitempty,min=1,max=10"`
	Tags       []string `json:"tags"        validate:"omitempty,max=20,dive,min=1,max=50"`
	PromptType string   `json:"prompt_type" validate:"omitempty,max=50"`
}

// UpdateJournalRequest is the request body for updating a journal entry.
// Absent fields are left unchanged.
type UpdateJournalRequest struct {
	EntryText  *string  `json:"entry_text"  validate:"omitempty,min=1,max=5000"`
	MoodScore  *int     `json:"mood_score"  validate:"omitempty,min=1,max=10"`
	Tags       []string `json:"tags"        validate:"omitempty,max=20,dive,min=1,max=50"`
	PromptType *string  `json:"prompt_type" validate:"omitempty,max=50"`
}

// AcceptReframeRequest is the request body for accepting a reframe.
type AcceptReframeRequest struct {
	Index int `json:"index" validate:"min=0"`
}

// JournalResponse is the public shape of a journal entry.
type JournalResponse struct {
	ID         uuid.UUID `json:"id"`
	EntryText  string    `json:"entry_text"`
	MoodScore  *int      `json:"mood_score,omitempty"`
	Tags       []string  `json:"tags"`
	PromptType string    `json:"prompt_type,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Keywords   []string  `json:"keywords"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// JournalListResponse is one page of journals.
type JournalListResponse struct {
	Items []JournalResponse `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// AnalysisResponse is the public shape of an analysis record. The slice
// fields are always present, never null.
type AnalysisResponse struct {
	ID               uuid.UUID           `json:"id"`
	JournalID        uuid.UUID           `json:"journal_id"`
	NegativeThoughts []domain.Thought    `json:"negative_thoughts"`
	Emotions         []domain.Emotion    `json:"emotions"`
	Distortions      []domain.Distortion `json:"distortions"`
	EvidenceFor      []string            `json:"evidence_for"`
	EvidenceAgainst  []string            `json:"evidence_against"`
	Reframes         []domain.Reframe    `json:"reframes"`
	SuggestedActions []domain.Action     `json:"suggested_actions"`
	WorksheetPrefill map[string]string   `json:"worksheet_prefill"`
	Version          string              `json:"version,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// AnalysisListResponse is one page of analyses.
type AnalysisListResponse struct {
	Items []AnalysisResponse `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// JobResponse is the public shape of an analysis job.
type JobResponse struct {
	ID        uuid.UUID `json:"id"`
	JournalID uuid.UUID `json:"journal_id"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

func toJournalResponse(journal *domain.Journal) JournalResponse {
	keywords := journal.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	tags := journal.Tags
	if tags == nil {
		tags = []string{}
	}
	return JournalResponse{
		ID:         journal.ID,
		EntryText:  journal.EntryText,
		MoodScore:  journal.MoodScore,
		Tags:       tags,
		PromptType: journal.PromptType,
		Summary:    journal.Summary,
		Keywords:   keywords,
		CreatedAt:  journal.CreatedAt,
		UpdatedAt:  journal.UpdatedAt,
	}
}

func toAnalysisResponse(analysis *domain.Analysis) AnalysisResponse {
	return AnalysisResponse{
		ID:               analysis.ID,
		JournalID:        analysis.JournalID,
		NegativeThoughts: analysis.NegativeThoughts,
		Emotions:         analysis.Emotions,
		Distortions:      analysis.Distortions,
		EvidenceFor:      analysis.EvidenceFor,
		EvidenceAgainst:  analysis.EvidenceAgainst,
		Reframes:         analysis.Reframes,
		SuggestedActions: analysis.SuggestedActions,
		WorksheetPrefill: analysis.WorksheetPrefill,
		Version:          analysis.Version,
		CreatedAt:        analysis.CreatedAt,
		UpdatedAt:        analysis.UpdatedAt,
	}
}

func toJobResponse(job *domain.AnalysisJob) JobResponse {
	return JobResponse{
		ID:        job.ID,
		JournalID: job.JournalID,
		Status:    string(job.Status),
		Attempts:  job.Attempts,
		LastError: job.LastError,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}
