package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/api/middleware"
	"github.com/reflecta/reflecta-api/internal/api/shared"
	"github.com/reflecta/reflecta-api/internal/service"
)

// JournalHandler handles journal-related HTTP requests, including the
// per-journal analysis lookup.
type JournalHandler struct {
	journalService  service.JournalService
	analysisService service.AnalysisService
	logger          *slog.Logger
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(
	journalService service.JournalService,
	analysisService service.AnalysisService,
	logger *slog.Logger,
) *JournalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalHandler{
		journalService:  journalService,
		analysisService: analysisService,
		logger:          logger.With("component", "journal_handler"),
	}
}

// Create handles POST /api/journals.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateJournalRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error")
		return
	}

	journal, err := h.journalService.CreateJournal(r.Context(), userID, service.CreateJournalInput{
		EntryText:  req.EntryText,
		MoodScore:  req.MoodScore,
		Tags:       req.Tags,
		PromptType: req.PromptType,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, toJournalResponse(journal))
}

// Get handles GET /api/journals/{id}.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	journalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid journal ID")
		return
	}

	journal, err := h.journalService.GetJournal(r.Context(), userID, journalID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toJournalResponse(journal))
}

// List handles GET /api/journals.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	page, limit := parsePagination(r)

	result, err := h.journalService.ListJournals(r.Context(), userID, page, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	items := make([]JournalResponse, 0, len(result.Items))
	for _, journal := range result.Items {
		items = append(items, toJournalResponse(journal))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, JournalListResponse{
		Items: items,
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	})
}

// Update handles PUT /api/journals/{id}.
func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	journalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid journal ID")
		return
	}

	var req UpdateJournalRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error")
		return
	}

	journal, err := h.journalService.UpdateJournal(r.Context(), userID, journalID, service.UpdateJournalInput{
		EntryText:  req.EntryText,
		MoodScore:  req.MoodScore,
		Tags:       req.Tags,
		PromptType: req.PromptType,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toJournalResponse(journal))
}

// Delete handles DELETE /api/journals/{id}.
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	journalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid journal ID")
		return
	}

	if err := h.journalService.DeleteJournal(r.Context(), userID, journalID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusNoContent, nil)
}

// GetAnalysis handles GET /api/journals/{id}/analysis. A journal that has no
// analysis yet answers 404 with a distinct message; the job may still be
// pending or may have failed, and the job endpoints expose that state.
func (h *JournalHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	journalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid journal ID")
		return
	}

	analysis, err := h.analysisService.GetForJournal(r.Context(), userID, journalID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if analysis == nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Analysis not yet available")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toAnalysisResponse(analysis))
}

// parsePagination reads page and limit query parameters, leaving range
// clamping to the service layer.
func parsePagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
