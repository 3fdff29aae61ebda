package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/api/middleware"
	"github.com/reflecta/reflecta-api/internal/api/shared"
	"github.com/reflecta/reflecta-api/internal/service"
)

// AnalysisHandler handles analysis-related HTTP requests.
type AnalysisHandler struct {
	analysisService service.AnalysisService
	logger          *slog.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService service.AnalysisService, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		analysisService: analysisService,
		logger:          logger.With("component", "analysis_handler"),
	}
}

// List handles GET /api/analyses.
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	page, limit := parsePagination(r)

	result, err := h.analysisService.ListAnalyses(r.Context(), userID, page, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	items := make([]AnalysisResponse, 0, len(result.Items))
	for _, analysis := range result.Items {
		items = append(items, toAnalysisResponse(analysis))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AnalysisListResponse{
		Items: items,
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	})
}

// AcceptReframe handles POST /api/analyses/{id}/accept-reframe.
func (h *AnalysisHandler) AcceptReframe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	analysisID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid analysis ID")
		return
	}

	var req AcceptReframeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error")
		return
	}

	analysis, err := h.analysisService.AcceptReframe(r.Context(), userID, analysisID, req.Index)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toAnalysisResponse(analysis))
}
