// Package handler exposes patient search and lookup over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"praisa/internal/patient/models"
	"praisa/internal/platform/middleware"
	dErrors "praisa/pkg/domain-errors"
	"praisa/pkg/platform/httputil"
)

// Service defines the patient operations the handler consumes.
type Service interface {
	Search(ctx context.Context, criteria models.SearchCriteria) ([]models.PatientIdentity, error)
	Get(ctx context.Context, sourceID, identityID string) (models.PatientIdentity, error)
}

type Handler struct {
	logger  *slog.Logger
	patient Service
}

func New(patient Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		patient: patient,
	}
}

// Register mounts the patient routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/patients/search", h.handleSearch)
	r.Get("/api/patients/{sourceID}/{identityID}", h.handleGet)
}

type searchResponse struct {
	Results   []models.PatientIdentity `json:"results"`
	Count     int                      `json:"count"`
	FlowState models.FlowState         `json:"flow_state"`
}

// handleSearch runs a multi-source search. mode defaults to NAME; source
// restricts the search to one hospital.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mode := models.SearchMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = models.ModeName
	}
	criteria := models.SearchCriteria{
		Mode:         mode,
		Value:        r.URL.Query().Get("value"),
		SourceFilter: r.URL.Query().Get("source"),
	}

	results, err := h.patient.Search(ctx, criteria)
	if err != nil {
		h.writeError(ctx, w, "search failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, searchResponse{
		Results:   results,
		Count:     len(results),
		FlowState: models.StateSearching,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := h.patient.Get(ctx, chi.URLParam(r, "sourceID"), chi.URLParam(r, "identityID"))
	if err != nil {
		h.writeError(ctx, w, "patient lookup failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, identity)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
	httputil.WriteError(w, err)
}
