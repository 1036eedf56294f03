// Package handler exposes the unified visit timeline over HTTP.
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

// Service builds the unified timeline for an identity pair.
type Service interface {
	Unify(ctx context.Context, identity models.PatientIdentity, counterpart *models.PatientIdentity) (models.UnifiedTimeline, error)
}

type Handler struct {
	logger  *slog.Logger
	history Service
}

func New(history Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		history: history,
	}
}

// Register mounts the history route on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/patients/{sourceID}/{identityID}/history", h.handleHistory)
}

type historyResponse struct {
	Visits    []models.VisitRecord `json:"visits"`
	Count     int                  `json:"count"`
	Degraded  bool                 `json:"degraded"`
	FlowState models.FlowState     `json:"flow_state"`
}

// handleHistory serves the merged timeline. counterpart_source and
// counterpart_id select the matched record on the other side; without them
// the timeline covers the primary source only.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity := models.PatientIdentity{
		SourceID:   chi.URLParam(r, "sourceID"),
		IdentityID: chi.URLParam(r, "identityID"),
	}

	counterpart, err := counterpartFrom(r)
	if err != nil {
		h.writeError(ctx, w, "invalid counterpart reference", err)
		return
	}

	timeline, err := h.history.Unify(ctx, identity, counterpart)
	if err != nil {
		h.writeError(ctx, w, "history aggregation failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, historyResponse{
		Visits:    timeline.Visits,
		Count:     len(timeline.Visits),
		Degraded:  timeline.Degraded,
		FlowState: models.StateViewingHistory,
	})
}

func counterpartFrom(r *http.Request) (*models.PatientIdentity, error) {
	sourceID := r.URL.Query().Get("counterpart_source")
	identityID := r.URL.Query().Get("counterpart_id")
	if sourceID == "" && identityID == "" {
		return nil, nil
	}
	if sourceID == "" || identityID == "" {
		return nil, dErrors.New(dErrors.CodeValidation,
			"counterpart_source and counterpart_id must be provided together")
	}
	return &models.PatientIdentity{SourceID: sourceID, IdentityID: identityID}, nil
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
