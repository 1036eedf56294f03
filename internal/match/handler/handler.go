// Package handler exposes cross-source candidate resolution over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"praisa/internal/match/service"
	"praisa/internal/patient/models"
	"praisa/internal/platform/middleware"
	dErrors "praisa/pkg/domain-errors"
	"praisa/pkg/platform/httputil"
)

// Resolver runs the candidate search and matcher pipeline.
type Resolver interface {
	Resolve(ctx context.Context, identity models.PatientIdentity) (service.Resolution, error)
}

// IdentityGetter fetches the identity the resolution starts from.
type IdentityGetter interface {
	Get(ctx context.Context, sourceID, identityID string) (models.PatientIdentity, error)
}

type Handler struct {
	logger   *slog.Logger
	resolver Resolver
	patients IdentityGetter
}

func New(resolver Resolver, patients IdentityGetter, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		resolver: resolver,
		patients: patients,
	}
}

// Register mounts the resolve route on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/patients/{sourceID}/{identityID}/resolve", h.handleResolve)
}

type resolveResponse struct {
	Candidate models.MatchCandidate `json:"candidate"`
	Match     models.MatchResult    `json:"match"`
	FlowState models.FlowState      `json:"flow_state"`
}

// handleResolve loads the identity, finds its cross-source counterpart and
// returns the external matcher's verdict on the pair.
func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sourceID := chi.URLParam(r, "sourceID")
	identityID := chi.URLParam(r, "identityID")

	identity, err := h.patients.Get(ctx, sourceID, identityID)
	if err != nil {
		h.writeError(ctx, w, "identity lookup failed", err)
		return
	}

	resolution, err := h.resolver.Resolve(ctx, identity)
	if err != nil {
		h.writeError(ctx, w, "resolution failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resolveResponse{
		Candidate: resolution.Candidate,
		Match:     resolution.Match,
		FlowState: resolution.State,
	})
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
