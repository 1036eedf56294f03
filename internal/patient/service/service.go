// Package service implements patient lookup against the registered hospital
// sources: validated multi-source search and single-record retrieval.
package service

import (
	"context"
	"log/slog"

	"praisa/internal/patient/models"
	"praisa/internal/patient/normalize"
	"praisa/internal/platform/metrics"
	"praisa/internal/registry"
	"praisa/internal/source"
	dErrors "praisa/pkg/domain-errors"
	audit "praisa/pkg/platform/audit"
)

// SourceDirectory resolves a source ID to its live adapter.
type SourceDirectory interface {
	For(sourceID string) (source.RecordSource, error)
}

// AuditPublisher records patient access events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service answers search and lookup requests across all registered sources.
type Service struct {
	registry *registry.Registry
	sources  SourceDirectory
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audit = p }
}

func New(reg *registry.Registry, sources SourceDirectory, opts ...Option) *Service {
	s := &Service{
		registry: reg,
		sources:  sources,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search validates the criteria and queries the selected sources in registry
// order. A failing source is skipped, never fatal; an empty result is a
// successful search with zero rows, not an error.
func (s *Service) Search(ctx context.Context, criteria models.SearchCriteria) ([]models.PatientIdentity, error) {
	criteria, err := criteria.Normalize()
	if err != nil {
		return nil, err
	}

	targets, err := s.targetsFor(criteria.SourceFilter)
	if err != nil {
		return nil, err
	}

	results := make([]models.PatientIdentity, 0)
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "search cancelled")
		}

		src, err := s.sources.For(target)
		if err != nil {
			s.skipSource(ctx, target, err)
			continue
		}

		raws, err := src.Search(ctx, criteria)
		if err != nil {
			s.skipSource(ctx, target, err)
			continue
		}

		for _, raw := range raws {
			identity, err := normalize.Identity(raw, target)
			if err != nil {
				continue
			}
			results = append(results, identity)
		}
	}

	s.metrics.IncrementSearch(string(criteria.Mode))
	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventIdentitySearched),
		SourceID: criteria.SourceFilter,
		Outcome:  outcomeFor(len(results)),
	})
	return results, nil
}

// Get fetches one identity from one source and normalizes it.
func (s *Service) Get(ctx context.Context, sourceID, identityID string) (models.PatientIdentity, error) {
	if !s.registry.Contains(sourceID) {
		return models.PatientIdentity{}, dErrors.Newf(dErrors.CodeNotFound, "unknown source %q", sourceID)
	}

	src, err := s.sources.For(sourceID)
	if err != nil {
		return models.PatientIdentity{}, err
	}

	raw, err := src.GetIdentity(ctx, identityID)
	if err != nil {
		return models.PatientIdentity{}, err
	}
	return normalize.Identity(raw, sourceID)
}

// targetsFor returns the sources to query: the filtered source alone, or
// every registered source in registry order.
func (s *Service) targetsFor(filter string) ([]string, error) {
	if filter == "" {
		sources := s.registry.Sources()
		targets := make([]string, 0, len(sources))
		for _, src := range sources {
			targets = append(targets, src.ID)
		}
		return targets, nil
	}
	if !s.registry.Contains(filter) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown source %q", filter)
	}
	return []string{filter}, nil
}

func (s *Service) skipSource(ctx context.Context, target string, err error) {
	s.metrics.IncrementSourceError()
	s.logger.WarnContext(ctx, "source query failed, skipping",
		"source_id", target,
		"error", err.Error(),
	)
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err.Error())
	}
}

func outcomeFor(count int) string {
	if count == 0 {
		return "empty"
	}
	return "found"
}
