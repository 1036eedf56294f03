// Package service builds the unified cross-hospital visit timeline for a
// matched identity pair.
package service

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"praisa/internal/patient/models"
	"praisa/internal/patient/normalize"
	"praisa/internal/platform/metrics"
	"praisa/internal/source"
	dErrors "praisa/pkg/domain-errors"
	audit "praisa/pkg/platform/audit"
)

// SourceDirectory resolves a source ID to its live adapter.
type SourceDirectory interface {
	For(sourceID string) (source.RecordSource, error)
}

// AuditPublisher records timeline access events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service aggregates visit history across the primary identity's source and
// an optional matched counterpart.
type Service struct {
	sources SourceDirectory
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
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

func New(sources SourceDirectory, opts ...Option) *Service {
	s := &Service{
		sources: sources,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Unify fetches the primary identity's visits and, when a counterpart is
// given, the counterpart's visits, then merges them into one timeline sorted
// newest first. The primary source failing is fatal; the counterpart source
// failing degrades the timeline to primary-only and flags it.
func (s *Service) Unify(ctx context.Context, identity models.PatientIdentity, counterpart *models.PatientIdentity) (models.UnifiedTimeline, error) {
	var primary, secondary []models.VisitRecord
	var counterpartErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		visits, err := s.fetch(gctx, identity)
		if err != nil {
			return err
		}
		primary = visits
		return nil
	})
	if counterpart != nil {
		g.Go(func() error {
			visits, err := s.fetch(gctx, *counterpart)
			if err != nil {
				// Degrade rather than fail: the primary history is still
				// worth showing.
				counterpartErr = err
				return nil
			}
			secondary = visits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.UnifiedTimeline{}, dErrors.Wrap(err, dErrors.CodeSourceUnavailable,
			"primary source history unavailable")
	}

	timeline := models.UnifiedTimeline{
		Visits: mergeDescending(primary, secondary),
	}
	if counterpartErr != nil {
		timeline.Degraded = true
		s.metrics.IncrementDegradedTimeline()
		s.logger.WarnContext(ctx, "counterpart history unavailable, serving degraded timeline",
			"source_id", counterpart.SourceID,
			"identity_id", counterpart.IdentityID,
			"error", counterpartErr.Error(),
		)
	}

	event := audit.Event{
		Action:     string(audit.EventHistoryUnified),
		SourceID:   identity.SourceID,
		IdentityID: identity.IdentityID,
		Outcome:    outcomeFor(timeline),
	}
	if counterpart != nil {
		event.TargetSourceID = counterpart.SourceID
		event.TargetIdentityID = counterpart.IdentityID
	}
	s.emitAudit(ctx, event)

	return timeline, nil
}

func (s *Service) fetch(ctx context.Context, identity models.PatientIdentity) ([]models.VisitRecord, error) {
	src, err := s.sources.For(identity.SourceID)
	if err != nil {
		return nil, err
	}
	raws, err := src.GetVisits(ctx, identity.IdentityID)
	if err != nil {
		return nil, err
	}
	return normalize.Visits(raws, identity.SourceID), nil
}

// mergeDescending concatenates primary-then-counterpart and stable-sorts
// newest first. Undated visits sort after every dated one; ties keep the
// concatenation order, so repeated calls produce identical timelines.
func mergeDescending(primary, secondary []models.VisitRecord) []models.VisitRecord {
	merged := make([]models.VisitRecord, 0, len(primary)+len(secondary))
	merged = append(merged, primary...)
	merged = append(merged, secondary...)

	slices.SortStableFunc(merged, func(a, b models.VisitRecord) int {
		switch {
		case a.OccurredOn == nil && b.OccurredOn == nil:
			return 0
		case a.OccurredOn == nil:
			return 1
		case b.OccurredOn == nil:
			return -1
		default:
			return b.OccurredOn.Compare(a.OccurredOn.Time)
		}
	})
	return merged
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err.Error())
	}
}

func outcomeFor(timeline models.UnifiedTimeline) string {
	if timeline.Degraded {
		return "degraded"
	}
	return "complete"
}
