// Package service implements cross-source candidate resolution: dispatching
// identity search across every other configured source, retrying through the
// alias table when direct search finds nothing, and composing the chosen
// pair with the external matcher's verdict.
package service

import (
	"context"
	"log/slog"
	"strings"

	"praisa/internal/matcher"
	"praisa/internal/patient/models"
	"praisa/internal/patient/normalize"
	"praisa/internal/platform/metrics"
	"praisa/internal/registry"
	"praisa/internal/source"
	dErrors "praisa/pkg/domain-errors"
	audit "praisa/pkg/platform/audit"
)

// SourceDirectory resolves a source ID to its record source.
type SourceDirectory interface {
	For(sourceID string) (source.RecordSource, error)
}

// AuditPublisher emits compliance events for cross-source access.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AliasRule is one configured substring rewrite. The table is ordered: the
// first rule whose key the search value contains is tried first, and the
// first rule that yields a candidate wins. This is a recall heuristic for
// known near-miss spellings, not a fuzzy-matching algorithm.
type AliasRule struct {
	Key   string
	Alias string
}

// Resolution is the output of a full resolve: the candidate identity, how it
// was found, and the external matcher's verdict on the pair.
type Resolution struct {
	State     models.FlowState      `json:"state"`
	Candidate models.MatchCandidate `json:"candidate"`
	Match     models.MatchResult    `json:"match"`
}

// Service coordinates candidate dispatch and matching.
type Service struct {
	registry *registry.Registry
	sources  SourceDirectory
	matcher  matcher.Matcher
	aliases  []AliasRule

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
}

// Option configures a Service.
type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithAliases installs the ordered fallback rewrite table.
func WithAliases(aliases []AliasRule) Option {
	return func(s *Service) { s.aliases = aliases }
}

// New constructs a Service.
func New(reg *registry.Registry, sources SourceDirectory, m matcher.Matcher, opts ...Option) *Service {
	s := &Service{registry: reg, sources: sources, matcher: m, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindCrossSourceCandidate locates a counterpart identity for the given one
// in every other configured source. Targets are consulted sequentially in
// registry order and the first source returning at least one candidate wins;
// remaining sources are never queried. When direct search finds nothing the
// alias table is tried. CodeNoCandidate is the terminal outcome.
func (s *Service) FindCrossSourceCandidate(ctx context.Context, identity models.PatientIdentity, mode models.SearchMode) (models.MatchCandidate, error) {
	criteria, err := s.criteriaFor(identity, mode)
	if err != nil {
		return models.MatchCandidate{}, err
	}

	targets := s.registry.TargetsExcluding(identity.SourceID)
	if len(targets) == 0 {
		return models.MatchCandidate{}, dErrors.New(dErrors.CodeNoCandidate, "no other sources configured")
	}

	if candidate, ok := s.dispatch(ctx, targets, criteria); ok {
		candidate.FoundVia = models.FoundViaDirect
		return candidate, nil
	}
	if err := ctx.Err(); err != nil {
		return models.MatchCandidate{}, dErrors.Wrap(err, dErrors.CodeTimeout, "candidate search cancelled")
	}

	// Direct search found nothing anywhere: rewrite through the alias table
	// and retry the per-source loop, first matching rule wins.
	for _, rule := range s.aliases {
		if !strings.Contains(criteria.Value, rule.Key) {
			continue
		}
		s.metrics.IncrementAliasFallback()

		aliased := criteria
		aliased.Value = strings.ReplaceAll(criteria.Value, rule.Key, rule.Alias)
		s.logger.InfoContext(ctx, "retrying search with alias",
			"source_id", identity.SourceID,
			"alias_key", rule.Key,
			"alias", rule.Alias,
		)

		if candidate, ok := s.dispatch(ctx, targets, aliased); ok {
			candidate.FoundVia = models.FoundViaAliasFallback
			candidate.AliasUsed = rule.Alias
			return candidate, nil
		}
		if err := ctx.Err(); err != nil {
			return models.MatchCandidate{}, dErrors.Wrap(err, dErrors.CodeTimeout, "candidate search cancelled")
		}
	}

	return models.MatchCandidate{}, dErrors.New(dErrors.CodeNoCandidate,
		"no candidate found in any target source")
}

// dispatch runs one per-source loop: targets in order, first hit wins, the
// first candidate in the winning source's own order is selected. A source
// erroring out means "no candidates from that source"; the loop continues.
func (s *Service) dispatch(ctx context.Context, targets []string, criteria models.SearchCriteria) (models.MatchCandidate, bool) {
	for _, target := range targets {
		if ctx.Err() != nil {
			return models.MatchCandidate{}, false
		}

		src, err := s.sources.For(target)
		if err != nil {
			s.skipSource(ctx, target, err)
			continue
		}

		scoped := criteria
		scoped.SourceFilter = target
		raws, err := src.Search(ctx, scoped)
		if err != nil {
			s.skipSource(ctx, target, err)
			continue
		}

		for _, raw := range raws {
			candidate, err := normalize.Identity(raw, target)
			if err != nil {
				// A structurally unusable row never loses the rest of the
				// source's results.
				continue
			}
			return models.MatchCandidate{Identity: candidate, SourceID: target}, true
		}
	}
	return models.MatchCandidate{}, false
}

// Resolve runs the full pipeline for one identity: find a counterpart, then
// ask the external matcher to score the pair.
func (s *Service) Resolve(ctx context.Context, identity models.PatientIdentity) (Resolution, error) {
	candidate, err := s.FindCrossSourceCandidate(ctx, identity, models.ModeName)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNoCandidate) {
			s.emitAudit(ctx, audit.Event{
				Action:     string(audit.EventNoCandidateFound),
				SourceID:   identity.SourceID,
				IdentityID: identity.IdentityID,
			})
		}
		return Resolution{}, err
	}

	match, err := s.matcher.Match(ctx, identity, candidate.Identity)
	if err != nil {
		return Resolution{}, dErrors.Wrap(err, dErrors.CodeSourceUnavailable, "matcher call failed")
	}

	s.metrics.IncrementResolved(string(candidate.FoundVia))
	s.metrics.ObserveMatchScore(match.Score)
	s.emitAudit(ctx, audit.Event{
		Action:           string(audit.EventCandidateResolved),
		SourceID:         identity.SourceID,
		IdentityID:       identity.IdentityID,
		TargetSourceID:   candidate.SourceID,
		TargetIdentityID: candidate.Identity.IdentityID,
		Outcome:          string(candidate.FoundVia) + "/" + match.Method,
	})

	return Resolution{
		State:     models.StateMatched,
		Candidate: candidate,
		Match:     match,
	}, nil
}

// criteriaFor derives the search criteria from the identity attribute the
// mode targets, then applies standard validation.
func (s *Service) criteriaFor(identity models.PatientIdentity, mode models.SearchMode) (models.SearchCriteria, error) {
	var value string
	switch mode {
	case models.ModeName, "":
		mode = models.ModeName
		value = identity.FullName
	case models.ModeHealthID:
		value = identity.NationalHealthID
	case models.ModePhone:
		value = identity.Phone
	case models.ModeNationalID:
		value = identity.NationalIDNumber
	default:
		return models.SearchCriteria{}, dErrors.Newf(dErrors.CodeValidation, "unknown search mode %q", mode)
	}

	return models.SearchCriteria{Mode: mode, Value: value}.Normalize()
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
		s.logger.WarnContext(ctx, "audit emit failed", "error", err.Error())
	}
}
