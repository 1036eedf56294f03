// Package registry holds the configured set of hospital sources. The registry
// is ordered: the candidate dispatcher consults sources in registry order,
// and selection ties resolve by that order, so the order is part of the
// matching contract, not presentation detail.
package registry

import "praisa/internal/platform/config"

// Source is one independent hospital record system.
type Source struct {
	ID    string
	Label string
}

// Registry is the read-only, ordered source list. It is built once at
// startup and never mutated.
type Registry struct {
	sources []Source
	byID    map[string]Source
}

// New builds a Registry preserving the given order. Duplicate IDs keep their
// first position.
func New(sources []Source) *Registry {
	r := &Registry{byID: make(map[string]Source, len(sources))}
	for _, s := range sources {
		if _, seen := r.byID[s.ID]; seen {
			continue
		}
		r.sources = append(r.sources, s)
		r.byID[s.ID] = s
	}
	return r
}

// FromConfig builds a Registry from configured source entries.
func FromConfig(entries config.SourceList) *Registry {
	sources := make([]Source, 0, len(entries))
	for _, e := range entries {
		sources = append(sources, Source{ID: e.ID, Label: e.Label})
	}
	return New(sources)
}

// Sources returns all sources in registry order.
func (r *Registry) Sources() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Lookup returns the source for an ID.
func (r *Registry) Lookup(id string) (Source, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Contains reports whether the ID names a configured source.
func (r *Registry) Contains(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// TargetsExcluding returns the source IDs to consult when matching an
// identity that originated in excluded, preserving registry order minus that
// source.
func (r *Registry) TargetsExcluding(excluded string) []string {
	targets := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		if s.ID == excluded {
			continue
		}
		targets = append(targets, s.ID)
	}
	return targets
}
