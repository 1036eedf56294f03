package source

import (
	"context"
	"strings"
	"sync"

	"praisa/internal/patient/models"
	"praisa/internal/patient/normalize"
	dErrors "praisa/pkg/domain-errors"
)

// MemorySource implements RecordSource in memory. It backs tests and the
// memory backend; semantics mirror the SQL adapter (name is a
// case-insensitive substring match, identifiers match exactly, phone matches
// on digits). Records keep insertion order so search results stay
// deterministic.
type MemorySource struct {
	mu         sync.RWMutex
	identities []normalize.Raw
	visits     map[string][]normalize.Raw
}

// NewMemorySource creates an empty in-memory record source.
func NewMemorySource() *MemorySource {
	return &MemorySource{visits: make(map[string][]normalize.Raw)}
}

// AddIdentity appends a raw identity record.
func (s *MemorySource) AddIdentity(raw normalize.Raw) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = append(s.identities, raw)
}

// AddVisit appends a raw visit row for an identity.
func (s *MemorySource) AddVisit(identityID string, raw normalize.Raw) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[identityID] = append(s.visits[identityID], raw)
}

func (s *MemorySource) Search(_ context.Context, criteria models.SearchCriteria) ([]normalize.Raw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []normalize.Raw
	for _, raw := range s.identities {
		if matches(raw, criteria) {
			results = append(results, raw)
		}
	}
	return results, nil
}

func (s *MemorySource) GetIdentity(_ context.Context, identityID string) (normalize.Raw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, raw := range s.identities {
		if rawString(raw, "patient_id", "identity_id", "id") == identityID {
			return raw, nil
		}
	}
	return nil, dErrors.Newf(dErrors.CodeNotFound, "identity %q not found", identityID)
}

func (s *MemorySource) GetVisits(_ context.Context, identityID string) ([]normalize.Raw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.visits[identityID]
	out := make([]normalize.Raw, len(rows))
	copy(out, rows)
	return out, nil
}

func matches(raw normalize.Raw, criteria models.SearchCriteria) bool {
	switch criteria.Mode {
	case models.ModeName:
		name := rawString(raw, "name", "full_name")
		return name != "" && strings.Contains(strings.ToLower(name), strings.ToLower(criteria.Value))
	case models.ModeHealthID:
		return rawString(raw, "abha_number", "national_health_id") == criteria.Value
	case models.ModePhone:
		return digits(rawString(raw, "mobile", "phone")) == criteria.Value
	case models.ModeNationalID:
		return digits(rawString(raw, "aadhaar_number", "national_id_number")) == criteria.Value
	default:
		return false
	}
}

func rawString(raw normalize.Raw, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
