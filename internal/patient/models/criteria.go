package models

import (
	"strings"

	dErrors "praisa/pkg/domain-errors"
)

// SearchMode selects which identity attribute a search targets.
type SearchMode string

const (
	ModeName       SearchMode = "NAME"
	ModeHealthID   SearchMode = "HEALTH_ID"
	ModePhone      SearchMode = "PHONE"
	ModeNationalID SearchMode = "NATIONAL_ID"
)

// SearchCriteria is a typed identity query. SourceFilter limits the search to
// one source when set; empty means all sources.
type SearchCriteria struct {
	Mode         SearchMode `json:"mode"`
	Value        string     `json:"value"`
	SourceFilter string     `json:"source_filter,omitempty"`
}

// Normalize validates and canonicalizes the criteria before any source is
// queried. Phone values reduce to digits; all values are trimmed. Mode-shape
// violations are validation errors, never retried.
func (c SearchCriteria) Normalize() (SearchCriteria, error) {
	c.Value = strings.TrimSpace(c.Value)
	if c.Value == "" {
		return c, dErrors.New(dErrors.CodeValidation, "search value is required")
	}

	switch c.Mode {
	case ModeName:
		if len(c.Value) < 2 {
			return c, dErrors.New(dErrors.CodeValidation, "name search requires at least 2 characters")
		}
	case ModeHealthID:
		if len(c.Value) < 14 {
			return c, dErrors.New(dErrors.CodeValidation, "health ID search requires at least 14 characters")
		}
	case ModePhone:
		c.Value = digitsOnly(c.Value)
		if len(c.Value) != 10 {
			return c, dErrors.New(dErrors.CodeValidation, "phone search requires exactly 10 digits")
		}
	case ModeNationalID:
		c.Value = digitsOnly(c.Value)
		if len(c.Value) != 12 {
			return c, dErrors.New(dErrors.CodeValidation, "national ID search requires exactly 12 digits")
		}
	default:
		return c, dErrors.Newf(dErrors.CodeValidation, "unknown search mode %q", c.Mode)
	}

	return c, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
