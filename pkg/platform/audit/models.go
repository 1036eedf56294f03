// Package audit captures cross-hospital record access for the compliance
// trail. Looking up a patient in another hospital's system is itself a
// regulated action, so every search, resolution and history merge emits an
// event. Events reference identities by source-scoped ID only; names and
// identifiers never enter the trail.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose, enabling
// different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance:
	// cross-source record access and identity linkage decisions.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and visibility.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It stays
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID     `json:"id"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	RequestID string        `json:"request_id,omitempty"`

	// SourceID / IdentityID reference the record whose access triggered the
	// event; TargetSourceID / TargetIdentityID reference the counterpart
	// when the action spans two sources.
	SourceID         string `json:"source_id,omitempty"`
	IdentityID       string `json:"identity_id,omitempty"`
	TargetSourceID   string `json:"target_source_id,omitempty"`
	TargetIdentityID string `json:"target_identity_id,omitempty"`

	// Outcome carries the action-specific result: a found_via value, a
	// matcher method, or a degraded-timeline marker.
	Outcome string `json:"outcome,omitempty"`
}

// AuditEvent names every action the engine records.
type AuditEvent string

const (
	EventIdentitySearched AuditEvent = "identity_searched"
	EventCandidateResolved AuditEvent = "candidate_resolved"
	EventNoCandidateFound  AuditEvent = "no_candidate_found"
	EventHistoryUnified    AuditEvent = "history_unified"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventIdentitySearched:  CategoryOperations,
	EventCandidateResolved: CategoryCompliance,
	EventNoCandidateFound:  CategoryOperations,
	EventHistoryUnified:    CategoryCompliance,
}

// CategoryOf returns the category for an event, defaulting to operations.
func CategoryOf(action AuditEvent) EventCategory {
	if category, ok := eventCategories[action]; ok {
		return category
	}
	return CategoryOperations
}

// Store persists audit events. Implementations must be safe for concurrent
// appends.
type Store interface {
	Append(ctx context.Context, event Event) error
}
