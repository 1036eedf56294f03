// Package models holds the canonical patient data model. Everything past the
// normalization boundary works with these types; raw per-source record shapes
// never leak further into the system.
package models

// PatientIdentity is one patient as known to one hospital source. IdentityID
// is unique within its source only; (IdentityID, SourceID) identifies a
// record globally. Values are immutable once constructed.
type PatientIdentity struct {
	IdentityID       string `json:"identity_id"`
	SourceID         string `json:"source_id"`
	FullName         string `json:"full_name"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	Gender           string `json:"gender,omitempty"`
	NationalHealthID string `json:"national_health_id,omitempty"`
	Phone            string `json:"phone,omitempty"`
	NationalIDNumber string `json:"national_id_number,omitempty"`
	Address          string `json:"address,omitempty"`

	// QualityScore grades record completeness 0-100; MissingFields lists the
	// critical fields a source failed to provide.
	QualityScore  int      `json:"quality_score"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// FoundVia records how a cross-source candidate was located.
type FoundVia string

const (
	FoundViaDirect        FoundVia = "DIRECT"
	FoundViaAliasFallback FoundVia = "ALIAS_FALLBACK"
)

// MatchCandidate is the chosen counterpart identity plus provenance of how
// the dispatcher found it.
type MatchCandidate struct {
	Identity  PatientIdentity `json:"identity"`
	SourceID  string          `json:"source_id"`
	FoundVia  FoundVia        `json:"found_via"`
	AliasUsed string          `json:"alias_used,omitempty"`
}

// MatchResult is the external matcher's verdict on an identity pair. The
// engine treats it as opaque; it only carries the shape through.
type MatchResult struct {
	Score          float64  `json:"match_score"`
	Confidence     string   `json:"confidence"`
	Method         string   `json:"method"`
	Recommendation string   `json:"recommendation"`
	MatchedFields  []string `json:"matched_fields,omitempty"`
}

// VisitRecord is one canonical clinical encounter. OccurredOn may be nil when
// the source date was missing or unparseable; nil dates sort after all dated
// visits, never crash the sort.
type VisitRecord struct {
	VisitID         string `json:"visit_id,omitempty"`
	SourceID        string `json:"source_id"`
	OccurredOn      *Date  `json:"occurred_on"`
	VisitType       string `json:"visit_type"`
	Diagnosis       string `json:"diagnosis"`
	AttendingDoctor string `json:"attending_doctor"`
	Department      string `json:"department"`
	RawNotes        string `json:"raw_notes,omitempty"`
}

// UnifiedTimeline is the merged visit history across a matched identity pair,
// ordered descending by OccurredOn with ties broken by stable input order
// (source A's records before source B's). Degraded marks a timeline whose
// counterpart history could not be fetched.
type UnifiedTimeline struct {
	Visits   []VisitRecord `json:"visits"`
	Degraded bool          `json:"degraded"`
}

// FlowState names the stages of one resolution request. Responses carry the
// state reached so callers never infer progress from payload shape.
type FlowState string

const (
	StateSearching      FlowState = "SEARCHING"
	StateAwaitingMatch  FlowState = "AWAITING_MATCH"
	StateMatched        FlowState = "MATCHED"
	StateViewingHistory FlowState = "VIEWING_HISTORY"
)
