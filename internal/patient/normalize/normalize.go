// Package normalize is the single boundary where untyped per-source records
// are accepted. Each hospital source returns its own loosely-shaped rows;
// everything past this package works with the canonical typed model.
package normalize

import (
	"fmt"
	"strings"

	"praisa/internal/patient/models"
	dErrors "praisa/pkg/domain-errors"
)

// Raw is one untyped record as returned by a source adapter.
type Raw map[string]any

// Defaults applied when a source omits optional visit fields.
const (
	DefaultVisitType  = "OPD"
	DefaultDoctor     = "Unknown"
	DefaultDepartment = "General"
)

// Identity maps a raw source record onto the canonical PatientIdentity.
// Absent optional fields become empty values; a sparse record is never an
// error. Only structurally unusable input (a nil record) fails.
func Identity(raw Raw, sourceID string) (models.PatientIdentity, error) {
	if raw == nil {
		return models.PatientIdentity{}, dErrors.New(dErrors.CodeNormalization, "identity record is not a record")
	}

	identity := models.PatientIdentity{
		IdentityID:       stringField(raw, "patient_id", "identity_id", "id"),
		SourceID:         sourceID,
		FullName:         stringField(raw, "name", "full_name"),
		Gender:           stringField(raw, "gender"),
		NationalHealthID: stringField(raw, "abha_number", "national_health_id"),
		Phone:            stringField(raw, "mobile", "phone"),
		NationalIDNumber: stringField(raw, "aadhaar_number", "national_id_number"),
		Address:          stringField(raw, "address"),
	}
	if sourceID == "" {
		identity.SourceID = stringField(raw, "hospital_id", "source_id")
	}

	// Birth dates keep day precision only; unparseable input is dropped
	// rather than failed.
	if dob, ok := models.ParseDate(stringField(raw, "dob", "date_of_birth")); ok {
		identity.DateOfBirth = dob.String()
	}

	identity.QualityScore, identity.MissingFields = QualityScore(identity)
	return identity, nil
}

// Visit maps a raw source row onto the canonical VisitRecord. Missing
// optional fields take explicit defaults; a missing or malformed date yields
// a nil OccurredOn, which sorts after every dated visit.
func Visit(raw Raw, sourceID string) (models.VisitRecord, error) {
	if raw == nil {
		return models.VisitRecord{}, dErrors.New(dErrors.CodeNormalization, "visit record is not a record")
	}

	visit := models.VisitRecord{
		VisitID:         stringField(raw, "visit_id"),
		SourceID:        sourceID,
		VisitType:       valueOr(stringField(raw, "visit_type", "type"), DefaultVisitType),
		Diagnosis:       stringField(raw, "diagnosis"),
		AttendingDoctor: valueOr(stringField(raw, "doctor_name", "attending_doctor", "doctor"), DefaultDoctor),
		Department:      valueOr(stringField(raw, "department"), DefaultDepartment),
		RawNotes:        stringField(raw, "notes", "raw_notes"),
	}
	if visit.RawNotes == "" {
		visit.RawNotes = visit.Diagnosis
	}

	if occurred, ok := models.ParseDate(stringField(raw, "admission_date", "occurred_on", "date")); ok {
		visit.OccurredOn = &occurred
	}

	return visit, nil
}

// Visits normalizes a list of raw rows, skipping structurally unusable
// entries so one bad row never loses the rest of a patient's history.
func Visits(raws []Raw, sourceID string) []models.VisitRecord {
	visits := make([]models.VisitRecord, 0, len(raws))
	for _, raw := range raws {
		visit, err := Visit(raw, sourceID)
		if err != nil {
			continue
		}
		visits = append(visits, visit)
	}
	return visits
}

// QualityScore grades record completeness 0-100 and names the missing
// critical fields. The national health ID carries the largest weight as the
// only government-verified identifier.
func QualityScore(identity models.PatientIdentity) (int, []string) {
	score := 0
	var missing []string

	check := func(value string, points int, label string) {
		if strings.TrimSpace(value) != "" {
			score += points
			return
		}
		missing = append(missing, label)
	}

	check(identity.FullName, 10, "Name")
	check(identity.NationalHealthID, 40, "National Health ID")
	check(identity.Phone, 20, "Phone")
	check(identity.DateOfBirth, 10, "Date of Birth")
	check(identity.Gender, 10, "Gender")
	check(identity.Address, 10, "Address")

	return score, missing
}

// stringField returns the first present key rendered as a trimmed string.
// Sources disagree on field names, so each canonical field accepts the known
// spellings in preference order.
func stringField(raw Raw, keys ...string) string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			return strings.TrimSpace(v)
		default:
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
