package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "praisa/pkg/domain-errors"
)

func TestIdentity(t *testing.T) {
	t.Run("maps a full record", func(t *testing.T) {
		identity, err := Identity(Raw{
			"patient_id":  "HA001",
			"hospital_id": "hospital_a",
			"name":        "Ramesh Singh",
			"dob":         "1985-03-15",
			"mobile":      "9876543210",
			"gender":      "M",
			"abha_number": "12-3456-7890-1234",
			"address":     "123 MG Road Mumbai",
		}, "hospital_a")
		require.NoError(t, err)

		assert.Equal(t, "HA001", identity.IdentityID)
		assert.Equal(t, "hospital_a", identity.SourceID)
		assert.Equal(t, "Ramesh Singh", identity.FullName)
		assert.Equal(t, "1985-03-15", identity.DateOfBirth)
		assert.Equal(t, "12-3456-7890-1234", identity.NationalHealthID)
		assert.Equal(t, 100, identity.QualityScore)
		assert.Empty(t, identity.MissingFields)
	})

	t.Run("sparse record never fails", func(t *testing.T) {
		identity, err := Identity(Raw{"patient_id": "HB042"}, "hospital_b")
		require.NoError(t, err)

		assert.Equal(t, "HB042", identity.IdentityID)
		assert.Empty(t, identity.FullName)
		assert.Empty(t, identity.DateOfBirth)
		assert.Equal(t, 0, identity.QualityScore)
		assert.Contains(t, identity.MissingFields, "National Health ID")
	})

	t.Run("nil record is a normalization error", func(t *testing.T) {
		_, err := Identity(nil, "hospital_a")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNormalization))
	})

	t.Run("alternate source field spellings are accepted", func(t *testing.T) {
		identity, err := Identity(Raw{
			"identity_id":        "HC007",
			"full_name":          "Anita Desai",
			"phone":              "9000000000",
			"national_health_id": "98-7654-3210-9876",
		}, "hospital_c")
		require.NoError(t, err)

		assert.Equal(t, "HC007", identity.IdentityID)
		assert.Equal(t, "Anita Desai", identity.FullName)
		assert.Equal(t, "9000000000", identity.Phone)
	})
}

func TestVisit(t *testing.T) {
	t.Run("maps a full record and strips time-of-day", func(t *testing.T) {
		visit, err := Visit(Raw{
			"visit_id":       "VA002",
			"admission_date": "2025-12-20 14:30:00",
			"visit_type":     "IPD",
			"diagnosis":      "Diabetes Follow-up",
			"doctor_name":    "Dr. Anjali Mehta",
			"department":     "Endocrinology",
		}, "hospital_a")
		require.NoError(t, err)

		require.NotNil(t, visit.OccurredOn)
		assert.Equal(t, "2025-12-20", visit.OccurredOn.String())
		assert.Equal(t, "IPD", visit.VisitType)
		assert.Equal(t, "Dr. Anjali Mehta", visit.AttendingDoctor)
		assert.Equal(t, "Endocrinology", visit.Department)
	})

	t.Run("sparse record takes explicit defaults", func(t *testing.T) {
		visit, err := Visit(Raw{"diagnosis": "Fever"}, "hospital_b")
		require.NoError(t, err)

		assert.Nil(t, visit.OccurredOn)
		assert.Equal(t, DefaultVisitType, visit.VisitType)
		assert.Equal(t, DefaultDoctor, visit.AttendingDoctor)
		assert.Equal(t, DefaultDepartment, visit.Department)
		assert.Equal(t, "Fever", visit.RawNotes, "notes fall back to the diagnosis")
	})

	t.Run("malformed date becomes a null date, not an error", func(t *testing.T) {
		visit, err := Visit(Raw{"admission_date": "soonish"}, "hospital_a")
		require.NoError(t, err)
		assert.Nil(t, visit.OccurredOn)
	})

	t.Run("normalization is idempotent", func(t *testing.T) {
		raw := Raw{
			"visit_id":       "VA001",
			"admission_date": "2025-10-15 09:00:00",
			"diagnosis":      "Hypertension",
		}
		first, err := Visit(raw, "hospital_a")
		require.NoError(t, err)
		second, err := Visit(raw, "hospital_a")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("nil record is a normalization error", func(t *testing.T) {
		_, err := Visit(nil, "hospital_a")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNormalization))
	})
}

func TestVisits(t *testing.T) {
	t.Run("skips unusable rows and keeps the rest", func(t *testing.T) {
		visits := Visits([]Raw{
			{"visit_id": "V1", "admission_date": "2024-01-05"},
			nil,
			{"visit_id": "V2", "admission_date": "2023-12-01"},
		}, "hospital_a")

		require.Len(t, visits, 2)
		assert.Equal(t, "V1", visits[0].VisitID)
		assert.Equal(t, "V2", visits[1].VisitID)
	})
}
