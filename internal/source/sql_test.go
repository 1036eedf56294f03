package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"praisa/internal/patient/models"
	dErrors "praisa/pkg/domain-errors"
)

type SQLSourceSuite struct {
	suite.Suite
	hospitalA *SQLSource
	hospitalB *SQLSource
}

func TestSQLSourceSuite(t *testing.T) {
	suite.Run(t, new(SQLSourceSuite))
}

func (s *SQLSourceSuite) SetupTest() {
	db, err := OpenDB(":memory:")
	s.Require().NoError(err)
	s.T().Cleanup(func() { db.Close() })

	db.MustExec(`INSERT INTO patients (patient_id, hospital_id, name, dob, mobile, gender, abha_number, address, state)
		VALUES ('HA001', 'hospital_a', 'Ramesh Singh', '1985-03-15', '9876543210', 'M', '12-3456-7890-1234', '123 MG Road Mumbai', 'Maharashtra')`)
	db.MustExec(`INSERT INTO patients (patient_id, hospital_id, name)
		VALUES ('HB001', 'hospital_b', 'Ramehs Singh')`)
	db.MustExec(`INSERT INTO visits (visit_id, patient_id, admission_date, visit_type, diagnosis, doctor_name)
		VALUES ('VA001', 'HA001', '2025-10-15 09:00:00', 'OPD', 'Hypertension', 'Dr. Anjali Mehta')`)
	db.MustExec(`INSERT INTO visits (visit_id, patient_id, admission_date, visit_type, diagnosis, doctor_name)
		VALUES ('VA002', 'HA001', '2025-12-20 14:30:00', 'OPD', 'Diabetes Follow-up', 'Dr. Anjali Mehta')`)

	s.hospitalA = NewSQLSource(db, "hospital_a")
	s.hospitalB = NewSQLSource(db, "hospital_b")
}

func (s *SQLSourceSuite) TestSearchScopedToHospital() {
	ctx := context.Background()

	s.Run("name search stays inside the source partition", func() {
		results, err := s.hospitalA.Search(ctx, models.SearchCriteria{Mode: models.ModeName, Value: "singh"})
		s.Require().NoError(err)
		s.Require().Len(results, 1)
		s.Equal("HA001", results[0]["patient_id"])

		results, err = s.hospitalB.Search(ctx, models.SearchCriteria{Mode: models.ModeName, Value: "singh"})
		s.Require().NoError(err)
		s.Require().Len(results, 1)
		s.Equal("HB001", results[0]["patient_id"])
	})

	s.Run("health ID search matches exactly", func() {
		results, err := s.hospitalA.Search(ctx, models.SearchCriteria{Mode: models.ModeHealthID, Value: "12-3456-7890-1234"})
		s.Require().NoError(err)
		s.Len(results, 1)
	})

	s.Run("no match is an empty non-error result", func() {
		results, err := s.hospitalB.Search(ctx, models.SearchCriteria{Mode: models.ModePhone, Value: "0000000000"})
		s.Require().NoError(err)
		s.Empty(results)
	})
}

func (s *SQLSourceSuite) TestGetIdentity() {
	ctx := context.Background()

	raw, err := s.hospitalA.GetIdentity(ctx, "HA001")
	s.Require().NoError(err)
	s.Equal("Ramesh Singh", raw["name"])

	// HB001 exists but belongs to hospital_b's partition.
	_, err = s.hospitalA.GetIdentity(ctx, "HB001")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *SQLSourceSuite) TestGetVisitsNewestFirst() {
	rows, err := s.hospitalA.GetVisits(context.Background(), "HA001")
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	assert.Equal(s.T(), "VA002", rows[0]["visit_id"])
	assert.Equal(s.T(), "VA001", rows[1]["visit_id"])
}
