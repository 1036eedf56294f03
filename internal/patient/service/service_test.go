package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"praisa/internal/patient/models"
	"praisa/internal/patient/normalize"
	"praisa/internal/platform/metrics"
	"praisa/internal/registry"
	"praisa/internal/source"
	dErrors "praisa/pkg/domain-errors"
	audit "praisa/pkg/platform/audit"
	auditmemory "praisa/pkg/platform/audit/store/memory"
	"praisa/pkg/platform/audit/publisher"
)

type failingSource struct{}

func (failingSource) Search(context.Context, models.SearchCriteria) ([]normalize.Raw, error) {
	return nil, dErrors.New(dErrors.CodeSourceUnavailable, "connection refused")
}

func (failingSource) GetIdentity(context.Context, string) (normalize.Raw, error) {
	return nil, dErrors.New(dErrors.CodeSourceUnavailable, "connection refused")
}

func (failingSource) GetVisits(context.Context, string) ([]normalize.Raw, error) {
	return nil, dErrors.New(dErrors.CodeSourceUnavailable, "connection refused")
}

type PatientServiceSuite struct {
	suite.Suite
	directory  *source.Directory
	auditStore *auditmemory.InMemoryStore
	service    *Service
}

func TestPatientServiceSuite(t *testing.T) {
	suite.Run(t, new(PatientServiceSuite))
}

func (s *PatientServiceSuite) SetupTest() {
	reg := registry.New([]registry.Source{
		{ID: "hospital_a", Label: "City Hospital A"},
		{ID: "hospital_b", Label: "City Hospital B"},
	})

	hospitalA := source.NewMemorySource()
	hospitalA.AddIdentity(normalize.Raw{
		"patient_id":  "HA001",
		"name":        "Ramesh Singh",
		"dob":         "1985-03-12",
		"mobile":      "9876543210",
		"gender":      "M",
		"abha_number": "12345678901234",
		"address":     "12 MG Road, Pune",
	})
	hospitalA.AddIdentity(normalize.Raw{"patient_id": "HA002", "name": "Anita Desai"})

	hospitalB := source.NewMemorySource()
	hospitalB.AddIdentity(normalize.Raw{"patient_id": "HB001", "name": "Ramehs Singh"})

	s.directory = source.NewDirectory()
	s.directory.Register("hospital_a", hospitalA)
	s.directory.Register("hospital_b", hospitalB)

	s.auditStore = auditmemory.NewInMemoryStore()
	s.service = New(reg, s.directory,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
	)
}

func (s *PatientServiceSuite) TestSearchAcrossAllSources() {
	results, err := s.service.Search(context.Background(), models.SearchCriteria{
		Mode:  models.ModeName,
		Value: "singh",
	})
	s.Require().NoError(err)

	s.Require().Len(results, 2)
	s.Equal("HA001", results[0].IdentityID, "registry order, hospital_a first")
	s.Equal("HB001", results[1].IdentityID)
	s.Equal(100, results[0].QualityScore)
}

func (s *PatientServiceSuite) TestSearchWithSourceFilter() {
	results, err := s.service.Search(context.Background(), models.SearchCriteria{
		Mode:         models.ModeName,
		Value:        "singh",
		SourceFilter: "hospital_b",
	})
	s.Require().NoError(err)

	s.Require().Len(results, 1)
	s.Equal("hospital_b", results[0].SourceID)
}

func (s *PatientServiceSuite) TestSearchUnknownFilterIsValidationError() {
	_, err := s.service.Search(context.Background(), models.SearchCriteria{
		Mode:         models.ModeName,
		Value:        "singh",
		SourceFilter: "hospital_z",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *PatientServiceSuite) TestEmptyResultIsNotAnError() {
	results, err := s.service.Search(context.Background(), models.SearchCriteria{
		Mode:  models.ModeName,
		Value: "nobody",
	})
	s.Require().NoError(err)
	s.Empty(results)

	events := s.auditStore.ByAction(audit.EventIdentitySearched)
	s.Require().Len(events, 1)
	s.Equal("empty", events[0].Outcome)
}

func (s *PatientServiceSuite) TestSearchByHealthID() {
	results, err := s.service.Search(context.Background(), models.SearchCriteria{
		Mode:  models.ModeHealthID,
		Value: "12345678901234",
	})
	s.Require().NoError(err)

	s.Require().Len(results, 1)
	s.Equal("HA001", results[0].IdentityID)
}

func (s *PatientServiceSuite) TestFailingSourceIsSkipped() {
	s.directory.Register("hospital_a", failingSource{})

	results, err := s.service.Search(context.Background(), models.SearchCriteria{
		Mode:  models.ModeName,
		Value: "singh",
	})
	s.Require().NoError(err, "one unreachable hospital must not fail the search")

	s.Require().Len(results, 1)
	s.Equal("hospital_b", results[0].SourceID)
}

func (s *PatientServiceSuite) TestGet() {
	identity, err := s.service.Get(context.Background(), "hospital_a", "HA002")
	s.Require().NoError(err)

	s.Equal("Anita Desai", identity.FullName)
	s.Contains(identity.MissingFields, "National Health ID")
}

func (s *PatientServiceSuite) TestGetUnknownSource() {
	_, err := s.service.Get(context.Background(), "hospital_z", "HA001")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PatientServiceSuite) TestGetUnknownIdentity() {
	_, err := s.service.Get(context.Background(), "hospital_a", "HA999")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
