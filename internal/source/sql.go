package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"praisa/internal/patient/models"
	"praisa/internal/patient/normalize"
	dErrors "praisa/pkg/domain-errors"
)

// Schema for the demo database. One shared file holds every hospital's rows,
// partitioned by hospital_id, matching the seed CSV layout.
const Schema = `
CREATE TABLE IF NOT EXISTS patients (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_id     TEXT NOT NULL UNIQUE,
	hospital_id    TEXT NOT NULL,
	name           TEXT NOT NULL,
	dob            TEXT,
	mobile         TEXT,
	gender         TEXT,
	abha_number    TEXT,
	aadhaar_number TEXT,
	address        TEXT,
	state          TEXT
);
CREATE TABLE IF NOT EXISTS visits (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	visit_id       TEXT NOT NULL UNIQUE,
	patient_id     TEXT NOT NULL,
	admission_date TEXT,
	visit_type     TEXT,
	diagnosis      TEXT,
	doctor_name    TEXT,
	FOREIGN KEY (patient_id) REFERENCES patients(patient_id)
);
CREATE INDEX IF NOT EXISTS idx_patients_hospital ON patients(hospital_id);
CREATE INDEX IF NOT EXISTS idx_visits_patient ON visits(patient_id);
`

// OpenDB opens (and if necessary initializes) the demo sqlite database.
func OpenDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %q: %w", path, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// SQLSource is the sqlite-backed RecordSource for one hospital. All queries
// are scoped to the source's hospital_id partition.
type SQLSource struct {
	db       *sqlx.DB
	sourceID string
}

// NewSQLSource builds a RecordSource view over one hospital's rows.
func NewSQLSource(db *sqlx.DB, sourceID string) *SQLSource {
	return &SQLSource{db: db, sourceID: sourceID}
}

type patientRow struct {
	PatientID     string         `db:"patient_id"`
	HospitalID    string         `db:"hospital_id"`
	Name          string         `db:"name"`
	DOB           sql.NullString `db:"dob"`
	Mobile        sql.NullString `db:"mobile"`
	Gender        sql.NullString `db:"gender"`
	ABHANumber    sql.NullString `db:"abha_number"`
	AadhaarNumber sql.NullString `db:"aadhaar_number"`
	Address       sql.NullString `db:"address"`
	State         sql.NullString `db:"state"`
}

type visitRow struct {
	VisitID       string         `db:"visit_id"`
	PatientID     string         `db:"patient_id"`
	AdmissionDate sql.NullString `db:"admission_date"`
	VisitType     sql.NullString `db:"visit_type"`
	Diagnosis     sql.NullString `db:"diagnosis"`
	DoctorName    sql.NullString `db:"doctor_name"`
}

const patientColumns = `patient_id, hospital_id, name, dob, mobile, gender, abha_number, aadhaar_number, address, state`

func (s *SQLSource) Search(ctx context.Context, criteria models.SearchCriteria) ([]normalize.Raw, error) {
	var (
		query string
		arg   any
	)
	switch criteria.Mode {
	case models.ModeName:
		query = `SELECT ` + patientColumns + ` FROM patients
			WHERE hospital_id = ? AND lower(name) LIKE ? ORDER BY id LIMIT 20`
		arg = "%" + strings.ToLower(criteria.Value) + "%"
	case models.ModeHealthID:
		query = `SELECT ` + patientColumns + ` FROM patients
			WHERE hospital_id = ? AND abha_number = ? ORDER BY id`
		arg = criteria.Value
	case models.ModePhone:
		query = `SELECT ` + patientColumns + ` FROM patients
			WHERE hospital_id = ? AND mobile = ? ORDER BY id`
		arg = criteria.Value
	case models.ModeNationalID:
		query = `SELECT ` + patientColumns + ` FROM patients
			WHERE hospital_id = ? AND aadhaar_number = ? ORDER BY id`
		arg = criteria.Value
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown search mode %q", criteria.Mode)
	}

	var rows []patientRow
	if err := s.db.SelectContext(ctx, &rows, query, s.sourceID, arg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSourceUnavailable, "search query failed")
	}

	results := make([]normalize.Raw, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.raw())
	}
	return results, nil
}

func (s *SQLSource) GetIdentity(ctx context.Context, identityID string) (normalize.Raw, error) {
	var row patientRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+patientColumns+` FROM patients WHERE hospital_id = ? AND patient_id = ?`,
		s.sourceID, identityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "identity %q not found", identityID)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSourceUnavailable, "identity query failed")
	}
	return row.raw(), nil
}

func (s *SQLSource) GetVisits(ctx context.Context, identityID string) ([]normalize.Raw, error) {
	var rows []visitRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT visit_id, patient_id, admission_date, visit_type, diagnosis, doctor_name
		 FROM visits WHERE patient_id = ? ORDER BY admission_date DESC`,
		identityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSourceUnavailable, "visit query failed")
	}

	results := make([]normalize.Raw, 0, len(rows))
	for _, row := range rows {
		results = append(results, normalize.Raw{
			"visit_id":       row.VisitID,
			"patient_id":     row.PatientID,
			"admission_date": row.AdmissionDate.String,
			"visit_type":     row.VisitType.String,
			"diagnosis":      row.Diagnosis.String,
			"doctor_name":    row.DoctorName.String,
		})
	}
	return results, nil
}

func (r patientRow) raw() normalize.Raw {
	return normalize.Raw{
		"patient_id":     r.PatientID,
		"hospital_id":    r.HospitalID,
		"name":           r.Name,
		"dob":            r.DOB.String,
		"mobile":         r.Mobile.String,
		"gender":         r.Gender.String,
		"abha_number":    r.ABHANumber.String,
		"aadhaar_number": r.AadhaarNumber.String,
		"address":        r.Address.String,
		"state":          r.State.String,
	}
}

