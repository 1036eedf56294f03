package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"praisa/internal/source"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSeedLoadsPatientsAndVisits(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hospital_a_patients.csv"),
		"patient_id,name,dob,mobile,gender,abha_number,address,state\n"+
			"HA001,Ramesh Singh,1985-03-12,9876543210,M,12345678901234,12 MG Road Pune,Maharashtra\n"+
			"HA002,Anita Desai,1990-07-01,9123456780,F,,45 FC Road Pune,Maharashtra\n")
	writeFile(t, filepath.Join(dir, "hospital_a_visits.csv"),
		"visit_id,patient_id,admission_date,visit_type,diagnosis,doctor_name\n"+
			"VA1,HA001,2024-01-15,IPD,Dengue fever,Dr. Mehta\n")

	db, err := source.OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	patients, visits, err := seed(db, dir)
	require.NoError(t, err)
	require.Equal(t, 2, patients)
	require.Equal(t, 1, visits)

	var hospitalID string
	require.NoError(t, db.Get(&hospitalID, `SELECT hospital_id FROM patients WHERE patient_id = 'HA001'`))
	require.Equal(t, "hospital_a", hospitalID)

	var diagnosis string
	require.NoError(t, db.Get(&diagnosis, `SELECT diagnosis FROM visits WHERE visit_id = 'VA1'`))
	require.Equal(t, "Dengue fever", diagnosis)
}

func TestSeedReloadIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hospital_b_patients.csv"),
		"patient_id,name\nHB001,Ramehs Singh\n")

	db, err := source.OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	for range 2 {
		_, _, err := seed(db, dir)
		require.NoError(t, err)
	}

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM patients`))
	require.Equal(t, 1, count)
}

func TestSeedMissingDataDir(t *testing.T) {
	db, err := source.OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, _, err = seed(db, t.TempDir())
	require.Error(t, err)
}
