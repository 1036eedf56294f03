// Command praisa-seed loads hospital CSV exports into the demo sqlite
// database served by the sqlite source backend.
//
// Patient files are named <hospital_id>_patients.csv and visit files
// <hospital_id>_visits.csv, matching the demo data layout.
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"praisa/internal/source"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath string
	var dataDir string
	var reset bool

	cmd := &cobra.Command{
		Use:          "praisa-seed",
		Short:        "Load hospital CSV exports into the demo database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := source.OpenDB(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if reset {
				if _, err := db.Exec(`DELETE FROM visits; DELETE FROM patients;`); err != nil {
					return fmt.Errorf("reset tables: %w", err)
				}
			}

			patients, visits, err := seed(db, dataDir)
			if err != nil {
				return err
			}
			cmd.Printf("loaded %d patients and %d visits from %s\n", patients, visits, dataDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "praisa_demo.db", "sqlite database path")
	cmd.Flags().StringVar(&dataDir, "data", "data", "directory holding the hospital CSV files")
	cmd.Flags().BoolVar(&reset, "reset", false, "empty the tables before loading")
	return cmd
}

// seed walks the data directory and loads every *_patients.csv and
// *_visits.csv file. Patients load first so the visit foreign keys resolve.
func seed(db *sqlx.DB, dataDir string) (int, int, error) {
	patientFiles, err := filepath.Glob(filepath.Join(dataDir, "*_patients.csv"))
	if err != nil {
		return 0, 0, err
	}
	visitFiles, err := filepath.Glob(filepath.Join(dataDir, "*_visits.csv"))
	if err != nil {
		return 0, 0, err
	}
	if len(patientFiles) == 0 {
		return 0, 0, fmt.Errorf("no *_patients.csv files in %s", dataDir)
	}

	patients := 0
	for _, file := range patientFiles {
		n, err := loadCSV(db, file, insertPatient(hospitalIDFrom(file, "_patients.csv")))
		if err != nil {
			return 0, 0, fmt.Errorf("load %s: %w", file, err)
		}
		patients += n
	}

	visits := 0
	for _, file := range visitFiles {
		n, err := loadCSV(db, file, insertVisit)
		if err != nil {
			return 0, 0, fmt.Errorf("load %s: %w", file, err)
		}
		visits += n
	}
	return patients, visits, nil
}

// hospitalIDFrom reads the source ID back out of the CSV file name.
func hospitalIDFrom(path, suffix string) string {
	return strings.TrimSuffix(filepath.Base(path), suffix)
}

type rowInserter func(tx *sqlx.Tx, row map[string]string) error

// loadCSV streams one header-keyed CSV file into the database inside a
// single transaction.
func loadCSV(db *sqlx.DB, path string, insert rowInserter) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", count+1, err)
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[strings.TrimSpace(name)] = strings.TrimSpace(record[i])
			}
		}
		if err := insert(tx, row); err != nil {
			return 0, fmt.Errorf("row %d: %w", count+1, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

func insertPatient(hospitalID string) rowInserter {
	return func(tx *sqlx.Tx, row map[string]string) error {
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO patients
				(patient_id, hospital_id, name, dob, mobile, gender, abha_number, aadhaar_number, address, state)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row["patient_id"], hospitalID, row["name"], row["dob"], row["mobile"],
			row["gender"], row["abha_number"], row["aadhaar_number"], row["address"], row["state"],
		)
		return err
	}
}

func insertVisit(tx *sqlx.Tx, row map[string]string) error {
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO visits
			(visit_id, patient_id, admission_date, visit_type, diagnosis, doctor_name)
		VALUES (?, ?, ?, ?, ?, ?)`,
		row["visit_id"], row["patient_id"], row["admission_date"],
		row["visit_type"], row["diagnosis"], row["doctor_name"],
	)
	return err
}
