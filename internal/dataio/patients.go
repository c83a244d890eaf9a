package dataio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"stroke-triage/internal/patient"
)

var patientColumns = []string{"ID", "age", "sex", "race", "nihss", "time_since_symptoms"}

// ReadPatients loads a patient list. Each row needs a race or an nihss
// score; race wins when both are present.
func ReadPatients(path string) ([]patient.Patient, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("ID", "age", "sex", "time_since_symptoms"); err != nil {
		return nil, err
	}
	if !t.has("race") && !t.has("nihss") {
		return nil, fmt.Errorf("%s: %w %q or %q", path, ErrMissingColumn, "race", "nihss")
	}

	patients := make([]patient.Patient, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		age, err := strconv.Atoi(t.cell(row, "age"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d column age: %w", path, line, err)
		}
		sex, err := patient.ParseSex(t.cell(row, "sex"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		onset, err := t.float(row, "time_since_symptoms", line)
		if err != nil {
			return nil, err
		}

		pid := id(t.cell(row, "ID"))
		var p patient.Patient
		switch {
		case t.cell(row, "race") != "":
			race, err := t.float(row, "race", line)
			if err != nil {
				return nil, err
			}
			p, err = patient.WithRACE(pid, sex, age, onset, race)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", path, line, err)
			}
		case t.cell(row, "nihss") != "":
			nihss, err := t.float(row, "nihss", line)
			if err != nil {
				return nil, err
			}
			p, err = patient.WithNIHSS(pid, sex, age, onset, nihss)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", path, line, err)
			}
		default:
			return nil, fmt.Errorf("%s line %d: %w: no severity score", path, line, patient.ErrInvalidPatient)
		}
		patients = append(patients, p)
	}
	return patients, nil
}

// WritePatients writes patients in the layout ReadPatients accepts.
func WritePatients(path string, patients []patient.Patient) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(patientColumns); err != nil {
		return err
	}
	for _, p := range patients {
		sev := p.Severity()
		race, nihss := "", ""
		if sev.Scale() == "RACE" {
			race = formatFloat(sev.Score())
		} else {
			nihss = formatFloat(sev.Score())
		}
		rec := []string{p.ID(), strconv.Itoa(p.Age()), p.Sex().String(), race, nihss, formatFloat(p.TimeSinceSymptoms())}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
