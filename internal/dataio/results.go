package dataio

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"slices"
	"strconv"
	"sync"

	"stroke-triage/internal/center"
	"stroke-triage/internal/frontier"
	"stroke-triage/internal/patient"
)

// Fixed result columns; one count column per center label follows.
var resultColumns = []string{
	"Location", "Patient", "Use Real DTN", "Varying Hospitals", "PSC Count", "CSC Count",
	"Sex", "Age", "Symptoms", "RACE", "NIHSS",
}

// Row is the summary of one (patient, location) unit.
type Row struct {
	Location         string         `json:"location"`
	Patient          string         `json:"patient"`
	RealDTN          bool           `json:"real_dtn"`
	VaryingHospitals bool           `json:"varying_hospitals"`
	PSCCount         int            `json:"psc_count"`
	CSCCount         int            `json:"csc_count"`
	Sex              string         `json:"sex"`
	Age              int            `json:"age"`
	Symptoms         float64        `json:"symptoms"`
	Scale            string         `json:"scale"`
	Score            float64        `json:"score"`
	Counts           map[string]int `json:"counts"`
}

// NewRow summarises res for patient p at location. Counts cover the
// candidate centers only.
func NewRow(location string, p patient.Patient, centers []center.Center, res *frontier.Results, realDTN, varying bool) Row {
	r := Row{
		Location:         location,
		Patient:          p.ID(),
		RealDTN:          realDTN,
		VaryingHospitals: varying,
		Sex:              p.Sex().String(),
		Age:              p.Age(),
		Symptoms:         p.TimeSinceSymptoms(),
		Scale:            p.Severity().Scale(),
		Score:            p.Severity().Score(),
		Counts:           res.CountsByCenter(),
	}
	for _, c := range centers {
		if c.Kind == center.Primary {
			r.PSCCount++
		} else {
			r.CSCCount++
		}
	}
	return r
}

// ResultHeader is the header for a fresh results file over centers.
func ResultHeader(centers []center.Center) []string {
	header := append([]string(nil), resultColumns...)
	for _, c := range centers {
		header = append(header, c.String())
	}
	return header
}

// ResultWriter appends rows to a results CSV and flushes after each one.
// It is safe for concurrent use.
type ResultWriter struct {
	mu     sync.Mutex
	f      *os.File
	w      *csv.Writer
	header []string
}

// NewResultWriter opens path for appending. An existing header is reused
// so that a resumed run lines up with earlier rows; otherwise the header
// over centers is written.
func NewResultWriter(path string, centers []center.Center) (*ResultWriter, error) {
	header, err := existingHeader(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	rw := &ResultWriter{f: f, w: csv.NewWriter(f), header: header}
	if rw.header == nil {
		rw.header = ResultHeader(centers)
		if err := rw.writeRecord(rw.header); err != nil {
			f.Close()
			return nil, err
		}
	}
	return rw, nil
}

func existingHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return header, err
}

// Header is the column layout rows are written with.
func (rw *ResultWriter) Header() []string { return rw.header }

// Write appends one row. Center columns the row has no count for are
// written as NaN.
func (rw *ResultWriter) Write(r Row) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.writeRecord(rw.Record(r))
}

// Record lays r out in header order.
func (rw *ResultWriter) Record(r Row) []string {
	fixed := map[string]string{
		"Location":          r.Location,
		"Patient":           r.Patient,
		"Use Real DTN":      strconv.FormatBool(r.RealDTN),
		"Varying Hospitals": strconv.FormatBool(r.VaryingHospitals),
		"PSC Count":         strconv.Itoa(r.PSCCount),
		"CSC Count":         strconv.Itoa(r.CSCCount),
		"Sex":               r.Sex,
		"Age":               strconv.Itoa(r.Age),
		"Symptoms":          formatFloat(r.Symptoms),
		r.Scale:             formatFloat(r.Score),
	}

	rec := make([]string, len(rw.header))
	for i, col := range rw.header {
		if v, ok := fixed[col]; ok {
			rec[i] = v
			continue
		}
		if slices.Contains(resultColumns, col) {
			continue
		}
		if n, ok := r.Counts[col]; ok {
			rec[i] = strconv.Itoa(n)
		} else {
			rec[i] = "NaN"
		}
	}
	return rec
}

func (rw *ResultWriter) writeRecord(rec []string) error {
	if err := rw.w.Write(rec); err != nil {
		return err
	}
	rw.w.Flush()
	return rw.w.Error()
}

// Close flushes and closes the file.
func (rw *ResultWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.w.Flush()
	if err := rw.w.Error(); err != nil {
		rw.f.Close()
		return err
	}
	return rw.f.Close()
}
