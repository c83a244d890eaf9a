// Package dataio reads the hospital, travel-time and patient CSV inputs and
// appends per-unit results to an output CSV.
package dataio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing column")

// table is a header-indexed CSV file.
type table struct {
	path    string
	columns []string
	index   map[string]int
	rows    [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: empty file", path)
	}

	t := &table{path: path, columns: records[0], index: make(map[string]int, len(records[0])), rows: records[1:]}
	for i, name := range t.columns {
		t.index[strings.TrimSpace(name)] = i
	}
	return t, nil
}

func (t *table) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.index[c]; !ok {
			return fmt.Errorf("%s: %w %q", t.path, ErrMissingColumn, c)
		}
	}
	return nil
}

func (t *table) has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// cell returns the trimmed value of col in row, or "" past the row end.
func (t *table) cell(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) float(row []string, col string, line int) (float64, error) {
	v, err := strconv.ParseFloat(t.cell(row, col), 64)
	if err != nil {
		return 0, fmt.Errorf("%s line %d column %s: %w", t.path, line, col, err)
	}
	return v, nil
}

// id normalises numeric identifiers so that "12" and "12.0" agree.
func id(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
