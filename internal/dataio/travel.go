package dataio

import (
	"encoding/csv"
	"fmt"
	"os"

	"stroke-triage/internal/center"
)

// Location is one map point with its travel times to every center.
type Location struct {
	ID     string
	Travel center.TravelTimes
}

// ReadTravelTimes loads the travel-time file: an ID column and one column
// per center id. Cells are a number of minutes, "[min, max]", or blank
// when the center is not reachable. Locations keep file order.
func ReadTravelTimes(path string) ([]Location, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("ID"); err != nil {
		return nil, err
	}

	locations := make([]Location, 0, len(t.rows))
	seen := make(map[string]bool, len(t.rows))
	for i, row := range t.rows {
		loc := Location{ID: id(t.cell(row, "ID")), Travel: center.TravelTimes{}}
		if seen[loc.ID] {
			return nil, fmt.Errorf("%s line %d: duplicate location %s", path, i+2, loc.ID)
		}
		seen[loc.ID] = true
		for _, col := range t.columns {
			if col == "ID" {
				continue
			}
			tt := center.ParseTravelTime(t.cell(row, col))
			if tt.Known() {
				loc.Travel[id(col)] = tt
			}
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// WriteTravelTimes writes locations with one column per center in
// centerIDs order. Unreachable centers are left blank.
func WriteTravelTimes(path string, centerIDs []string, locations []Location) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"ID"}, centerIDs...)); err != nil {
		return err
	}
	for _, loc := range locations {
		rec := make([]string, 0, len(centerIDs)+1)
		rec = append(rec, loc.ID)
		for _, cid := range centerIDs {
			tt, ok := loc.Travel[cid]
			if !ok || !tt.Known() {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, tt.String())
		}
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
