package batch

import (
	"context"
	"errors"
	"maps"
	"path/filepath"
	"sync"
	"testing"

	"stroke-triage/internal/center"
	"stroke-triage/internal/dataio"
	"stroke-triage/internal/patient"
	"stroke-triage/internal/store"
	"stroke-triage/internal/triage"
)

type memWriter struct {
	mu   sync.Mutex
	rows map[string]dataio.Row
}

func (w *memWriter) Write(r dataio.Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rows == nil {
		w.rows = make(map[string]dataio.Row)
	}
	w.rows[store.UnitKey(r.Patient, r.Location)] = r
	return nil
}

func fixture(t *testing.T) ([]patient.Patient, []center.Center, []dataio.Location) {
	t.Helper()
	comp, _ := center.NewComprehensive("1")
	prim, _ := center.NewPrimary("2", center.WithTransfer("1", 40))

	p1, err := patient.WithRACE("a", patient.Male, 70, 50, 5)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := patient.WithNIHSS("b", patient.Female, 62, 30, 14)
	if err != nil {
		t.Fatal(err)
	}

	locations := []dataio.Location{
		{ID: "10", Travel: center.TravelTimes{"1": center.FixedTravel(50), "2": center.FixedTravel(15)}},
		{ID: "11", Travel: center.TravelTimes{"1": {Min: 20, Max: 35}}},
		{ID: "12", Travel: center.TravelTimes{}},
	}
	return []patient.Patient{p1, p2}, []center.Center{prim, comp}, locations
}

func config(workers int) Config {
	return Config{Workers: workers, Seed: 42, Draws: 50, Params: triage.DefaultParams()}
}

func TestRun_IsolatesFailures(t *testing.T) {
	patients, centers, locations := fixture(t)
	cp, err := store.Open(filepath.Join(t.TempDir(), "cp"))
	if err != nil {
		t.Fatal(err)
	}
	defer cp.Close()

	w := &memWriter{}
	sum, err := NewRunner(config(3), w, cp).Run(context.Background(), patients, centers, locations)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sum.Completed != 4 || sum.Failed != 2 || sum.Skipped != 0 {
		t.Errorf("Expected 4 completed and 2 failed, got %+v", sum)
	}
	if sum.RunID == "" {
		t.Error("Expected a run id")
	}

	fails, err := cp.Failures()
	if err != nil {
		t.Fatal(err)
	}
	if len(fails) != 2 {
		t.Fatalf("Expected 2 recorded failures, got %+v", fails)
	}
	for _, f := range fails {
		if f.RunID != sum.RunID {
			t.Errorf("Expected failure tagged with run %s, got %s", sum.RunID, f.RunID)
		}
	}

	row := w.rows[store.UnitKey("a", "10")]
	if row.PSCCount != 1 || row.CSCCount != 1 || row.Scale != "RACE" {
		t.Errorf("Unexpected row %+v", row)
	}
	total := 0
	for _, n := range row.Counts {
		total += n
	}
	if total > 50 {
		t.Errorf("Expected at most 50 decided draws, got %d", total)
	}
}

func TestRun_ResumeSkipsDone(t *testing.T) {
	patients, centers, locations := fixture(t)
	cp, err := store.Open(filepath.Join(t.TempDir(), "cp"))
	if err != nil {
		t.Fatal(err)
	}
	defer cp.Close()

	if _, err := NewRunner(config(2), &memWriter{}, cp).Run(context.Background(), patients, centers, locations); err != nil {
		t.Fatal(err)
	}

	w := &memWriter{}
	sum, err := NewRunner(config(2), w, cp).Run(context.Background(), patients, centers, locations)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Skipped != 4 || sum.Completed != 0 || sum.Failed != 2 {
		t.Errorf("Expected finished units skipped and failed ones retried, got %+v", sum)
	}
	if len(w.rows) != 0 {
		t.Errorf("Expected no rows rewritten, got %d", len(w.rows))
	}
}

func TestRun_DeterministicAcrossWorkers(t *testing.T) {
	patients, centers, locations := fixture(t)

	serial, parallel := &memWriter{}, &memWriter{}
	if _, err := NewRunner(config(1), serial, nil).Run(context.Background(), patients, centers, locations); err != nil {
		t.Fatal(err)
	}
	if _, err := NewRunner(config(4), parallel, nil).Run(context.Background(), patients, centers, locations); err != nil {
		t.Fatal(err)
	}

	if len(serial.rows) != len(parallel.rows) {
		t.Fatalf("Expected the same units, got %d and %d", len(serial.rows), len(parallel.rows))
	}
	for key, a := range serial.rows {
		b := parallel.rows[key]
		if !maps.Equal(a.Counts, b.Counts) {
			t.Errorf("Expected identical counts for %s, got %v and %v", key, a.Counts, b.Counts)
		}
	}
}

func TestRun_Canceled(t *testing.T) {
	patients, centers, locations := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := NewRunner(config(2), &memWriter{}, nil).Run(ctx, patients, centers, locations)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if sum.Completed != 0 {
		t.Errorf("Expected a canceled batch to do no work, got %+v", sum)
	}
}
