package frontier

import (
	"errors"
	"math"
	"slices"
	"testing"

	"stroke-triage/internal/center"
	"stroke-triage/internal/strategy"
)

// fixture mirrors a small regional network: two comprehensive centers at
// 50 and 60 minutes and three primaries at 15, 30 and 20 minutes.
type fixture struct {
	prim   []strategy.Strategy
	drip   []strategy.Strategy
	comp   []strategy.Strategy
	travel map[string]float64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{travel: map[string]float64{}}

	var comps []center.Center
	for i, minutes := range []float64{50, 60} {
		id := []string{"C0", "C1"}[i]
		c, err := center.NewComprehensive(id, center.WithName("Comprehensive "+id, id))
		if err != nil {
			t.Fatal(err)
		}
		comps = append(comps, c)
		f.travel[id] = minutes
		s, _ := strategy.NewComprehensiveOnly(c)
		f.comp = append(f.comp, s)
	}

	dests := []int{0, 1, 0}
	transfers := []float64{65, 30, 30}
	for i, minutes := range []float64{15, 30, 20} {
		id := []string{"P0", "P1", "P2"}[i]
		c, err := center.NewPrimary(id, center.WithName("Primary "+id, id),
			center.WithTransfer(comps[dests[i]].ID, transfers[i]))
		if err != nil {
			t.Fatal(err)
		}
		f.travel[id] = minutes
		p, _ := strategy.NewPrimaryOnly(c)
		d, err := strategy.NewDripAndShip(c, comps[dests[i]])
		if err != nil {
			t.Fatal(err)
		}
		f.prim = append(f.prim, p)
		f.drip = append(f.drip, d)
	}
	return f
}

func (f fixture) result(s strategy.Strategy, qaly, cost float64) FormattedResult {
	return FormattedResult{Strategy: s, QALY: qaly, Cost: cost, Travel: f.travel[s.Center().ID]}
}

func (f fixture) Travel(centerID string, _ int) float64 { return f.travel[centerID] }

func TestEquivalent(t *testing.T) {
	f := newFixture(t)
	a := f.result(f.drip[0], 14.1, 60000.5)
	b := f.result(f.comp[0], 14.1, 60000.5)
	c := f.result(f.comp[0], 14.1, 60001.5)

	if !a.Equivalent(b) {
		t.Error("Expected equal QALY and cost to be equivalent")
	}
	if a.Equivalent(c) {
		t.Error("Expected different cost not to be equivalent")
	}
}

func TestCompare_Ordering(t *testing.T) {
	f := newFixture(t)

	cheap := f.result(f.drip[0], 14.1, 60000.5)
	dear := f.result(f.comp[0], 14.1, 60001.5)
	if Compare(dear, cheap) <= 0 {
		t.Error("Expected higher cost to sort after lower cost")
	}

	// Equal outcomes: shorter travel sorts first.
	drip := f.result(f.drip[1], 14.1, 60000.5) // 30 minutes
	comp := f.result(f.comp[0], 14.1, 60000.5) // 50 minutes
	if Compare(drip, comp) >= 0 {
		t.Error("Expected shorter travel to sort first")
	}

	// Equal outcomes and travel: comprehensive sorts before drip-and-ship.
	drip.Travel, comp.Travel = 30, 30
	if Compare(comp, drip) >= 0 {
		t.Error("Expected comprehensive before drip-and-ship at equal travel")
	}
}

func TestOptimal_Empty(t *testing.T) {
	f := newFixture(t)
	got, err := Optimal(nil, DefaultThreshold)
	if err != nil || got != nil {
		t.Errorf("Expected nil for no candidates, got %v (%v)", got, err)
	}

	nan := math.NaN()
	got, err = Optimal([]FormattedResult{
		f.result(f.prim[0], nan, 1000),
		f.result(f.drip[0], 10, nan),
	}, DefaultThreshold)
	if err != nil || got != nil {
		t.Errorf("Expected nil when every candidate is infeasible, got %v (%v)", got, err)
	}
}

func TestOptimal_Selection(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		data      []FormattedResult
		threshold float64
		want      strategy.Strategy
	}{
		{
			name:      "SingleCandidate",
			data:      []FormattedResult{f.result(f.prim[0], 10, 1000)},
			threshold: DefaultThreshold,
			want:      f.prim[0],
		},
		{
			name: "DominatedByCheaperEqualQALY",
			data: []FormattedResult{
				f.result(f.prim[0], 10, 2000),
				f.result(f.comp[0], 10, 1000),
			},
			threshold: DefaultThreshold,
			want:      f.comp[0],
		},
		{
			name: "AffordableGain",
			data: []FormattedResult{
				f.result(f.prim[0], 10, 1000),
				f.result(f.comp[0], 10.1, 5000), // 40,000 per QALY
			},
			threshold: DefaultThreshold,
			want:      f.comp[0],
		},
		{
			name: "UnaffordableGain",
			data: []FormattedResult{
				f.result(f.prim[0], 10, 1000),
				f.result(f.comp[0], 10.01, 5000), // 400,000 per QALY
			},
			threshold: DefaultThreshold,
			want:      f.prim[0],
		},
		{
			name: "ExtendedDominance",
			data: []FormattedResult{
				f.result(f.prim[0], 10, 0),
				f.result(f.drip[0], 11, 300000), // 300,000 per QALY
				f.result(f.comp[0], 12, 400000), // 100,000 per QALY vs drip
			},
			threshold: 250000,
			// Removing drip gives comp 200,000 per QALY against primary.
			want: f.comp[0],
		},
		{
			name: "CheaperAndBetter",
			data: []FormattedResult{
				f.result(f.prim[0], 10, 9000),
				f.result(f.comp[0], 11, 5000),
			},
			threshold: DefaultThreshold,
			want:      f.comp[0],
		},
		{
			name: "DuplicateKeepsTieBreakWinner",
			data: []FormattedResult{
				f.result(f.comp[0], 10, 1000), // 50 minutes
				f.result(f.prim[0], 10, 1000), // 15 minutes
			},
			threshold: DefaultThreshold,
			want:      f.prim[0],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := slices.Clone(tt.data)
			got, err := Optimal(tt.data, tt.threshold)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got == nil {
				t.Fatal("Expected a strategy, got nil")
			}
			if got.Strategy.Key() != tt.want.Key() {
				t.Errorf("Expected %s, got %s", tt.want, got.Strategy)
			}
			for i := range before {
				if before[i].Strategy.Key() != tt.data[i].Strategy.Key() {
					t.Fatal("Expected input slice to be left untouched")
				}
			}
		})
	}
}

func TestRemoveExtendedDominated_Monotonic(t *testing.T) {
	f := newFixture(t)
	data := []FormattedResult{
		f.result(f.prim[0], 10.0, 0),
		f.result(f.prim[1], 10.5, 90000),
		f.result(f.prim[2], 11.0, 100000),
		f.result(f.drip[0], 11.2, 130000),
		f.result(f.drip[1], 12.0, 150000),
		f.result(f.comp[0], 12.5, 400000),
	}
	frontier, err := removeExtendedDominated(removeDominated(slices.Clone(data)))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	icers, _ := ICERs(frontier)
	for i := 1; i < len(icers); i++ {
		if icers[i] < icers[i-1] {
			t.Errorf("Expected non-decreasing ICERs, got %v", icers)
		}
	}
	for i := 1; i < len(frontier); i++ {
		if !frontier[i].HasICER || frontier[i].ICER != icers[i-1] {
			t.Errorf("Expected recorded ICER %v at %d, got %+v", icers[i-1], i, frontier[i])
		}
	}
	if frontier[0].HasICER {
		t.Error("Expected the first frontier strategy to have no ICER")
	}
}

func TestICERs_Degenerate(t *testing.T) {
	f := newFixture(t)

	_, err := ICERs([]FormattedResult{f.result(f.prim[0], 10, 1000), f.result(f.comp[0], 10, 1000)})
	if !errors.Is(err, ErrDegenerateFrontier) {
		t.Errorf("Expected ErrDegenerateFrontier, got %v", err)
	}

	icers, err := ICERs([]FormattedResult{f.result(f.prim[0], 10, 1000), f.result(f.comp[0], 10, 2000)})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !math.IsInf(icers[0], 1) {
		t.Errorf("Expected +Inf for equal benefit at higher cost, got %v", icers[0])
	}

	icers, _ = ICERs([]FormattedResult{f.result(f.prim[0], 10, 2000), f.result(f.comp[0], 10, 1000)})
	if !math.IsInf(icers[0], -1) {
		t.Errorf("Expected -Inf for equal benefit at lower cost, got %v", icers[0])
	}
}
