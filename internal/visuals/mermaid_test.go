package visuals

import (
	"math"
	"strings"
	"testing"

	"stroke-triage/internal/center"
	"stroke-triage/internal/frontier"
	"stroke-triage/internal/strategy"

	"gonum.org/v1/gonum/mat"
)

type fixedTravel map[string]float64

func (f fixedTravel) Travel(id string, _ int) float64 { return f[id] }

func testNetwork(t *testing.T) ([]center.Center, []strategy.Strategy) {
	t.Helper()
	csc, err := center.NewComprehensive("C1")
	if err != nil {
		t.Fatal(err)
	}
	psc, err := center.NewPrimary("P1", center.WithTransfer("C1", 40))
	if err != nil {
		t.Fatal(err)
	}
	prim, _ := strategy.NewPrimaryOnly(psc)
	drip, _ := strategy.NewDripAndShip(psc, csc)
	comp, _ := strategy.NewComprehensiveOnly(csc)
	return []center.Center{psc, csc}, []strategy.Strategy{prim, drip, comp}
}

func TestGenerateNetworkFlowchart(t *testing.T) {
	centers, _ := testNetwork(t)
	travel := center.TravelTimes{"P1": center.FixedTravel(15), "C1": {Min: 50, Max: 60}}

	chart := GenerateNetworkFlowchart(centers, travel)
	for _, want := range []string{"flowchart LR", "loc -- \"15 min\" --> cP1", "loc -- \"[50, 60] min\" --> cC1", "cP1 -. \"40 min\" .-> cC1"} {
		if !strings.Contains(chart, want) {
			t.Errorf("Expected chart to contain %q, got:\n%s", want, chart)
		}
	}
	if GenerateNetworkFlowchart(nil, nil) != "" {
		t.Error("Expected empty chart without centers")
	}
}

func TestGenerateResultCharts(t *testing.T) {
	_, strategies := testNetwork(t)
	nan := math.NaN()
	qalys := mat.NewDense(2, 3, []float64{10, nan, 10.5, 10, nan, 10.2})
	costs := mat.NewDense(2, 3, []float64{1000, nan, 2000, 1000, nan, 90000})
	res, err := frontier.Tabulate(qalys, costs, strategies, fixedTravel{"P1": 15, "C1": 50}, frontier.DefaultThreshold)
	if err != nil {
		t.Fatalf("Tabulate failed: %v", err)
	}

	pie := GenerateDestinationPie(res)
	if !strings.Contains(pie, "pie title") || !strings.Contains(pie, "\"C1 (CSC)\" : 1") || !strings.Contains(pie, "\"P1 (PSC)\" : 1") {
		t.Errorf("Unexpected pie:\n%s", pie)
	}

	bars := GenerateQALYChart(res.Summaries())
	if strings.Count(bars, "\"") != 8 {
		t.Errorf("Expected two labelled bars without the infeasible strategy, got:\n%s", bars)
	}
	if strings.ContainsAny(strings.SplitN(bars, "x-axis", 2)[1], "()") {
		t.Errorf("Expected parentheses stripped from labels, got:\n%s", bars)
	}
}
