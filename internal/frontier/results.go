package frontier

import (
	"fmt"
	"math"
	"slices"

	"stroke-triage/internal/stats"
	"stroke-triage/internal/strategy"

	"gonum.org/v1/gonum/mat"
)

// TravelSource yields the sampled travel time to a center in a draw.
type TravelSource interface {
	Travel(centerID string, draw int) float64
}

// Results tabulates the per-draw winners of one (patient, location) unit.
type Results struct {
	Strategies []strategy.Strategy
	Threshold  float64
	Draws      int
	// MaxQALYCounts counts draws where a strategy has the highest QALY.
	MaxQALYCounts map[strategy.Key]int
	// OptimalCounts counts draws where a strategy is cost-effective. Every
	// candidate has an entry, zero included.
	OptimalCounts map[strategy.Key]int
	// Infeasible counts draws in which no strategy was feasible.
	Infeasible int

	qalys *mat.Dense
	costs *mat.Dense
}

// Tabulate selects the optimal strategy of every draw. qalys and costs are
// draws x strategies with columns matching strategies.
func Tabulate(qalys, costs *mat.Dense, strategies []strategy.Strategy, travel TravelSource, threshold float64) (*Results, error) {
	r, c := qalys.Dims()
	if cr, cc := costs.Dims(); cr != r || cc != c || c != len(strategies) {
		return nil, fmt.Errorf("shape mismatch: qalys %dx%d, costs %dx%d, %d strategies", r, c, cr, cc, len(strategies))
	}

	res := &Results{
		Strategies:    strategies,
		Threshold:     threshold,
		Draws:         r,
		MaxQALYCounts: make(map[strategy.Key]int),
		OptimalCounts: make(map[strategy.Key]int, c),
		qalys:         qalys,
		costs:         costs,
	}
	for _, s := range strategies {
		res.OptimalCounts[s.Key()] = 0
	}

	data := make([]FormattedResult, 0, c)
	for i := 0; i < r; i++ {
		row := qalys.RawRowView(i)
		if j, ok := nanArgmax(row); ok {
			res.MaxQALYCounts[strategies[j].Key()]++
		}

		data = data[:0]
		for j, s := range strategies {
			data = append(data, FormattedResult{
				Strategy: s,
				QALY:     qalys.At(i, j),
				Cost:     costs.At(i, j),
				Travel:   travel.Travel(s.Center().ID, i),
			})
		}
		best, err := Optimal(data, threshold)
		if err != nil {
			return nil, fmt.Errorf("draw %d: %w", i, err)
		}
		if best == nil {
			res.Infeasible++
			continue
		}
		res.OptimalCounts[best.Strategy.Key()]++
	}
	return res, nil
}

// nanArgmax is the index of the first maximum ignoring NaN.
func nanArgmax(v []float64) (int, bool) {
	best, idx := math.Inf(-1), -1
	for i, x := range v {
		if math.IsNaN(x) {
			continue
		}
		if idx < 0 || x > best {
			best, idx = x, i
		}
	}
	return idx, idx >= 0
}

// CountsByCenter sums optimal counts per first-contact center, keyed by the
// center label. Drip-and-ship wins count for the primary center.
func (r *Results) CountsByCenter() map[string]int {
	out := make(map[string]int)
	for _, s := range r.Strategies {
		out[s.Center().String()] += r.OptimalCounts[s.Key()]
	}
	return out
}

// PercentagesByCenter is CountsByCenter as shares of all decided draws.
func (r *Results) PercentagesByCenter() map[string]float64 {
	counts := r.CountsByCenter()
	total := 0
	for _, n := range counts {
		total += n
	}
	out := make(map[string]float64, len(counts))
	for label, n := range counts {
		if total > 0 {
			out[label] = float64(n) / float64(total)
		} else {
			out[label] = 0
		}
	}
	return out
}

// OptimalDestination is the center label that wins most often. Ties go to
// the lexicographically smallest label.
func (r *Results) OptimalDestination() (string, bool) {
	counts := r.CountsByCenter()
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	best, bestN := "", -1
	for _, label := range labels {
		if counts[label] > bestN {
			best, bestN = label, counts[label]
		}
	}
	return best, bestN >= 0
}

// OptimalStrategy is the strategy that wins most often. Ties go to the
// earliest column.
func (r *Results) OptimalStrategy() (strategy.Strategy, bool) {
	var best strategy.Strategy
	bestN := -1
	for _, s := range r.Strategies {
		if n := r.OptimalCounts[s.Key()]; n > bestN {
			best, bestN = s, n
		}
	}
	return best, bestN >= 0
}

// Summary describes one strategy across the ensemble.
type Summary struct {
	Strategy   strategy.Strategy
	MedianQALY float64
	MedianCost float64
	Feasible   int
	Optimal    int
	MaxQALY    int
}

// Summaries reports each strategy's median QALY and cost over its
// feasible draws, in column order.
func (r *Results) Summaries() []Summary {
	out := make([]Summary, 0, len(r.Strategies))
	for j, s := range r.Strategies {
		q := mat.Col(nil, j, r.qalys)
		c := mat.Col(nil, j, r.costs)
		out = append(out, Summary{
			Strategy:   s,
			MedianQALY: stats.Median(q),
			MedianCost: stats.Median(c),
			Feasible:   stats.CountFinite(q),
			Optimal:    r.OptimalCounts[s.Key()],
			MaxQALY:    r.MaxQALYCounts[s.Key()],
		})
	}
	return out
}
