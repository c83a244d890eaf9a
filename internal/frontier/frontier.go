// Package frontier selects the cost-effective strategy of each Monte-Carlo
// draw and tabulates the winners across the ensemble.
package frontier

import (
	"cmp"
	"errors"
	"math"
	"slices"

	"stroke-triage/internal/strategy"

	"github.com/rs/zerolog/log"
)

// ErrDegenerateFrontier means two frontier strategies share both QALY and
// cost after deduplication.
var ErrDegenerateFrontier = errors.New("identical strategies survived deduplication")

// DefaultThreshold is the willingness to pay per QALY.
const DefaultThreshold = 100000.0

// FormattedResult is one strategy's outcome in one draw.
type FormattedResult struct {
	Strategy strategy.Strategy
	QALY     float64
	Cost     float64
	// Travel is the draw's travel time to the first-contact center, used
	// to break ties.
	Travel float64
	// ICER versus the predecessor on the frontier; valid when HasICER.
	ICER    float64
	HasICER bool
}

// Equivalent reports equal QALY and cost.
func (r FormattedResult) Equivalent(o FormattedResult) bool {
	return r.QALY == o.QALY && r.Cost == o.Cost
}

// Feasible reports whether both values are defined.
func (r FormattedResult) Feasible() bool {
	return !math.IsNaN(r.QALY) && !math.IsNaN(r.Cost)
}

// Compare orders results by QALY, then cost, then strategy tie-break.
func Compare(a, b FormattedResult) int {
	if c := cmp.Compare(a.QALY, b.QALY); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Cost, b.Cost); c != 0 {
		return c
	}
	return strategy.Compare(a.Strategy, a.Travel, b.Strategy, b.Travel)
}

// Optimal returns the strategy of data that is cost-effective at threshold,
// or nil when no result is feasible. data is not modified.
func Optimal(data []FormattedResult, threshold float64) (*FormattedResult, error) {
	f := make([]FormattedResult, 0, len(data))
	for _, r := range data {
		if r.Feasible() {
			r.ICER, r.HasICER = 0, false
			f = append(f, r)
		}
	}
	if len(f) == 0 {
		return nil, nil
	}

	slices.SortStableFunc(f, Compare)
	f = slices.CompactFunc(f, FormattedResult.Equivalent)

	f = removeDominated(f)
	if len(f) == 1 {
		return &f[0], nil
	}

	f, err := removeExtendedDominated(f)
	if err != nil {
		return nil, err
	}

	for i := len(f) - 1; i >= 0; i-- {
		if !f[i].HasICER || f[i].ICER < threshold {
			return &f[i], nil
		}
	}
	return nil, nil
}

// removeDominated drops a successor that is no better on QALY at a higher
// cost, rescanning from the start after every deletion.
func removeDominated(f []FormattedResult) []FormattedResult {
	for {
		deleted := false
		for i := 0; i+1 < len(f); i++ {
			if f[i].QALY >= f[i+1].QALY && f[i].Cost < f[i+1].Cost {
				f = slices.Delete(f, i+1, i+2)
				deleted = true
				break
			}
		}
		if !deleted {
			return f
		}
	}
}

// removeExtendedDominated drops the middle strategy of any pair of adjacent
// ICERs that decreases, recomputing after every deletion, and then records
// the ICER of every strategy after the first.
func removeExtendedDominated(f []FormattedResult) ([]FormattedResult, error) {
	for {
		icers, err := ICERs(f)
		if err != nil {
			return nil, err
		}
		deleted := false
		for i := 0; i+1 < len(icers); i++ {
			if icers[i] > icers[i+1] {
				f = slices.Delete(f, i+1, i+2)
				deleted = true
				break
			}
		}
		if !deleted {
			for i := 1; i < len(f); i++ {
				f[i].ICER = icers[i-1]
				f[i].HasICER = true
			}
			return f, nil
		}
	}
}

// ICERs returns the incremental cost per QALY between each adjacent pair.
func ICERs(data []FormattedResult) ([]float64, error) {
	if len(data) < 2 {
		return nil, nil
	}
	icers := make([]float64, 0, len(data)-1)
	for i := 1; i < len(data); i++ {
		num := data[i].Cost - data[i-1].Cost
		den := data[i].QALY - data[i-1].QALY
		switch {
		case num == 0 && den == 0:
			return nil, ErrDegenerateFrontier
		case den == 0:
			log.Warn().
				Str("strategy", data[i].Strategy.String()).
				Str("previous", data[i-1].Strategy.String()).
				Float64("qaly", data[i].QALY).
				Msg("Two strategies with exactly equal benefit")
			icers = append(icers, math.Copysign(math.Inf(1), num))
		default:
			icers = append(icers, num/den)
		}
	}
	return icers, nil
}
