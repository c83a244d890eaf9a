// Package outcome computes the 90-day outcome distribution of an acute
// ischemic stroke under every candidate triage strategy.
package outcome

import (
	"stroke-triage/internal/strategy"

	"gonum.org/v1/gonum/mat"
)

// Outcome holds draws x strategies probability matrices whose columns
// line up with Strategies. All matrices are nil for an empty outcome.
type Outcome struct {
	PGood      *mat.Dense
	PTPA       *mat.Dense
	PEVT       *mat.Dense
	PTransfer  *mat.Dense
	Strategies []strategy.Strategy
}

// Dims returns (draws, strategies).
func (o *Outcome) Dims() (int, int) {
	if o == nil || o.PGood == nil {
		return 0, 0
	}
	return o.PGood.Dims()
}

// Empty reports whether the outcome has no strategy columns.
func (o *Outcome) Empty() bool {
	_, c := o.Dims()
	return c == 0
}

// Concat joins outcomes along the strategy axis in argument order.
// Empty parts are skipped.
func Concat(parts ...*Outcome) *Outcome {
	out := &Outcome{}
	for _, p := range parts {
		if p.Empty() {
			continue
		}
		out.PGood = augment(out.PGood, p.PGood)
		out.PTPA = augment(out.PTPA, p.PTPA)
		out.PEVT = augment(out.PEVT, p.PEVT)
		out.PTransfer = augment(out.PTransfer, p.PTransfer)
		out.Strategies = append(out.Strategies, p.Strategies...)
	}
	return out
}

func augment(a, b *mat.Dense) *mat.Dense {
	var m mat.Dense
	if a == nil {
		m.CloneFrom(b)
		return &m
	}
	m.Augment(a, b)
	return &m
}

// filled is a draws x cols matrix holding v.
func filled(draws, cols int, v float64) *mat.Dense {
	m := mat.NewDense(draws, cols, nil)
	if v != 0 {
		m.Apply(func(_, _ int, _ float64) float64 { return v }, m)
	}
	return m
}
