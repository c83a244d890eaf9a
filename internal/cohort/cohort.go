// Package cohort ages the post-stroke population year by year through the
// disability states and values it in discounted QALYs and costs.
package cohort

import (
	"errors"
	"fmt"
	"math"

	"stroke-triage/internal/costs"
	"stroke-triage/internal/lifetable"
	"stroke-triage/internal/mrs"
	"stroke-triage/internal/outcome"
	"stroke-triage/internal/patient"
	"stroke-triage/internal/strategy"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// ErrEmptyOutcome is returned when there is no strategy to simulate.
var ErrEmptyOutcome = errors.New("no strategies to simulate")

// Shares of a stroke-alert call that turn out to be a mimic or a
// hemorrhagic stroke; the remainder is ischemic.
const (
	MimicShare       = 0.760
	HemorrhagicShare = 0.042
	IschemicShare    = 1 - MimicShare - HemorrhagicShare
)

// DefaultDiscountRate is the continuously compounded annual rate.
const DefaultDiscountRate = 0.03

var hazardRatios = [mrs.NumStates]float64{
	mrs.GenPop: 1.0,
	mrs.MRS0:   1.53,
	mrs.MRS1:   1.52,
	mrs.MRS2:   2.17,
	mrs.MRS3:   3.18,
	mrs.MRS4:   4.55,
	mrs.MRS5:   6.55,
}

var utilities = [mrs.NumStates]float64{
	mrs.GenPop: 1.0,
	mrs.MRS0:   1.00,
	mrs.MRS1:   0.91,
	mrs.MRS2:   0.76,
	mrs.MRS3:   0.65,
	mrs.MRS4:   0.33,
	mrs.MRS5:   0.00,
}

// HazardRatio is the mortality multiplier of a living state.
func HazardRatio(s mrs.State) float64 { return hazardRatios[s] }

// Utility is the quality-of-life weight of a living state.
func Utility(s mrs.State) float64 { return utilities[s] }

// Params are the valuation inputs of a cohort run.
type Params struct {
	Costs     costs.Table
	DeathCost costs.DeathCostPolicy
	// Horizon truncates integration to this many years; 0 is lifetime.
	Horizon      int
	DiscountRate float64
}

// DefaultParams uses base-year costs, cumulative death costs and a
// lifetime horizon.
func DefaultParams() Params {
	return Params{Costs: costs.Default(), DeathCost: costs.Cumulative, DiscountRate: DefaultDiscountRate}
}

// Population is one mass layer per state, each draws x strategies.
type Population [mrs.NumStates]*mat.Dense

func (p Population) clone() Population {
	var out Population
	for s, layer := range p {
		out[s] = mat.DenseCopyOf(layer)
	}
	return out
}

// Mass totals every state layer.
func (p Population) Mass() *mat.Dense {
	r, c := p[0].Dims()
	total := mat.NewDense(r, c, nil)
	for _, layer := range p {
		total.Add(total, layer)
	}
	return total
}

// Cohort is the analysed Markov model for one patient.
type Cohort struct {
	Strategies []strategy.Strategy
	// QALYs and Costs are draws x strategies integrated totals.
	QALYs *mat.Dense
	Costs *mat.Dense

	states       []Population
	qalysPerYear []*mat.Dense
	costsPerYear []*mat.Dense
}

// Years is the number of recorded yearly state vectors, start age included.
func (c *Cohort) Years() int { return len(c.states) }

// StatesAt returns the population at the given year after the stroke. The
// layers must not be modified.
func (c *Cohort) StatesAt(year int) Population { return c.states[year] }

// Run initialises, ages and values the cohort.
func Run(p patient.Patient, o *outcome.Outcome, params Params) (*Cohort, error) {
	if o.Empty() {
		return nil, ErrEmptyOutcome
	}
	if params.Horizon < 0 {
		return nil, fmt.Errorf("negative horizon %d", params.Horizon)
	}

	c := &Cohort{Strategies: o.Strategies}
	initial, firstCosts := initialStates(p, o, params.Costs)
	c.states = age(p, initial)
	c.qalysPerYear = discountedQALYs(c.states, params.DiscountRate)
	c.costsPerYear = append([]*mat.Dense{firstCosts},
		discountedCosts(c.states, params.Costs, params.DeathCost, params.DiscountRate)...)
	c.QALYs = Simpson(c.qalysPerYear, params.Horizon)
	c.Costs = Simpson(c.costsPerYear, params.Horizon)

	log.Debug().
		Int("years", c.Years()).
		Int("strategies", len(c.Strategies)).
		Str("death_cost", params.DeathCost.String()).
		Msg("Cohort analysed")
	return c, nil
}

// initialStates splits the unit call population into mimic, hemorrhagic and
// ischemic strokes and returns the initial population with first-year costs.
// Hemorrhagic strokes are assumed to follow the ischemic mRS distribution.
func initialStates(p patient.Patient, o *outcome.Outcome, table costs.Table) (Population, *mat.Dense) {
	r, cols := o.Dims()
	sev := p.Severity()

	var ischemic, hemorrhagic, states Population
	for s := range states {
		ischemic[s] = mat.NewDense(r, cols, nil)
		hemorrhagic[s] = mat.NewDense(r, cols, nil)
		states[s] = mat.NewDense(r, cols, nil)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < cols; j++ {
			v := sev.Breakdown(o.PGood.At(i, j))
			for s, m := range v {
				ischemic[s].Set(i, j, m*IschemicShare)
				hemorrhagic[s].Set(i, j, m*HemorrhagicShare)
			}
		}
	}
	for s := range states {
		states[s].Add(ischemic[s], hemorrhagic[s])
	}
	states[mrs.GenPop].Apply(func(_, _ int, v float64) float64 { return v + MimicShare }, states[mrs.GenPop])

	first := mat.NewDense(r, cols, nil)
	var term mat.Dense
	for _, s := range mrs.Living {
		term.Scale(table.FirstYear(s, true), hemorrhagic[s])
		first.Add(first, &term)
		term.Scale(table.FirstYear(s, false), ischemic[s])
		first.Add(first, &term)
	}
	term.Add(hemorrhagic[mrs.Death], ischemic[mrs.Death])
	term.Scale(table.Death, &term)
	first.Add(first, &term)

	for _, proc := range []struct {
		cost float64
		p    *mat.Dense
	}{
		{table.IVT, o.PTPA},
		{table.EVT, o.PEVT},
		{table.Transfer, o.PTransfer},
	} {
		term.Scale(proc.cost*IschemicShare, proc.p)
		first.Add(first, &term)
	}
	return states, first
}

// age applies one year of state-specific mortality per year of age up to
// the end of the life table, recording the population after each year.
func age(p patient.Patient, initial Population) []Population {
	current := initial.clone()
	years := []Population{initial.clone()}
	var deaths mat.Dense
	for a := p.Age(); a < lifetable.EndAge; a++ {
		for _, s := range mrs.Living {
			pDead := lifetable.AdjustedMortality(p.Sex(), a, hazardRatios[s])
			deaths.Scale(pDead, current[s])
			current[s].Sub(current[s], &deaths)
			current[mrs.Death].Add(current[mrs.Death], &deaths)
		}
		years = append(years, current.clone())
	}
	return years
}

func discountedQALYs(states []Population, rate float64) []*mat.Dense {
	d := math.Exp(rate) - 1
	out := make([]*mat.Dense, len(states))
	var term mat.Dense
	for y, pop := range states {
		r, c := pop[0].Dims()
		q := mat.NewDense(r, c, nil)
		for _, s := range mrs.Living {
			term.Scale(utilities[s], pop[s])
			q.Add(q, &term)
		}
		q.Scale(1/math.Pow(1+d, float64(y)), q)
		out[y] = q
	}
	return out
}

// discountedCosts values every year after the first.
func discountedCosts(states []Population, table costs.Table, policy costs.DeathCostPolicy, rate float64) []*mat.Dense {
	d := math.Exp(rate) - 1
	out := make([]*mat.Dense, 0, len(states))
	var term mat.Dense
	for y := 1; y < len(states); y++ {
		pop := states[y]
		r, c := pop[0].Dims()
		cost := mat.NewDense(r, c, nil)
		for _, s := range mrs.Living {
			term.Scale(table.Annual[s], pop[s])
			cost.Add(cost, &term)
		}
		dead := pop[mrs.Death]
		if policy == costs.Incident {
			term.Sub(pop[mrs.Death], states[y-1][mrs.Death])
			dead = &term
		}
		var deathCost mat.Dense
		deathCost.Scale(table.Death, dead)
		cost.Add(cost, &deathCost)
		cost.Scale(1/math.Pow(1+d, float64(y)), cost)
		out = append(out, cost)
	}
	return out
}
