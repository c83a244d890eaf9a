// Package triage runs the full cost-effectiveness pipeline for one patient
// at one location: delay sampling, 90-day outcomes, the lifetime cohort and
// the per-draw frontier.
package triage

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"stroke-triage/internal/center"
	"stroke-triage/internal/cohort"
	"stroke-triage/internal/costs"
	"stroke-triage/internal/frontier"
	"stroke-triage/internal/outcome"
	"stroke-triage/internal/patient"
	"stroke-triage/internal/sampling"
	"stroke-triage/internal/stats"

	"github.com/rs/zerolog/log"
)

// ErrNoCandidates is returned when no center is reachable from the
// patient's location.
var ErrNoCandidates = errors.New("no reachable candidate centers")

const (
	// ConvergenceTolerance is the largest change in any destination share
	// between passes at which a converged run stops.
	ConvergenceTolerance = 0.01
	// MaxPasses caps the number of doubling passes.
	MaxPasses = 20
	// DefaultTargetCostYear is the currency year costs are reported in.
	DefaultTargetCostYear = 2016
)

// Params are the model inputs shared by every run of a Model.
type Params struct {
	Threshold float64
	// Sampling.Draws is overwritten by the draw count of each run.
	Sampling       sampling.Options
	Cohort         cohort.Params
	BaseYears      costs.BaseYears
	TargetCostYear int
}

// DefaultParams randomises delays and LVO probability and reports costs
// in 2016 dollars at a 100,000 per QALY threshold.
func DefaultParams() Params {
	return Params{
		Threshold:      frontier.DefaultThreshold,
		Sampling:       sampling.DefaultOptions(1),
		Cohort:         cohort.DefaultParams(),
		BaseYears:      costs.DefaultBaseYears(),
		TargetCostYear: DefaultTargetCostYear,
	}
}

// Model is one patient at one location.
type Model struct {
	Patient patient.Patient
	Centers []center.Center
	Travel  center.TravelTimes
	Params  Params
}

// NewModel binds a patient to the hospital network as seen from one
// location.
func NewModel(p patient.Patient, centers []center.Center, travel center.TravelTimes, params Params) *Model {
	return &Model{Patient: p, Centers: centers, Travel: travel, Params: params}
}

// Primaries lists the primary centers of the network.
func (m *Model) Primaries() []center.Center { return m.byKind(center.Primary) }

// Comprehensives lists the comprehensive centers of the network.
func (m *Model) Comprehensives() []center.Center { return m.byKind(center.Comprehensive) }

func (m *Model) byKind(k center.Kind) []center.Center {
	var out []center.Center
	for _, c := range m.Centers {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// Run performs one Monte-Carlo episode of the given number of draws.
func (m *Model) Run(ctx context.Context, rng *rand.Rand, draws int) (*frontier.Results, *cohort.Cohort, *sampling.Times, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	params := m.Params.Cohort
	if m.Params.TargetCostYear != 0 {
		table, err := costs.Inflate(m.Params.BaseYears, m.Params.TargetCostYear, params.Costs)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("inflate costs: %w", err)
		}
		params.Costs = table
	}

	opts := m.Params.Sampling
	opts.Draws = draws
	times, err := sampling.Sample(rng, m.Patient, m.Centers, m.Travel, opts)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("sample times: %w", err)
	}

	out := outcome.NewEngine(times).RunAllStrategies()
	if out.Empty() {
		return nil, nil, nil, ErrNoCandidates
	}

	c, err := cohort.Run(m.Patient, out, params)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cohort: %w", err)
	}

	res, err := frontier.Tabulate(c.QALYs, c.Costs, c.Strategies, times, m.Params.Threshold)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("frontier: %w", err)
	}

	log.Debug().
		Str("patient", m.Patient.ID()).
		Int("draws", draws).
		Int("strategies", len(c.Strategies)).
		Int("infeasible", res.Infeasible).
		Msg("Triage run complete")
	return res, c, times, nil
}

// RunUntilConverged starts at half of start draws and doubles the count
// each pass until no destination share moves by ConvergenceTolerance or
// more, or MaxPasses is reached. It returns the last pass.
func (m *Model) RunUntilConverged(ctx context.Context, rng *rand.Rand, start int) (*frontier.Results, error) {
	n := max(start/2, 1)

	var prev map[string]float64
	var res *frontier.Results
	for pass := 1; pass <= MaxPasses; pass++ {
		var err error
		res, _, _, err = m.Run(ctx, rng, n)
		if err != nil {
			return nil, err
		}
		cur := res.PercentagesByCenter()
		if prev != nil {
			diff := stats.MaxAbsDiff(prev, cur)
			log.Debug().Int("pass", pass).Int("draws", n).Float64("diff", diff).Msg("Convergence pass")
			if diff < ConvergenceTolerance {
				return res, nil
			}
		}
		prev = cur
		n *= 2
	}

	log.Warn().
		Str("patient", m.Patient.ID()).
		Int("passes", MaxPasses).
		Int("draws", res.Draws).
		Msg("Destination shares did not converge")
	return res, nil
}
