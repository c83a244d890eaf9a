// Package sampling draws the per-run travel and in-hospital delays for a
// patient and turns them into onset-to-treatment times for every
// candidate strategy.
package sampling

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"stroke-triage/internal/center"
	"stroke-triage/internal/patient"
	"stroke-triage/internal/strategy"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidOptions is returned for unusable sampling options.
	ErrInvalidOptions = errors.New("invalid sampling options")
	// ErrUnknownDestination is returned when a primary center transfers to
	// a center missing from the hospital list.
	ErrUnknownDestination = errors.New("unknown transfer destination")
)

// Options controls the Monte-Carlo episode.
type Options struct {
	Draws              int
	AddTimeUncertainty bool
	AddLVOUncertainty  bool
	// FixPerformance places every center at the same percentile of its
	// delay distributions within a draw.
	FixPerformance bool
	TrustThreshold int
}

// DefaultOptions randomises both delays and LVO probability.
func DefaultOptions(draws int) Options {
	return Options{Draws: draws, AddTimeUncertainty: true, AddLVOUncertainty: true}
}

func (o Options) Validate() error {
	if o.Draws <= 0 {
		return fmt.Errorf("%w: draws must be positive, got %d", ErrInvalidOptions, o.Draws)
	}
	if o.FixPerformance && !o.AddTimeUncertainty {
		return fmt.Errorf("%w: fixed performance requires time uncertainty", ErrInvalidOptions)
	}
	if o.TrustThreshold < 0 {
		return fmt.Errorf("%w: negative trust threshold %d", ErrInvalidOptions, o.TrustThreshold)
	}
	return nil
}

// Family holds the treatment times of one strategy kind. Matrices are
// draws x len(Strategies); they are nil when the family is empty.
type Family struct {
	Strategies []strategy.Strategy
	Needle     *mat.Dense
	Puncture   *mat.Dense
}

// Len is the number of candidate strategies in the family.
func (f Family) Len() int { return len(f.Strategies) }

// Times is the immutable result of one sampling episode.
type Times struct {
	patient  patient.Patient
	draws    int
	pLVO     []float64
	families map[strategy.Kind]Family
	travel   map[string][]float64
}

func (t *Times) Patient() patient.Patient { return t.patient }
func (t *Times) Draws() int               { return t.draws }

// PLVO is P(LVO | AIS) per draw.
func (t *Times) PLVO() []float64 { return t.pLVO }

// Family returns the times for one strategy kind.
func (t *Times) Family(k strategy.Kind) Family { return t.families[k] }

// Strategies lists the candidates of a kind in column order.
func (t *Times) Strategies(k strategy.Kind) []strategy.Strategy {
	return t.families[k].Strategies
}

// Travel is the sampled travel time to centerID in the given draw.
func (t *Times) Travel(centerID string, draw int) float64 {
	return t.travel[centerID][draw]
}

// Sample draws delays for every center and builds treatment times for the
// candidates reachable from this location. Centers without a known travel
// time are not candidates, but their delays are still sampled so that one
// location's geography does not shift another center's draws.
func Sample(rng *rand.Rand, p patient.Patient, centers []center.Center, travel center.TravelTimes, opts Options) (*Times, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := center.ValidateLabels(centers); err != nil {
		return nil, err
	}
	n := opts.Draws

	var dtnPerf, dtpPerf []float64
	if opts.FixPerformance {
		dtnPerf = uniforms(rng, n)
		dtpPerf = uniforms(rng, n)
	}
	dtnOpts := center.SampleOptions{Uncertain: opts.AddTimeUncertainty, Performance: dtnPerf, TrustThreshold: opts.TrustThreshold}
	dtpOpts := center.SampleOptions{Uncertain: opts.AddTimeUncertainty, Performance: dtpPerf, TrustThreshold: opts.TrustThreshold}

	byID := make(map[string]center.Center, len(centers))
	dtn := make(map[string][]float64, len(centers))
	dtp := make(map[string][]float64)
	for _, c := range centers {
		byID[c.ID] = c
		d, err := c.DTN.Sample(rng, n, dtnOpts)
		if err != nil {
			return nil, fmt.Errorf("center %s: %w", c.ID, err)
		}
		dtn[c.ID] = d
		if c.Kind == center.Comprehensive {
			d, err := c.DTP.Sample(rng, n, dtpOpts)
			if err != nil {
				return nil, fmt.Errorf("center %s: %w", c.ID, err)
			}
			dtp[c.ID] = d
		}
	}

	t := &Times{
		patient:  p,
		draws:    n,
		families: make(map[strategy.Kind]Family, len(strategy.Kinds)),
		travel:   make(map[string][]float64),
	}

	var primaries, comprehensives []center.Center
	for _, c := range centers {
		tt, ok := travel[c.ID]
		if !ok || !tt.Known() {
			continue
		}
		t.travel[c.ID] = tt.Sample(rng, n)
		if c.Kind == center.Primary {
			primaries = append(primaries, c)
		} else {
			comprehensives = append(comprehensives, c)
		}
	}

	onset := p.TimeSinceSymptoms()

	prim := Family{}
	for _, c := range primaries {
		s, err := strategy.NewPrimaryOnly(c)
		if err != nil {
			return nil, err
		}
		prim.Strategies = append(prim.Strategies, s)
	}
	prim.Needle = build(n, primaries, func(i int, c center.Center) float64 {
		return onset + t.travel[c.ID][i] + dtn[c.ID][i]
	})
	t.families[strategy.PrimaryOnly] = prim

	comp := Family{}
	for _, c := range comprehensives {
		s, err := strategy.NewComprehensiveOnly(c)
		if err != nil {
			return nil, err
		}
		comp.Strategies = append(comp.Strategies, s)
	}
	comp.Needle = build(n, comprehensives, func(i int, c center.Center) float64 {
		return onset + t.travel[c.ID][i] + dtn[c.ID][i]
	})
	comp.Puncture = build(n, comprehensives, func(i int, c center.Center) float64 {
		return onset + t.travel[c.ID][i] + dtp[c.ID][i]
	})
	t.families[strategy.ComprehensiveOnly] = comp

	drip := Family{}
	var shippers []center.Center
	for _, c := range primaries {
		if c.Transfer == nil {
			continue
		}
		dest, ok := byID[c.Transfer.DestinationID]
		if !ok {
			return nil, fmt.Errorf("%w: center %s transfers to %s", ErrUnknownDestination, c.ID, c.Transfer.DestinationID)
		}
		s, err := strategy.NewDripAndShip(c, dest)
		if err != nil {
			return nil, err
		}
		drip.Strategies = append(drip.Strategies, s)
		shippers = append(shippers, c)
	}
	drip.Needle = build(n, shippers, func(i int, c center.Center) float64 {
		return onset + t.travel[c.ID][i] + dtn[c.ID][i]
	})
	// The destination's door-to-puncture is shortened by the primary's
	// door-to-needle, which cancels the primary DTN out of the total.
	drip.Puncture = build(n, shippers, func(i int, c center.Center) float64 {
		dest := c.Transfer.DestinationID
		toPuncture := dtp[dest][i] - dtn[c.ID][i]
		return onset + t.travel[c.ID][i] + dtn[c.ID][i] + c.Transfer.Minutes + toPuncture
	})
	t.families[strategy.DripAndShip] = drip

	t.pLVO = p.Severity().LVOProbability(rng, n, opts.AddLVOUncertainty)
	return t, nil
}

func build(n int, centers []center.Center, at func(draw int, c center.Center) float64) *mat.Dense {
	if len(centers) == 0 {
		return nil
	}
	m := mat.NewDense(n, len(centers), nil)
	for j, c := range centers {
		for i := 0; i < n; i++ {
			m.Set(i, j, at(i, c))
		}
	}
	return m
}

func uniforms(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()
	}
	return out
}
