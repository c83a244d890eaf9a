package center

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// TimeDistribution describes an in-hospital delay in minutes by its
// quartiles, optionally backed by institution-specific observations.
type TimeDistribution struct {
	FirstQuartile float64
	Median        float64
	ThirdQuartile float64
	Samples       []float64
}

// Published national delay distributions used when a center reports none.
var (
	DefaultPrimaryDTN       = TimeDistribution{FirstQuartile: 47, Median: 61, ThirdQuartile: 83}
	DefaultComprehensiveDTN = TimeDistribution{FirstQuartile: 39, Median: 52, ThirdQuartile: 70}
	DefaultDTP              = TimeDistribution{FirstQuartile: 83, Median: 145, ThirdQuartile: 192}
)

// Validate checks that the quartiles are finite and ordered.
func (d TimeDistribution) Validate() error {
	for _, v := range []float64{d.FirstQuartile, d.Median, d.ThirdQuartile} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: quartile %v", ErrInvalidCenter, v)
		}
	}
	if d.FirstQuartile > d.Median || d.Median > d.ThirdQuartile {
		return fmt.Errorf("%w: quartiles %v/%v/%v out of order", ErrInvalidCenter,
			d.FirstQuartile, d.Median, d.ThirdQuartile)
	}
	return nil
}

// SampleOptions controls how a distribution is drawn.
type SampleOptions struct {
	// Uncertain draws from the distribution; otherwise every draw is the median.
	Uncertain bool
	// Performance, when set, holds one percentile in [0,1] per draw that
	// places the draw between the quartiles instead of a fresh uniform.
	Performance []float64
	// TrustThreshold is the sample count at which institution observations
	// fully replace the quartile model.
	TrustThreshold int
}

// Sample returns n delay draws.
func (d TimeDistribution) Sample(rng *rand.Rand, n int, opts SampleOptions) ([]float64, error) {
	if !opts.Uncertain && opts.Performance != nil {
		return nil, fmt.Errorf("fixed performance requires time uncertainty")
	}
	if opts.Performance != nil && len(opts.Performance) != n {
		return nil, fmt.Errorf("have %d performance levels for %d draws", len(opts.Performance), n)
	}

	out := make([]float64, n)
	if !opts.Uncertain {
		for i := range out {
			out[i] = d.Median
		}
		return out, nil
	}

	lo, hi := d.FirstQuartile, d.ThirdQuartile
	if opts.Performance != nil {
		for i, p := range opts.Performance {
			out[i] = lo + p*(hi-lo)
		}
		return out, nil
	}

	empirical := d.empiricalWeight(opts.TrustThreshold)
	for i := range out {
		if empirical > 0 && rng.Float64() < empirical {
			out[i] = d.Samples[rng.IntN(len(d.Samples))]
			continue
		}
		out[i] = lo + (hi-lo)*rng.Float64()
	}
	return out, nil
}

// empiricalWeight is the share of draws taken from observations.
func (d TimeDistribution) empiricalWeight(trust int) float64 {
	if len(d.Samples) == 0 {
		return 0
	}
	if trust <= 0 {
		return 1
	}
	return math.Min(1, float64(len(d.Samples))/float64(trust))
}

// RandomPrimaryDTN draws a plausible primary-center door-to-needle profile.
func RandomPrimaryDTN(rng *rand.Rand) TimeDistribution {
	return randomDistribution(rng, 47, 83, 37, 93)
}

// RandomComprehensiveDTN draws a plausible comprehensive-center
// door-to-needle profile.
func RandomComprehensiveDTN(rng *rand.Rand) TimeDistribution {
	return randomDistribution(rng, 39, 70, 29, 80)
}

// RandomDTP draws a plausible door-to-puncture profile.
func RandomDTP(rng *rand.Rand) TimeDistribution {
	return randomDistribution(rng, 83, 192, 63, 212)
}

func randomDistribution(rng *rand.Rand, medLo, medHi, floor, ceil float64) TimeDistribution {
	med := medLo + (medHi-medLo)*rng.Float64()
	first := floor + (med-floor)*rng.Float64()
	third := med + (ceil-med)*rng.Float64()
	return TimeDistribution{FirstQuartile: first, Median: med, ThirdQuartile: third}
}
