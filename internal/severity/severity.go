// Package severity converts a stroke-severity score into the probabilities
// the outcome model consumes: large-vessel occlusion, good functional
// outcome after thrombolysis, good outcome after successful thrombectomy,
// and the 90-day modified Rankin Scale distribution.
package severity

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"stroke-triage/internal/mrs"
)

// ErrInvalidSeverityScore is returned when a score lies outside its scale.
var ErrInvalidSeverityScore = errors.New("invalid severity score")

const (
	// TimeLimitThrombolysis is the onset-to-needle limit in minutes. Only
	// strictly earlier treatment improves on the untreated baseline.
	TimeLimitThrombolysis = 270.0
	// TimeLimitThrombectomy is the onset-to-puncture limit in minutes.
	TimeLimitThrombectomy = 360.0
	// ReperfusionProbability is the chance endovascular therapy reperfuses.
	ReperfusionProbability = 0.71

	maxRACE  = 9.0
	maxNIHSS = 42.0
)

// Severity is the capability shared by every severity scale.
type Severity interface {
	// Scale names the clinical scale, "RACE" or "NIHSS".
	Scale() string
	// Score is the raw score on its own scale.
	Score() float64
	// EquivalentNIHSS maps the score onto the NIHSS scale.
	EquivalentNIHSS() float64
	// LVOProbability returns n draws of P(LVO | AIS). Without uncertainty
	// every draw is the point estimate.
	LVOProbability(rng *rand.Rand, n int, uncertain bool) []float64
	// GoodOutcomeGivenThrombolysis is P(mRS 0-2) for thrombolysis alone at
	// the given onset-to-needle minutes.
	GoodOutcomeGivenThrombolysis(onsetToNeedle float64) float64
	// GoodOutcomeGivenThrombectomy is P(mRS 0-2) after successful
	// reperfusion at the given onset-to-reperfusion minutes.
	GoodOutcomeGivenThrombectomy(onsetToReperfusion float64) float64
	// Breakdown splits a cohort with the given P(good outcome) across the
	// disability states.
	Breakdown(pGood float64) mrs.Vector
}

// RACE is severity on the Rapid Arterial oCclusion Evaluation scale.
type RACE struct {
	score float64
}

// NewRACE validates a RACE score in [0, 9].
func NewRACE(score float64) (RACE, error) {
	if math.IsNaN(score) || score < 0 || score > maxRACE {
		return RACE{}, fmt.Errorf("%w: RACE %v not in [0, %v]", ErrInvalidSeverityScore, score, maxRACE)
	}
	return RACE{score: score}, nil
}

func (r RACE) Scale() string  { return "RACE" }
func (r RACE) Score() float64 { return r.score }

// EquivalentNIHSS follows Perez de la Ossa et al. 2014.
func (r RACE) EquivalentNIHSS() float64 {
	return RACEToNIHSS(r.score)
}

// LVOProbability uses the Perez de la Ossa logistic fit. With uncertainty
// each draw is uniform between the lower and upper fitted curves.
func (r RACE) LVOProbability(rng *rand.Rand, n int, uncertain bool) []float64 {
	out := make([]float64, n)
	if !uncertain {
		p := logistic(-2.9297, 0.5533, r.score)
		for i := range out {
			out[i] = p
		}
		return out
	}
	lower := logistic(-3.6526, 0.4141, r.score)
	upper := logistic(-2.2067, 0.6925, r.score)
	for i := range out {
		out[i] = lower + (upper-lower)*rng.Float64()
	}
	return out
}

func (r RACE) GoodOutcomeGivenThrombolysis(t float64) float64 {
	return goodOutcomeThrombolysis(r.EquivalentNIHSS(), t)
}

func (r RACE) GoodOutcomeGivenThrombectomy(t float64) float64 {
	return goodOutcomeThrombectomy(r.EquivalentNIHSS(), t)
}

func (r RACE) Breakdown(pGood float64) mrs.Vector {
	return breakdown(r.EquivalentNIHSS(), pGood)
}

// NIHSS is severity on the National Institutes of Health Stroke Scale. LVO
// probability is computed through the equivalent RACE score.
type NIHSS struct {
	score float64
	race  RACE
}

// NewNIHSS validates an NIHSS score in [0, 42].
func NewNIHSS(score float64) (NIHSS, error) {
	if math.IsNaN(score) || score < 0 || score > maxNIHSS {
		return NIHSS{}, fmt.Errorf("%w: NIHSS %v not in [0, %v]", ErrInvalidSeverityScore, score, maxNIHSS)
	}
	race, err := NewRACE(NIHSSToRACE(score))
	if err != nil {
		return NIHSS{}, err
	}
	return NIHSS{score: score, race: race}, nil
}

func (n NIHSS) Scale() string            { return "NIHSS" }
func (n NIHSS) Score() float64           { return n.score }
func (n NIHSS) EquivalentNIHSS() float64 { return n.score }

// EquivalentRACE is the RACE score this NIHSS converts to.
func (n NIHSS) EquivalentRACE() RACE { return n.race }

func (n NIHSS) LVOProbability(rng *rand.Rand, draws int, uncertain bool) []float64 {
	return n.race.LVOProbability(rng, draws, uncertain)
}

func (n NIHSS) GoodOutcomeGivenThrombolysis(t float64) float64 {
	return goodOutcomeThrombolysis(n.score, t)
}

func (n NIHSS) GoodOutcomeGivenThrombectomy(t float64) float64 {
	return goodOutcomeThrombectomy(n.score, t)
}

func (n NIHSS) Breakdown(pGood float64) mrs.Vector {
	return breakdown(n.score, pGood)
}

// RACEToNIHSS is the Schlemm linear relation; RACE 0 maps to NIHSS 1.
func RACEToNIHSS(race float64) float64 {
	if race == 0 {
		return 1
	}
	return -0.39 + 2.39*race
}

// NIHSSToRACE inverts RACEToNIHSS. NIHSS <= 1 maps to RACE 0 and the result
// is capped at the top of the RACE scale.
func NIHSSToRACE(nihss float64) float64 {
	if nihss <= 1 {
		return 0
	}
	return math.Min((nihss+0.39)/2.39, maxRACE)
}

func logistic(b0, b1, x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-b0-b1*x))
}
