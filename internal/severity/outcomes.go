package severity

import (
	"math"

	"stroke-triage/internal/mrs"
)

// Untreated P(mRS 0-2) is quadratic in NIHSS up to its vertex and flat beyond.
const (
	untreatedIntercept = 0.8
	untreatedLinear    = -0.0468
	untreatedQuadratic = 0.00073
)

// Log odds ratio of thrombolysis benefit, linear in onset-to-needle minutes
// (fit to Lees et al. 2010 pooled estimates at 90, 180 and 270 minutes).
const (
	tpaLogOddsIntercept = 1.257
	tpaLogOddsSlope     = -0.00357
)

// 90-day mRS shares within the good (0-2) and bad (3-5) groups.
var (
	goodShares = [3]float64{0.33, 0.39, 0.28}
	badShares  = [3]float64{0.42, 0.41, 0.17}
)

// UntreatedGoodOutcome is P(mRS 0-2) without reperfusion therapy.
func UntreatedGoodOutcome(nihss float64) float64 {
	vertex := -untreatedLinear / (2 * untreatedQuadratic)
	n := math.Min(math.Max(nihss, 0), vertex)
	return untreatedIntercept + untreatedLinear*n + untreatedQuadratic*n*n
}

// ThrombolysisOddsRatio is the odds ratio of good outcome for thrombolysis
// at the given onset-to-needle minutes. It is 1 at or beyond the limit and
// for unknown (NaN) times.
func ThrombolysisOddsRatio(onsetToNeedle float64) float64 {
	if !Less(onsetToNeedle, TimeLimitThrombolysis) {
		return 1
	}
	t := math.Max(onsetToNeedle, 0)
	return math.Max(math.Exp(tpaLogOddsIntercept+tpaLogOddsSlope*t), 1)
}

func goodOutcomeThrombolysis(nihss, onsetToNeedle float64) float64 {
	baseline := UntreatedGoodOutcome(nihss)
	or := ThrombolysisOddsRatio(onsetToNeedle)
	if or == 1 {
		return baseline
	}
	odds := or * baseline / (1 - baseline)
	return odds / (1 + odds)
}

// Post-thrombectomy P(mRS 0-2) decays exponentially with onset-to-reperfusion
// minutes; ceiling and rate are linear in NIHSS. Placeholder coefficients:
// no published fit backs them yet.
// TODO: replace with a fit to pooled thrombectomy trial outcomes by time.
const (
	evtCeilingIntercept = 0.95
	evtCeilingSlope     = -0.02
	evtRateIntercept    = 0.00095
	evtRateSlope        = 0.00002
)

func goodOutcomeThrombectomy(nihss, onsetToReperfusion float64) float64 {
	ceiling := clamp(evtCeilingIntercept+evtCeilingSlope*nihss, 0.05, 0.95)
	rate := evtRateIntercept + evtRateSlope*nihss
	return ceiling * math.Exp(-rate*math.Max(onsetToReperfusion, 0))
}

// DeathShareOfPoor is the fraction of poor-outcome patients who die within
// 90 days.
func DeathShareOfPoor(nihss float64) float64 {
	return clamp(0.12+0.008*nihss, 0.05, 0.6)
}

func breakdown(nihss, pGood float64) mrs.Vector {
	var v mrs.Vector
	pPoor := 1 - pGood
	dead := DeathShareOfPoor(nihss)
	for i, share := range goodShares {
		v[mrs.MRS0+mrs.State(i)] = pGood * share
	}
	for i, share := range badShares {
		v[mrs.MRS3+mrs.State(i)] = pPoor * (1 - dead) * share
	}
	v[mrs.Death] = pPoor * dead
	return v
}

// Less is a NaN-safe strict comparison: NaN is never less than anything.
func Less(v, limit float64) bool {
	return !math.IsNaN(v) && v < limit
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
