package outcome

import (
	"math"

	"stroke-triage/internal/sampling"
	"stroke-triage/internal/severity"
	"stroke-triage/internal/strategy"

	"gonum.org/v1/gonum/mat"
)

// Engine evaluates one sampling episode.
type Engine struct {
	sev   severity.Severity
	times *sampling.Times
}

func NewEngine(times *sampling.Times) *Engine {
	return &Engine{sev: times.Patient().Severity(), times: times}
}

// RunAllStrategies concatenates primaries, drip-and-ship and
// comprehensives, in that order.
func (e *Engine) RunAllStrategies() *Outcome {
	return Concat(e.RunPrimaries(), e.RunDripAndShip(), e.RunComprehensives())
}

// RunPrimaries evaluates thrombolysis at each primary center. Thrombolysis
// is always given by definition of the strategy.
func (e *Engine) RunPrimaries() *Outcome {
	f := e.times.Family(strategy.PrimaryOnly)
	if f.Len() == 0 {
		return &Outcome{}
	}
	r, c := f.Needle.Dims()

	var pGood mat.Dense
	pGood.Apply(func(_, _ int, t float64) float64 {
		return e.sev.GoodOutcomeGivenThrombolysis(t)
	}, f.Needle)

	return &Outcome{
		PGood:      &pGood,
		PTPA:       filled(r, c, 1),
		PEVT:       filled(r, c, 0),
		PTransfer:  filled(r, c, 0),
		Strategies: f.Strategies,
	}
}

// RunComprehensives evaluates direct transport to each comprehensive center.
func (e *Engine) RunComprehensives() *Outcome {
	f := e.times.Family(strategy.ComprehensiveOnly)
	if f.Len() == 0 {
		return &Outcome{}
	}
	r, c := f.Needle.Dims()

	return &Outcome{
		PGood:      e.goodWithThrombectomy(f.Needle, f.Puncture),
		PTPA:       lessThan(f.Needle, severity.TimeLimitThrombolysis),
		PEVT:       e.evtProbability(f.Puncture),
		PTransfer:  filled(r, c, 0),
		Strategies: f.Strategies,
	}
}

// RunDripAndShip evaluates thrombolysis at a primary center followed by
// transfer. When thrombectomy is no longer possible after the transfer the
// strategy is not a coherent choice and p_good is NaN for that draw.
func (e *Engine) RunDripAndShip() *Outcome {
	f := e.times.Family(strategy.DripAndShip)
	if f.Len() == 0 {
		return &Outcome{}
	}
	r, c := f.Needle.Dims()

	pGood := e.goodWithThrombectomy(f.Needle, f.Puncture)
	pGood.Apply(func(i, j int, v float64) float64 {
		if !severity.Less(f.Puncture.At(i, j), severity.TimeLimitThrombectomy) {
			return math.NaN()
		}
		return v
	}, pGood)

	return &Outcome{
		PGood:      pGood,
		PTPA:       lessThan(f.Needle, severity.TimeLimitThrombolysis),
		PEVT:       e.evtProbability(f.Puncture),
		PTransfer:  filled(r, c, 1),
		Strategies: f.Strategies,
	}
}

// goodWithThrombectomy blends successful reperfusion with the
// thrombolysis-only baseline, weighted by P(LVO) x P(reperfusion). A
// reperfused patient never does worse than baseline.
func (e *Engine) goodWithThrombectomy(needle, puncture *mat.Dense) *mat.Dense {
	pLVO := e.times.PLVO()
	var out mat.Dense
	out.Apply(func(i, j int, tNeedle float64) float64 {
		baseline := e.sev.GoodOutcomeGivenThrombolysis(tNeedle)
		tPuncture := puncture.At(i, j)
		post := baseline
		if severity.Less(tPuncture, severity.TimeLimitThrombectomy) {
			post = e.sev.GoodOutcomeGivenThrombectomy(tPuncture)
		}
		reperfused := pLVO[i] * severity.ReperfusionProbability
		return math.Max(post, baseline)*reperfused + baseline*(1-reperfused)
	}, needle)
	return &out
}

// evtProbability is P(LVO) where puncture is within the limit, else 0.
func (e *Engine) evtProbability(puncture *mat.Dense) *mat.Dense {
	pLVO := e.times.PLVO()
	var out mat.Dense
	out.Apply(func(i, _ int, t float64) float64 {
		if severity.Less(t, severity.TimeLimitThrombectomy) {
			return pLVO[i]
		}
		return 0
	}, puncture)
	return &out
}

// lessThan is the NaN-safe mask m < limit as 1/0.
func lessThan(m *mat.Dense, limit float64) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		if severity.Less(v, limit) {
			return 1
		}
		return 0
	}, m)
	return &out
}
