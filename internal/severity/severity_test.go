package severity

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestNewRACE_Validation(t *testing.T) {
	tests := []struct {
		name    string
		score   float64
		wantErr bool
	}{
		{"Zero", 0, false},
		{"Max", 9, false},
		{"Fractional", 4.5, false},
		{"Negative", -1, true},
		{"AboveMax", 9.01, true},
		{"NaN", math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRACE(tt.score)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSeverityScore) {
					t.Errorf("Expected ErrInvalidSeverityScore, got %v", err)
				}
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestNewNIHSS_Validation(t *testing.T) {
	for _, score := range []float64{0, 1, 21, 42} {
		if _, err := NewNIHSS(score); err != nil {
			t.Errorf("Expected NIHSS %v to be valid, got %v", score, err)
		}
	}
	for _, score := range []float64{-0.5, 43} {
		if _, err := NewNIHSS(score); !errors.Is(err, ErrInvalidSeverityScore) {
			t.Errorf("Expected NIHSS %v to be rejected, got %v", score, err)
		}
	}
}

func TestRACE_NIHSS_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	prev := -1.0
	for race := 0.0; race <= 9; race++ {
		r, _ := NewRACE(race)
		n, err := NewNIHSS(r.EquivalentNIHSS())
		if err != nil {
			t.Fatalf("RACE %v: unexpected error %v", race, err)
		}

		pRACE := r.LVOProbability(rng, 1, false)[0]
		pNIHSS := n.LVOProbability(rng, 1, false)[0]
		if !scalar.EqualWithinAbs(pRACE, pNIHSS, 1e-9) {
			t.Errorf("RACE %v: expected LVO %v after round trip, got %v", race, pRACE, pNIHSS)
		}
		if pNIHSS <= prev {
			t.Errorf("RACE %v: LVO probability %v not increasing (prev %v)", race, pNIHSS, prev)
		}
		prev = pNIHSS
	}
}

func TestNIHSS_CapsEquivalentRACE(t *testing.T) {
	n, err := NewNIHSS(42)
	if err != nil {
		t.Fatal(err)
	}
	if n.EquivalentRACE().Score() != 9 {
		t.Errorf("Expected equivalent RACE capped at 9, got %v", n.EquivalentRACE().Score())
	}
}

func TestLVOProbability_Uncertainty(t *testing.T) {
	r, _ := NewRACE(5)
	rng := rand.New(rand.NewPCG(7, 7))

	fixed := r.LVOProbability(rng, 10, false)
	for _, p := range fixed {
		if p != fixed[0] {
			t.Fatalf("Expected identical draws without uncertainty, got %v", fixed)
		}
	}

	lower := logistic(-3.6526, 0.4141, 5)
	upper := logistic(-2.2067, 0.6925, 5)
	draws := r.LVOProbability(rng, 500, true)
	for _, p := range draws {
		if p < lower || p > upper {
			t.Errorf("Expected draw within [%v, %v], got %v", lower, upper, p)
		}
	}
}

func TestGoodOutcomeGivenThrombolysis_TimeLimit(t *testing.T) {
	r, _ := NewRACE(5)
	baseline := UntreatedGoodOutcome(r.EquivalentNIHSS())

	if got := r.GoodOutcomeGivenThrombolysis(TimeLimitThrombolysis); got != baseline {
		t.Errorf("Expected no benefit at exactly %v minutes, got %v (baseline %v)", TimeLimitThrombolysis, got, baseline)
	}
	if got := r.GoodOutcomeGivenThrombolysis(math.NaN()); got != baseline {
		t.Errorf("Expected baseline for NaN time, got %v", got)
	}
	if got := r.GoodOutcomeGivenThrombolysis(TimeLimitThrombolysis - 1); got <= baseline {
		t.Errorf("Expected benefit just before the limit, got %v (baseline %v)", got, baseline)
	}

	early := r.GoodOutcomeGivenThrombolysis(60)
	late := r.GoodOutcomeGivenThrombolysis(200)
	if early <= late {
		t.Errorf("Expected earlier thrombolysis to be better: 60min=%v 200min=%v", early, late)
	}
}

func TestGoodOutcomeGivenThrombectomy_Decay(t *testing.T) {
	n, _ := NewNIHSS(17)
	prev := math.Inf(1)
	for _, minutes := range []float64{0, 60, 120, 240, 360} {
		p := n.GoodOutcomeGivenThrombectomy(minutes)
		if p <= 0 || p >= 1 {
			t.Errorf("Expected probability in (0,1) at %v minutes, got %v", minutes, p)
		}
		if p >= prev {
			t.Errorf("Expected decay with time, got %v after %v", p, prev)
		}
		prev = p
	}
	if !math.IsNaN(n.GoodOutcomeGivenThrombectomy(math.NaN())) {
		t.Error("Expected NaN for unknown reperfusion time")
	}
}

func TestGoodOutcomeGivenThrombectomy_Ceiling(t *testing.T) {
	tests := []struct {
		nihss float64
		want  float64
	}{
		{0, 0.95},
		{17, 0.61},
		{42, 0.11},
	}
	for _, tt := range tests {
		n, _ := NewNIHSS(tt.nihss)
		if got := n.GoodOutcomeGivenThrombectomy(0); !scalar.EqualWithinAbs(got, tt.want, 1e-12) {
			t.Errorf("NIHSS %v: expected immediate reperfusion ceiling %v, got %v", tt.nihss, tt.want, got)
		}
	}
}

func TestBreakdown_ConservesMass(t *testing.T) {
	r, _ := NewRACE(7)
	for _, pGood := range []float64{0, 0.25, 0.5, 0.99, 1} {
		v := r.Breakdown(pGood)
		if !scalar.EqualWithinAbs(v.Sum(), 1, 1e-12) {
			t.Errorf("p_good=%v: expected mass 1, got %v", pGood, v.Sum())
		}
		good := v[1] + v[2] + v[3]
		if !scalar.EqualWithinAbs(good, pGood, 1e-12) {
			t.Errorf("p_good=%v: expected mRS 0-2 mass %v, got %v", pGood, pGood, good)
		}
		if v[0] != 0 {
			t.Errorf("Expected no general-population mass from a stroke, got %v", v[0])
		}
	}
}

func TestLess_NaNSafe(t *testing.T) {
	if Less(math.NaN(), 10) {
		t.Error("Expected NaN < 10 to be false")
	}
	if Less(270, 270) {
		t.Error("Expected strict comparison at the limit")
	}
	if !Less(269.9, 270) {
		t.Error("Expected 269.9 < 270")
	}
}
