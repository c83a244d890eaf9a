package patient

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Fixed pins attributes of a randomly generated patient. Nil fields are
// drawn at random. RACE takes precedence over NIHSS when both are set.
type Fixed struct {
	Sex   *Sex
	Age   *int
	RACE  *float64
	NIHSS *float64
	Onset *float64
}

// Random draws a patient the way the single-scenario runs do: either sex,
// age 30-84, RACE 0-8 and 10-100 minutes since onset.
func Random(rng *rand.Rand, id string, fixed Fixed) (Patient, error) {
	sex := Sex(rng.IntN(2))
	if fixed.Sex != nil {
		sex = *fixed.Sex
	}

	age := 30 + rng.IntN(55)
	if fixed.Age != nil {
		age = *fixed.Age
	}

	onset := 10 + 90*rng.Float64()
	if fixed.Onset != nil {
		onset = *fixed.Onset
	}

	switch {
	case fixed.RACE != nil:
		return WithRACE(id, sex, age, onset, *fixed.RACE)
	case fixed.NIHSS != nil:
		return WithNIHSS(id, sex, age, onset, *fixed.NIHSS)
	}
	return WithRACE(id, sex, age, onset, float64(rng.IntN(9)))
}

// Registry-derived population parameters.
const (
	ageMedian   = 74.0
	ageQ1       = 61.0
	ageQ3       = 82.0
	femaleShare = 0.54

	nihssSkew  = 5.0
	nihssLoc   = -3.2
	nihssScale = 8 * 1.73

	onsetMedian = 164.0
	onsetQ1     = 65.0
	onsetQ3     = 475.0

	// z-score of the upper quartile of a standard normal.
	quartileZ = 0.6745
)

// FromPopulation draws a patient from the registry-shaped population used
// to build patient profile files: normal age, right-skewed NIHSS, 54%
// female and a four-piece uniform mixture for time since onset.
func FromPopulation(rng *rand.Rand, id string) (Patient, error) {
	ageStd := ((ageMedian - ageQ1) + (ageQ3 - ageMedian)) / 2 / quartileZ
	age := int(math.Round(math.Min(ageMedian+ageStd*rng.NormFloat64(), 99)))
	age = max(age, 0)

	sex := Male
	if rng.Float64() < femaleShare {
		sex = Female
	}

	nihss := math.Round(clamp(skewNormal(rng, nihssSkew, nihssLoc, nihssScale), 0, 42))

	var onset float64
	switch rng.IntN(4) {
	case 0:
		onset = uniform(rng, 0, onsetQ1)
	case 1:
		onset = uniform(rng, onsetQ1, onsetMedian)
	case 2:
		onset = uniform(rng, onsetMedian, onsetQ3)
	default:
		onset = uniform(rng, onsetQ3, onsetQ3+1.5*(onsetQ3-onsetQ1))
	}

	p, err := WithNIHSS(id, sex, age, math.Round(onset), nihss)
	if err != nil {
		return Patient{}, fmt.Errorf("population draw: %w", err)
	}
	return p, nil
}

// skewNormal samples Azzalini's skew-normal with shape a.
func skewNormal(rng *rand.Rand, a, loc, scale float64) float64 {
	delta := a / math.Sqrt(1+a*a)
	u0 := rng.NormFloat64()
	u1 := rng.NormFloat64()
	z := delta*math.Abs(u0) + math.Sqrt(1-delta*delta)*u1
	return loc + scale*z
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
