package center

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

// TravelTime is the drive time in minutes from a location to a center,
// either a single value or a [Min, Max] range.
type TravelTime struct {
	Min float64
	Max float64
}

// TravelTimes maps center ids to travel times for one location.
type TravelTimes map[string]TravelTime

// FixedTravel is a travel time without range.
func FixedTravel(minutes float64) TravelTime {
	return TravelTime{Min: minutes, Max: minutes}
}

// Unknown is a center with no usable travel time.
func Unknown() TravelTime {
	return TravelTime{Min: math.NaN(), Max: math.NaN()}
}

// Known reports whether the center is reachable.
func (t TravelTime) Known() bool {
	return !math.IsNaN(t.Min) && !math.IsNaN(t.Max)
}

// Sample returns n draws. A range is two-point uniform: each draw is
// either Min or Max with equal probability.
func (t TravelTime) Sample(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if t.Min == t.Max || rng.IntN(2) == 0 {
			out[i] = t.Min
		} else {
			out[i] = t.Max
		}
	}
	return out
}

func (t TravelTime) String() string {
	if t.Min == t.Max {
		return strconv.FormatFloat(t.Min, 'g', -1, 64)
	}
	return fmt.Sprintf("[%g, %g]", t.Min, t.Max)
}

// ParseTravelTime reads a travel-time cell: a number, "[min, max]", or
// blank / non-numeric for an unreachable center.
func ParseTravelTime(cell string) TravelTime {
	s := strings.TrimSpace(cell)
	if s == "" {
		return Unknown()
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		parts := strings.Split(strings.Trim(s, "[]"), ",")
		if len(parts) != 2 {
			return Unknown()
		}
		lo, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		hi, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return Unknown()
		}
		return TravelTime{Min: math.Min(lo, hi), Max: math.Max(lo, hi)}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Unknown()
	}
	return FixedTravel(v)
}
