package costs

import (
	"errors"
	"fmt"
)

// ErrUnknownYear is returned for years outside the price index.
var ErrUnknownYear = errors.New("year not covered by price index")

const firstIndexYear = 2000

// Annual average US CPI-U, medical care (BLS CUUR0000SAM), 2000 onwards.
var medicalCPI = []float64{
	260.8, 272.8, 285.6, 297.1, 310.1, 323.2, 336.2, 351.1, 364.1, 375.6,
	388.4, 400.3, 414.9, 425.1, 435.3, 446.8, 463.7, 475.3, 484.7, 498.4,
	518.9, 525.3, 546.6, 550.4,
}

// LastIndexYear is the most recent year with an index value.
const LastIndexYear = firstIndexYear + 23

func index(year int) (float64, error) {
	i := year - firstIndexYear
	if i < 0 || i >= len(medicalCPI) {
		return 0, fmt.Errorf("%w: %d (have %d-%d)", ErrUnknownYear, year, firstIndexYear, LastIndexYear)
	}
	return medicalCPI[i], nil
}

// Factor is the multiplier taking a cost from year from to year to.
func Factor(from, to int) (float64, error) {
	a, err := index(from)
	if err != nil {
		return 0, err
	}
	b, err := index(to)
	if err != nil {
		return 0, err
	}
	return b / a, nil
}

// Convert moves amount from year from to year to.
func Convert(from, to int, amount float64) (float64, error) {
	f, err := Factor(from, to)
	if err != nil {
		return 0, err
	}
	return amount * f, nil
}
