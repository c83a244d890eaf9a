// Package costs holds the stroke cost table, its base years and the
// inflation adjustment onto a common target year.
package costs

import (
	"fmt"
	"strings"

	"stroke-triage/internal/mrs"
)

// ByState is a cost per disability state. The death entry is unused; the
// one-time death cost lives in Table.Death.
type ByState [mrs.NumStates]float64

// Table is an immutable set of cost inputs in a single currency year.
type Table struct {
	Ischemic90 ByState // first 90 days after ischemic stroke
	ICH90      ByState // first 90 days after intracerebral hemorrhage
	Annual     ByState // per year after the first 90 days
	Death      float64
	IVT        float64
	EVT        float64
	Transfer   float64
}

// BaseYears records the currency year of each cost group.
type BaseYears struct {
	Ischemic int
	ICH      int
	Annual   int
	Death    int
	IVT      int
	EVT      int
	Transfer int
}

// DefaultBaseYears are the publication years of Default().
func DefaultBaseYears() BaseYears {
	return BaseYears{
		Ischemic: 2014, // Dewilde
		ICH:      2008, // Christensen
		Annual:   2014, // Dewilde
		Death:    2008, // Christensen
		IVT:      2014, // Sevick
		EVT:      2014, // Kleindorfer
		Transfer: 2010, // Mohr
	}
}

// UniformBaseYears marks every cost group as already being in year.
func UniformBaseYears(year int) BaseYears {
	return BaseYears{year, year, year, year, year, year, year}
}

// Default returns the published costs in their base years.
func Default() Table {
	return Table{
		Ischemic90: ByState{0, 6302, 9448, 14918, 26218, 32502, 26071, 0},
		ICH90:      ByState{0, 9500, 15500, 18700, 27400, 27300, 27300, 0},
		Annual:     ByState{0, 2921, 3905, 6501, 16922, 42335, 39723, 0},
		Death:      8100,
		IVT:        13419,
		EVT:        6400,
		Transfer:   763,
	}
}

// Inflate converts every group of t from its base year to target and
// returns the new table. t is not modified.
func Inflate(base BaseYears, target int, t Table) (Table, error) {
	out := t
	groups := []struct {
		year int
		vals *ByState
	}{
		{base.Ischemic, &out.Ischemic90},
		{base.ICH, &out.ICH90},
		{base.Annual, &out.Annual},
	}
	for _, g := range groups {
		f, err := Factor(g.year, target)
		if err != nil {
			return Table{}, err
		}
		for i := range g.vals {
			g.vals[i] *= f
		}
	}

	scalars := []struct {
		year int
		val  *float64
	}{
		{base.Death, &out.Death},
		{base.IVT, &out.IVT},
		{base.EVT, &out.EVT},
		{base.Transfer, &out.Transfer},
	}
	for _, s := range scalars {
		f, err := Factor(s.year, target)
		if err != nil {
			return Table{}, err
		}
		*s.val *= f
	}
	return out, nil
}

// FirstYear is the cost of a living state over the first year: 90 days at
// the acute rate and the remaining 270 days at the annual rate.
func (t Table) FirstYear(s mrs.State, hemorrhagic bool) float64 {
	acute := t.Ischemic90[s]
	if hemorrhagic {
		acute = t.ICH90[s]
	}
	return (90.0/360.0)*acute + (270.0/360.0)*t.Annual[s]
}

// DeathCostPolicy selects which deaths are charged the death cost in each
// year after the first.
type DeathCostPolicy int

const (
	// Cumulative charges the death cost on every accumulated death, every
	// year.
	Cumulative DeathCostPolicy = iota
	// Incident charges the death cost once, in the year of death.
	Incident
)

func (p DeathCostPolicy) String() string {
	switch p {
	case Cumulative:
		return "cumulative"
	case Incident:
		return "incident"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParseDeathCostPolicy accepts "cumulative" (or empty) and "incident".
func ParseDeathCostPolicy(s string) (DeathCostPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cumulative":
		return Cumulative, nil
	case "incident":
		return Incident, nil
	}
	return 0, fmt.Errorf("unknown death cost policy %q", s)
}
