// Package mrs defines the disability-state axis of the cohort model: the
// general population, modified Rankin Scale grades 0-5 and death.
package mrs

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// State indexes the last axis of a cohort population.
type State int

const (
	GenPop State = iota
	MRS0
	MRS1
	MRS2
	MRS3
	MRS4
	MRS5
	Death
)

// NumStates is the length of a population vector.
const NumStates = 8

// Living lists every non-absorbing state in index order.
var Living = []State{GenPop, MRS0, MRS1, MRS2, MRS3, MRS4, MRS5}

// IsGood reports whether the state counts as a good functional outcome (mRS 0-2).
func (s State) IsGood() bool {
	return s == MRS0 || s == MRS1 || s == MRS2
}

func (s State) String() string {
	switch s {
	case GenPop:
		return "gen_pop"
	case Death:
		return "death"
	}
	if s >= MRS0 && s <= MRS5 {
		return fmt.Sprintf("mrs_%d", int(s-MRS0))
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Vector holds population mass per state.
type Vector [NumStates]float64

// Sum totals the mass across every state.
func (v Vector) Sum() float64 {
	return floats.Sum(v[:])
}
