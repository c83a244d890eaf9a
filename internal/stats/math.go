// Package stats holds small NaN-aware summaries of Monte-Carlo output.
package stats

import (
	"math"
	"slices"
)

// finite copies the non-NaN values of values.
func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// CountFinite counts the non-NaN values.
func CountFinite(values []float64) int {
	n := 0
	for _, v := range values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Median is the median of the non-NaN values, or NaN if there are none.
func Median(values []float64) float64 {
	return Percentile(values, 0.5)
}

// Percentile linearly interpolates the p-th quantile (p in [0,1]) of the
// non-NaN values. It returns NaN for an empty input.
func Percentile(values []float64, p float64) float64 {
	temp := finite(values)
	if len(temp) == 0 {
		return math.NaN()
	}
	slices.Sort(temp)

	pos := p * float64(len(temp)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return temp[lo]
	}
	return temp[lo] + (pos-float64(lo))*(temp[hi]-temp[lo])
}

// MaxAbsDiff is the largest absolute difference between the shares of two
// tables. A key missing from one side counts as zero there.
func MaxAbsDiff(a, b map[string]float64) float64 {
	diff := 0.0
	for k, v := range a {
		diff = math.Max(diff, math.Abs(v-b[k]))
	}
	for k, v := range b {
		if _, ok := a[k]; !ok {
			diff = math.Max(diff, math.Abs(v))
		}
	}
	return diff
}
