package stats

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"SingleItem", []float64{5.5}, 5.5},
		{"OddCount", []float64{1.1, 3.3, 2.2, 4.4, 5.5}, 3.3},
		{"EvenCount", []float64{1, 2, 3, 4}, 2.5},
		{"Unsorted", []float64{10.5, 2.5, 8.5, 4.5, 6.5}, 6.5},
		{"IgnoresNaN", []float64{nan, 1, 3, nan}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.values); got != tt.expected {
				t.Errorf("Median() = %v, want %v", got, tt.expected)
			}
		})
	}

	if !math.IsNaN(Median(nil)) {
		t.Error("Expected NaN median for empty input")
	}
	if !math.IsNaN(Median([]float64{nan})) {
		t.Error("Expected NaN median for all-NaN input")
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	tests := []struct {
		p        float64
		expected float64
	}{
		{0, 1},
		{0.1, 2},
		{0.5, 6},
		{0.95, 10.5},
		{1, 11},
	}
	for _, tt := range tests {
		if got := Percentile(values, tt.p); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.expected)
		}
	}
}

func TestCountFinite(t *testing.T) {
	if got := CountFinite([]float64{1, math.NaN(), 2}); got != 2 {
		t.Errorf("Expected 2 finite values, got %d", got)
	}
}

func TestMaxAbsDiff(t *testing.T) {
	a := map[string]float64{"x": 0.5, "y": 0.5}
	b := map[string]float64{"x": 0.52, "z": 0.03}
	if got := MaxAbsDiff(a, b); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Expected 0.5 (y missing from b), got %v", got)
	}
	if got := MaxAbsDiff(a, a); got != 0 {
		t.Errorf("Expected 0 for identical tables, got %v", got)
	}
}
