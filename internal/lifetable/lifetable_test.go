package lifetable

import (
	"testing"

	"stroke-triage/internal/patient"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestAdjustedMortality(t *testing.T) {
	tests := []struct {
		name string
		sex  patient.Sex
		age  int
		hr   float64
	}{
		{"MaleUnadjusted", patient.Male, 70, 1},
		{"FemaleUnadjusted", patient.Female, 70, 1},
		{"MaleMRS3", patient.Male, 70, 3.18},
		{"FemaleMRS5", patient.Female, 85, 6.55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := Mortality(tt.sex, tt.age)
			got := AdjustedMortality(tt.sex, tt.age, tt.hr)
			if tt.hr == 1 && !scalar.EqualWithinAbs(got, base, 1e-12) {
				t.Errorf("Expected unadjusted %v, got %v", base, got)
			}
			if tt.hr > 1 && got <= base {
				t.Errorf("Expected hazard ratio %v to raise mortality above %v, got %v", tt.hr, base, got)
			}
			if got < 0 || got > 1 {
				t.Errorf("Expected a probability, got %v", got)
			}
		})
	}
}

func TestMortality_Tables(t *testing.T) {
	if Mortality(patient.Male, 70) != 0.022826 {
		t.Errorf("Expected male 70 = 0.022826, got %v", Mortality(patient.Male, 70))
	}
	if Mortality(patient.Female, 70) != 0.015325 {
		t.Errorf("Expected female 70 = 0.015325, got %v", Mortality(patient.Female, 70))
	}
	if Mortality(patient.Male, EndAge) != 1 {
		t.Errorf("Expected certain death at %d", EndAge)
	}
	if Mortality(patient.Female, 150) != 1 {
		t.Error("Expected ages past the table to clamp")
	}
	if AdjustedMortality(patient.Male, EndAge, 2) != 1 {
		t.Error("Expected adjusted certain death to stay 1")
	}
}
