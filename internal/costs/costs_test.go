package costs

import (
	"errors"
	"testing"

	"stroke-triage/internal/mrs"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestInflate_Pure(t *testing.T) {
	base := Default()
	inflated, err := Inflate(DefaultBaseYears(), 2016, base)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if base.Death != 8100 {
		t.Errorf("Expected input table untouched, got death cost %v", base.Death)
	}
	if inflated.Death <= base.Death {
		t.Errorf("Expected 2008 death cost to grow by 2016, got %v", inflated.Death)
	}

	want, _ := Convert(2014, 2016, 6302)
	if !scalar.EqualWithinAbs(inflated.Ischemic90[mrs.MRS0], want, 1e-9) {
		t.Errorf("Expected inflated mRS 0 ischemic cost %v, got %v", want, inflated.Ischemic90[mrs.MRS0])
	}
	if inflated.Annual[mrs.GenPop] != 0 {
		t.Errorf("Expected general population to stay free, got %v", inflated.Annual[mrs.GenPop])
	}
}

func TestInflate_Idempotent(t *testing.T) {
	once, _ := Inflate(DefaultBaseYears(), 2016, Default())
	twice, err := Inflate(UniformBaseYears(2016), 2016, once)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if once != twice {
		t.Errorf("Expected converting to the same year to be a no-op, got %+v vs %+v", once, twice)
	}
}

func TestConvert_UnknownYear(t *testing.T) {
	if _, err := Convert(1990, 2016, 100); !errors.Is(err, ErrUnknownYear) {
		t.Errorf("Expected ErrUnknownYear, got %v", err)
	}
	if _, err := Inflate(DefaultBaseYears(), LastIndexYear+1, Default()); !errors.Is(err, ErrUnknownYear) {
		t.Errorf("Expected ErrUnknownYear, got %v", err)
	}
}

func TestFirstYear(t *testing.T) {
	tbl := Default()
	got := tbl.FirstYear(mrs.MRS2, false)
	want := 0.25*14918 + 0.75*6501
	if !scalar.EqualWithinAbs(got, want, 1e-9) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	got = tbl.FirstYear(mrs.MRS2, true)
	want = 0.25*18700 + 0.75*6501
	if !scalar.EqualWithinAbs(got, want, 1e-9) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestParseDeathCostPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    DeathCostPolicy
		wantErr bool
	}{
		{"", Cumulative, false},
		{"Cumulative", Cumulative, false},
		{"incident", Incident, false},
		{"never", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDeathCostPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDeathCostPolicy(%q): unexpected error state %v", tt.in, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDeathCostPolicy(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}
