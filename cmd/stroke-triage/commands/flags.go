package commands

import (
	"fmt"
	"strconv"
	"strings"

	"stroke-triage/internal/patient"

	"github.com/spf13/cobra"
)

// parseSimulations accepts a positive draw count or "auto", in which case
// fallback seeds the convergence loop.
func parseSimulations(v string, fallback int) (draws int, auto bool, err error) {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "":
		return fallback, false, nil
	case "auto":
		return fallback, true, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false, fmt.Errorf("simulations must be a positive integer or \"auto\", got %q", v)
	}
	return n, false, nil
}

// patientFlags describes a patient on the command line.
type patientFlags struct {
	id    string
	age   int
	sex   string
	race  float64
	nihss float64
	onset float64
}

func (f *patientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "patient-id", "0", "patient identifier")
	cmd.Flags().IntVar(&f.age, "age", 65, "patient age in years")
	cmd.Flags().StringVar(&f.sex, "sex", "male", "patient sex (male or female)")
	cmd.Flags().Float64Var(&f.race, "race", 0, "RACE score (0-9)")
	cmd.Flags().Float64Var(&f.nihss, "nihss", 0, "NIHSS score (0-42); used when --race is not given")
	cmd.Flags().Float64Var(&f.onset, "onset", 60, "minutes since symptom onset")
}

func (f *patientFlags) patient(cmd *cobra.Command) (patient.Patient, error) {
	sex, err := patient.ParseSex(f.sex)
	if err != nil {
		return patient.Patient{}, err
	}
	switch {
	case cmd.Flags().Changed("race"):
		return patient.WithRACE(f.id, sex, f.age, f.onset, f.race)
	case cmd.Flags().Changed("nihss"):
		return patient.WithNIHSS(f.id, sex, f.age, f.onset, f.nihss)
	}
	return patient.Patient{}, fmt.Errorf("one of --race or --nihss is required")
}

// fixedFromFlags pins the random patient attributes the user set.
func fixedFromFlags(cmd *cobra.Command, f *patientFlags) (patient.Fixed, error) {
	var fixed patient.Fixed
	if cmd.Flags().Changed("sex") {
		sex, err := patient.ParseSex(f.sex)
		if err != nil {
			return fixed, err
		}
		fixed.Sex = &sex
	}
	if cmd.Flags().Changed("age") {
		fixed.Age = &f.age
	}
	if cmd.Flags().Changed("race") {
		fixed.RACE = &f.race
	}
	if cmd.Flags().Changed("nihss") {
		fixed.NIHSS = &f.nihss
	}
	if cmd.Flags().Changed("onset") {
		fixed.Onset = &f.onset
	}
	return fixed, nil
}
