// Package patient holds the immutable patient inputs of a triage decision.
package patient

import (
	"errors"
	"fmt"
	"math"

	"stroke-triage/internal/severity"
)

// ErrInvalidPatient is returned for out-of-range patient attributes.
var ErrInvalidPatient = errors.New("invalid patient")

// MaxAge is the last age covered by the life tables.
const MaxAge = 100

// Patient is constructed once and never mutated.
type Patient struct {
	id       string
	sex      Sex
	age      int
	onset    float64
	severity severity.Severity
}

// New validates and builds a patient. onset is minutes since symptom onset.
func New(id string, sex Sex, age int, onset float64, sev severity.Severity) (Patient, error) {
	if !sex.Valid() {
		return Patient{}, fmt.Errorf("%w: sex %d", ErrInvalidPatient, int(sex))
	}
	if age < 0 || age > MaxAge {
		return Patient{}, fmt.Errorf("%w: age %d not in [0, %d]", ErrInvalidPatient, age, MaxAge)
	}
	if math.IsNaN(onset) || math.IsInf(onset, 0) || onset < 0 {
		return Patient{}, fmt.Errorf("%w: time since symptoms %v", ErrInvalidPatient, onset)
	}
	if sev == nil {
		return Patient{}, fmt.Errorf("%w: missing severity", ErrInvalidPatient)
	}
	return Patient{id: id, sex: sex, age: age, onset: onset, severity: sev}, nil
}

// WithRACE builds a patient whose severity is a RACE score.
func WithRACE(id string, sex Sex, age int, onset, race float64) (Patient, error) {
	sev, err := severity.NewRACE(race)
	if err != nil {
		return Patient{}, err
	}
	return New(id, sex, age, onset, sev)
}

// WithNIHSS builds a patient whose severity is an NIHSS score.
func WithNIHSS(id string, sex Sex, age int, onset, nihss float64) (Patient, error) {
	sev, err := severity.NewNIHSS(nihss)
	if err != nil {
		return Patient{}, err
	}
	return New(id, sex, age, onset, sev)
}

func (p Patient) ID() string                  { return p.id }
func (p Patient) Sex() Sex                    { return p.sex }
func (p Patient) Age() int                    { return p.age }
func (p Patient) Severity() severity.Severity { return p.severity }

// TimeSinceSymptoms is the onset-to-decision delay in minutes.
func (p Patient) TimeSinceSymptoms() float64 { return p.onset }

func (p Patient) String() string {
	return fmt.Sprintf("patient %s (%s, %d, %s %g, %g min)",
		p.id, p.sex, p.age, p.severity.Scale(), p.severity.Score(), p.onset)
}
