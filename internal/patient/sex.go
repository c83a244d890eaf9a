package patient

import (
	"fmt"
	"strings"
)

// Sex selects the life table used for background mortality.
type Sex int

const (
	Male Sex = iota
	Female
)

func (s Sex) String() string {
	switch s {
	case Male:
		return "male"
	case Female:
		return "female"
	}
	return fmt.Sprintf("sex(%d)", int(s))
}

// Valid reports whether s is one of the known values.
func (s Sex) Valid() bool {
	return s == Male || s == Female
}

// ParseSex accepts "male"/"female", "m"/"f" and the numeric codes 0/1
// used by the patient profile files.
func ParseSex(v string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "male", "m", "0", "sex.male":
		return Male, nil
	case "female", "f", "1", "sex.female":
		return Female, nil
	}
	return 0, fmt.Errorf("%w: unknown sex %q", ErrInvalidPatient, v)
}
