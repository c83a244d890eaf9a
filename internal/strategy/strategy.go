// Package strategy binds a triage decision kind to its first-contact center.
package strategy

import (
	"cmp"
	"errors"
	"fmt"

	"stroke-triage/internal/center"
)

// ErrInvalidStrategyBinding is returned when a strategy is bound to a
// center that cannot carry it out.
var ErrInvalidStrategyBinding = errors.New("invalid strategy binding")

// Kind orders the strategies for tie-breaking: primary < comprehensive <
// drip-and-ship.
type Kind int

const (
	PrimaryOnly Kind = iota
	ComprehensiveOnly
	DripAndShip
)

// Kinds lists every strategy kind in tie-break order.
var Kinds = []Kind{PrimaryOnly, ComprehensiveOnly, DripAndShip}

func (k Kind) String() string {
	switch k {
	case PrimaryOnly:
		return "primary"
	case ComprehensiveOnly:
		return "comprehensive"
	case DripAndShip:
		return "drip_and_ship"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Key identifies a strategy in maps; two strategies are equal iff their
// keys are.
type Key struct {
	Kind     Kind
	CenterID string
}

// Strategy is immutable once constructed.
type Strategy struct {
	kind        Kind
	center      center.Center
	destination *center.Center
}

// NewPrimaryOnly sends the patient to a primary center for thrombolysis only.
func NewPrimaryOnly(c center.Center) (Strategy, error) {
	if c.Kind != center.Primary {
		return Strategy{}, fmt.Errorf("%w: %s is not a primary center", ErrInvalidStrategyBinding, c.Name)
	}
	return Strategy{kind: PrimaryOnly, center: c}, nil
}

// NewComprehensiveOnly sends the patient straight to a comprehensive center.
func NewComprehensiveOnly(c center.Center) (Strategy, error) {
	if c.Kind != center.Comprehensive {
		return Strategy{}, fmt.Errorf("%w: %s is not a comprehensive center", ErrInvalidStrategyBinding, c.Name)
	}
	return Strategy{kind: ComprehensiveOnly, center: c}, nil
}

// NewDripAndShip gives thrombolysis at primary c and ships the patient to
// dest, which must be c's registered transfer destination.
func NewDripAndShip(c, dest center.Center) (Strategy, error) {
	if c.Kind != center.Primary {
		return Strategy{}, fmt.Errorf("%w: %s is not a primary center", ErrInvalidStrategyBinding, c.Name)
	}
	if c.Transfer == nil {
		return Strategy{}, fmt.Errorf("%w: %s has no transfer destination", ErrInvalidStrategyBinding, c.Name)
	}
	if dest.ID != c.Transfer.DestinationID {
		return Strategy{}, fmt.Errorf("%w: %s transfers to %s, not %s", ErrInvalidStrategyBinding,
			c.Name, c.Transfer.DestinationID, dest.ID)
	}
	if dest.Kind != center.Comprehensive {
		return Strategy{}, fmt.Errorf("%w: transfer destination %s is not a comprehensive center", ErrInvalidStrategyBinding, dest.Name)
	}
	return Strategy{kind: DripAndShip, center: c, destination: &dest}, nil
}

func (s Strategy) Kind() Kind { return s.kind }

// Center is the first-contact hospital.
func (s Strategy) Center() center.Center { return s.center }

// Destination is the transfer target of a drip-and-ship strategy.
func (s Strategy) Destination() (center.Center, bool) {
	if s.destination == nil {
		return center.Center{}, false
	}
	return *s.destination, true
}

func (s Strategy) Key() Key {
	return Key{Kind: s.kind, CenterID: s.center.ID}
}

func (s Strategy) String() string {
	switch s.kind {
	case PrimaryOnly:
		return "Primary to " + s.center.String()
	case ComprehensiveOnly:
		return "Comprehensive to " + s.center.String()
	case DripAndShip:
		return fmt.Sprintf("Drip and Ship %s to %s", s.center, s.destination)
	}
	return "Unknown strategy"
}

// Compare orders strategies by travel time to the first-contact center,
// then kind, then center name. ta and tb are the travel minutes of a and
// b in the draw being compared.
func Compare(a Strategy, ta float64, b Strategy, tb float64) int {
	if c := cmp.Compare(ta, tb); c != 0 {
		return c
	}
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	return cmp.Compare(a.center.Name, b.center.Name)
}
