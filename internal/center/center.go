// Package center describes stroke centers and the travel times that make
// them reachable from a location.
package center

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCenter is returned for inconsistent center descriptions.
var ErrInvalidCenter = errors.New("invalid center")

// Kind is the treatment capability of a center.
type Kind int

const (
	// Primary centers give thrombolysis only.
	Primary Kind = iota
	// Comprehensive centers also perform thrombectomy.
	Comprehensive
)

func (k Kind) String() string {
	switch k {
	case Primary:
		return "Primary"
	case Comprehensive:
		return "Comprehensive"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Abbrev is the label suffix used in result tables.
func (k Kind) Abbrev() string {
	if k == Comprehensive {
		return "CSC"
	}
	return "PSC"
}

// ParseKind accepts the CenterType column values.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "Primary", "primary", "PSC":
		return Primary, nil
	case "Comprehensive", "comprehensive", "CSC":
		return Comprehensive, nil
	}
	return 0, fmt.Errorf("%w: unknown center type %q", ErrInvalidCenter, s)
}

// Transfer links a primary center to the comprehensive center it ships
// thrombectomy candidates to. Minutes may be NaN when unknown.
type Transfer struct {
	DestinationID string
	Minutes       float64
}

// Center is an immutable hospital descriptor. Sampled times live in
// sampling.Times, never here.
type Center struct {
	ID        string
	Name      string
	ShortName string
	Kind      Kind
	DTN       TimeDistribution
	// DTP is set only for comprehensive centers.
	DTP *TimeDistribution
	// Transfer is set only for primary centers.
	Transfer *Transfer
}

// Option customises a center at construction.
type Option func(*Center)

// WithName sets the display and short names.
func WithName(name, short string) Option {
	return func(c *Center) {
		c.Name = name
		c.ShortName = short
	}
}

// WithDTN overrides the default door-to-needle distribution.
func WithDTN(d TimeDistribution) Option {
	return func(c *Center) { c.DTN = d }
}

// WithDTP overrides the default door-to-puncture distribution.
func WithDTP(d TimeDistribution) Option {
	return func(c *Center) {
		dtp := d
		c.DTP = &dtp
	}
}

// WithTransfer links a primary center to its thrombectomy destination.
func WithTransfer(destinationID string, minutes float64) Option {
	return func(c *Center) {
		c.Transfer = &Transfer{DestinationID: destinationID, Minutes: minutes}
	}
}

// NewPrimary builds a primary center with national default delays.
func NewPrimary(id string, opts ...Option) (Center, error) {
	c := Center{ID: id, Kind: Primary, DTN: DefaultPrimaryDTN}
	return build(c, opts)
}

// NewComprehensive builds a comprehensive center with national default delays.
func NewComprehensive(id string, opts ...Option) (Center, error) {
	dtp := DefaultDTP
	c := Center{ID: id, Kind: Comprehensive, DTN: DefaultComprehensiveDTN, DTP: &dtp}
	return build(c, opts)
}

func build(c Center, opts []Option) (Center, error) {
	for _, opt := range opts {
		opt(&c)
	}
	if c.Name == "" {
		c.Name = "Center " + c.ID
	}
	if c.ShortName == "" {
		c.ShortName = c.ID
	}
	if err := c.Validate(); err != nil {
		return Center{}, err
	}
	return c, nil
}

// Validate enforces the capability invariants.
func (c Center) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidCenter)
	}
	if err := c.DTN.Validate(); err != nil {
		return fmt.Errorf("center %s door-to-needle: %w", c.ID, err)
	}
	switch c.Kind {
	case Primary:
		if c.DTP != nil {
			return fmt.Errorf("%w: primary center %s cannot perform thrombectomy", ErrInvalidCenter, c.ID)
		}
		if c.Transfer != nil {
			if c.Transfer.DestinationID == "" || c.Transfer.DestinationID == c.ID {
				return fmt.Errorf("%w: center %s has an invalid transfer destination", ErrInvalidCenter, c.ID)
			}
			if m := c.Transfer.Minutes; !math.IsNaN(m) && m < 0 {
				return fmt.Errorf("%w: center %s transfer time %v", ErrInvalidCenter, c.ID, m)
			}
		}
	case Comprehensive:
		if c.DTP == nil {
			return fmt.Errorf("%w: comprehensive center %s has no door-to-puncture distribution", ErrInvalidCenter, c.ID)
		}
		if err := c.DTP.Validate(); err != nil {
			return fmt.Errorf("center %s door-to-puncture: %w", c.ID, err)
		}
		if c.Transfer != nil {
			return fmt.Errorf("%w: comprehensive center %s cannot hold a transfer destination", ErrInvalidCenter, c.ID)
		}
	default:
		return fmt.Errorf("%w: center %s has kind %v", ErrInvalidCenter, c.ID, c.Kind)
	}
	return nil
}

// String is the result-table label, e.g. "12 (PSC)".
func (c Center) String() string {
	return fmt.Sprintf("%s (%s)", c.ShortName, c.Kind.Abbrev())
}

// Index maps center ids to their position in centers.
func Index(centers []Center) map[string]int {
	idx := make(map[string]int, len(centers))
	for i, c := range centers {
		idx[c.ID] = i
	}
	return idx
}

// ValidateLabels rejects centers that share an id or a result label.
func ValidateLabels(centers []Center) error {
	ids := make(map[string]bool, len(centers))
	labels := make(map[string]string, len(centers))
	for _, c := range centers {
		if ids[c.ID] {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidCenter, c.ID)
		}
		ids[c.ID] = true
		label := c.String()
		if other, dup := labels[label]; dup {
			return fmt.Errorf("%w: centers %s and %s share the label %q", ErrInvalidCenter, other, c.ID, label)
		}
		labels[label] = c.ID
	}
	return nil
}
