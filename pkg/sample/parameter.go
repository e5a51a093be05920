package sample

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"

	"github.com/matzehuels/layerstack/pkg/errors"
)

// Range is a closed interval [Min, Max]. Either side may be infinite.
type Range struct {
	Min float64
	Max float64
}

// Unbounded returns the range (-inf, +inf).
func Unbounded() Range { return Range{Min: math.Inf(-1), Max: math.Inf(1)} }

// NonNegative returns the range [0, +inf).
func NonNegative() Range { return Range{Min: 0, Max: math.Inf(1)} }

// Valid reports whether the range is ordered and free of NaN.
func (r Range) Valid() bool {
	return !math.IsNaN(r.Min) && !math.IsNaN(r.Max) && r.Min <= r.Max
}

// Within reports whether r lies entirely inside outer.
func (r Range) Within(outer Range) bool {
	return outer.Min <= r.Min && r.Max <= outer.Max
}

// String formats the range with infinities spelled "inf".
func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]", formatFloat(r.Min), formatFloat(r.Max))
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return fmt.Sprintf("%g", v)
}

// Parameter is a tunable scalar quantity.
//
// Limits is the physically valid range. Bounds, when non-nil, is the search
// range offered to a fitting engine and must lie within Limits. A fixed
// parameter is excluded from fitting and normally has nil Bounds. Extra
// carries unrecognized wire keys through unchanged.
type Parameter struct {
	Name   string
	Value  float64
	Fixed  bool
	Limits Range
	Bounds *Range
	Extra  map[string]json.RawMessage
}

// Free reports whether the parameter takes part in fitting.
func (p Parameter) Free() bool { return !p.Fixed }

// Validate checks the limits and bounds invariants.
// It returns a MALFORMED_MODEL error naming the offending parameter.
func (p Parameter) Validate() error {
	return p.validate(fmt.Sprintf("parameter %q", p.Name))
}

func (p Parameter) validate(label string) error {
	if !p.Limits.Valid() {
		return errors.Malformed("%s: limits %s are not ordered", label, p.Limits)
	}
	if p.Bounds == nil {
		return nil
	}
	if !p.Bounds.Valid() {
		return errors.Malformed("%s: bounds %s are not ordered", label, *p.Bounds)
	}
	if !p.Bounds.Within(p.Limits) {
		return errors.Malformed("%s: bounds %s outside limits %s", label, *p.Bounds, p.Limits)
	}
	return nil
}

func (p Parameter) clone() Parameter {
	if p.Bounds != nil {
		b := *p.Bounds
		p.Bounds = &b
	}
	p.Extra = maps.Clone(p.Extra)
	return p
}

func (p Parameter) raw() *RawParameter {
	rp := &RawParameter{
		Name:   p.Name,
		Slot:   RawSlot{Value: Float(p.Value)},
		Fixed:  p.Fixed,
		Limits: []Float{Float(p.Limits.Min), Float(p.Limits.Max)},
		Extra:  maps.Clone(p.Extra),
	}
	if p.Bounds != nil {
		rp.Bounds = []Float{Float(p.Bounds.Min), Float(p.Bounds.Max)}
	}
	return rp
}

// parameter converts the raw record into a validated Parameter.
// field names the slot in error messages ("thickness", "material.rho").
func (rp *RawParameter) parameter(field string) (Parameter, error) {
	p := Parameter{
		Name:   rp.Name,
		Value:  float64(rp.Slot.Value),
		Fixed:  rp.Fixed,
		Limits: Unbounded(),
		Extra:  maps.Clone(rp.Extra),
	}

	if rp.Limits != nil {
		if len(rp.Limits) != 2 {
			return Parameter{}, errors.Malformed("%s: limits must be a pair, got %d values", field, len(rp.Limits))
		}
		p.Limits = Range{Min: float64(rp.Limits[0]), Max: float64(rp.Limits[1])}
	}
	if rp.Bounds != nil {
		if len(rp.Bounds) != 2 {
			return Parameter{}, errors.Malformed("%s: bounds must be a pair or null, got %d values", field, len(rp.Bounds))
		}
		p.Bounds = &Range{Min: float64(rp.Bounds[0]), Max: float64(rp.Bounds[1])}
	}

	if err := p.validate(fmt.Sprintf("%s %q", field, p.Name)); err != nil {
		return Parameter{}, err
	}
	return p, nil
}
