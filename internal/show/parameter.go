package show

import "math"

// Parameter is a named numeric value exposed by a pattern or effect.
//
// Value is the raw (un-normalised) value. Implementations store the raw
// value so that SetValue(Value()) is always an exact round trip.
type Parameter interface {
	// Path is the key used to look the parameter up on its component.
	Path() string

	// Label is the human-readable name.
	Label() string

	// Owner is the component exposing this parameter, or nil for
	// parameters that do not belong to a device.
	Owner() *Component

	Value() float64
	SetValue(v float64)
}

// Continuous is a parameter that can be driven by a modulation source.
// It has a fixed total range and can be read and written as a [0,1] fraction.
type Continuous interface {
	Parameter

	// Range returns the total bounds of the parameter.
	Range() (lo, hi float64)

	// Normalized returns the value as a fraction of the total range.
	Normalized() float64

	// SetNormalized sets the value from a fraction of the total range.
	// Values outside [0,1] are clamped.
	SetNormalized(n float64)
}

// paramBase holds the fields every parameter kind shares.
type paramBase struct {
	path  string
	label string
	owner *Component
}

func (p *paramBase) Path() string      { return p.path }
func (p *paramBase) Owner() *Component { return p.owner }

func (p *paramBase) Label() string {
	if p.label == "" {
		return p.path
	}
	return p.label
}

// BoundedParameter is a continuous parameter with a fixed [lo, hi] range.
type BoundedParameter struct {
	paramBase
	lo, hi float64
	value  float64
}

// NewBoundedParameter creates a free-standing bounded parameter with no owner.
// The bounds are reordered when given backwards.
func NewBoundedParameter(path, label string, lo, hi, value float64) *BoundedParameter {
	if lo > hi {
		lo, hi = hi, lo
	}
	p := &BoundedParameter{
		paramBase: paramBase{path: path, label: label},
		lo:        lo,
		hi:        hi,
	}
	p.SetValue(value)
	return p
}

// Range returns the total bounds.
func (p *BoundedParameter) Range() (lo, hi float64) { return p.lo, p.hi }

// Value returns the raw value.
func (p *BoundedParameter) Value() float64 { return p.value }

// SetValue sets the raw value, clamped to the bounds.
func (p *BoundedParameter) SetValue(v float64) {
	p.value = clamp(v, p.lo, p.hi)
}

// Normalized returns the value as a fraction of the range.
// A zero-width range always reads as 0.
func (p *BoundedParameter) Normalized() float64 {
	width := p.hi - p.lo
	if width == 0 {
		return 0
	}
	return (p.value - p.lo) / width
}

// SetNormalized sets the value from a fraction of the range.
func (p *BoundedParameter) SetNormalized(n float64) {
	n = clamp(n, 0, 1)
	p.value = p.lo + n*(p.hi-p.lo)
}

// DiscreteParameter holds an integer selection in [0, options).
// It is not continuous and cannot be modulated.
type DiscreteParameter struct {
	paramBase
	options int
	value   int
}

// Options returns the number of selectable values.
func (p *DiscreteParameter) Options() int { return p.options }

// Value returns the current selection.
func (p *DiscreteParameter) Value() float64 { return float64(p.value) }

// SetValue rounds and clamps v to a valid selection.
func (p *DiscreteParameter) SetValue(v float64) {
	if p.options <= 0 {
		p.value = 0
		return
	}
	p.value = int(clamp(math.Round(v), 0, float64(p.options-1)))
}

// ToggleParameter is an on/off switch. Value reads 1 when on.
type ToggleParameter struct {
	paramBase
	on bool
}

// On reports whether the switch is on.
func (p *ToggleParameter) On() bool { return p.on }

// Value returns 1 when on, otherwise 0.
func (p *ToggleParameter) Value() float64 {
	if p.on {
		return 1
	}
	return 0
}

// SetValue turns the switch on for any value >= 0.5.
func (p *ToggleParameter) SetValue(v float64) { p.on = v >= 0.5 }

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
