package autopilot

import "fmt"

// Scale says how an AutoParameter's bounds are expressed.
type Scale string

const (
	// Absolute bounds are in the target parameter's own units.
	Absolute Scale = "absolute"

	// Normalized bounds are fractions of the target's total range.
	Normalized Scale = "normalized"
)

// ParseScale converts a textual scale name.
func ParseScale(s string) (Scale, error) {
	switch Scale(s) {
	case Absolute, Normalized:
		return Scale(s), nil
	}
	return "", fmt.Errorf("unknown scale %q", s)
}

// Default period bounds in seconds.
const (
	DefaultMinPeriodSec = 15.0
	DefaultMaxPeriodSec = 45.0
)

// AutoParameter describes how one parameter of a pattern is automated.
//
// Min and Max bound where the parameter may move. Range is the width of the
// active sub-range the oscillator sweeps; it is placed at a random offset
// inside [Min, Max] on first start. After construction Min <= Max,
// 0 <= Range <= Max-Min and MinPeriodSec <= MaxPeriodSec always hold.
type AutoParameter struct {
	scale        Scale
	path         string
	min, max     float64
	rng          float64
	minPeriodSec float64
	maxPeriodSec float64
}

// ParameterOption customises an AutoParameter at construction.
type ParameterOption func(*parameterOptions)

type parameterOptions struct {
	rng          *float64
	minPeriodSec float64
	maxPeriodSec float64
}

// WithRange sets the active sub-range width. It is clamped to [0, max-min].
func WithRange(r float64) ParameterOption {
	return func(o *parameterOptions) { o.rng = &r }
}

// WithPeriod sets the oscillator period bounds in seconds.
func WithPeriod(minSec, maxSec float64) ParameterOption {
	return func(o *parameterOptions) {
		o.minPeriodSec = minSec
		o.maxPeriodSec = maxSec
	}
}

// NewAutoParameter creates a descriptor for the parameter at path.
// Bounds given backwards are swapped.
func NewAutoParameter(path string, scale Scale, minValue, maxValue float64, opts ...ParameterOption) *AutoParameter {
	o := parameterOptions{
		minPeriodSec: DefaultMinPeriodSec,
		maxPeriodSec: DefaultMaxPeriodSec,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if minValue > maxValue {
		minValue, maxValue = maxValue, minValue
	}
	if o.minPeriodSec > o.maxPeriodSec {
		o.minPeriodSec, o.maxPeriodSec = o.maxPeriodSec, o.minPeriodSec
	}

	total := maxValue - minValue
	rng := total
	if o.rng != nil {
		rng = min(max(*o.rng, 0), total)
	}

	return &AutoParameter{
		scale:        scale,
		path:         path,
		min:          minValue,
		max:          maxValue,
		rng:          rng,
		minPeriodSec: o.minPeriodSec,
		maxPeriodSec: o.maxPeriodSec,
	}
}

// Scale reports whether Min, Max and Range are normalised or absolute.
func (p *AutoParameter) Scale() Scale { return p.scale }

// Path returns the parameter path inside the pattern.
func (p *AutoParameter) Path() string { return p.path }

// Min returns the lower bound of the automated range.
func (p *AutoParameter) Min() float64 { return p.min }

// Max returns the upper bound of the automated range.
func (p *AutoParameter) Max() float64 { return p.max }

// Range returns the width of the active sub-range.
func (p *AutoParameter) Range() float64 { return p.rng }

// MinPeriodSec returns the shortest oscillator period in seconds.
func (p *AutoParameter) MinPeriodSec() float64 { return p.minPeriodSec }

// MaxPeriodSec returns the longest oscillator period in seconds.
func (p *AutoParameter) MaxPeriodSec() float64 { return p.maxPeriodSec }

// FullRange reports whether the active range spans the whole of [Min, Max].
func (p *AutoParameter) FullRange() bool {
	return p.rng == p.max-p.min
}

// AutoPattern lists the AutoParameters automated on one pattern type.
type AutoPattern struct {
	patternType string
	params      []*AutoParameter
}

// PatternType returns the pattern implementation this descriptor applies to.
func (p *AutoPattern) PatternType() string { return p.patternType }

// Parameters returns the descriptors in the order they were added.
func (p *AutoPattern) Parameters() []*AutoParameter {
	out := make([]*AutoParameter, len(p.params))
	copy(out, p.params)
	return out
}

// AddParameter appends a descriptor and returns the pattern for chaining.
func (p *AutoPattern) AddParameter(ap *AutoParameter) *AutoPattern {
	p.params = append(p.params, ap)
	return p
}

// Add is shorthand for AddParameter(NewAutoParameter(...)).
func (p *AutoPattern) Add(path string, scale Scale, minValue, maxValue float64, opts ...ParameterOption) *AutoPattern {
	return p.AddParameter(NewAutoParameter(path, scale, minValue, maxValue, opts...))
}
