package show

import "fmt"

// Kind distinguishes patterns from effects on a channel.
type Kind string

const (
	KindPattern Kind = "pattern"
	KindEffect  Kind = "effect"
)

// Component is a pattern or effect instance on a channel.
//
// Type identifies the implementation (e.g. "noise", "strobe"); two
// instances of the same implementation share a Type but not a Label.
type Component struct {
	kind    Kind
	typ     string
	label   string
	channel *Channel
	params  []Parameter
	byPath  map[string]Parameter
}

func newComponent(kind Kind, typ, label string, ch *Channel) *Component {
	if label == "" {
		label = typ
	}
	return &Component{
		kind:    kind,
		typ:     typ,
		label:   label,
		channel: ch,
		byPath:  make(map[string]Parameter),
	}
}

// Kind returns whether this is a pattern or an effect.
func (c *Component) Kind() Kind { return c.kind }

// Type returns the implementation identifier.
func (c *Component) Type() string { return c.typ }

// Label returns the instance label.
func (c *Component) Label() string { return c.label }

// Channel returns the channel holding this component, or nil once removed.
func (c *Component) Channel() *Channel { return c.channel }

// Parameters returns the parameters in declaration order.
func (c *Component) Parameters() []Parameter {
	out := make([]Parameter, len(c.params))
	copy(out, c.params)
	return out
}

// Parameter looks up a parameter by path.
func (c *Component) Parameter(path string) (Parameter, bool) {
	p, ok := c.byPath[path]
	return p, ok
}

// AddBounded adds a continuous parameter with the given bounds and initial value.
func (c *Component) AddBounded(path, label string, lo, hi, value float64) (*BoundedParameter, error) {
	p := NewBoundedParameter(path, label, lo, hi, value)
	p.owner = c
	if err := c.add(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddDiscrete adds an integer selection parameter.
func (c *Component) AddDiscrete(path, label string, options, value int) (*DiscreteParameter, error) {
	p := &DiscreteParameter{
		paramBase: paramBase{path: path, label: label, owner: c},
		options:   options,
	}
	p.SetValue(float64(value))
	if err := c.add(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddToggle adds an on/off parameter.
func (c *Component) AddToggle(path, label string, on bool) (*ToggleParameter, error) {
	p := &ToggleParameter{
		paramBase: paramBase{path: path, label: label, owner: c},
		on:        on,
	}
	if err := c.add(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Component) add(p Parameter) error {
	if p.Path() == "" {
		return ErrInvalidPath
	}
	if _, exists := c.byPath[p.Path()]; exists {
		return fmt.Errorf("%w: %s on %s", ErrDuplicatePath, p.Path(), c.label)
	}
	c.params = append(c.params, p)
	c.byPath[p.Path()] = p
	return nil
}
