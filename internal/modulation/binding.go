package modulation

import (
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-autopilot/internal/show"
)

// Binding links an oscillator to a continuous parameter.
// Depth is a fraction of the target's total range.
type Binding struct {
	id     uuid.UUID
	label  string
	scope  Scope
	source *Oscillator
	target show.Continuous
	depth  float64
}

// ID returns the identity assigned at creation. It changes on reload.
func (b *Binding) ID() uuid.UUID { return b.id }

// Label returns the display label.
func (b *Binding) Label() string { return b.label }

// Scope returns the scope the binding is registered in.
func (b *Binding) Scope() Scope { return b.scope }

// Source returns the driving oscillator.
func (b *Binding) Source() *Oscillator { return b.source }

// Target returns the modulated parameter.
func (b *Binding) Target() show.Continuous { return b.target }

// Depth returns the modulation depth as a fraction of the target's range.
func (b *Binding) Depth() float64 { return b.depth }
