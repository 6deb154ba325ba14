package modulation

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-autopilot/internal/show"
)

type scopeState struct {
	oscillators []*Oscillator
	bindings    []*Binding
}

// Engine owns every oscillator and binding, grouped by scope.
type Engine struct {
	scopes map[Scope]*scopeState
	order  []Scope
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{scopes: make(map[Scope]*scopeState)}
}

func (e *Engine) state(s Scope) *scopeState {
	st, ok := e.scopes[s]
	if !ok {
		st = &scopeState{}
		e.scopes[s] = st
		e.order = append(e.order, s)
	}
	return st
}

// NewOscillator creates and registers an oscillator in the given scope.
func (e *Engine) NewOscillator(scope Scope, spec OscillatorSpec) (*Oscillator, error) {
	if spec.PeriodMS <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeriod, spec.PeriodMS)
	}
	o := newOscillator(scope, spec)
	st := e.state(scope)
	st.oscillators = append(st.oscillators, o)
	return o, nil
}

// AddBinding links src to target with the given depth.
//
// Returns:
//   - ErrNilTarget if target is nil
//   - ErrUnknownOscillator if src is not registered with this engine
//   - ErrBindingRejected if the binding would form a cycle
func (e *Engine) AddBinding(scope Scope, label string, src *Oscillator, target show.Continuous, depth float64) (*Binding, error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	if src == nil || !e.contains(src) {
		return nil, ErrUnknownOscillator
	}
	if e.formsCycle(src, target) {
		return nil, fmt.Errorf("%w: %s would modulate itself", ErrBindingRejected, src.label)
	}

	b := &Binding{
		id:     uuid.New(),
		label:  label,
		scope:  scope,
		source: src,
		target: target,
		depth:  depth,
	}
	st := e.state(scope)
	st.bindings = append(st.bindings, b)
	return b, nil
}

// formsCycle reports whether adding src -> target closes a loop through
// oscillator rate parameters.
func (e *Engine) formsCycle(src *Oscillator, target show.Continuous) bool {
	start := e.oscillatorForRate(target)
	if start == nil {
		return false
	}

	visited := make(map[*Oscillator]bool)
	stack := []*Oscillator{start}
	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if o == src {
			return true
		}
		if visited[o] {
			continue
		}
		visited[o] = true
		for _, b := range e.allBindings() {
			if b.source != o {
				continue
			}
			if next := e.oscillatorForRate(b.target); next != nil {
				stack = append(stack, next)
			}
		}
	}
	return false
}

func (e *Engine) oscillatorForRate(p show.Continuous) *Oscillator {
	for _, o := range e.allOscillators() {
		if show.Continuous(o.rate) == p {
			return o
		}
	}
	return nil
}

func (e *Engine) contains(o *Oscillator) bool {
	st, ok := e.scopes[o.scope]
	return ok && slices.Contains(st.oscillators, o)
}

// Oscillators returns the oscillators registered in a scope.
func (e *Engine) Oscillators(scope Scope) []*Oscillator {
	if st, ok := e.scopes[scope]; ok {
		return slices.Clone(st.oscillators)
	}
	return nil
}

// Bindings returns the bindings registered in a scope.
func (e *Engine) Bindings(scope Scope) []*Binding {
	if st, ok := e.scopes[scope]; ok {
		return slices.Clone(st.bindings)
	}
	return nil
}

// RemoveOscillator unregisters an oscillator and every binding that uses it
// as a source, in any scope. It reports whether the oscillator was found.
func (e *Engine) RemoveOscillator(scope Scope, o *Oscillator) bool {
	st, ok := e.scopes[scope]
	if !ok {
		return false
	}
	i := slices.Index(st.oscillators, o)
	if i < 0 {
		return false
	}
	st.oscillators = slices.Delete(st.oscillators, i, i+1)
	for _, other := range e.scopes {
		other.bindings = slices.DeleteFunc(other.bindings, func(b *Binding) bool {
			return b.source == o
		})
	}
	return true
}

// RemoveBinding unregisters a binding. It reports whether it was found.
func (e *Engine) RemoveBinding(scope Scope, b *Binding) bool {
	st, ok := e.scopes[scope]
	if !ok {
		return false
	}
	i := slices.Index(st.bindings, b)
	if i < 0 {
		return false
	}
	st.bindings = slices.Delete(st.bindings, i, i+1)
	return true
}

// Scopes returns every scope that has held an object, in creation order.
func (e *Engine) Scopes() []Scope {
	return slices.Clone(e.order)
}

// Clear removes every oscillator and binding.
func (e *Engine) Clear() {
	e.scopes = make(map[Scope]*scopeState)
	e.order = nil
}

// Tick advances every running oscillator by dt.
func (e *Engine) Tick(dt time.Duration) {
	oscs := e.allOscillators()
	rates := make([]float64, len(oscs))
	for i, o := range oscs {
		lo, hi := o.rate.Range()
		rates[i] = lo + e.Value(o.rate)*(hi-lo)
	}
	for i, o := range oscs {
		o.advance(dt, rates[i])
	}
}

// Value returns the effective normalised value of p: its base value plus
// every binding's contribution, clamped to [0,1].
func (e *Engine) Value(p show.Continuous) float64 {
	v := p.Normalized()
	for _, b := range e.allBindings() {
		if b.target == p {
			v += b.depth * b.source.Output()
		}
	}
	return min(max(v, 0), 1)
}

// Modulated reports whether any binding targets p.
func (e *Engine) Modulated(p show.Continuous) bool {
	for _, b := range e.allBindings() {
		if b.target == p {
			return true
		}
	}
	return false
}

// EffectiveValue returns the effective value of p in its own units.
func (e *Engine) EffectiveValue(p show.Continuous) float64 {
	lo, hi := p.Range()
	return lo + e.Value(p)*(hi-lo)
}

func (e *Engine) allOscillators() []*Oscillator {
	var out []*Oscillator
	for _, s := range e.order {
		out = append(out, e.scopes[s].oscillators...)
	}
	return out
}

func (e *Engine) allBindings() []*Binding {
	var out []*Binding
	for _, s := range e.order {
		out = append(out, e.scopes[s].bindings...)
	}
	return out
}
