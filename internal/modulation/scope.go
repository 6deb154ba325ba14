package modulation

import "github.com/nerrad567/gray-logic-autopilot/internal/show"

// Scope is the container a modulation object is registered in.
// The zero value is the global scope.
type Scope struct {
	component *show.Component
}

// Global is the scope for modulation objects not tied to a component.
var Global = Scope{}

// Local returns the scope owned by a pattern or effect.
func Local(c *show.Component) Scope {
	return Scope{component: c}
}

// ScopeFor returns the local scope of the parameter's owner, or Global when
// the parameter does not belong to a component.
func ScopeFor(p show.Parameter) Scope {
	if owner := p.Owner(); owner != nil {
		return Local(owner)
	}
	return Global
}

// Component returns the owning component, or nil for the global scope.
func (s Scope) Component() *show.Component { return s.component }

// IsGlobal reports whether s is the global scope.
func (s Scope) IsGlobal() bool { return s.component == nil }

// String returns "global" or the owning component's kind and label.
func (s Scope) String() string {
	if s.component == nil {
		return "global"
	}
	return string(s.component.Kind()) + ":" + s.component.Label()
}
