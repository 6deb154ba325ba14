// Package snapshot captures and recalls the values of every parameter in a
// show graph.
//
// A Snapshot stores raw values keyed by parameter address. Addresses name
// the channel, component type and label (see show.Graph.Address), so a
// snapshot stays meaningful after channels or components are added or
// removed: recall skips addresses that no longer resolve and never writes
// one parameter's value into another. Snapshot identity is a UUID assigned on creation and is
// not preserved across a project reload; labels are.
package snapshot

import (
	"errors"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-autopilot/internal/show"
)

// ErrNotFound is returned when operating on a snapshot the engine does not hold.
var ErrNotFound = errors.New("snapshot: not found")

// Snapshot is a named capture of parameter values.
type Snapshot struct {
	id     uuid.UUID
	label  string
	values map[string]float64
}

// ID returns the identity assigned on creation.
func (s *Snapshot) ID() uuid.UUID { return s.id }

// Label returns the snapshot's name.
func (s *Snapshot) Label() string { return s.label }

// Values returns a copy of the captured values keyed by address.
func (s *Snapshot) Values() map[string]float64 {
	return maps.Clone(s.values)
}

// Len returns the number of captured parameters.
func (s *Snapshot) Len() int { return len(s.values) }

// Engine owns the snapshots for one graph.
//
// Thread Safety: Engine is not safe for concurrent use.
type Engine struct {
	graph     *show.Graph
	snapshots []*Snapshot
}

// NewEngine creates a snapshot engine bound to a graph.
func NewEngine(graph *show.Graph) *Engine {
	return &Engine{graph: graph}
}

// Create captures the current graph values into a new snapshot.
func (e *Engine) Create(label string) *Snapshot {
	s := &Snapshot{id: uuid.New(), label: label}
	s.values = e.capture()
	e.snapshots = append(e.snapshots, s)
	return s
}

// Update replaces the snapshot's values with the current graph values.
func (e *Engine) Update(s *Snapshot) error {
	if !e.Contains(s) {
		return ErrNotFound
	}
	s.values = e.capture()
	return nil
}

// Recall writes the snapshot's values back into the graph. Addresses that
// no longer resolve are skipped; the number of values written is returned.
func (e *Engine) Recall(s *Snapshot) (int, error) {
	if !e.Contains(s) {
		return 0, ErrNotFound
	}
	n := 0
	for addr, v := range s.values {
		p, ok := e.graph.LookupParameter(addr)
		if !ok {
			continue
		}
		p.SetValue(v)
		n++
	}
	return n, nil
}

// Snapshots returns every snapshot in creation order.
func (e *Engine) Snapshots() []*Snapshot {
	return slices.Clone(e.snapshots)
}

// Contains reports whether s is held by this engine.
func (e *Engine) Contains(s *Snapshot) bool {
	return s != nil && slices.Contains(e.snapshots, s)
}

// Find returns the first snapshot with the given label.
func (e *Engine) Find(label string) (*Snapshot, bool) {
	for _, s := range e.snapshots {
		if s.label == label {
			return s, true
		}
	}
	return nil, false
}

// Remove deletes a snapshot. It reports whether it was found.
func (e *Engine) Remove(s *Snapshot) bool {
	i := slices.Index(e.snapshots, s)
	if i < 0 {
		return false
	}
	e.snapshots = slices.Delete(e.snapshots, i, i+1)
	return true
}

// Restore adds a snapshot with previously saved values under a new identity.
func (e *Engine) Restore(label string, values map[string]float64) *Snapshot {
	s := &Snapshot{id: uuid.New(), label: label, values: maps.Clone(values)}
	if s.values == nil {
		s.values = make(map[string]float64)
	}
	e.snapshots = append(e.snapshots, s)
	return s
}

// Clear removes every snapshot.
func (e *Engine) Clear() {
	e.snapshots = nil
}

func (e *Engine) capture() map[string]float64 {
	values := make(map[string]float64)
	e.graph.Walk(func(addr string, p show.Parameter) {
		values[addr] = p.Value()
	})
	return values
}
