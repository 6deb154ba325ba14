package project

import (
	"github.com/nerrad567/gray-logic-autopilot/internal/modulation"
	"github.com/nerrad567/gray-logic-autopilot/internal/show"
	"github.com/nerrad567/gray-logic-autopilot/internal/snapshot"
)

// GlobalScope is the textual form of the global modulation scope.
// Local scopes are stored as component addresses.
const GlobalScope = "global"

// NoOscillator marks a binding whose target is a graph parameter.
const NoOscillator = -1

// Document is the serialisable form of a project.
type Document struct {
	Parameters  map[string]float64
	Oscillators []OscillatorRecord
	Bindings    []BindingRecord
	Snapshots   []SnapshotRecord
	Settings    map[string]string
}

// OscillatorRecord is a saved oscillator.
type OscillatorRecord struct {
	Scope     string
	Label     string
	PeriodMS  float64
	Waveform  string
	Running   bool
	TempoLock bool
	Basis     float64
}

// BindingRecord is a saved binding. Source and TargetOscillator index into
// Document.Oscillators; Target is a parameter address used when
// TargetOscillator is NoOscillator.
type BindingRecord struct {
	Scope            string
	Label            string
	Source           int
	Target           string
	TargetOscillator int
	Depth            float64
}

// SnapshotRecord is a saved snapshot.
type SnapshotRecord struct {
	Label  string
	Values map[string]float64
}

// Capture builds a document from the live state. Objects in scopes whose
// component is no longer in the graph are left out.
func Capture(graph *show.Graph, mods *modulation.Engine, snaps *snapshot.Engine) *Document {
	doc := &Document{Parameters: make(map[string]float64)}
	graph.Walk(func(addr string, p show.Parameter) {
		doc.Parameters[addr] = p.Value()
	})

	index := make(map[*modulation.Oscillator]int)
	for _, scope := range mods.Scopes() {
		key, ok := scopeKey(graph, scope)
		if !ok {
			continue
		}
		for _, o := range mods.Oscillators(scope) {
			index[o] = len(doc.Oscillators)
			doc.Oscillators = append(doc.Oscillators, OscillatorRecord{
				Scope:     key,
				Label:     o.Label(),
				PeriodMS:  o.PeriodMS(),
				Waveform:  string(o.Waveform()),
				Running:   o.Running(),
				TempoLock: o.TempoLock(),
				Basis:     o.Basis(),
			})
		}
	}

	for _, scope := range mods.Scopes() {
		key, ok := scopeKey(graph, scope)
		if !ok {
			continue
		}
		for _, b := range mods.Bindings(scope) {
			src, ok := index[b.Source()]
			if !ok {
				continue
			}
			rec := BindingRecord{
				Scope:            key,
				Label:            b.Label(),
				Source:           src,
				TargetOscillator: NoOscillator,
				Depth:            b.Depth(),
			}
			if i, ok := rateIndex(index, b.Target()); ok {
				rec.TargetOscillator = i
			} else if addr, ok := graph.Address(b.Target()); ok {
				rec.Target = addr
			} else {
				continue
			}
			doc.Bindings = append(doc.Bindings, rec)
		}
	}

	for _, s := range snaps.Snapshots() {
		doc.Snapshots = append(doc.Snapshots, SnapshotRecord{Label: s.Label(), Values: s.Values()})
	}
	return doc
}

// Apply replaces the engines' contents with the document and writes its
// parameter values into the graph. Every object gets a new identity.
// It returns the number of entries skipped because they no longer resolve.
func Apply(doc *Document, graph *show.Graph, mods *modulation.Engine, snaps *snapshot.Engine) int {
	skipped := 0
	for addr, v := range doc.Parameters {
		p, ok := graph.LookupParameter(addr)
		if !ok {
			skipped++
			continue
		}
		p.SetValue(v)
	}

	mods.Clear()
	oscs := make([]*modulation.Oscillator, len(doc.Oscillators))
	for i, rec := range doc.Oscillators {
		scope, ok := resolveScope(graph, rec.Scope)
		if !ok {
			skipped++
			continue
		}
		o, err := mods.NewOscillator(scope, modulation.OscillatorSpec{
			Label:     rec.Label,
			PeriodMS:  rec.PeriodMS,
			Waveform:  modulation.Waveform(rec.Waveform),
			Running:   rec.Running,
			TempoLock: rec.TempoLock,
		})
		if err != nil {
			skipped++
			continue
		}
		o.SetBasis(rec.Basis)
		oscs[i] = o
	}

	for _, rec := range doc.Bindings {
		scope, ok := resolveScope(graph, rec.Scope)
		src := oscillatorAt(oscs, rec.Source)
		target := resolveTarget(graph, oscs, rec)
		if !ok || src == nil || target == nil {
			skipped++
			continue
		}
		if _, err := mods.AddBinding(scope, rec.Label, src, target, rec.Depth); err != nil {
			skipped++
		}
	}

	snaps.Clear()
	for _, rec := range doc.Snapshots {
		snaps.Restore(rec.Label, rec.Values)
	}
	return skipped
}

func scopeKey(graph *show.Graph, s modulation.Scope) (string, bool) {
	if s.IsGlobal() {
		return GlobalScope, true
	}
	return graph.ComponentAddress(s.Component())
}

func resolveScope(graph *show.Graph, key string) (modulation.Scope, bool) {
	if key == GlobalScope {
		return modulation.Global, true
	}
	c, ok := graph.LookupComponent(key)
	if !ok {
		return modulation.Scope{}, false
	}
	return modulation.Local(c), true
}

func rateIndex(index map[*modulation.Oscillator]int, target show.Continuous) (int, bool) {
	for o, i := range index {
		if o.Rate() == target {
			return i, true
		}
	}
	return 0, false
}

func oscillatorAt(oscs []*modulation.Oscillator, i int) *modulation.Oscillator {
	if i < 0 || i >= len(oscs) {
		return nil
	}
	return oscs[i]
}

func resolveTarget(graph *show.Graph, oscs []*modulation.Oscillator, rec BindingRecord) show.Continuous {
	if rec.TargetOscillator != NoOscillator {
		if o := oscillatorAt(oscs, rec.TargetOscillator); o != nil {
			return o.Rate()
		}
		return nil
	}
	p, ok := graph.LookupParameter(rec.Target)
	if !ok {
		return nil
	}
	c, ok := p.(show.Continuous)
	if !ok {
		return nil
	}
	return c
}
