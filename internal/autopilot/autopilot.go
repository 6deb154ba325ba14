package autopilot

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/nerrad567/gray-logic-autopilot/internal/modulation"
	"github.com/nerrad567/gray-logic-autopilot/internal/project"
	"github.com/nerrad567/gray-logic-autopilot/internal/show"
	"github.com/nerrad567/gray-logic-autopilot/internal/snapshot"
)

// OwnerPrefix marks every modulation object created by the controller.
const OwnerPrefix = "autopilot:"

// Reserved snapshot labels.
const (
	LabelBefore  = OwnerPrefix + "before"
	LabelRunning = OwnerPrefix + "running"
)

// Default visible parameter names.
const (
	ParamEnabled = "enabled"
	ParamReset   = "reset"
)

// Owned reports whether a modulation object label carries the ownership tag.
func Owned(label string) bool {
	return strings.HasPrefix(label, OwnerPrefix)
}

// Logger defines the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ModulationEngine is the subset of the modulation engine the controller uses.
type ModulationEngine interface {
	NewOscillator(scope modulation.Scope, spec modulation.OscillatorSpec) (*modulation.Oscillator, error)
	AddBinding(scope modulation.Scope, label string, src *modulation.Oscillator, target show.Continuous, depth float64) (*modulation.Binding, error)
	Oscillators(scope modulation.Scope) []*modulation.Oscillator
	Bindings(scope modulation.Scope) []*modulation.Binding
	RemoveOscillator(scope modulation.Scope, o *modulation.Oscillator) bool
	RemoveBinding(scope modulation.Scope, b *modulation.Binding) bool
	Scopes() []modulation.Scope
}

// SnapshotEngine is the subset of the snapshot engine the controller uses.
type SnapshotEngine interface {
	Create(label string) *snapshot.Snapshot
	Update(s *snapshot.Snapshot) error
	Recall(s *snapshot.Snapshot) (int, error)
	Snapshots() []*snapshot.Snapshot
	Contains(s *snapshot.Snapshot) bool
	Remove(s *snapshot.Snapshot) bool
}

// Deps holds the collaborators of an Autopilot.
type Deps struct {
	Graph      *show.Graph
	Modulation ModulationEngine
	Snapshots  SnapshotEngine
	Library    *Library

	// Qualifier defaults to DefaultQualifier.
	Qualifier Qualifier

	// Hooks are notified in order.
	Hooks []Hooks

	// Rand defaults to a time-seeded source.
	Rand Rand

	Logger Logger
}

// Option customises an Autopilot.
type Option func(*Autopilot)

// WithVisibleParameters appends names to the list of parameters shown to
// the user alongside enabled and reset.
func WithVisibleParameters(names ...string) Option {
	return func(a *Autopilot) { a.visible = append(a.visible, names...) }
}

// Autopilot is the automation controller.
//
// Thread Safety: not safe for concurrent use. Every method runs to
// completion synchronously.
type Autopilot struct {
	graph     *show.Graph
	mods      ModulationEngine
	snaps     SnapshotEngine
	library   *Library
	qualifier Qualifier
	hooks     []Hooks
	rand      Rand
	logger    Logger
	visible   []string

	enabled bool
	before  *snapshot.Snapshot
	running *snapshot.Snapshot

	// automated holds the channels whose transition and autocycle settings
	// this controller chose.
	automated map[*show.Channel]struct{}
}

// New creates a disabled controller.
//
// Returns ErrMissingDependency if Graph, Modulation, Snapshots or Library is nil.
func New(deps Deps, opts ...Option) (*Autopilot, error) {
	switch {
	case deps.Graph == nil:
		return nil, fmt.Errorf("%w: graph", ErrMissingDependency)
	case deps.Modulation == nil:
		return nil, fmt.Errorf("%w: modulation engine", ErrMissingDependency)
	case deps.Snapshots == nil:
		return nil, fmt.Errorf("%w: snapshot engine", ErrMissingDependency)
	case deps.Library == nil:
		return nil, fmt.Errorf("%w: library", ErrMissingDependency)
	}

	a := &Autopilot{
		graph:     deps.Graph,
		mods:      deps.Modulation,
		snaps:     deps.Snapshots,
		library:   deps.Library,
		qualifier: deps.Qualifier,
		hooks:     slices.Clone(deps.Hooks),
		rand:      deps.Rand,
		logger:    deps.Logger,
		visible:   []string{ParamEnabled, ParamReset},
		automated: make(map[*show.Channel]struct{}),
	}
	if a.qualifier == nil {
		a.qualifier = DefaultQualifier{}
	}
	if a.rand == nil {
		a.rand = NewRand(0)
	}
	if a.logger == nil {
		a.logger = noopLogger{}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Enabled reports the current state.
func (a *Autopilot) Enabled() bool { return a.enabled }

// VisibleParameters returns the parameter names the host UI should display.
func (a *Autopilot) VisibleParameters() []string {
	return slices.Clone(a.visible)
}

// SetEnabled switches automation on or off. Setting the current state again
// does nothing. The transition always completes; failures along the way are
// logged and skipped.
func (a *Autopilot) SetEnabled(on bool) {
	if on == a.enabled {
		return
	}
	a.enabled = on
	if on {
		a.enable()
	} else {
		a.disable()
	}
}

// Restore sets the state after a project load without running a transition;
// the loaded graph and modulation objects already reflect that state.
// When enabled, qualifying channels with transition or autocycle on are
// adopted as automated so a later disable stops them.
func (a *Autopilot) Restore(enabled bool) {
	a.enabled = enabled
	if !enabled {
		return
	}
	for _, ch := range a.graph.Channels() {
		if a.qualifier.ChannelQualifies(ch) && (ch.TransitionEnabled() || ch.AutoCycleEnabled()) {
			a.automated[ch] = struct{}{}
		}
	}
}

func (a *Autopilot) enable() {
	a.each(Hooks.WillEnable)
	a.relink()

	a.before = a.capture(a.before, LabelBefore)

	if a.running == nil {
		a.logger.Info("autopilot first start")
		a.firstStart()
	} else {
		if _, err := a.snaps.Recall(a.running); err != nil {
			a.logger.Error("recalling running snapshot", "error", err)
		}
		for _, o := range a.OwnedOscillators() {
			o.Start()
		}
		a.resumeChannels()
		a.logger.Info("autopilot resumed")
	}

	a.each(Hooks.DidEnable)
}

func (a *Autopilot) disable() {
	a.each(Hooks.WillDisable)
	a.relink()

	a.running = a.capture(a.running, LabelRunning)

	if a.before != nil {
		if _, err := a.snaps.Recall(a.before); err != nil {
			a.logger.Error("recalling before snapshot", "error", err)
		}
	} else {
		a.logger.Error("no before snapshot to restore, leaving graph as-is")
	}

	a.stopChannels()

	for _, o := range a.OwnedOscillators() {
		o.Stop()
		locked := o.TempoLock()
		if locked {
			o.SetTempoLock(false)
		}
		o.Reset()
		if locked {
			o.SetTempoLock(true)
		}
	}

	a.logger.Info("autopilot disabled")
	a.each(Hooks.DidDisable)
}

// capture creates the snapshot when ref is nil, otherwise updates it.
func (a *Autopilot) capture(ref *snapshot.Snapshot, label string) *snapshot.Snapshot {
	if ref == nil {
		return a.snaps.Create(label)
	}
	if err := a.snaps.Update(ref); err != nil {
		a.logger.Error("updating snapshot", "label", label, "error", err)
	}
	return ref
}

// relink drops cached snapshot references the engine no longer holds and
// looks missing ones up by label.
func (a *Autopilot) relink() {
	a.before = a.relinkOne(a.before, LabelBefore)
	a.running = a.relinkOne(a.running, LabelRunning)
}

func (a *Autopilot) relinkOne(ref *snapshot.Snapshot, label string) *snapshot.Snapshot {
	if ref != nil && !a.snaps.Contains(ref) {
		a.logger.Debug("dropping stale snapshot reference", "label", label)
		ref = nil
	}
	if ref != nil {
		return ref
	}
	for _, s := range a.snaps.Snapshots() {
		if s.Label() == label {
			return s
		}
	}
	return nil
}

// resumeChannels switches automation back on for channels randomised
// earlier. Qualifying channels the controller has not seen yet, such as
// channels added while disabled, are randomised first so they never run
// on host defaults.
func (a *Autopilot) resumeChannels() {
	a.pruneChannels()
	for _, ch := range a.graph.Channels() {
		if !a.qualifier.ChannelQualifies(ch) {
			continue
		}
		if _, ok := a.automated[ch]; !ok {
			a.logger.Debug("randomising channel seen on resume", "channel", ch.Label())
			a.randomizeChannel(ch)
			continue
		}
		ch.SetTransitionEnabled(true)
		ch.SetAutoCycleEnabled(true)
	}
}

// stopChannels switches transition and autocycle off on automated channels.
// Times and blends are kept for the next resume.
func (a *Autopilot) stopChannels() {
	a.pruneChannels()
	for ch := range a.automated {
		ch.SetTransitionEnabled(false)
		ch.SetAutoCycleEnabled(false)
	}
}

// pruneChannels forgets channels no longer in the graph.
func (a *Autopilot) pruneChannels() {
	live := a.graph.Channels()
	maps.DeleteFunc(a.automated, func(ch *show.Channel, _ struct{}) bool {
		return !slices.Contains(live, ch)
	})
}

// Reset deletes both reserved snapshots and every owned oscillator and
// binding, so the next enable runs first start again.
//
// Returns ErrResetWhileEnabled, changing nothing, when called while enabled.
func (a *Autopilot) Reset() error {
	if a.enabled {
		return ErrResetWhileEnabled
	}

	removed := 0
	for _, s := range a.snaps.Snapshots() {
		if s.Label() == LabelBefore || s.Label() == LabelRunning {
			if a.snaps.Remove(s) {
				removed++
			}
		}
	}
	oscs, binds := a.removeOwned(a.allScopes())
	a.before, a.running = nil, nil
	clear(a.automated)

	a.logger.Info("autopilot reset", "snapshots", removed, "oscillators", oscs, "bindings", binds)
	return nil
}

// ProjectChanged drops cached snapshot references on any event other than
// a save. Snapshots themselves are never deleted here.
func (a *Autopilot) ProjectChanged(ev project.Event) {
	if ev.Kind == project.EventSaved {
		return
	}
	a.before, a.running = nil, nil
}

// Status summarises the controller for the host UI.
type Status struct {
	Enabled         bool     `json:"enabled"`
	Oscillators     int      `json:"oscillators"`
	Bindings        int      `json:"bindings"`
	BeforeSnapshot  bool     `json:"before_snapshot"`
	RunningSnapshot bool     `json:"running_snapshot"`
	Visible         []string `json:"visible_parameters"`
}

// Status returns the current state and ownership counts.
func (a *Autopilot) Status() Status {
	st := Status{
		Enabled:     a.enabled,
		Oscillators: len(a.OwnedOscillators()),
		Bindings:    len(a.OwnedBindings()),
		Visible:     a.VisibleParameters(),
	}
	for _, s := range a.snaps.Snapshots() {
		switch s.Label() {
		case LabelBefore:
			st.BeforeSnapshot = true
		case LabelRunning:
			st.RunningSnapshot = true
		}
	}
	return st
}

// OwnedOscillators returns every oscillator carrying the ownership tag.
func (a *Autopilot) OwnedOscillators() []*modulation.Oscillator {
	var out []*modulation.Oscillator
	for _, s := range a.allScopes() {
		for _, o := range a.mods.Oscillators(s) {
			if Owned(o.Label()) {
				out = append(out, o)
			}
		}
	}
	return out
}

// OwnedBindings returns every binding carrying the ownership tag.
func (a *Autopilot) OwnedBindings() []*modulation.Binding {
	var out []*modulation.Binding
	for _, s := range a.allScopes() {
		for _, b := range a.mods.Bindings(s) {
			if Owned(b.Label()) {
				out = append(out, b)
			}
		}
	}
	return out
}

// allScopes lists the global scope, every pattern and effect scope in the
// graph, then any other scope the engine knows about.
func (a *Autopilot) allScopes() []modulation.Scope {
	scopes := []modulation.Scope{modulation.Global}
	for _, ch := range a.graph.Channels() {
		for _, c := range ch.Components() {
			scopes = append(scopes, modulation.Local(c))
		}
	}
	for _, s := range a.mods.Scopes() {
		if !slices.Contains(scopes, s) {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

// cleanupScopes lists the global scope and the pattern and effect scopes of
// qualifying channels.
func (a *Autopilot) cleanupScopes() []modulation.Scope {
	scopes := []modulation.Scope{modulation.Global}
	for _, ch := range a.graph.Channels() {
		if !a.qualifier.ChannelQualifies(ch) {
			continue
		}
		for _, c := range ch.Components() {
			scopes = append(scopes, modulation.Local(c))
		}
	}
	return scopes
}

// removeOwned deletes owned bindings then owned oscillators in each scope.
// An owned oscillator that still drives a binding without the ownership tag
// is kept, and so is that binding.
func (a *Autopilot) removeOwned(scopes []modulation.Scope) (oscillators, bindings int) {
	for _, s := range scopes {
		for _, b := range a.mods.Bindings(s) {
			if Owned(b.Label()) && a.mods.RemoveBinding(s, b) {
				bindings++
			}
		}
	}
	for _, s := range scopes {
		for _, o := range a.mods.Oscillators(s) {
			if !Owned(o.Label()) {
				continue
			}
			if n := a.foreignDependents(o); n > 0 {
				a.logger.Warn("keeping autopilot oscillator used by other bindings",
					"oscillator", o.Label(), "bindings", n)
				continue
			}
			if a.mods.RemoveOscillator(s, o) {
				oscillators++
			}
		}
	}
	return oscillators, bindings
}

// foreignDependents counts bindings without the ownership tag sourced from o.
func (a *Autopilot) foreignDependents(o *modulation.Oscillator) int {
	n := 0
	for _, s := range a.allScopes() {
		for _, b := range a.mods.Bindings(s) {
			if b.Source() == o && !Owned(b.Label()) {
				n++
			}
		}
	}
	return n
}

func (a *Autopilot) each(fn func(Hooks)) {
	for _, h := range a.hooks {
		fn(h)
	}
}
