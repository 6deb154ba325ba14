package autopilot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-autopilot/internal/modulation"
	"github.com/nerrad567/gray-logic-autopilot/internal/project"
	"github.com/nerrad567/gray-logic-autopilot/internal/show"
	"github.com/nerrad567/gray-logic-autopilot/internal/snapshot"
)

// recordingHooks records every lifecycle call in order.
type recordingHooks struct {
	events  []string
	started []int
	added   []*modulation.Binding
}

func (h *recordingHooks) WillEnable()  { h.events = append(h.events, "will-enable") }
func (h *recordingHooks) Starting()    { h.events = append(h.events, "starting") }
func (h *recordingHooks) DidEnable()   { h.events = append(h.events, "did-enable") }
func (h *recordingHooks) WillDisable() { h.events = append(h.events, "will-disable") }
func (h *recordingHooks) DidDisable()  { h.events = append(h.events, "did-disable") }

func (h *recordingHooks) Started(n int) {
	h.events = append(h.events, fmt.Sprintf("started(%d)", n))
	h.started = append(h.started, n)
}

func (h *recordingHooks) ModAdded(_ show.Continuous, _ *modulation.Oscillator, b *modulation.Binding) {
	h.events = append(h.events, "mod-added")
	h.added = append(h.added, b)
}

func (h *recordingHooks) count(event string) int {
	n := 0
	for _, e := range h.events {
		if e == event {
			n++
		}
	}
	return n
}

// recordingLogger counts warnings and errors.
type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Debug(string, ...any)       {}
func (l *recordingLogger) Info(string, ...any)        {}
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.errors = append(l.errors, msg) }

// rejectingEngine refuses every binding.
type rejectingEngine struct {
	*modulation.Engine
}

func (rejectingEngine) AddBinding(modulation.Scope, string, *modulation.Oscillator, show.Continuous, float64) (*modulation.Binding, error) {
	return nil, modulation.ErrBindingRejected
}

// fxQualifier rejects every pattern on the channel named FX.
type fxQualifier struct {
	DefaultQualifier
}

func (fxQualifier) PatternQualifies(ch *show.Channel, _ *show.Component) bool {
	return ch.Label() != "FX"
}

// fxQualifierChannels rejects the channel named FX entirely.
type fxQualifierChannels struct {
	DefaultQualifier
}

func (fxQualifierChannels) ChannelQualifies(ch *show.Channel) bool {
	return ch.Label() != "FX"
}

type harness struct {
	t       *testing.T
	graph   *show.Graph
	channel *show.Channel
	pattern *show.Component
	size    *show.BoundedParameter
	mods    *modulation.Engine
	snaps   *snapshot.Engine
	lib     *Library
	hooks   *recordingHooks
	log     *recordingLogger
	deps    Deps
}

// newHarness builds a graph with one channel "Main" holding one pattern of
// type P, and a library with size automated over [0.2, 0.8] with range 0.6.
func newHarness(t *testing.T) *harness {
	t.Helper()
	g := show.NewGraph()
	ch := g.AddChannel("Main", "Normal", "Dissolve", "Add")
	c := ch.AddPattern("P", "P1")
	size, err := c.AddBounded("size", "Size", 0, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddDiscrete("mode", "Mode", 3, 1); err != nil {
		t.Fatal(err)
	}

	lib := NewLibrary()
	p, err := lib.AddPattern("P")
	if err != nil {
		t.Fatal(err)
	}
	p.Add("size", Normalized, 0.2, 0.8, WithRange(0.6), WithPeriod(15, 45))

	h := &harness{
		t:       t,
		graph:   g,
		channel: ch,
		pattern: c,
		size:    size,
		mods:    modulation.NewEngine(),
		snaps:   snapshot.NewEngine(g),
		lib:     lib,
		hooks:   &recordingHooks{},
		log:     &recordingLogger{},
	}
	h.deps = Deps{
		Graph:      g,
		Modulation: h.mods,
		Snapshots:  h.snaps,
		Library:    lib,
		Hooks:      []Hooks{h.hooks},
		Rand:       NewRand(7),
		Logger:     h.log,
	}
	return h
}

func (h *harness) autopilot(opts ...Option) *Autopilot {
	h.t.Helper()
	ap, err := New(h.deps, opts...)
	if err != nil {
		h.t.Fatalf("New() error = %v", err)
	}
	return ap
}

func (h *harness) values() map[string]float64 {
	out := make(map[string]float64)
	h.graph.Walk(func(addr string, p show.Parameter) { out[addr] = p.Value() })
	return out
}

func labels(oscs []*modulation.Oscillator) []string {
	out := make([]string, 0, len(oscs))
	for _, o := range oscs {
		out = append(out, o.Label())
	}
	slices.Sort(out)
	return out
}

func TestNew_MissingDependency(t *testing.T) {
	h := newHarness(t)
	for name, mutate := range map[string]func(*Deps){
		"graph":      func(d *Deps) { d.Graph = nil },
		"modulation": func(d *Deps) { d.Modulation = nil },
		"snapshots":  func(d *Deps) { d.Snapshots = nil },
		"library":    func(d *Deps) { d.Library = nil },
	} {
		t.Run(name, func(t *testing.T) {
			deps := h.deps
			mutate(&deps)
			if _, err := New(deps); !errors.Is(err, ErrMissingDependency) {
				t.Errorf("New() error = %v, want ErrMissingDependency", err)
			}
		})
	}
}

func TestScenario_SinglePattern(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()

	ap.SetEnabled(true)

	oscs := ap.OwnedOscillators()
	binds := ap.OwnedBindings()
	if len(oscs) != 1 || len(binds) != 1 {
		t.Fatalf("owned = %d oscillators, %d bindings; want 1, 1", len(oscs), len(binds))
	}
	o := oscs[0]
	if o.PeriodMS() < 15_000 || o.PeriodMS() > 45_000 {
		t.Errorf("PeriodMS() = %v, want within [15000, 45000]", o.PeriodMS())
	}
	if o.Label() != OwnerPrefix+"Size" || o.Waveform() != modulation.WaveSine || !o.Running() {
		t.Errorf("oscillator = %q %s running=%v", o.Label(), o.Waveform(), o.Running())
	}
	if o.Scope() != modulation.Local(h.pattern) {
		t.Errorf("oscillator scope = %s, want the pattern's local scope", o.Scope())
	}
	if binds[0].Depth() != 0.6 || binds[0].Source() != o || binds[0].Target() != show.Continuous(h.size) {
		t.Errorf("binding depth=%v source ok=%v", binds[0].Depth(), binds[0].Source() == o)
	}
	if v := h.size.Value(); v < 0.2 || v > 0.8 {
		t.Errorf("size = %v, want within [0.2, 0.8]", v)
	}
	for i := 0; i < 50; i++ {
		h.mods.Tick(time.Second)
		if v := h.mods.EffectiveValue(h.size); v < 0.2-1e-9 || v > 0.8+1e-9 {
			t.Fatalf("effective size = %v left [0.2, 0.8]", v)
		}
	}

	if got := h.hooks.started; len(got) != 1 || got[0] != 1 {
		t.Errorf("Started() counts = %v, want [1]", got)
	}
	want := []string{"will-enable", "starting", "mod-added", "started(1)", "did-enable"}
	if !slices.Equal(h.hooks.events, want) {
		t.Errorf("hook order = %v, want %v", h.hooks.events, want)
	}
}

func TestScenario_FXChannelQualifier(t *testing.T) {
	h := newHarness(t)
	fx := h.graph.AddChannel("FX", "Dissolve")
	fxPattern := fx.AddPattern("P", "P on FX")
	if _, err := fxPattern.AddBounded("size", "FX Size", 0, 1, 0.5); err != nil {
		t.Fatal(err)
	}
	h.deps.Qualifier = fxQualifier{}
	ap := h.autopilot()

	ap.SetEnabled(true)

	if n := len(h.mods.Oscillators(modulation.Local(fxPattern))); n != 0 {
		t.Errorf("FX pattern got %d oscillators, want 0", n)
	}
	if n := len(h.mods.Bindings(modulation.Local(fxPattern))); n != 0 {
		t.Errorf("FX pattern got %d bindings, want 0", n)
	}
	if n := len(h.mods.Oscillators(modulation.Local(h.pattern))); n != 1 {
		t.Errorf("Main pattern got %d oscillators, want 1", n)
	}
}

func TestScenario_ResetReturnsToFirstStart(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()

	ap.SetEnabled(true)
	first := ap.OwnedOscillators()[0]
	ap.SetEnabled(false)

	if err := ap.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	for _, s := range h.snaps.Snapshots() {
		if s.Label() == LabelBefore || s.Label() == LabelRunning {
			t.Errorf("snapshot %q survived reset", s.Label())
		}
	}
	if len(ap.OwnedOscillators()) != 0 || len(ap.OwnedBindings()) != 0 {
		t.Fatal("owned modulation objects survived reset")
	}

	ap.SetEnabled(true)
	if n := h.hooks.count("starting"); n != 2 {
		t.Errorf("first start ran %d times, want 2", n)
	}
	oscs := ap.OwnedOscillators()
	if len(oscs) != 1 || oscs[0] == first {
		t.Error("expected a freshly created oscillator after reset")
	}
	if _, ok := h.snaps.Find(LabelBefore); !ok {
		t.Error("first start after reset should capture a new before snapshot")
	}
}

// snapshotValue returns size as stored in the labelled snapshot.
func (h *harness) snapshotValue(t *testing.T, label string) float64 {
	t.Helper()
	s, ok := h.snaps.Find(label)
	if !ok {
		t.Fatalf("no snapshot labelled %s", label)
	}
	return s.Values()["/channel/Main/pattern/P/P1/size"]
}

func TestReset_WhileEnabledChangesNothing(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()
	ap.SetEnabled(true)

	before := ap.Status()
	if err := ap.Reset(); !errors.Is(err, ErrResetWhileEnabled) {
		t.Fatalf("Reset() error = %v, want ErrResetWhileEnabled", err)
	}
	after := ap.Status()
	if before.Oscillators != after.Oscillators || before.Bindings != after.Bindings ||
		before.BeforeSnapshot != after.BeforeSnapshot || !after.Enabled {
		t.Errorf("status changed: %+v -> %+v", before, after)
	}
}

func TestSetEnabled_SameValueIsNoop(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()

	ap.SetEnabled(false)
	if len(h.hooks.events) != 0 {
		t.Errorf("disabling while disabled fired hooks: %v", h.hooks.events)
	}

	ap.SetEnabled(true)
	n := len(h.hooks.events)
	ap.SetEnabled(true)
	if len(h.hooks.events) != n {
		t.Errorf("enabling while enabled fired hooks: %v", h.hooks.events[n:])
	}
}

func TestIdempotentResume(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()

	ap.SetEnabled(true)
	oscs := ap.OwnedOscillators()
	binds := ap.OwnedBindings()

	ap.SetEnabled(false)
	ap.SetEnabled(true)

	oscs2 := ap.OwnedOscillators()
	binds2 := ap.OwnedBindings()
	if len(oscs2) != len(oscs) || len(binds2) != len(binds) {
		t.Fatalf("counts changed: %d/%d -> %d/%d", len(oscs), len(binds), len(oscs2), len(binds2))
	}
	if !slices.Equal(labels(oscs), labels(oscs2)) {
		t.Errorf("labels changed: %v -> %v", labels(oscs), labels(oscs2))
	}
	for _, o := range oscs2 {
		if !o.Running() {
			t.Errorf("oscillator %s not restarted on resume", o.Label())
		}
	}
	if n := h.hooks.count("starting"); n != 1 {
		t.Errorf("first start ran %d times, want 1", n)
	}
}

func TestRoundTripRestore(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()
	want := h.values()

	ap.SetEnabled(true)
	if h.size.Value() == want["/channel/Main/pattern/P/P1/size"] {
		t.Log("placement happened to keep the original value")
	}
	ap.SetEnabled(false)

	got := h.values()
	for addr, v := range want {
		if got[addr] != v {
			t.Errorf("%s = %v after disable, want exactly %v", addr, got[addr], v)
		}
	}
}

func TestResume_RecallsRunningBaseline(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()

	ap.SetEnabled(true)
	h.size.SetValue(0.7) // manual tweak while enabled
	ap.SetEnabled(false)

	h.size.SetValue(0.1) // manual tweak while disabled
	ap.SetEnabled(true)
	if h.size.Value() != 0.7 {
		t.Errorf("size after resume = %v, want the running value 0.7", h.size.Value())
	}

	ap.SetEnabled(false)
	if h.size.Value() != 0.1 {
		t.Errorf("size after disable = %v, want the before value 0.1", h.size.Value())
	}
}

func TestOwnershipIsolation(t *testing.T) {
	h := newHarness(t)
	foreignGlobal, _ := h.mods.NewOscillator(modulation.Global, modulation.OscillatorSpec{
		Label: "user lfo", PeriodMS: 2000, Running: true,
	})
	foreignGlobal.SetBasis(0.4)
	local := modulation.Local(h.pattern)
	foreignLocal, _ := h.mods.NewOscillator(local, modulation.OscillatorSpec{
		Label: "user local", PeriodMS: 2000,
	})
	foreignLocal.SetBasis(0.3)
	other := show.NewBoundedParameter("other", "Other", 0, 1, 0)
	foreignBinding, err := h.mods.AddBinding(modulation.Global, "user binding", foreignGlobal, other, 0.2)
	if err != nil {
		t.Fatal(err)
	}

	ap := h.autopilot()
	ap.SetEnabled(true)

	// A user binding driven by an owned oscillator.
	owned := ap.OwnedOscillators()[0]
	follower := show.NewBoundedParameter("follower", "Follower", 0, 1, 0)
	userBinding, err := h.mods.AddBinding(modulation.Global, "user follows size", owned, follower, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	ap.SetEnabled(false)
	ap.SetEnabled(true)
	ap.SetEnabled(false)
	if err := ap.Reset(); err != nil {
		t.Fatal(err)
	}

	if !slices.Contains(h.mods.Bindings(modulation.Global), userBinding) {
		t.Fatal("user binding sourced from an owned oscillator was removed")
	}
	if !slices.Contains(ap.OwnedOscillators(), owned) {
		t.Error("owned oscillator driving a user binding should be kept")
	}
	if len(ap.OwnedBindings()) != 0 {
		t.Errorf("owned bindings after Reset() = %d, want 0", len(ap.OwnedBindings()))
	}
	if !slices.Contains(h.log.warns, "keeping autopilot oscillator used by other bindings") {
		t.Errorf("warnings = %v, want one for the kept oscillator", h.log.warns)
	}

	if !slices.Contains(h.mods.Oscillators(modulation.Global), foreignGlobal) ||
		!slices.Contains(h.mods.Oscillators(local), foreignLocal) {
		t.Fatal("foreign oscillator was removed")
	}
	if !slices.Contains(h.mods.Bindings(modulation.Global), foreignBinding) {
		t.Fatal("foreign binding was removed")
	}
	if !foreignGlobal.Running() || foreignGlobal.Basis() != 0.4 {
		t.Errorf("running foreign oscillator touched: running=%v basis=%v", foreignGlobal.Running(), foreignGlobal.Basis())
	}
	if foreignLocal.Running() || foreignLocal.Basis() != 0.3 {
		t.Errorf("stopped foreign oscillator touched: running=%v basis=%v", foreignLocal.Running(), foreignLocal.Basis())
	}
}

func TestFirstStart_KeepsOwnedOscillatorDrivingForeignBinding(t *testing.T) {
	h := newHarness(t)
	stray, _ := h.mods.NewOscillator(modulation.Global, modulation.OscillatorSpec{
		Label: OwnerPrefix + "left over", PeriodMS: 1000,
	})
	other := show.NewBoundedParameter("other", "Other", 0, 1, 0)
	userBinding, err := h.mods.AddBinding(modulation.Global, "user", stray, other, 0.2)
	if err != nil {
		t.Fatal(err)
	}

	ap := h.autopilot()
	ap.SetEnabled(true)

	if !slices.Contains(h.mods.Bindings(modulation.Global), userBinding) {
		t.Fatal("first start removed a user binding")
	}
	if !slices.Contains(h.mods.Oscillators(modulation.Global), stray) {
		t.Error("first start removed the oscillator the user binding depends on")
	}
}

func TestResume_AfterShapeChange(t *testing.T) {
	h := newHarness(t)
	second := h.graph.AddChannel("Second", "Normal", "Dissolve", "Add")
	secondSize, err := second.AddPattern("P", "P1").AddBounded("size", "Size", 0, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	ap := h.autopilot()

	ap.SetEnabled(true)
	h.size.SetValue(0.9)
	secondSize.SetValue(0.1)
	ap.SetEnabled(false)

	// Remove the first channel and put a same-named channel with a
	// different pattern type in its place.
	h.graph.RemoveChannel(h.channel)
	replacement := h.graph.AddChannel("Main", "Normal", "Dissolve", "Add")
	unrelated, err := replacement.AddPattern("Q", "P1").AddBounded("size", "Size", 0, 1, 0.33)
	if err != nil {
		t.Fatal(err)
	}
	extra, err := second.AddPattern("Q", "").AddBounded("size", "Size", 0, 1, 0.44)
	if err != nil {
		t.Fatal(err)
	}
	secondSize.SetValue(0.3)

	ap.SetEnabled(true)

	for _, tc := range []struct {
		name string
		got  float64
		want float64
	}{
		{"second channel", secondSize.Value(), 0.1},
		{"replacement channel", unrelated.Value(), 0.33},
		{"pattern added while disabled", extra.Value(), 0.44},
	} {
		if tc.got != tc.want {
			t.Errorf("%s size = %v, want %v", tc.name, tc.got, tc.want)
		}
	}

	ap.SetEnabled(false)
	if secondSize.Value() != 0.3 {
		t.Errorf("second channel size after disable = %v, want the before value 0.3", secondSize.Value())
	}
	if unrelated.Value() != 0.33 || extra.Value() != 0.44 {
		t.Errorf("unsaved parameters changed on disable: %v, %v", unrelated.Value(), extra.Value())
	}
}

func TestResume_RandomizesChannelAddedWhileDisabled(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()
	ap.SetEnabled(true)
	ap.SetEnabled(false)

	late := h.graph.AddChannel("Late", "Normal", "Dissolve", "Add")
	ap.SetEnabled(true)

	if !late.TransitionEnabled() || late.TransitionTimeSecs() < 2 || late.TransitionTimeSecs() > 15 {
		t.Errorf("transition enabled=%v time=%v, want randomised", late.TransitionEnabled(), late.TransitionTimeSecs())
	}
	if !late.AutoCycleEnabled() || late.AutoCycleTimeSecs() < 30 || late.AutoCycleTimeSecs() > 75 {
		t.Errorf("autocycle enabled=%v time=%v, want randomised", late.AutoCycleEnabled(), late.AutoCycleTimeSecs())
	}
	if late.AutoCycleMode() != show.AutoCycleRandom || late.Blend() != "Dissolve" {
		t.Errorf("mode=%s blend=%q", late.AutoCycleMode(), late.Blend())
	}
	transition := late.TransitionTimeSecs()

	ap.SetEnabled(false)
	if late.TransitionEnabled() || late.AutoCycleEnabled() {
		t.Error("late channel automation still enabled after disable")
	}
	ap.SetEnabled(true)
	if late.TransitionTimeSecs() != transition {
		t.Errorf("second resume re-randomised the channel: %v -> %v", transition, late.TransitionTimeSecs())
	}
}

func TestResume_SkipsNonQualifyingNewChannel(t *testing.T) {
	h := newHarness(t)
	h.deps.Qualifier = fxQualifierChannels{}
	ap := h.autopilot()
	ap.SetEnabled(true)
	ap.SetEnabled(false)

	fx := h.graph.AddChannel("FX", "Normal", "Dissolve")
	ap.SetEnabled(true)

	if fx.TransitionEnabled() || fx.AutoCycleEnabled() || fx.Blend() != "Normal" {
		t.Errorf("non-qualifying channel touched: transition=%v autocycle=%v blend=%q",
			fx.TransitionEnabled(), fx.AutoCycleEnabled(), fx.Blend())
	}
}

func TestRestore_AdoptsRunningChannels(t *testing.T) {
	h := newHarness(t)
	h.channel.SetTransitionEnabled(true)
	h.channel.SetAutoCycleEnabled(true)
	ap := h.autopilot()

	ap.Restore(true)
	ap.SetEnabled(false)

	if h.channel.TransitionEnabled() || h.channel.AutoCycleEnabled() {
		t.Error("disable after Restore(true) left channel automation running")
	}
}

func TestDisable_StopsAndRewindsTempoLockedOscillators(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()
	ap.SetEnabled(true)

	o := ap.OwnedOscillators()[0]
	h.mods.Tick(5 * time.Second)
	o.SetTempoLock(true)

	ap.SetEnabled(false)
	if o.Running() {
		t.Error("oscillator still running after disable")
	}
	if o.Basis() != 0 {
		t.Errorf("Basis() = %v, want 0 even when tempo-locked", o.Basis())
	}
	if !o.TempoLock() {
		t.Error("tempo lock was not restored")
	}
}

func TestFirstStart_ChannelAutomation(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()
	ap.SetEnabled(true)

	ch := h.channel
	if ch.Blend() != "Dissolve" {
		t.Errorf("Blend() = %q, want Dissolve", ch.Blend())
	}
	if !ch.TransitionEnabled() || ch.TransitionTimeSecs() < 2 || ch.TransitionTimeSecs() > 15 {
		t.Errorf("transition enabled=%v time=%v", ch.TransitionEnabled(), ch.TransitionTimeSecs())
	}
	if !ch.AutoCycleEnabled() || ch.AutoCycleTimeSecs() < 30 || ch.AutoCycleTimeSecs() > 75 {
		t.Errorf("autocycle enabled=%v time=%v", ch.AutoCycleEnabled(), ch.AutoCycleTimeSecs())
	}
	if ch.AutoCycleMode() != show.AutoCycleRandom {
		t.Errorf("AutoCycleMode() = %s", ch.AutoCycleMode())
	}
	transition := ch.TransitionTimeSecs()

	ap.SetEnabled(false)
	if ch.TransitionEnabled() || ch.AutoCycleEnabled() {
		t.Error("channel automation still enabled after disable")
	}
	ap.SetEnabled(true)
	if !ch.TransitionEnabled() || !ch.AutoCycleEnabled() || ch.TransitionTimeSecs() != transition {
		t.Error("resume should re-enable channel automation with the same times")
	}
}

func TestFirstStart_LookupErrorsAreSkipped(t *testing.T) {
	h := newHarness(t)
	desc, _ := h.lib.Lookup("P")
	desc.Add("missing", Normalized, 0, 1).Add("mode", Normalized, 0, 1)
	ap := h.autopilot()

	ap.SetEnabled(true)

	if len(h.log.warns) != 2 {
		t.Errorf("warnings = %v, want one for the missing path and one for the discrete parameter", h.log.warns)
	}
	if got := h.hooks.started; len(got) != 1 || got[0] != 1 {
		t.Errorf("Started() = %v, want [1]", got)
	}
	if !ap.Enabled() {
		t.Error("controller should still be enabled")
	}
}

func TestFirstStart_BindingRejected(t *testing.T) {
	h := newHarness(t)
	h.deps.Modulation = rejectingEngine{h.mods}
	ap := h.autopilot()

	ap.SetEnabled(true)

	if len(h.log.errors) != 1 {
		t.Errorf("errors = %v, want 1", h.log.errors)
	}
	if got := h.hooks.started; len(got) != 1 || got[0] != 0 {
		t.Errorf("Started() = %v, want [0]", got)
	}
	if h.hooks.count("mod-added") != 0 {
		t.Error("ModAdded fired for a rejected binding")
	}
	orphans := ap.OwnedOscillators()
	if len(orphans) != 1 {
		t.Fatalf("orphan oscillators = %d, want 1", len(orphans))
	}

	ap.SetEnabled(false)
	if err := ap.Reset(); err != nil {
		t.Fatal(err)
	}
	if len(ap.OwnedOscillators()) != 0 {
		t.Error("Reset() should remove the orphan oscillator")
	}
}

func TestFirstStart_RemovesStrayOwnedObjects(t *testing.T) {
	h := newHarness(t)
	stray, _ := h.mods.NewOscillator(modulation.Global, modulation.OscillatorSpec{
		Label: OwnerPrefix + "stale", PeriodMS: 1000,
	})
	ap := h.autopilot()

	ap.SetEnabled(true)

	if slices.Contains(h.mods.Oscillators(modulation.Global), stray) {
		t.Error("stray owned oscillator was not removed")
	}
	if len(h.log.warns) != 1 {
		t.Errorf("warnings = %v", h.log.warns)
	}
}

func TestDisable_MissingBeforeSnapshot(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()
	ap.SetEnabled(true)
	automated := h.size.Value()

	s, _ := h.snaps.Find(LabelBefore)
	h.snaps.Remove(s)

	ap.SetEnabled(false)

	if len(h.log.errors) != 1 {
		t.Errorf("errors = %v, want 1", h.log.errors)
	}
	if ap.Enabled() {
		t.Error("toggle should reflect the requested state")
	}
	if h.size.Value() != automated {
		t.Errorf("size = %v, want the automated value %v left as-is", h.size.Value(), automated)
	}
	for _, o := range ap.OwnedOscillators() {
		if o.Running() {
			t.Error("oscillators must still be stopped")
		}
	}
}

func TestStaleSnapshotsRelinkAfterReload(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()
	proj := project.New(h.graph, h.mods, h.snaps, project.NewMemoryStore())
	proj.AddListener(ap)
	ctx := context.Background()

	ap.SetEnabled(true)
	ap.SetEnabled(false)
	running := h.snapshotValue(t, LabelRunning)
	if err := proj.Save(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := proj.Load(ctx); err != nil {
		t.Fatal(err)
	}

	ap.SetEnabled(true)
	if n := h.hooks.count("starting"); n != 1 {
		t.Errorf("reload should resume, not first start again (starting=%d)", n)
	}
	if h.size.Value() != running {
		t.Errorf("size = %v, want the relinked running value %v", h.size.Value(), running)
	}
	if len(ap.OwnedOscillators()) != 1 || !ap.OwnedOscillators()[0].Running() {
		t.Error("reloaded owned oscillator should be restarted")
	}
	for _, label := range []string{LabelBefore, LabelRunning} {
		n := 0
		for _, s := range h.snaps.Snapshots() {
			if s.Label() == label {
				n++
			}
		}
		if n != 1 {
			t.Errorf("%d snapshots labelled %s, want 1", n, label)
		}
	}
}

func TestProjectChanged_SaveKeepsReferences(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot()
	ap.SetEnabled(true)
	before := ap.before

	ap.ProjectChanged(project.Event{Kind: project.EventSaved})
	if ap.before != before {
		t.Error("save should keep cached references")
	}
	ap.ProjectChanged(project.Event{Kind: project.EventLoaded})
	if ap.before != nil || ap.running != nil {
		t.Error("load should clear cached references")
	}
	if _, ok := h.snaps.Find(LabelBefore); !ok {
		t.Error("clearing references must not delete snapshots")
	}
}

func TestStatusAndVisibleParameters(t *testing.T) {
	h := newHarness(t)
	ap := h.autopilot(WithVisibleParameters("speed"))

	if got := ap.VisibleParameters(); !slices.Equal(got, []string{ParamEnabled, ParamReset, "speed"}) {
		t.Errorf("VisibleParameters() = %v", got)
	}

	ap.SetEnabled(true)
	st := ap.Status()
	if !st.Enabled || st.Oscillators != 1 || st.Bindings != 1 || !st.BeforeSnapshot || st.RunningSnapshot {
		t.Errorf("Status() = %+v", st)
	}

	ap.Restore(false)
	if ap.Enabled() {
		t.Error("Restore(false) did not clear the flag")
	}
}

func TestOwned(t *testing.T) {
	if !Owned("autopilot:Size") || Owned("Size") || Owned("xautopilot:") {
		t.Error("Owned() prefix check is wrong")
	}
}
