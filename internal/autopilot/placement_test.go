package autopilot

import (
	"math"
	"strconv"
	"testing"

	"github.com/nerrad567/gray-logic-autopilot/internal/modulation"
	"github.com/nerrad567/gray-logic-autopilot/internal/show"
)

// fixedRand returns the same value forever.
type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

// countingRand returns 0.5 and counts the draws.
type countingRand struct {
	draws int
}

func (r *countingRand) Float64() float64 {
	r.draws++
	return 0.5
}

func newPlacementTarget(t *testing.T, lo, hi, value float64) (*show.Component, *show.BoundedParameter) {
	t.Helper()
	c := show.NewGraph().AddChannel("A").AddPattern("P", "")
	p, err := c.AddBounded("x", "X", lo, hi, value)
	if err != nil {
		t.Fatal(err)
	}
	return c, p
}

func newPlacementAutopilot(t *testing.T, r Rand) (*Autopilot, *modulation.Engine) {
	t.Helper()
	g := show.NewGraph()
	mods := modulation.NewEngine()
	h := newHarness(t)
	h.deps.Graph = g
	h.deps.Modulation = mods
	h.deps.Rand = r
	return h.autopilot(), mods
}

func TestPlace_ZeroRangeCreatesNothing(t *testing.T) {
	for seed := uint64(1); seed <= 200; seed++ {
		ap, mods := newPlacementAutopilot(t, NewRand(seed))
		c, target := newPlacementTarget(t, 0, 1, 0.5)
		desc := NewAutoParameter("x", Normalized, 0.25, 0.75, WithRange(0))

		if ap.place(target, desc) {
			t.Fatal("place() reported a binding for a zero range")
		}
		if len(mods.Oscillators(modulation.Local(c))) != 0 || len(mods.Bindings(modulation.Local(c))) != 0 {
			t.Fatal("zero range created modulation objects")
		}
		if v := target.Normalized(); v < 0.25 || v > 0.75 {
			t.Fatalf("seed %d: base %v outside [0.25, 0.75]", seed, v)
		}
	}
}

func TestPlan_DrawsBaseOnlyWithSlack(t *testing.T) {
	tests := []struct {
		name      string
		desc      *AutoParameter
		wantDraws int
	}{
		{"full range", NewAutoParameter("x", Normalized, 0.3, 0.7), 1},
		{"range equals bounds", NewAutoParameter("x", Normalized, 0.3, 0.7, WithRange(0.4)), 1},
		{"range wider than bounds", NewAutoParameter("x", Normalized, 0.3, 0.7, WithRange(0.9)), 1},
		{"partial range", NewAutoParameter("x", Normalized, 0.3, 0.7, WithRange(0.2)), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &countingRand{}
			ap, _ := newPlacementAutopilot(t, r)
			_, target := newPlacementTarget(t, 0, 1, 0)
			pl := ap.plan(target, tt.desc)
			if r.draws != tt.wantDraws {
				t.Errorf("draws = %d, want %d", r.draws, tt.wantDraws)
			}
			if tt.wantDraws == 1 && pl.base != 0.3 {
				t.Errorf("base = %v, want 0.3", pl.base)
			}
		})
	}
}

func TestPlace_FullRangeBaseIsMin(t *testing.T) {
	tests := []struct {
		name     string
		lo, hi   float64
		desc     *AutoParameter
		wantBase float64
	}{
		{"normalized", 0, 1, NewAutoParameter("x", Normalized, 0.3, 0.7), 0.3},
		{"absolute", 0, 10, NewAutoParameter("x", Absolute, 2, 6), 0.2},
		{"absolute offset range", 10, 20, NewAutoParameter("x", Absolute, 12, 18), 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, r := range []Rand{fixedRand(0), fixedRand(0.5), fixedRand(0.999), NewRand(3)} {
				ap, _ := newPlacementAutopilot(t, r)
				_, target := newPlacementTarget(t, tt.lo, tt.hi, tt.hi)
				pl := ap.plan(target, tt.desc)
				if pl.base != tt.wantBase {
					t.Fatalf("base = %v, want exactly %v", pl.base, tt.wantBase)
				}
				if !ap.place(target, tt.desc) {
					t.Fatal("full range should create a binding")
				}
				if math.Abs(target.Normalized()-tt.wantBase) > 1e-12 {
					t.Errorf("Normalized() = %v, want %v", target.Normalized(), tt.wantBase)
				}
			}
		})
	}
}

func TestPlan_PeriodWithinBounds(t *testing.T) {
	ap, _ := newPlacementAutopilot(t, NewRand(11))
	_, target := newPlacementTarget(t, 0, 1, 0)
	desc := NewAutoParameter("x", Normalized, 0, 1, WithPeriod(2, 1200))

	for i := 0; i < 2000; i++ {
		pl := ap.plan(target, desc)
		if pl.periodMS < 2000 || pl.periodMS > 1_200_000 {
			t.Fatalf("period %v outside [2000, 1200000]", pl.periodMS)
		}
	}

	for _, r := range []Rand{fixedRand(0), fixedRand(math.Nextafter(1, 0))} {
		ap, _ := newPlacementAutopilot(t, r)
		pl := ap.plan(target, NewAutoParameter("x", Normalized, 0, 1))
		if pl.periodMS < 15_000 || pl.periodMS > 45_000 {
			t.Errorf("period %v outside default bounds", pl.periodMS)
		}
	}
}

func TestPlace_ClockTierFollowsPeriod(t *testing.T) {
	tests := []struct {
		period float64
		want   modulation.ClockMode
	}{
		{5, modulation.ClockFast},
		{60, modulation.ClockSlow},
		{3600, modulation.ClockCustom},
	}
	for _, tt := range tests {
		ap, mods := newPlacementAutopilot(t, fixedRand(0.5))
		c, target := newPlacementTarget(t, 0, 1, 0)
		if !ap.place(target, NewAutoParameter("x", Normalized, 0, 1, WithPeriod(tt.period, tt.period))) {
			t.Fatal("place() failed")
		}
		oscs := mods.Oscillators(modulation.Local(c))
		if len(oscs) != 1 || oscs[0].Clock() != tt.want {
			t.Errorf("period %vs: clock = %v, want %s", tt.period, oscs, tt.want)
		}
	}
}

func TestPlace_GlobalScopeForOwnerlessTarget(t *testing.T) {
	ap, mods := newPlacementAutopilot(t, fixedRand(0.5))
	free := show.NewBoundedParameter("x", "Free", 0, 1, 0)
	if !ap.place(free, NewAutoParameter("x", Normalized, 0, 1, WithRange(0.5))) {
		t.Fatal("place() failed")
	}
	if len(mods.Oscillators(modulation.Global)) != 1 || len(mods.Bindings(modulation.Global)) != 1 {
		t.Error("ownerless target should be modulated from the global scope")
	}
}

func TestPlace_AbsoluteScaleNormalisesAgainstTotalRange(t *testing.T) {
	ap, mods := newPlacementAutopilot(t, fixedRand(0.5))
	c, target := newPlacementTarget(t, 0, 200, 0)
	desc := NewAutoParameter("x", Absolute, 50, 150, WithRange(40))

	if !ap.place(target, desc) {
		t.Fatal("place() failed")
	}
	b := mods.Bindings(modulation.Local(c))[0]
	if math.Abs(b.Depth()-0.2) > 1e-12 {
		t.Errorf("depth = %v, want 0.2", b.Depth())
	}
	// base = 0.25 + 0.5*(0.5-0.2) = 0.4
	if math.Abs(target.Value()-80) > 1e-9 {
		t.Errorf("base value = %v, want 80", target.Value())
	}
}

func TestTelemetryHooks(t *testing.T) {
	w := &recordingWriter{}
	h := newHarness(t)
	h.deps.Hooks = append(h.deps.Hooks, NewTelemetryHooks(w))
	ap := h.autopilot()

	ap.SetEnabled(true)
	ap.SetEnabled(false)

	want := []string{"started:1", "enabled:0", "disabled:0"}
	if len(w.events) != len(want) {
		t.Fatalf("events = %v, want %v", w.events, want)
	}
	for i := range want {
		if w.events[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, w.events[i], want[i])
		}
	}
}

type recordingWriter struct {
	events []string
}

func (w *recordingWriter) WriteAutopilotEvent(event string, modulations int) {
	w.events = append(w.events, event+":"+strconv.Itoa(modulations))
}
