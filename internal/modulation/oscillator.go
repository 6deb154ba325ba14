package modulation

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-autopilot/internal/show"
)

// ClockMode is the representation used for an oscillator's period.
type ClockMode string

const (
	// ClockFast expresses periods up to FastMaxMS in Hz.
	ClockFast ClockMode = "fast"
	// ClockSlow expresses periods up to SlowMaxMS in seconds.
	ClockSlow ClockMode = "slow"
	// ClockCustom expresses longer periods in milliseconds.
	ClockCustom ClockMode = "custom"
)

// Tier limits in milliseconds.
const (
	FastMaxMS = 10_000
	SlowMaxMS = 900_000
)

// ClockFor selects the clock tier for a period in milliseconds.
func ClockFor(periodMS float64) ClockMode {
	switch {
	case periodMS <= FastMaxMS:
		return ClockFast
	case periodMS <= SlowMaxMS:
		return ClockSlow
	default:
		return ClockCustom
	}
}

// Waveform is the shape of an oscillator's output.
type Waveform string

const (
	// WaveSine is a raised cosine starting at zero.
	WaveSine Waveform = "sine"
	// WaveTriangle rises to one at half phase and falls back.
	WaveTriangle Waveform = "triangle"
	// WaveSaw ramps from zero to one over the period.
	WaveSaw Waveform = "saw"
	// WaveSquare is one for the first half of the period and zero after.
	WaveSquare Waveform = "square"
)

// Valid reports whether w is a known waveform.
func (w Waveform) Valid() bool {
	switch w {
	case WaveSine, WaveTriangle, WaveSaw, WaveSquare:
		return true
	}
	return false
}

// OscillatorSpec describes an oscillator to create.
type OscillatorSpec struct {
	Label     string
	PeriodMS  float64
	Waveform  Waveform
	Running   bool
	TempoLock bool
}

// Oscillator is a periodic modulation source with output in [0,1].
//
// Basis is the phase in [0,1). Output is 0 at basis 0 for every waveform
// except square, so a freshly reset oscillator contributes nothing.
type Oscillator struct {
	id        uuid.UUID
	label     string
	scope     Scope
	periodMS  float64
	clock     ClockMode
	waveform  Waveform
	running   bool
	tempoLock bool
	basis     float64
	rate      *show.BoundedParameter
}

func newOscillator(scope Scope, spec OscillatorSpec) *Oscillator {
	wf := spec.Waveform
	if !wf.Valid() {
		wf = WaveSine
	}
	return &Oscillator{
		id:        uuid.New(),
		label:     spec.Label,
		scope:     scope,
		periodMS:  spec.PeriodMS,
		clock:     ClockFor(spec.PeriodMS),
		waveform:  wf,
		running:   spec.Running,
		tempoLock: spec.TempoLock,
		rate:      show.NewBoundedParameter("rate", spec.Label+" rate", 0, 4, 1),
	}
}

// ID returns the identity assigned at creation. It changes on reload.
func (o *Oscillator) ID() uuid.UUID { return o.id }

// Label returns the display label.
func (o *Oscillator) Label() string { return o.label }

// Scope returns the scope the oscillator is registered in.
func (o *Oscillator) Scope() Scope { return o.scope }

// Waveform returns the output shape.
func (o *Oscillator) Waveform() Waveform { return o.waveform }

// Clock returns the tier chosen for the period.
func (o *Oscillator) Clock() ClockMode { return o.clock }

// PeriodMS returns the period in milliseconds.
func (o *Oscillator) PeriodMS() float64 { return o.periodMS }

// ClockValue returns the period in the unit of its tier: Hz for fast,
// seconds for slow, milliseconds for custom.
func (o *Oscillator) ClockValue() float64 {
	switch o.clock {
	case ClockFast:
		return 1000 / o.periodMS
	case ClockSlow:
		return o.periodMS / 1000
	default:
		return o.periodMS
	}
}

// Start lets Tick advance the phase.
func (o *Oscillator) Start() { o.running = true }

// Stop freezes the phase.
func (o *Oscillator) Stop() { o.running = false }

// Running reports whether Tick advances the phase.
func (o *Oscillator) Running() bool { return o.running }

// Reset rewinds the phase to zero. It has no effect while tempo-locked.
func (o *Oscillator) Reset() {
	if o.tempoLock {
		return
	}
	o.basis = 0
}

// TempoLock reports whether the phase follows the host tempo.
func (o *Oscillator) TempoLock() bool { return o.tempoLock }

// SetTempoLock locks or unlocks the phase to the host tempo.
func (o *Oscillator) SetTempoLock(locked bool) { o.tempoLock = locked }

// Basis returns the current phase in [0,1).
func (o *Oscillator) Basis() float64 { return o.basis }

// SetBasis sets the phase, wrapping into [0,1).
func (o *Oscillator) SetBasis(b float64) {
	b = math.Mod(b, 1)
	if b < 0 {
		b++
	}
	o.basis = b
}

// Rate is the speed multiplier in [0,4]. It can be targeted by bindings
// from other oscillators.
func (o *Oscillator) Rate() show.Continuous { return o.rate }

// Output returns the current waveform value in [0,1].
func (o *Oscillator) Output() float64 {
	b := o.basis
	switch o.waveform {
	case WaveTriangle:
		return 1 - math.Abs(1-2*b)
	case WaveSaw:
		return b
	case WaveSquare:
		if b < 0.5 {
			return 1
		}
		return 0
	default:
		return 0.5 - 0.5*math.Cos(2*math.Pi*b)
	}
}

// advance moves the phase forward by dt scaled by rate.
func (o *Oscillator) advance(dt time.Duration, rate float64) {
	if !o.running || o.periodMS <= 0 {
		return
	}
	ms := float64(dt) / float64(time.Millisecond)
	o.SetBasis(o.basis + rate*ms/o.periodMS)
}
