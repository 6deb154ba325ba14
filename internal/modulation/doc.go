// Package modulation provides the oscillator and binding engine that drives
// show parameters over time.
//
// Objects live in a Scope: either the Global scope or the Local scope of a
// single pattern or effect. An Oscillator is a periodic source with a
// unipolar output in [0,1]. A Binding links an oscillator to a continuous
// parameter with a depth; the effective value of a parameter is its base
// normalised value plus the sum of depth*output over every binding that
// targets it, clamped to [0,1].
//
// # Clock Tiers
//
// An oscillator's period is stored in one of three representations chosen
// by magnitude:
//
//   - ClockFast:   period <= 10 s
//   - ClockSlow:   period <= 15 min
//   - ClockCustom: anything longer
//
// # Cycles
//
// Every oscillator exposes a Rate parameter that can itself be a binding
// target, so oscillators can modulate each other. AddBinding rejects any
// binding that would close a cycle with ErrBindingRejected.
//
// # Thread Safety
//
// Engine is not safe for concurrent use. The session package serialises
// every call, including Tick.
package modulation
