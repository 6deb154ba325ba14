package modulation

import "errors"

// Domain errors for the modulation package.
var (
	// ErrBindingRejected is returned when a binding would form a dependency cycle.
	ErrBindingRejected = errors.New("modulation: binding rejected")

	// ErrUnknownOscillator is returned when a binding source is not registered with the engine.
	ErrUnknownOscillator = errors.New("modulation: unknown oscillator")

	// ErrInvalidPeriod is returned when an oscillator is created with a non-positive period.
	ErrInvalidPeriod = errors.New("modulation: period must be positive")

	// ErrNilTarget is returned when a binding has no target parameter.
	ErrNilTarget = errors.New("modulation: binding target is nil")
)
