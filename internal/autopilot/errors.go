package autopilot

import "errors"

// Domain errors for the autopilot package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, autopilot.ErrResetWhileEnabled) {
//	    // disable first
//	}
var (
	// ErrDuplicateDescriptor is returned when a pattern type is registered twice.
	ErrDuplicateDescriptor = errors.New("autopilot: duplicate descriptor")

	// ErrResetWhileEnabled is returned when Reset is called in the Enabled state.
	ErrResetWhileEnabled = errors.New("autopilot: reset while enabled")

	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("autopilot: missing dependency")

	// ErrInvalidLibrary is returned when a library file fails validation.
	ErrInvalidLibrary = errors.New("autopilot: invalid library")
)
