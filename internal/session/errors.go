package session

import "errors"

var (
	// ErrMissingDependency is returned by New when a collaborator is nil.
	ErrMissingDependency = errors.New("session: missing dependency")

	// ErrInvalidInterval is returned by Run for a non-positive tick interval.
	ErrInvalidInterval = errors.New("session: invalid tick interval")
)
