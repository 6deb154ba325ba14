package control

import "errors"

var (
	// ErrInvalidCommand is returned for payloads that are not a valid command.
	ErrInvalidCommand = errors.New("control: invalid command")

	// ErrMissingDependency is returned by New when a collaborator is nil.
	ErrMissingDependency = errors.New("control: missing dependency")
)
