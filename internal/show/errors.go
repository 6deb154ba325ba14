package show

import "errors"

// Domain errors for the show package.
var (
	// ErrInvalidPath is returned when a parameter is added without a path.
	ErrInvalidPath = errors.New("show: parameter path cannot be empty")

	// ErrDuplicatePath is returned when a component already has a parameter at that path.
	ErrDuplicatePath = errors.New("show: duplicate parameter path")

	// ErrUnknownBlend is returned when selecting a blend the channel does not offer.
	ErrUnknownBlend = errors.New("show: unknown blend")

	// ErrUnknownKind is returned when a configured parameter kind is not recognised.
	ErrUnknownKind = errors.New("show: unknown parameter kind")
)
