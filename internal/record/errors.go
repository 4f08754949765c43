package record

import "errors"

var (
	// ErrInvalidKey is returned for a scenario key that does not split into
	// valid scenario names.
	ErrInvalidKey = errors.New("invalid scenario key")
	// ErrUnknownFormat is returned by CodecFor.
	ErrUnknownFormat = errors.New("unknown record format")
	// ErrUnresolved is returned when a record names a flow, process,
	// quantity or fragment the resolver cannot find.
	ErrUnresolved = errors.New("unresolved reference")
)
