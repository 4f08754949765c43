package builder

import "errors"

var (
	// ErrUnknownReference is returned when a model names an entity it does
	// not define.
	ErrUnknownReference = errors.New("unknown reference")
	// ErrDuplicateName is returned when two entities of one kind share a
	// name.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrInvalidTermination is returned for a termination that names more
	// than one target.
	ErrInvalidTermination = errors.New("invalid termination")
	// ErrCycle is returned when reference fragments reach each other
	// through subfragment terminations.
	ErrCycle = errors.New("subfragment cycle")
)
