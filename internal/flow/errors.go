package flow

import "errors"

var (
	// ErrMissingFactor is returned when a flow has no characterization factor
	// for a requested quantity and none could be supplied.
	ErrMissingFactor = errors.New("missing characterization factor")

	// ErrInvalidDirection is returned when a direction string is neither
	// "Input" nor "Output".
	ErrInvalidDirection = errors.New("invalid direction")
)
