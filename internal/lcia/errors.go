package lcia

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateResult signals two entries for the same key whose unit
	// scores disagree. It points at a modeling error upstream.
	ErrDuplicateResult = errors.New("duplicate result")

	// ErrInconsistentQuantity is returned when a score for one quantity is
	// added to a result for another.
	ErrInconsistentQuantity = errors.New("inconsistent quantity")
)

// DuplicateResultError carries the colliding key and both unit scores.
type DuplicateResultError struct {
	Component string
	Key       string
	Existing  float64
	Incoming  float64
}

func (e *DuplicateResultError) Error() string {
	return fmt.Sprintf("duplicate result in component %s for %s: factor %g conflicts with %g",
		e.Component, e.Key, e.Incoming, e.Existing)
}

// Unwrap lets callers test with errors.Is(err, ErrDuplicateResult).
func (e *DuplicateResultError) Unwrap() error { return ErrDuplicateResult }
