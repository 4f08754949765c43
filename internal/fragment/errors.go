package fragment

import (
	"errors"

	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

var (
	// ErrScenarioConflict is returned when a scenario tuple matches more than
	// one stored key, or when a setter is handed a tuple.
	ErrScenarioConflict = scenario.ErrConflict

	// ErrBalanceAlreadySet is returned when a second child of a node is made
	// its balance flow.
	ErrBalanceAlreadySet = errors.New("balance flow already set")

	// ErrCacheAlreadySet is returned when the cached exchange value is
	// assigned twice without a reset.
	ErrCacheAlreadySet = errors.New("cached exchange value already set")

	// ErrInvalidParentChild reports a structural inconsistency between a node
	// and its children or its termination target.
	ErrInvalidParentChild = errors.New("invalid parent/child relationship")

	// ErrFlowConversion is returned when a fragment's flow cannot be
	// converted into its termination's flow.
	ErrFlowConversion = errors.New("flow conversion error")

	// ErrNotFound is returned for IDs the store does not hold.
	ErrNotFound = errors.New("fragment not found")

	// ErrNotObservable is returned when an observed value is set on a node
	// whose magnitude is computed during traversal.
	ErrNotObservable = errors.New("exchange value is computed during traversal")
)

// ErrDuplicateID is returned when a fragment is added under an ID the store
// already holds.
var ErrDuplicateID = errors.New("fragment id already in use")
