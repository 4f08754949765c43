package traversal

import "errors"

var (
	// ErrRecursion is returned when a traversal re-enters a reference
	// fragment that is already on the current branch.
	ErrRecursion = errors.New("fragment recursion")

	// ErrZeroExchangeValue is returned when an entry exchange value is zero
	// and cannot be inverted.
	ErrZeroExchangeValue = errors.New("zero exchange value")

	// ErrReferenceDeficit is returned by Inventory when a fragment consumes
	// more of its reference flow than it produces.
	ErrReferenceDeficit = errors.New("fragment requires more reference flow than it generates")

	// errBalanceEncountered is raised by a balance child when its parent
	// traverses it with the other children. The parent catches it and
	// traverses the child again once the deficit is known.
	errBalanceEncountered = errors.New("balance flow encountered")
)
