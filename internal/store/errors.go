package store

import "fmt"

var (
	// ErrNotFound is returned when a queried page, file or tag is not
	// in the index. Recoverable, the caller decides what to do.
	ErrNotFound = fmt.Errorf("record not found in index")

	// ErrConsistency is returned when a table invariant is violated.
	// It indicates a bug rather than user error and is fatal to the
	// current operation only.
	ErrConsistency = fmt.Errorf("index consistency violation")
)
