package store

import "gopkg.in/src-d/go-errors.v1"

// Error kinds surfaced by the store, following dolt/go's own pattern of
// package-level *errors.Kind values (see e.g. its use of `*errors.Kind`
// fields in libraries/doltcore/sqle/enginetest/branch_control_test.go).
var (
	// ErrUnsortedChunk is returned by InsertChunk when the chunk's RowIds
	// are not monotonically non-decreasing. The caller must sort first.
	ErrUnsortedChunk = errors.NewKind("cannot insert unsorted chunk %s: RowIds must be monotonically non-decreasing")

	// ErrIncompatibleSchema wraps chunk.ErrIncompatibleSchema when
	// compaction's concatenation step fails.
	ErrIncompatibleSchema = errors.NewKind("cannot compact chunk %s: %s")
)
