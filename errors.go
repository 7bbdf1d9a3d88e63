package bitforest

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyBuilt is returned when mutating or rebuilding a built index.
	ErrAlreadyBuilt = errors.New("index already built")

	// ErrNotBuilt is returned when an operation requires a built index.
	ErrNotBuilt = errors.New("index not built")

	// ErrNoItems is returned when building an index with no items.
	ErrNoItems = errors.New("no items added")

	// ErrInvalidTreeCount is returned when the tree count is not positive.
	ErrInvalidTreeCount = errors.New("tree count must be positive")

	// ErrInvalidCount is returned when the neighbor count is negative.
	ErrInvalidCount = errors.New("neighbor count must be non-negative")

	// ErrReadOnly is returned when mutating an index backed by a read-only
	// mapping. Unload first.
	ErrReadOnly = errors.New("index is backed by a read-only mapping")
)

// ErrDimensionMismatch indicates that an index file was produced with a
// different dimensionality than the receiving index.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimensionality.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// ErrInvalidVectorLength indicates a vector whose word count does not match
// the index dimensionality.
type ErrInvalidVectorLength struct {
	Expected int
	Actual   int
}

func (e *ErrInvalidVectorLength) Error() string {
	return fmt.Sprintf("invalid vector length: expected %d words, got %d", e.Expected, e.Actual)
}

// ErrInvalidItemID indicates an item id outside the stored range.
type ErrInvalidItemID struct {
	ID int32
}

func (e *ErrInvalidItemID) Error() string {
	return fmt.Sprintf("item id out of range: %d", e.ID)
}
