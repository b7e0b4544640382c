package mmio

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds matches every [*OutOfBoundsError] under [errors.Is].
var ErrOutOfBounds = errors.New("mmio: index out of bounds")

// OutOfBoundsError is returned by checked array accessors.
type OutOfBoundsError struct {
	Index int
	Len   int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("mmio: index %d out of bounds (length %d)", e.Index, e.Len)
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// BorrowError is the panic value raised when a nested handle is used after the
// handle it was borrowed from was accessed exclusively.
type BorrowError struct {
	Addr uintptr
}

func (e *BorrowError) Error() string {
	return fmt.Sprintf("mmio: handle for block at %#x used after its parent was accessed exclusively", e.Addr)
}
