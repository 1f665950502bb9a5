package interop

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned when a buffer cannot hold a result and its terminator.
	ErrCapacityExceeded = errors.New("buffer capacity exceeded")

	// ErrUnterminated is returned when a text buffer holds no NUL terminator.
	ErrUnterminated = errors.New("buffer is not NUL-terminated")

	// ErrInvalidArgument is returned for arguments rejected before any work is done.
	ErrInvalidArgument = errors.New("invalid argument")
)

// CapacityError reports how many bytes an operation needed.
type CapacityError struct {
	Need int
	Have int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("buffer capacity exceeded: need %d bytes, have %d", e.Need, e.Have)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
