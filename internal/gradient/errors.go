package gradient

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPaletteSize is returned when a palette has fewer than two colors
	// or more than the renderer supports.
	ErrInvalidPaletteSize = errors.New("invalid palette size")
	// ErrDegenerateCanvas is returned for canvases with a side length below 2.
	ErrDegenerateCanvas = errors.New("degenerate canvas size")
	// ErrDegenerateTraversal is returned when a traversal length or the first
	// interpolation segment is zero.
	ErrDegenerateTraversal = errors.New("degenerate traversal length")
	// ErrUnknownAlgorithm is returned when a name does not match a known algorithm.
	ErrUnknownAlgorithm = errors.New("unknown gradient algorithm")
)

// PreconditionError reports which operation rejected its arguments.
type PreconditionError struct {
	Op     string
	Detail string
	Err    error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Detail)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

func precondition(op string, err error, format string, args ...any) error {
	return &PreconditionError{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)}
}

func checkSize(op string, size int) error {
	if size < 2 {
		return precondition(op, ErrDegenerateCanvas, "size %d", size)
	}
	return nil
}
