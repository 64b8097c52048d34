package fdtd

import (
	"errors"
	"fmt"
)

// Domain errors for solver setup and runs.
var (
	// ErrInvalidConfig indicates a geometry, medium or source setting the solver cannot run with.
	ErrInvalidConfig = errors.New("fdtd: invalid configuration")

	// ErrDimensionMismatch indicates medium arrays that do not match the grid.
	ErrDimensionMismatch = errors.New("fdtd: dimension mismatch between medium and grid")

	// ErrUnstable indicates a Courant number above the 1D stability limit.
	ErrUnstable = errors.New("fdtd: courant number exceeds stability limit")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// StepError wraps an error with the step at which the run stopped.
type StepError struct {
	Step    int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
