package contacts

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition marks caller mistakes. Every error below wraps it and
	// is returned before any matrix work.
	ErrPrecondition = errors.New("contacts: precondition violated")

	// ErrInvalidNormal indicates a normal other than +x, +y or +z.
	ErrInvalidNormal = fmt.Errorf("%w: normal must be a positive coordinate axis", ErrPrecondition)

	ErrAlreadyBound = fmt.Errorf("%w: constraint set already bound", ErrPrecondition)

	ErrNotBound = fmt.Errorf("%w: constraint set not bound", ErrPrecondition)

	// ErrDimensionMismatch indicates buffers that do not match the model.
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", ErrPrecondition)

	ErrInvalidBody = fmt.Errorf("%w: body not in model", ErrPrecondition)

	// ErrNumericalFailure is matched by every *NumericalError.
	ErrNumericalFailure = errors.New("contacts: numerical failure")
)

// NumericalError reports a linear solve that failed on a singular or badly
// conditioned system. Constraints names the indices involved, as far as the
// solver could tell.
type NumericalError struct {
	Op          string
	Constraints []int
	Residual    float64
	Err         error
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("contacts: %s: numerical failure at constraints %v (residual %.3g): %v",
		e.Op, e.Constraints, e.Residual, e.Err)
}

func (e *NumericalError) Is(target error) bool {
	return target == ErrNumericalFailure
}

func (e *NumericalError) Unwrap() error {
	return e.Err
}
