package linalg

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSingular indicates a matrix without full rank.
	ErrSingular = errors.New("linalg: matrix is singular")

	// ErrNonFinite indicates NaN or Inf in the computed solution.
	ErrNonFinite = errors.New("linalg: solution is not finite")

	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")

	ErrUnknownMethod = errors.New("linalg: unknown solver method")
)

// SolveError reports a failed solve together with the residual of the
// attempted solution and, for the QR method, the columns it found to be
// linearly dependent.
type SolveError struct {
	Method    Method
	Residual  float64
	Dependent []int
	Err       error
}

func (e *SolveError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s solve failed: %v (residual %.3g", e.Method, e.Err, e.Residual)
	if len(e.Dependent) > 0 {
		fmt.Fprintf(&sb, ", dependent columns %v", e.Dependent)
	}
	sb.WriteString(")")
	return sb.String()
}

func (e *SolveError) Unwrap() error {
	return e.Err
}
