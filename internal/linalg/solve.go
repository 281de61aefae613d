// Package linalg solves the dense square systems assembled by the contact
// solvers.
//
// Two factorizations are available:
//
//   - PartialPivLU: LU with partial pivoting, the cheaper choice
//   - ColPivHouseholderQR: Householder QR with column pivoting, rank revealing
//
// Every solve either succeeds or returns a *SolveError; a degenerate solution
// is never handed back as if it were valid.
package linalg

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/lapack/gonum"
	"gonum.org/v1/gonum/mat"
)

type Method int

const (
	PartialPivLU Method = iota
	ColPivHouseholderQR
)

func (m Method) String() string {
	switch m {
	case PartialPivLU:
		return "lu"
	case ColPivHouseholderQR:
		return "qr"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// ParseMethod accepts "lu" or "qr" and their long names.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lu", "partialpivlu", "partial-piv-lu":
		return PartialPivLU, nil
	case "qr", "colpivhouseholderqr", "col-piv-qr":
		return ColPivHouseholderQR, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

func (m *Method) UnmarshalText(text []byte) error {
	v, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Methods lists the available solvers in declaration order.
func Methods() []Method {
	return []Method{PartialPivLU, ColPivHouseholderQR}
}

// rankTolerance is relative to the largest diagonal entry of R.
const rankTolerance = 1e-10

// Solve solves A x = b for square A. A and b are left unmodified. On failure
// x may hold the attempted solution.
func Solve(method Method, A *mat.Dense, b, x []float64) error {
	r, c := A.Dims()
	if r != c || len(b) != r || len(x) != r {
		return fmt.Errorf("%w: A is %dx%d, b has %d, x has %d", ErrDimensionMismatch, r, c, len(b), len(x))
	}
	if r == 0 {
		return nil
	}

	var (
		dependent []int
		err       error
	)
	switch method {
	case PartialPivLU:
		err = solveLU(A, b, x)
	case ColPivHouseholderQR:
		dependent, err = solveQR(A, b, x)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMethod, int(method))
	}

	if err == nil && !finite(x) {
		err = ErrNonFinite
	}
	if err != nil {
		return &SolveError{
			Method:    method,
			Residual:  Residual(A, b, x),
			Dependent: dependent,
			Err:       err,
		}
	}
	return nil
}

func solveLU(A *mat.Dense, b, x []float64) error {
	n := len(b)

	var lu mat.LU
	lu.Factorize(A)

	err := lu.SolveVecTo(mat.NewVecDense(n, x), false, mat.NewVecDense(n, b))
	if errors.Is(err, mat.ErrSingular) {
		return ErrSingular
	}
	// mat.Condition is returned as is: the solution was written but is not
	// trustworthy
	return err
}

func solveQR(A *mat.Dense, b, x []float64) ([]int, error) {
	n := len(b)
	impl := gonum.Implementation{}

	a := make([]float64, n*n)
	raw := A.RawMatrix()
	for i := 0; i < n; i++ {
		copy(a[i*n:(i+1)*n], raw.Data[i*raw.Stride:i*raw.Stride+n])
	}

	jpvt := make([]int, n)
	for i := range jpvt {
		jpvt[i] = -1
	}
	tau := make([]float64, n)

	query := make([]float64, 1)
	impl.Dgeqp3(n, n, a, n, jpvt, tau, query, -1)
	work := make([]float64, int(query[0]))
	impl.Dgeqp3(n, n, a, n, jpvt, tau, work, len(work))

	rank := 0
	if top := math.Abs(a[0]); top > 0 {
		for rank < n && math.Abs(a[rank*n+rank]) > rankTolerance*top {
			rank++
		}
	}

	y := make([]float64, n)
	copy(y, b)
	impl.Dormqr(blas.Left, blas.Trans, n, 1, n, a, n, tau, y, 1, query, -1)
	work = make([]float64, int(query[0]))
	impl.Dormqr(blas.Left, blas.Trans, n, 1, n, a, n, tau, y, 1, work, len(work))

	if rank > 0 && !impl.Dtrtrs(blas.Upper, blas.NoTrans, blas.NonUnit, rank, 1, a, n, y, 1) {
		return nil, ErrSingular
	}

	for k := 0; k < n; k++ {
		v := 0.0
		if k < rank {
			v = y[k]
		}
		x[jpvt[k]] = v
	}

	if rank < n {
		dependent := append([]int(nil), jpvt[rank:]...)
		sort.Ints(dependent)
		return dependent, ErrSingular
	}
	return nil, nil
}

// Residual returns |A x - b|.
func Residual(A *mat.Dense, b, x []float64) float64 {
	r := make([]float64, len(b))
	mat.NewVecDense(len(r), r).MulVec(A, mat.NewVecDense(len(x), x))
	floats.Sub(r, b)
	return floats.Norm(r, 2)
}

func finite(s []float64) bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
