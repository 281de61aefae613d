package linalg

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSolveWellConditioned(t *testing.T) {
	A := mat.NewDense(3, 3, []float64{
		4, 1, 0,
		1, 3, -1,
		0, -1, 2,
	})
	want := []float64{1, -2, 0.5}
	b := make([]float64, 3)
	mat.NewVecDense(3, b).MulVec(A, mat.NewVecDense(3, want))

	for _, m := range Methods() {
		t.Run(m.String(), func(t *testing.T) {
			x := make([]float64, 3)
			if err := Solve(m, A, b, x); err != nil {
				t.Fatalf("solve: %v", err)
			}
			for i := range x {
				if math.Abs(x[i]-want[i]) > 1e-12 {
					t.Errorf("x[%d] = %f, want %f", i, x[i], want[i])
				}
			}
		})
	}
}

func TestSolveIndefinite(t *testing.T) {
	// saddle-point shape, zero block in the corner
	A := mat.NewDense(3, 3, []float64{
		2, 0, 1,
		0, 1, 0,
		1, 0, 0,
	})
	b := []float64{3, 2, 1}

	for _, m := range Methods() {
		x := make([]float64, 3)
		if err := Solve(m, A, b, x); err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if r := Residual(A, b, x); r > 1e-12 {
			t.Errorf("%s: residual %g", m, r)
		}
	}
}

func TestSolveSingular(t *testing.T) {
	A := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		1, 2, 3,
		0, 1, 1,
	})
	b := []float64{1, 1, 2}

	for _, m := range Methods() {
		t.Run(m.String(), func(t *testing.T) {
			x := make([]float64, 3)
			err := Solve(m, A, b, x)

			var se *SolveError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SolveError, got %v", err)
			}
			if se.Method != m {
				t.Errorf("method %s, want %s", se.Method, m)
			}
			var cond mat.Condition
			if !errors.Is(err, ErrSingular) && !errors.As(err, &cond) {
				t.Errorf("unexpected cause %v", se.Err)
			}
		})
	}
}

func TestQRReportsDependentColumns(t *testing.T) {
	A := mat.NewDense(3, 3, []float64{
		1, 0, 1,
		0, 1, 0,
		1, 0, 1,
	})
	b := []float64{1, 1, 1}
	x := make([]float64, 3)

	err := Solve(ColPivHouseholderQR, A, b, x)
	var se *SolveError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SolveError, got %v", err)
	}
	if len(se.Dependent) != 1 {
		t.Errorf("expected one dependent column, got %v", se.Dependent)
	}
	// the system is consistent, so the basic solution still satisfies it
	if se.Residual > 1e-12 {
		t.Errorf("residual %g", se.Residual)
	}
}

func TestSolveNonFinite(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	b := []float64{math.Inf(1), 0}
	x := make([]float64, 2)

	if err := Solve(PartialPivLU, A, b, x); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
}

func TestSolveDimensionMismatch(t *testing.T) {
	A := mat.NewDense(2, 3, nil)
	err := Solve(PartialPivLU, A, make([]float64, 2), make([]float64, 2))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"lu", PartialPivLU, false},
		{"QR", ColPivHouseholderQR, false},
		{" partialpivlu ", PartialPivLU, false},
		{"cholesky", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: unexpected error %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("%q: got %s, want %s", tt.in, got, tt.want)
		}
	}
}

func BenchmarkSolve(b *testing.B) {
	const n = 24
	A := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			A.Set(i, j, 1/float64(i+j+1))
		}
		A.Set(i, i, A.At(i, i)+float64(n))
	}
	rhs := make([]float64, n)
	for i := range rhs {
		rhs[i] = float64(i)
	}
	x := make([]float64, n)

	for _, m := range Methods() {
		b.Run(m.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = Solve(m, A, rhs, x)
			}
		})
	}
}
