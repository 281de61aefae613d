package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Vector [6]float64

var Zero Vector

func NewVector(angular, linear mgl64.Vec3) Vector {
	return Vector{angular[0], angular[1], angular[2], linear[0], linear[1], linear[2]}
}

func (v Vector) Angular() mgl64.Vec3 { return mgl64.Vec3{v[0], v[1], v[2]} }
func (v Vector) Linear() mgl64.Vec3  { return mgl64.Vec3{v[3], v[4], v[5]} }

func (v Vector) Add(o Vector) Vector {
	for i := range v {
		v[i] += o[i]
	}
	return v
}

func (v Vector) Sub(o Vector) Vector {
	for i := range v {
		v[i] -= o[i]
	}
	return v
}

func (v Vector) Scale(s float64) Vector {
	for i := range v {
		v[i] *= s
	}
	return v
}

func (v Vector) Dot(o Vector) float64 {
	sum := 0.0
	for i := range v {
		sum += v[i] * o[i]
	}
	return sum
}

func (v Vector) IsZero() bool {
	return v == Zero
}

// ApproxEqual compares component-wise with an absolute tolerance.
func (v Vector) ApproxEqual(o Vector, tol float64) bool {
	for i := range v {
		if math.Abs(v[i]-o[i]) > tol {
			return false
		}
	}
	return true
}

// CrossMotion returns v × m for a motion vector m.
func (v Vector) CrossMotion(m Vector) Vector {
	w, vl := v.Angular(), v.Linear()
	mw, ml := m.Angular(), m.Linear()
	return NewVector(w.Cross(mw), w.Cross(ml).Add(vl.Cross(mw)))
}

// CrossForce returns v ×* f for a force vector f.
func (v Vector) CrossForce(f Vector) Vector {
	w, vl := v.Angular(), v.Linear()
	fn, ff := f.Angular(), f.Linear()
	return NewVector(w.Cross(fn).Add(vl.Cross(ff)), w.Cross(ff))
}

// Outer returns the 6x6 matrix a bᵀ.
func Outer(a, b Vector) Matrix {
	var m Matrix
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] = a[i] * b[j]
		}
	}
	return m
}
