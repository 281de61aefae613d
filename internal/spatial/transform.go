package spatial

import "github.com/go-gl/mathgl/mgl64"

// Transform is a Plücker transform from frame A to frame B. E rotates A
// coordinates into B coordinates and R is B's origin expressed in A.
type Transform struct {
	E mgl64.Mat3
	R mgl64.Vec3
}

func IdentityTransform() Transform {
	return Transform{E: mgl64.Ident3()}
}

// Xtrans is a pure translation of the frame origin by r.
func Xtrans(r mgl64.Vec3) Transform {
	return Transform{E: mgl64.Ident3(), R: r}
}

// Xrot rotates the frame by angle about the unit axis.
func Xrot(angle float64, axis mgl64.Vec3) Transform {
	rot := mgl64.QuatRotate(angle, axis.Normalize()).Normalize().Mat4().Mat3()
	return Transform{E: rot.Transpose()}
}

// Apply transforms a motion vector from A to B.
func (X Transform) Apply(v Vector) Vector {
	w, vl := v.Angular(), v.Linear()
	return NewVector(X.E.Mul3x1(w), X.E.Mul3x1(vl.Sub(X.R.Cross(w))))
}

// ApplyAdjoint transforms a force vector from A to B.
func (X Transform) ApplyAdjoint(f Vector) Vector {
	n, fl := f.Angular(), f.Linear()
	return NewVector(X.E.Mul3x1(n.Sub(X.R.Cross(fl))), X.E.Mul3x1(fl))
}

// ApplyTranspose transforms a force vector from B back to A.
func (X Transform) ApplyTranspose(f Vector) Vector {
	et := X.E.Transpose()
	n := et.Mul3x1(f.Angular())
	fl := et.Mul3x1(f.Linear())
	return NewVector(n.Add(X.R.Cross(fl)), fl)
}

// Mul composes X with o: the result applies o first, then X.
func (X Transform) Mul(o Transform) Transform {
	return Transform{
		E: X.E.Mul3(o.E),
		R: o.R.Add(o.E.Transpose().Mul3x1(X.R)),
	}
}

func (X Transform) Inverse() Transform {
	return Transform{E: X.E.Transpose(), R: X.E.Mul3x1(X.R).Mul(-1)}
}

// ToMatrix returns the 6x6 motion transform.
func (X Transform) ToMatrix() Matrix {
	var zero mgl64.Mat3
	return NewMatrix(X.E, zero, X.E.Mul3(Skew(X.R)).Mul(-1), X.E)
}

// ToMatrixTranspose returns the transpose of ToMatrix, which maps forces from
// B back to A.
func (X Transform) ToMatrixTranspose() Matrix {
	return X.ToMatrix().Transpose()
}

// InertiaToParent maps an inertia expressed in B to A: Xᵀ I X.
func (X Transform) InertiaToParent(I Matrix) Matrix {
	m := X.ToMatrix()
	return m.Transpose().Mul(I).Mul(m)
}
