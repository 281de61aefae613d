// Package kinematics updates per-body transforms, velocities and
// accelerations and answers point queries (position, velocity, acceleration,
// Jacobian) against a [model.Data].
package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/contactdyn/internal/model"
	"github.com/san-kum/contactdyn/internal/spatial"
	"gonum.org/v1/gonum/mat"
)

// Update refreshes transforms, velocities and accelerations from the full
// state. Accelerations are purely kinematic: the root does not accelerate.
func Update(m *model.Model, d *model.Data, q, qdot, qddot []float64) {
	UpdateCustom(m, d, q, qdot, qddot)
}

// UpdateCustom refreshes only the quantities whose inputs are non-nil:
// q updates transforms, qdot updates velocities and velocity-product
// accelerations, qddot updates accelerations.
func UpdateCustom(m *model.Model, d *model.Data, q, qdot, qddot []float64) {
	if q != nil {
		for i := 1; i < m.NumBodies(); i++ {
			joint := m.Joints[i]
			d.XJ[i] = joint.Transform(coord(m, q, i))
			d.S[i] = joint.MotionSubspace()
			d.XLambda[i] = d.XJ[i].Mul(m.XTree[i])

			if p := m.Lambda[i]; p != 0 {
				d.XBase[i] = d.XLambda[i].Mul(d.XBase[p])
			} else {
				d.XBase[i] = d.XLambda[i]
			}
		}
	}

	if qdot != nil {
		d.V[0] = spatial.Zero
		for i := 1; i < m.NumBodies(); i++ {
			vJ := d.S[i].Scale(coord(m, qdot, i))
			d.V[i] = d.XLambda[i].Apply(d.V[m.Lambda[i]]).Add(vJ)
			d.C[i] = d.V[i].CrossMotion(vJ)
		}
	}

	if qddot != nil {
		d.A[0] = spatial.Zero
		for i := 1; i < m.NumBodies(); i++ {
			a := d.XLambda[i].Apply(d.A[m.Lambda[i]]).Add(d.C[i])
			d.A[i] = a.Add(d.S[i].Scale(coord(m, qddot, i)))
		}
	}
}

// coord returns body i's entry of a generalized vector, 0 for fixed joints.
func coord(m *model.Model, x []float64, i int) float64 {
	if qi := m.QIndex[i]; qi >= 0 {
		return x[qi]
	}
	return 0
}

func BodyToBaseCoordinates(m *model.Model, d *model.Data, q []float64, body int, point mgl64.Vec3, update bool) mgl64.Vec3 {
	if update {
		UpdateCustom(m, d, q, nil, nil)
	}
	X := d.XBase[body]
	return X.E.Transpose().Mul3x1(point).Add(X.R)
}

func BaseToBodyCoordinates(m *model.Model, d *model.Data, q []float64, body int, point mgl64.Vec3, update bool) mgl64.Vec3 {
	if update {
		UpdateCustom(m, d, q, nil, nil)
	}
	X := d.XBase[body]
	return X.E.Mul3x1(point.Sub(X.R))
}

// PointJacobian fills G (3 x DofCount) with the base-frame linear Jacobian of
// a body-fixed point.
func PointJacobian(m *model.Model, d *model.Data, q []float64, body int, point mgl64.Vec3, G *mat.Dense, update bool) {
	if update {
		UpdateCustom(m, d, q, nil, nil)
	}

	shift := spatial.Xtrans(BodyToBaseCoordinates(m, d, q, body, point, false))
	G.Zero()

	for j := body; j != 0; j = m.Lambda[j] {
		qi := m.QIndex[j]
		if qi < 0 {
			continue
		}
		col := shift.Apply(d.XBase[j].Inverse().Apply(d.S[j])).Linear()
		G.Set(0, qi, col[0])
		G.Set(1, qi, col[1])
		G.Set(2, qi, col[2])
	}
}

// pointFrame moves body-frame motion vectors to the point, expressed in
// base-aligned coordinates.
func pointFrame(d *model.Data, body int, point mgl64.Vec3) spatial.Transform {
	return spatial.Transform{E: d.XBase[body].E.Transpose(), R: point}
}

func PointVelocity(m *model.Model, d *model.Data, q, qdot []float64, body int, point mgl64.Vec3, update bool) mgl64.Vec3 {
	if update {
		UpdateCustom(m, d, q, qdot, nil)
	}
	return pointFrame(d, body, point).Apply(d.V[body]).Linear()
}

// PointAcceleration returns the classical acceleration of a body-fixed point
// in base coordinates.
func PointAcceleration(m *model.Model, d *model.Data, q, qdot, qddot []float64, body int, point mgl64.Vec3, update bool) mgl64.Vec3 {
	if update {
		UpdateCustom(m, d, q, qdot, qddot)
	}

	X := pointFrame(d, body, point)
	v := X.Apply(d.V[body])
	a := X.Apply(d.A[body])
	return a.Linear().Add(v.Angular().Cross(v.Linear()))
}
