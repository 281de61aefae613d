// Package dynamics implements the unconstrained recursive dynamics
// algorithms over a [model.Model]:
//
//   - [InverseDynamics]: recursive Newton-Euler, joint forces from accelerations
//   - [CompositeRigidBody]: joint-space mass matrix
//   - [ForwardDynamics]: articulated-body algorithm, accelerations from forces
//
// External forces are spatial forces in base coordinates about the base
// origin, one per body (index 0 is ignored). A nil slice means no external
// forces.
package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/contactdyn/internal/kinematics"
	"github.com/san-kum/contactdyn/internal/model"
	"github.com/san-kum/contactdyn/internal/spatial"
	"gonum.org/v1/gonum/mat"
)

func gravityAcceleration(m *model.Model) spatial.Vector {
	return spatial.NewVector(mgl64.Vec3{}, m.Gravity.Mul(-1))
}

// InverseDynamics computes the joint forces tau that produce qddot.
func InverseDynamics(m *model.Model, d *model.Data, q, qdot, qddot, tau []float64, fext []spatial.Vector) {
	kinematics.UpdateCustom(m, d, q, qdot, nil)

	d.A[0] = gravityAcceleration(m)
	for i := 1; i < m.NumBodies(); i++ {
		a := d.XLambda[i].Apply(d.A[m.Lambda[i]]).Add(d.C[i])
		if qi := m.QIndex[i]; qi >= 0 {
			a = a.Add(d.S[i].Scale(qddot[qi]))
		}
		d.A[i] = a

		I := m.Inertia[i]
		d.F[i] = I.MulVec(a).Add(d.V[i].CrossForce(I.MulVec(d.V[i])))
		if fext != nil && !fext[i].IsZero() {
			d.F[i] = d.F[i].Sub(d.XBase[i].ApplyAdjoint(fext[i]))
		}
	}

	for i := m.NumBodies() - 1; i > 0; i-- {
		if qi := m.QIndex[i]; qi >= 0 {
			tau[qi] = d.S[i].Dot(d.F[i])
		}
		if p := m.Lambda[i]; p != 0 {
			d.F[p] = d.F[p].Add(d.XLambda[i].ApplyTranspose(d.F[i]))
		}
	}
}

// CompositeRigidBody fills the DofCount x DofCount joint-space mass matrix H.
// With update false the transforms in d must already match q.
func CompositeRigidBody(m *model.Model, d *model.Data, q []float64, H *mat.Dense, update bool) {
	if update {
		kinematics.UpdateCustom(m, d, q, nil, nil)
	}

	H.Zero()
	for i := 1; i < m.NumBodies(); i++ {
		d.IC[i] = m.Inertia[i]
	}

	// children carry larger indices, so IC[i] is complete when i is visited
	for i := m.NumBodies() - 1; i > 0; i-- {
		if p := m.Lambda[i]; p != 0 {
			d.IC[p] = d.IC[p].Add(d.XLambda[i].InertiaToParent(d.IC[i]))
		}

		qi := m.QIndex[i]
		if qi < 0 {
			continue
		}

		F := d.IC[i].MulVec(d.S[i])
		H.Set(qi, qi, d.S[i].Dot(F))

		for j := i; m.Lambda[j] != 0; {
			F = d.XLambda[j].ApplyTranspose(F)
			j = m.Lambda[j]
			if qj := m.QIndex[j]; qj >= 0 {
				h := F.Dot(d.S[j])
				H.Set(qi, qj, h)
				H.Set(qj, qi, h)
			}
		}
	}
}

// ForwardDynamics computes qddot with the articulated-body algorithm. The
// articulated quantities (IA, PA, U, D, Bias) stay in d for reuse by callers
// that propagate force deltas through the same configuration.
func ForwardDynamics(m *model.Model, d *model.Data, q, qdot, tau, qddot []float64, fext []spatial.Vector) {
	kinematics.UpdateCustom(m, d, q, qdot, nil)

	for i := 1; i < m.NumBodies(); i++ {
		I := m.Inertia[i]
		d.IA[i] = I
		d.PA[i] = d.V[i].CrossForce(I.MulVec(d.V[i]))
		if fext != nil && !fext[i].IsZero() {
			d.PA[i] = d.PA[i].Sub(d.XBase[i].ApplyAdjoint(fext[i]))
		}
	}

	for i := m.NumBodies() - 1; i > 0; i-- {
		p := m.Lambda[i]
		qi := m.QIndex[i]

		if qi < 0 {
			d.U[i], d.D[i], d.Bias[i] = spatial.Zero, 0, 0
			if p != 0 {
				pa := d.PA[i].Add(d.IA[i].MulVec(d.C[i]))
				d.IA[p] = d.IA[p].Add(d.XLambda[i].InertiaToParent(d.IA[i]))
				d.PA[p] = d.PA[p].Add(d.XLambda[i].ApplyTranspose(pa))
			}
			continue
		}

		d.U[i] = d.IA[i].MulVec(d.S[i])
		d.D[i] = d.S[i].Dot(d.U[i])
		d.Bias[i] = tau[qi] - d.S[i].Dot(d.PA[i])

		if p != 0 {
			Ia := d.IA[i].Sub(spatial.Outer(d.U[i], d.U[i]).Scale(1 / d.D[i]))
			pa := d.PA[i].Add(Ia.MulVec(d.C[i])).Add(d.U[i].Scale(d.Bias[i] / d.D[i]))
			d.IA[p] = d.IA[p].Add(d.XLambda[i].InertiaToParent(Ia))
			d.PA[p] = d.PA[p].Add(d.XLambda[i].ApplyTranspose(pa))
		}
	}

	d.A[0] = gravityAcceleration(m)
	for i := 1; i < m.NumBodies(); i++ {
		a := d.XLambda[i].Apply(d.A[m.Lambda[i]]).Add(d.C[i])
		qi := m.QIndex[i]
		if qi < 0 {
			d.A[i] = a
			continue
		}
		qddot[qi] = (d.Bias[i] - d.U[i].Dot(a)) / d.D[i]
		d.A[i] = a.Add(d.S[i].Scale(qddot[qi]))
	}
}
