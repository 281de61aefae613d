package contacts

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-logr/logr"
	"github.com/san-kum/contactdyn/internal/dynamics"
	"github.com/san-kum/contactdyn/internal/kinematics"
	"github.com/san-kum/contactdyn/internal/linalg"
	"github.com/san-kum/contactdyn/internal/logging"
	"github.com/san-kum/contactdyn/internal/model"
	"gonum.org/v1/gonum/mat"
)

// ForwardDynamicsContactsLagrangian computes qddot and the constraint forces
// of cs by solving the full system
//
//	[ H  Gᵀ ] [ qddot ]   [ tau - C ]
//	[ G  0  ] [ -f    ] = [ -gamma  ]
//
// with the set's LinearSolver. Forces are written to cs.Force. On error
// neither qddot nor cs.Force is touched.
func ForwardDynamicsContactsLagrangian(m *model.Model, q, qdot, tau []float64, cs *ConstraintSet, qddot []float64) error {
	if err := cs.ready(m, q, qdot, tau, qddot); err != nil {
		return err
	}
	return solveLagrangian(cs.log.WithName("lagrangian"), m, &cs.Workspace, cs, cs.LinearSolver, q, qdot, tau, qddot)
}

func solveLagrangian(log logr.Logger, m *model.Model, w *Workspace, src ConstraintSource, method linalg.Method,
	q, qdot, tau, qddot []float64) error {
	dof, n := m.DofCount, src.Len()
	d := w.data

	// C with qddot = 0; this also brings transforms and velocities up to date
	clear(w.QDDot0)
	dynamics.InverseDynamics(m, d, q, qdot, w.QDDot0, w.C, nil)
	dynamics.CompositeRigidBody(m, d, q, w.H, false)
	assembleJacobian(m, w, q, src)

	// velocity-product point accelerations, root at rest
	kinematics.UpdateCustom(m, d, nil, nil, w.QDDot0)
	var cache pointCache
	var bias mgl64.Vec3
	for i := 0; i < n; i++ {
		c := src.Contact(i)
		if !cache.hit(c.Body, c.Point) {
			bias = kinematics.PointAcceleration(m, d, q, qdot, w.QDDot0, c.Body, c.Point, false)
		}
		axis, _ := axisIndex(c.Normal)
		w.Gamma[i] = bias[axis] - c.Acceleration
	}

	w.assembleSystem(dof, n)
	for i := 0; i < dof; i++ {
		w.B[i] = tau[i] - w.C[i]
	}
	for i := 0; i < n; i++ {
		w.B[dof+i] = -w.Gamma[i]
	}
	clear(w.X)

	log.V(logging.DEBUG).Info("solving", "dof", dof, "constraints", n, "solver", method)
	if tr := log.V(logging.TRACE); tr.Enabled() {
		tr.Info("system", "A", fmt.Sprintf("%v", mat.Formatted(w.A, mat.Squeeze())), "b", w.B)
	}

	if err := linalg.Solve(method, w.A, w.B, w.X); err != nil {
		log.V(logging.DEBUG).Info("solve failed", "err", err.Error())
		return numericalError("lagrangian", dof, n, err)
	}
	log.V(logging.TRACE).Info("solution", "x", w.X)

	copy(qddot, w.X[:dof])
	for i := 0; i < n; i++ {
		src.SetForce(i, w.X[dof+i])
	}
	return nil
}

// assembleJacobian fills w.G with the normal row of each contact's point
// Jacobian. Transforms in w.data must already match q.
func assembleJacobian(m *model.Model, w *Workspace, q []float64, src ConstraintSource) {
	var cache pointCache
	for i := 0; i < src.Len(); i++ {
		c := src.Contact(i)
		if !cache.hit(c.Body, c.Point) {
			kinematics.PointJacobian(m, w.data, q, c.Body, c.Point, w.jac, false)
		}
		axis, _ := axisIndex(c.Normal)
		for j := 0; j < m.DofCount; j++ {
			w.G.Set(i, j, w.jac.At(axis, j))
		}
	}
}

// assembleSystem writes [H Gᵀ; G 0] into w.A.
func (w *Workspace) assembleSystem(dof, n int) {
	w.A.Zero()
	w.A.Slice(0, dof, 0, dof).(*mat.Dense).Copy(w.H)
	for i := 0; i < n; i++ {
		for j := 0; j < dof; j++ {
			g := w.G.At(i, j)
			w.A.Set(dof+i, j, g)
			w.A.Set(j, dof+i, g)
		}
	}
}

// ComputeContactImpulsesLagrangian resolves a collision: it returns in
// qdotPlus the joint velocities right after impact and writes each impulse
// into contacts[i].Force, such that the normal velocity of every contact
// point equals its Acceleration field (the target post-impact velocity).
// The system is always solved with column-pivoted QR.
func ComputeContactImpulsesLagrangian(m *model.Model, q, qdotMinus []float64, contacts []ContactInfo, qdotPlus []float64) error {
	if m.DofCount == 0 {
		return fmt.Errorf("%w: model has no degrees of freedom", ErrDimensionMismatch)
	}
	if err := checkVectors(m, q, qdotMinus, qdotPlus); err != nil {
		return err
	}
	src := ContactList(contacts)
	if err := validate(m, src); err != nil {
		return err
	}

	dof, n := m.DofCount, src.Len()
	w := newWorkspace(m, n)

	kinematics.UpdateCustom(m, w.data, q, nil, nil)
	dynamics.CompositeRigidBody(m, w.data, q, w.H, false)
	if n > 0 {
		assembleJacobian(m, w, q, src)
	}

	w.assembleSystem(dof, n)
	mat.NewVecDense(dof, w.B[:dof]).MulVec(w.H, mat.NewVecDense(dof, qdotMinus))
	for i := 0; i < n; i++ {
		w.B[dof+i] = contacts[i].Acceleration
	}

	if err := linalg.Solve(linalg.ColPivHouseholderQR, w.A, w.B, w.X); err != nil {
		return numericalError("impulses", dof, n, err)
	}

	copy(qdotPlus, w.X[:dof])
	for i := 0; i < n; i++ {
		src.SetForce(i, w.X[dof+i])
	}
	return nil
}

// SetRestitutionTargets sets each contact's target post-impact velocity to
// -e times its pre-impact normal velocity. e = 0 is a plastic impact, e = 1
// a fully elastic one.
func SetRestitutionTargets(m *model.Model, q, qdotMinus []float64, contacts []ContactInfo, e float64) error {
	if e < 0 || math.IsNaN(e) {
		return fmt.Errorf("%w: restitution coefficient %f", ErrPrecondition, e)
	}
	if err := checkVectors(m, q, qdotMinus); err != nil {
		return err
	}
	if err := validate(m, ContactList(contacts)); err != nil {
		return err
	}

	d := model.NewData(m)
	kinematics.UpdateCustom(m, d, q, qdotMinus, nil)
	for i := range contacts {
		c := &contacts[i]
		v := kinematics.PointVelocity(m, d, q, qdotMinus, c.BodyID, c.Point, false)
		c.Acceleration = -e * c.Normal.Dot(v)
	}
	return nil
}

// numericalError maps a failed solve of a system whose last n unknowns are
// the constraint forces onto constraint indices. With no rank information
// every constraint is reported.
func numericalError(op string, offset, n int, err error) error {
	ne := &NumericalError{Op: op, Residual: math.NaN(), Err: err}

	var se *linalg.SolveError
	if errors.As(err, &se) {
		ne.Residual = se.Residual
		for _, col := range se.Dependent {
			if col >= offset {
				ne.Constraints = append(ne.Constraints, col-offset)
			}
		}
	}
	if len(ne.Constraints) == 0 {
		for i := 0; i < n; i++ {
			ne.Constraints = append(ne.Constraints, i)
		}
	}
	return ne
}
