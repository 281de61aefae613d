package contacts

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-logr/logr"
	"github.com/san-kum/contactdyn/internal/dynamics"
	"github.com/san-kum/contactdyn/internal/kinematics"
	"github.com/san-kum/contactdyn/internal/linalg"
	"github.com/san-kum/contactdyn/internal/logging"
	"github.com/san-kum/contactdyn/internal/model"
	"github.com/san-kum/contactdyn/internal/spatial"
	"gonum.org/v1/gonum/mat"
)

// ForwardDynamicsContacts computes qddot and the constraint forces of cs
// from a single articulated-body pass. Each contact is probed with a unit
// test force to build the m x m compliance matrix K, K f = residual is
// solved with the set's LinearSolver, and the forces are applied by
// superposition. Forces are written to cs.Force. On error neither qddot nor
// cs.Force is touched.
func ForwardDynamicsContacts(m *model.Model, q, qdot, tau []float64, cs *ConstraintSet, qddot []float64) error {
	if err := cs.ready(m, q, qdot, tau, qddot); err != nil {
		return err
	}
	return solveCompliance(cs.log.WithName("compliance"), m, &cs.Workspace, cs, cs.LinearSolver, q, qdot, tau, qddot)
}

// ForwardDynamicsContactsList runs the same algorithm as
// ForwardDynamicsContacts over a plain contact list with a workspace
// allocated per call. K is solved with column-pivoted QR. Forces are written
// to contacts[i].Force.
func ForwardDynamicsContactsList(m *model.Model, q, qdot, tau []float64, contacts []ContactInfo, qddot []float64) error {
	if m.DofCount == 0 {
		return fmt.Errorf("%w: model has no degrees of freedom", ErrDimensionMismatch)
	}
	if err := checkVectors(m, q, qdot, tau, qddot); err != nil {
		return err
	}
	src := ContactList(contacts)
	if err := validate(m, src); err != nil {
		return err
	}
	w := newWorkspace(m, src.Len())
	return solveCompliance(logr.Discard(), m, w, src, linalg.ColPivHouseholderQR, q, qdot, tau, qddot)
}

func solveCompliance(log logr.Logger, m *model.Model, w *Workspace, src ConstraintSource, method linalg.Method,
	q, qdot, tau, qddot []float64) error {
	n := src.Len()
	d := w.data

	// leaves IA, U, D in d for the delta passes below
	dynamics.ForwardDynamics(m, d, q, qdot, tau, w.QDDot0, nil)
	if n == 0 {
		copy(qddot, w.QDDot0)
		return nil
	}
	clear(w.fext)

	kinematics.UpdateCustom(m, d, nil, nil, w.QDDot0)
	var cache pointCache
	var accel mgl64.Vec3
	for i := 0; i < n; i++ {
		c := src.Contact(i)
		if !cache.hit(c.Body, c.Point) {
			accel = kinematics.PointAcceleration(m, d, q, qdot, w.QDDot0, c.Body, c.Point, false)
		}
		w.pointAccel0[i] = accel
		w.Residual[i] = c.Acceleration - c.Normal.Dot(accel)
	}

	for i := 0; i < n; i++ {
		c := src.Contact(i)
		p := kinematics.BodyToBaseCoordinates(m, d, q, c.Body, c.Point, false)
		f := c.Normal.Mul(-1)
		w.testForce[i] = spatial.NewVector(p.Cross(f), f)

		w.fext[c.Body] = w.testForce[i]
		w.accelerationDeltas(m, w.fext, w.QDDotT)
		w.fext[c.Body] = spatial.Zero

		for k := range w.QDDotT {
			w.QDDotT[k] += w.QDDot0[k]
		}
		kinematics.UpdateCustom(m, d, nil, nil, w.QDDotT)

		cache = pointCache{}
		for j := 0; j < n; j++ {
			cj := src.Contact(j)
			if !cache.hit(cj.Body, cj.Point) {
				accel = kinematics.PointAcceleration(m, d, q, qdot, w.QDDotT, cj.Body, cj.Point, false)
			}
			w.K.Set(i, j, cj.Normal.Dot(accel.Sub(w.pointAccel0[j])))
		}
	}

	log.V(logging.DEBUG).Info("solving", "dof", m.DofCount, "constraints", n, "solver", method)
	if tr := log.V(logging.TRACE); tr.Enabled() {
		tr.Info("system", "K", fmt.Sprintf("%v", mat.Formatted(w.K, mat.Squeeze())), "residual", w.Residual)
	}

	// K is symmetric, so rows indexed by the probed contact are fine
	if err := linalg.Solve(method, w.K, w.Residual, w.Forces); err != nil {
		log.V(logging.DEBUG).Info("solve failed", "err", err.Error())
		return numericalError("compliance", 0, n, err)
	}
	log.V(logging.TRACE).Info("solution", "f", w.Forces)

	for i := 0; i < n; i++ {
		body := src.Contact(i).Body
		w.fext[body] = w.fext[body].Add(w.testForce[i].Scale(w.Forces[i]))
	}
	w.accelerationDeltas(m, w.fext, w.QDDotT)

	for k := range qddot {
		qddot[k] = w.QDDot0[k] + w.QDDotT[k]
	}
	for i := 0; i < n; i++ {
		src.SetForce(i, w.Forces[i])
	}
	return nil
}

// accelerationDeltas writes to out the change in qddot caused by the
// external forces fext (base coordinates, one per body), reusing the
// articulated quantities the last ForwardDynamics pass left in w.data.
// Bodies carrying no force delta are skipped on the way up; fixed joints
// pass their delta straight to the parent.
func (w *Workspace) accelerationDeltas(m *model.Model, fext []spatial.Vector, out []float64) {
	d := w.data
	nb := m.NumBodies()

	for i := 0; i < nb; i++ {
		w.dPA[i], w.dA[i], w.dU[i] = spatial.Zero, spatial.Zero, 0
		if i > 0 && !fext[i].IsZero() {
			w.dPA[i] = d.XBase[i].ApplyAdjoint(fext[i]).Scale(-1)
		}
	}

	for i := nb - 1; i > 0; i-- {
		if w.dPA[i].IsZero() {
			continue
		}
		pa := w.dPA[i]
		if m.QIndex[i] >= 0 {
			w.dU[i] = -d.S[i].Dot(w.dPA[i])
			pa = pa.Add(d.U[i].Scale(w.dU[i] / d.D[i]))
		}
		if p := m.Lambda[i]; p != 0 {
			w.dPA[p] = w.dPA[p].Add(d.XLambda[i].ApplyTranspose(pa))
		}
	}

	for i := 1; i < nb; i++ {
		a := d.XLambda[i].Apply(w.dA[m.Lambda[i]])
		if qi := m.QIndex[i]; qi >= 0 {
			out[qi] = (w.dU[i] - d.U[i].Dot(a)) / d.D[i]
			a = a.Add(d.S[i].Scale(out[qi]))
		}
		w.dA[i] = a
	}
}
