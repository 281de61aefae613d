// Package contacts computes contact-constrained forward dynamics and
// collision impulses for point contacts on a kinematic tree.
//
// A contact pins the acceleration of a body-fixed point along one world axis
// (+x, +y or +z) to a desired value. Two solvers produce the same joint
// accelerations and contact forces for a well-posed set:
//
//   - [ForwardDynamicsContactsLagrangian] assembles and solves the full
//     (dof+m) square system in one factorization.
//   - [ForwardDynamicsContacts] runs one articulated-body pass, probes every
//     contact with a unit test force to build the m x m compliance matrix and
//     applies the solved forces by superposition. It is cheaper when m is
//     small relative to the model.
//
// [ComputeContactImpulsesLagrangian] solves the velocity-level analogue for a
// single collision, and [ForwardDynamicsContactsList] is the compliance
// solver over a plain []ContactInfo.
//
// The force of contact i acts on its body as -Force[i]*Normal[i]: a box
// resting on the ground (normal +z) under gravity -z reports Force = -m*g.
//
// # Errors
//
// Caller mistakes (bad normal, binding twice, mismatched sizes) are returned
// as errors matching [ErrPrecondition] before any matrix work. A singular or
// badly conditioned system is returned as a *[NumericalError] matching
// [ErrNumericalFailure]; the caller decides whether to drop, regularize or
// ignore the offending contacts.
//
// # Example
//
//	cs := contacts.NewConstraintSet()
//	cs.AddConstraint(foot, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, "heel", 0)
//	if err := cs.Bind(m); err != nil {
//		return err
//	}
//	for step := 0; step < steps; step++ {
//		cs.Clear()
//		if err := contacts.ForwardDynamicsContacts(m, q, qdot, tau, cs, qddot); err != nil {
//			return err
//		}
//		// integrate qddot ...
//	}
package contacts
