package contacts

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-logr/logr"
	"github.com/san-kum/contactdyn/internal/linalg"
	"github.com/san-kum/contactdyn/internal/logging"
	"github.com/san-kum/contactdyn/internal/model"
)

// ConstraintSet is an ordered registry of point contacts together with the
// workspace its solves reuse from step to step.
//
// Constraints are added while the set is unbound. Bind sizes the workspace
// for a model and freezes the list; Clear resets the workspace between
// steps. A set must not be solved from two goroutines at once, but distinct
// sets over the same Model may be.
type ConstraintSet struct {
	LinearSolver linalg.Method

	Name         []string
	Body         []int
	Point        []mgl64.Vec3
	Normal       []mgl64.Vec3
	Acceleration []float64 // desired, along Normal
	Force        []float64 // result; acts on the body as -Force*Normal

	Workspace

	bound bool
	log   logr.Logger
}

// NewConstraintSet returns an empty, unbound set using partial-pivot LU.
func NewConstraintSet() *ConstraintSet {
	return &ConstraintSet{
		LinearSolver: linalg.PartialPivLU,
		log:          logr.Discard(),
	}
}

// SetLogger routes solver logs to l. Records are emitted at DEBUG and
// TRACE verbosity only.
func (cs *ConstraintSet) SetLogger(l logr.Logger) {
	cs.log = l.WithName("contacts")
}

// AddConstraint appends a contact on body at point (body frame) with the
// given normal and desired acceleration, returning its index.
func (cs *ConstraintSet) AddConstraint(body int, point, normal mgl64.Vec3, name string, acceleration float64) (int, error) {
	if cs.bound {
		return 0, ErrAlreadyBound
	}
	if _, ok := axisIndex(normal); !ok {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidNormal, normal)
	}

	cs.Name = append(cs.Name, name)
	cs.Body = append(cs.Body, body)
	cs.Point = append(cs.Point, point)
	cs.Normal = append(cs.Normal, normal)
	cs.Acceleration = append(cs.Acceleration, acceleration)
	cs.Force = append(cs.Force, 0)
	return len(cs.Body) - 1, nil
}

// Bind allocates the workspace for m and freezes the constraint list.
func (cs *ConstraintSet) Bind(m *model.Model) error {
	if cs.bound {
		return ErrAlreadyBound
	}
	if m.DofCount == 0 {
		return fmt.Errorf("%w: model has no degrees of freedom", ErrDimensionMismatch)
	}
	if err := validate(m, cs); err != nil {
		return err
	}

	cs.Workspace = *newWorkspace(m, cs.Size())
	cs.bound = true
	cs.log.V(logging.DEBUG).Info("bound constraint set", "constraints", cs.Size(), "dof", m.DofCount)
	return nil
}

// Clear zeroes the workspace and the resulting forces in place. Constraint
// definitions, including desired accelerations, are kept.
func (cs *ConstraintSet) Clear() {
	cs.Workspace.reset()
	clear(cs.Force)
}

func (cs *ConstraintSet) Size() int   { return len(cs.Body) }
func (cs *ConstraintSet) Bound() bool { return cs.bound }

// ConstraintSource

func (cs *ConstraintSet) Len() int { return cs.Size() }

func (cs *ConstraintSet) Contact(i int) Contact {
	return Contact{
		Body:         cs.Body[i],
		Point:        cs.Point[i],
		Normal:       cs.Normal[i],
		Acceleration: cs.Acceleration[i],
	}
}

func (cs *ConstraintSet) SetForce(i int, f float64) { cs.Force[i] = f }

// ready checks that cs is bound for m and that the state vectors match.
func (cs *ConstraintSet) ready(m *model.Model, vecs ...[]float64) error {
	if !cs.bound {
		return ErrNotBound
	}
	if !cs.fits(m) || cs.size != cs.Size() {
		return fmt.Errorf("%w: set bound for %d dofs and %d constraints, model has %d dofs",
			ErrDimensionMismatch, cs.dof, cs.size, m.DofCount)
	}
	if err := checkVectors(m, vecs...); err != nil {
		return err
	}
	return validate(m, cs)
}

func checkVectors(m *model.Model, vecs ...[]float64) error {
	for _, v := range vecs {
		if len(v) != m.DofCount {
			return fmt.Errorf("%w: vector of length %d for %d dofs", ErrDimensionMismatch, len(v), m.DofCount)
		}
	}
	return nil
}
