package model

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/contactdyn/internal/spatial"
)

const DefaultGravity = -9.81

// Body holds the inertial parameters of a rigid body in its own frame.
type Body struct {
	Mass    float64
	COM     mgl64.Vec3
	Inertia mgl64.Mat3 // about the center of mass
}

func NewBody(mass float64, com mgl64.Vec3, inertia mgl64.Mat3) Body {
	return Body{Mass: mass, COM: com, Inertia: inertia}
}

func (b Body) SpatialInertia() spatial.Matrix {
	return spatial.RigidBodyInertia(b.Mass, b.COM, b.Inertia)
}

// Model is a kinematic tree with a fixed root at index 0. Parents always
// carry a smaller index than their children, so index order is a valid
// root-to-leaf traversal.
type Model struct {
	Gravity  mgl64.Vec3
	DofCount int

	Lambda  []int
	Joints  []Joint
	XTree   []spatial.Transform
	Bodies  []Body
	Inertia []spatial.Matrix
	QIndex  []int
	Names   []string

	ids map[string]int
}

func New() *Model {
	return &Model{
		Gravity: mgl64.Vec3{0, 0, DefaultGravity},
		Lambda:  []int{0},
		Joints:  []Joint{FixedJoint()},
		XTree:   []spatial.Transform{spatial.IdentityTransform()},
		Bodies:  []Body{{}},
		Inertia: []spatial.Matrix{{}},
		QIndex:  []int{-1},
		Names:   []string{"root"},
		ids:     map[string]int{"root": 0},
	}
}

// AddBody attaches body to parent through joint. frame is the fixed
// transform from the parent frame to the joint frame. Returns the new body id.
func (m *Model) AddBody(parent int, frame spatial.Transform, joint Joint, body Body, name string) (int, error) {
	if parent < 0 || parent >= len(m.Lambda) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownParent, parent)
	}
	if name != "" {
		if _, ok := m.ids[name]; ok {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
	}
	if joint.Type != JointFixed {
		n := joint.Axis.Len()
		if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidJoint, joint.Axis)
		}
		joint.Axis = joint.Axis.Mul(1 / n)
	}
	if body.Mass < 0 || math.IsNaN(body.Mass) || math.IsInf(body.Mass, 0) {
		return 0, fmt.Errorf("%w: mass %f", ErrInvalidBody, body.Mass)
	}

	id := len(m.Lambda)
	m.Lambda = append(m.Lambda, parent)
	m.Joints = append(m.Joints, joint)
	m.XTree = append(m.XTree, frame)
	m.Bodies = append(m.Bodies, body)
	m.Inertia = append(m.Inertia, body.SpatialInertia())
	m.Names = append(m.Names, name)

	if joint.DoF() > 0 {
		m.QIndex = append(m.QIndex, m.DofCount)
		m.DofCount++
	} else {
		m.QIndex = append(m.QIndex, -1)
	}

	if name != "" {
		m.ids[name] = id
	}
	return id, nil
}

// NumBodies counts bodies including the root.
func (m *Model) NumBodies() int { return len(m.Lambda) }

func (m *Model) BodyID(name string) (int, bool) {
	id, ok := m.ids[name]
	return id, ok
}

// IsAncestor reports whether a lies on the path from b to the root
// (a body is its own ancestor).
func (m *Model) IsAncestor(a, b int) bool {
	for ; b != 0; b = m.Lambda[b] {
		if b == a {
			return true
		}
	}
	return a == 0
}
