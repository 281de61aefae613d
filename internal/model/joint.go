package model

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/contactdyn/internal/spatial"
)

type JointType uint8

const (
	JointFixed JointType = iota
	JointRevolute
	JointPrismatic
)

func (t JointType) String() string {
	switch t {
	case JointFixed:
		return "fixed"
	case JointRevolute:
		return "revolute"
	case JointPrismatic:
		return "prismatic"
	default:
		return "unknown"
	}
}

// Joint connects a body to its parent. Axis is expressed in the joint frame.
type Joint struct {
	Type JointType
	Axis mgl64.Vec3
}

func FixedJoint() Joint                    { return Joint{Type: JointFixed} }
func RevoluteJoint(axis mgl64.Vec3) Joint  { return Joint{Type: JointRevolute, Axis: axis} }
func PrismaticJoint(axis mgl64.Vec3) Joint { return Joint{Type: JointPrismatic, Axis: axis} }

var (
	RevoluteX  = RevoluteJoint(mgl64.Vec3{1, 0, 0})
	RevoluteY  = RevoluteJoint(mgl64.Vec3{0, 1, 0})
	RevoluteZ  = RevoluteJoint(mgl64.Vec3{0, 0, 1})
	PrismaticX = PrismaticJoint(mgl64.Vec3{1, 0, 0})
	PrismaticY = PrismaticJoint(mgl64.Vec3{0, 1, 0})
	PrismaticZ = PrismaticJoint(mgl64.Vec3{0, 0, 1})
)

func (j Joint) DoF() int {
	if j.Type == JointFixed {
		return 0
	}
	return 1
}

// MotionSubspace returns S, the joint's motion axis in the child frame.
func (j Joint) MotionSubspace() spatial.Vector {
	switch j.Type {
	case JointRevolute:
		return spatial.NewVector(j.Axis, mgl64.Vec3{})
	case JointPrismatic:
		return spatial.NewVector(mgl64.Vec3{}, j.Axis)
	default:
		return spatial.Zero
	}
}

// Transform returns the joint transform XJ for joint position q.
func (j Joint) Transform(q float64) spatial.Transform {
	switch j.Type {
	case JointRevolute:
		return spatial.Xrot(q, j.Axis)
	case JointPrismatic:
		return spatial.Xtrans(j.Axis.Mul(q))
	default:
		return spatial.IdentityTransform()
	}
}
