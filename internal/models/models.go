// Package models builds the reference kinematic trees used by the CLI
// scenarios, presets and tests.
//
// Every builder names its bodies so scenario files can attach contacts by
// name:
//
//   - box: one body on a vertical slider ("box")
//   - planar_box: a box moving in the x-z plane ("box")
//   - two_boxes: two independent vertical sliders ("left", "right")
//   - biped: a planar trunk with two legs ("trunk", "left_leg", "right_leg")
//   - arm: a spatial arm ending in a fixed tool ("tool")
package models

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/contactdyn/internal/model"
	"github.com/san-kum/contactdyn/internal/spatial"
)

var ErrUnknownModel = errors.New("models: unknown model")

var builders = map[string]func() *model.Model{
	"box": func() *model.Model {
		m, _ := SlidingBox(1)
		return m
	},
	"planar_box": func() *model.Model {
		m, _ := PlanarBox()
		return m
	},
	"two_boxes": func() *model.Model {
		m, _, _ := TwoBoxes()
		return m
	},
	"biped": func() *model.Model {
		m, _, _ := Biped()
		return m
	},
	"arm": func() *model.Model {
		m, _ := Arm()
		return m
	},
}

// Get builds a fresh copy of the named model.
func Get(name string) (*model.Model, error) {
	fn, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownModel, name, Names())
	}
	return fn(), nil
}

// Names lists the built-in models in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mustAdd(m *model.Model, parent int, frame spatial.Transform, j model.Joint, b model.Body, name string) int {
	id, err := m.AddBody(parent, frame, j, b, name)
	if err != nil {
		panic(err)
	}
	return id
}

// SlidingBox is a single body of the given mass on a vertical prismatic joint.
func SlidingBox(mass float64) (*model.Model, int) {
	m := model.New()
	id := mustAdd(m, 0, spatial.IdentityTransform(), model.PrismaticZ,
		model.NewBody(mass, mgl64.Vec3{}, mgl64.Ident3()), "box")
	return m, id
}

// Box corners of PlanarBox in its body frame.
var (
	CornerLeft  = mgl64.Vec3{-0.5, 0, -0.25}
	CornerRight = mgl64.Vec3{0.5, 0, -0.25}
)

// PlanarBox is a box free to translate in x and z and rotate about y.
// Coordinates are (x, z, pitch). The two slider stages are massless.
func PlanarBox() (*model.Model, int) {
	m := model.New()
	id := spatial.IdentityTransform()
	x := mustAdd(m, 0, id, model.PrismaticX, model.Body{}, "slide_x")
	z := mustAdd(m, x, id, model.PrismaticZ, model.Body{}, "slide_z")
	box := mustAdd(m, z, id, model.RevoluteY,
		model.NewBody(1.5, mgl64.Vec3{0.05, 0, 0.02}, mgl64.Diag3(mgl64.Vec3{0.1, 0.2, 0.3})), "box")
	return m, box
}

// TwoBoxes hangs two independent sliders of mass 1 and 3 off the root.
func TwoBoxes() (*model.Model, int, int) {
	m := model.New()
	a := mustAdd(m, 0, spatial.IdentityTransform(), model.PrismaticZ,
		model.NewBody(1, mgl64.Vec3{}, mgl64.Ident3()), "left")
	b := mustAdd(m, 0, spatial.Xtrans(mgl64.Vec3{2, 0, 0}), model.PrismaticZ,
		model.NewBody(3, mgl64.Vec3{}, mgl64.Ident3()), "right")
	return m, a, b
}

// Arm is a spatial serial arm with mixed joint axes, an oblique prismatic
// stage and a fixed tool body at the tip.
func Arm() (*model.Model, int) {
	m := model.New()
	link := func(l float64) model.Body {
		return model.NewBody(1.0+l, mgl64.Vec3{0, 0, -l / 2}, mgl64.Diag3(mgl64.Vec3{0.05, 0.06, 0.02}))
	}

	b1 := mustAdd(m, 0, spatial.IdentityTransform(), model.RevoluteZ, link(0.5), "link1")
	b2 := mustAdd(m, b1, spatial.Xtrans(mgl64.Vec3{0, 0, -0.5}), model.RevoluteY, link(0.7), "link2")
	b3 := mustAdd(m, b2, spatial.Xrot(0.3, mgl64.Vec3{0, 0, 1}).Mul(spatial.Xtrans(mgl64.Vec3{0.1, 0, -0.7})),
		model.RevoluteX, link(0.4), "link3")
	b4 := mustAdd(m, b3, spatial.Xtrans(mgl64.Vec3{0, 0, -0.4}),
		model.PrismaticJoint(mgl64.Vec3{0, 1, 1}), link(0.2), "stage")
	tool := mustAdd(m, b4, spatial.Xtrans(mgl64.Vec3{0, 0.1, -0.2}), model.FixedJoint(),
		model.NewBody(0.3, mgl64.Vec3{0, 0, -0.05}, mgl64.Diag3(mgl64.Vec3{0.01, 0.01, 0.01})), "tool")
	return m, tool
}

// Foot is the contact point at the tip of a Biped leg.
var Foot = mgl64.Vec3{0, 0, -0.8}

// Biped is a planar trunk with two revolute legs.
// Coordinates are (x, z, pitch, left hip, right hip).
func Biped() (*model.Model, int, int) {
	m := model.New()
	id := spatial.IdentityTransform()
	x := mustAdd(m, 0, id, model.PrismaticX, model.Body{}, "trunk_x")
	z := mustAdd(m, x, id, model.PrismaticZ, model.Body{}, "trunk_z")
	trunk := mustAdd(m, z, id, model.RevoluteY,
		model.NewBody(10, mgl64.Vec3{0, 0, 0.2}, mgl64.Diag3(mgl64.Vec3{0.5, 0.5, 0.3})), "trunk")
	leg := model.NewBody(2, mgl64.Vec3{0, 0, -0.4}, mgl64.Diag3(mgl64.Vec3{0.08, 0.08, 0.01}))
	left := mustAdd(m, trunk, spatial.Xtrans(mgl64.Vec3{0, 0.15, 0}), model.RevoluteY, leg, "left_leg")
	right := mustAdd(m, trunk, spatial.Xtrans(mgl64.Vec3{0, -0.15, 0}), model.RevoluteY, leg, "right_leg")
	return m, left, right
}
