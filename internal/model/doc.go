// Package model describes kinematic trees of rigid bodies.
//
//   - [Model]: static tree structure, joints and inertias (read-only while solving)
//   - [Data]: per-body scratch produced by kinematics and dynamics passes
//   - [Joint]: fixed, revolute or prismatic connection to the parent body
//
// # Example
//
//	m := model.New()
//	box, _ := m.AddBody(0, spatial.IdentityTransform(), model.PrismaticZ,
//	    model.NewBody(1, mgl64.Vec3{}, mgl64.Ident3()), "box")
//	d := model.NewData(m)
package model
