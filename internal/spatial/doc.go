// Package spatial implements 6D spatial vector algebra for rigid-body
// dynamics.
//
// Vectors are stored angular part first, linear part second:
//
//   - [Vector]: motion (angular/linear velocity) or force (moment/force) vector
//   - [Matrix]: 6x6 spatial matrix, typically a rigid-body or articulated inertia
//   - [Transform]: Plücker coordinate transform between two frames
//
// # Conventions
//
// A [Transform] from frame A to frame B stores the rotation E that maps A
// coordinates into B coordinates and the position R of B's origin expressed
// in A. [Transform.Apply] moves motion vectors from A to B,
// [Transform.ApplyAdjoint] moves force vectors from A to B and
// [Transform.ApplyTranspose] moves force vectors from B back to A.
//
//	X := spatial.Xtrans(mgl64.Vec3{0, 0, 1})
//	v := X.Apply(spatial.NewVector(w, vel))
package spatial
