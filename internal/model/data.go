package model

import "github.com/san-kum/contactdyn/internal/spatial"

// Data is per-body scratch written by the kinematics and dynamics passes.
// Whoever runs a solve owns its Data; two solves sharing one Data must be
// serialized.
type Data struct {
	XJ      []spatial.Transform
	XLambda []spatial.Transform
	XBase   []spatial.Transform
	S       []spatial.Vector

	V []spatial.Vector
	C []spatial.Vector
	A []spatial.Vector

	// articulated-body quantities left behind by ForwardDynamics
	IA   []spatial.Matrix
	PA   []spatial.Vector
	U    []spatial.Vector
	D    []float64
	Bias []float64

	F  []spatial.Vector
	IC []spatial.Matrix
}

func NewData(m *Model) *Data {
	n := m.NumBodies()
	d := &Data{
		XJ:      make([]spatial.Transform, n),
		XLambda: make([]spatial.Transform, n),
		XBase:   make([]spatial.Transform, n),
		S:       make([]spatial.Vector, n),
		V:       make([]spatial.Vector, n),
		C:       make([]spatial.Vector, n),
		A:       make([]spatial.Vector, n),
		IA:      make([]spatial.Matrix, n),
		PA:      make([]spatial.Vector, n),
		U:       make([]spatial.Vector, n),
		D:       make([]float64, n),
		Bias:    make([]float64, n),
		F:       make([]spatial.Vector, n),
		IC:      make([]spatial.Matrix, n),
	}
	for i := 0; i < n; i++ {
		d.XJ[i] = spatial.IdentityTransform()
		d.XLambda[i] = spatial.IdentityTransform()
		d.XBase[i] = spatial.IdentityTransform()
	}
	return d
}

// Fits reports whether d was sized for m.
func (d *Data) Fits(m *Model) bool {
	return len(d.XBase) == m.NumBodies()
}
