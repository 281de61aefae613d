package contacts

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/contactdyn/internal/model"
	"github.com/san-kum/contactdyn/internal/spatial"
	"gonum.org/v1/gonum/mat"
)

// Workspace holds every buffer a solve writes, sized from the model's
// degrees of freedom and the constraint count. Matrices with a zero
// dimension stay nil.
type Workspace struct {
	// Lagrangian system
	H     *mat.Dense // dof x dof
	C     []float64  // dof
	G     *mat.Dense // m x dof
	Gamma []float64  // m
	A     *mat.Dense // (dof+m) x (dof+m)
	B     []float64  // dof+m
	X     []float64  // dof+m

	// compliance system
	QDDot0   []float64  // dof
	QDDotT   []float64  // dof
	K        *mat.Dense // m x m
	Residual []float64  // m
	Forces   []float64  // m

	testForce   []spatial.Vector // m, base coordinates
	fext        []spatial.Vector // bodies, base coordinates
	pointAccel0 []mgl64.Vec3     // m

	// delta propagation, per body
	dPA []spatial.Vector
	dA  []spatial.Vector
	dU  []float64

	jac  *mat.Dense // 3 x dof
	data *model.Data
	dof  int
	size int
}

func newDense(r, c int) *mat.Dense {
	if r == 0 || c == 0 {
		return nil
	}
	return mat.NewDense(r, c, nil)
}

func newWorkspace(m *model.Model, size int) *Workspace {
	dof, nb := m.DofCount, m.NumBodies()
	return &Workspace{
		H:           newDense(dof, dof),
		C:           make([]float64, dof),
		G:           newDense(size, dof),
		Gamma:       make([]float64, size),
		A:           newDense(dof+size, dof+size),
		B:           make([]float64, dof+size),
		X:           make([]float64, dof+size),
		QDDot0:      make([]float64, dof),
		QDDotT:      make([]float64, dof),
		K:           newDense(size, size),
		Residual:    make([]float64, size),
		Forces:      make([]float64, size),
		testForce:   make([]spatial.Vector, size),
		fext:        make([]spatial.Vector, nb),
		pointAccel0: make([]mgl64.Vec3, size),
		dPA:         make([]spatial.Vector, nb),
		dA:          make([]spatial.Vector, nb),
		dU:          make([]float64, nb),
		jac:         newDense(3, dof),
		data:        model.NewData(m),
		dof:         dof,
		size:        size,
	}
}

// fits reports whether w was sized for m.
func (w *Workspace) fits(m *model.Model) bool {
	return w.dof == m.DofCount && w.data.Fits(m)
}

func (w *Workspace) reset() {
	for _, M := range []*mat.Dense{w.H, w.G, w.A, w.K, w.jac} {
		if M != nil {
			M.Zero()
		}
	}
	for _, s := range [][]float64{w.C, w.Gamma, w.B, w.X, w.QDDot0, w.QDDotT, w.Residual, w.Forces, w.dU} {
		clear(s)
	}
	for _, s := range [][]spatial.Vector{w.testForce, w.fext, w.dPA, w.dA} {
		clear(s)
	}
	clear(w.pointAccel0)
}
