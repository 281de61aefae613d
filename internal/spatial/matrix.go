package spatial

import "github.com/go-gl/mathgl/mgl64"

type Matrix [6][6]float64

func Identity() Matrix {
	var m Matrix
	for i := 0; i < 6; i++ {
		m[i][i] = 1
	}
	return m
}

// NewMatrix assembles a spatial matrix from its four 3x3 blocks.
func NewMatrix(tl, tr, bl, br mgl64.Mat3) Matrix {
	var m Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r][c] = tl.At(r, c)
			m[r][c+3] = tr.At(r, c)
			m[r+3][c] = bl.At(r, c)
			m[r+3][c+3] = br.At(r, c)
		}
	}
	return m
}

// RigidBodyInertia returns the spatial inertia of a body with the given mass,
// center of mass and rotational inertia about the center of mass, all in the
// body frame.
func RigidBodyInertia(mass float64, com mgl64.Vec3, inertiaCOM mgl64.Mat3) Matrix {
	cx := Skew(com)
	mcx := cx.Mul(mass)
	tl := inertiaCOM.Sub(cx.Mul3(cx).Mul(mass))
	return NewMatrix(tl, mcx, mcx.Transpose(), mgl64.Ident3().Mul(mass))
}

// Skew returns the cross-product matrix of v.
func Skew(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v[2], v[1]},
		mgl64.Vec3{v[2], 0, -v[0]},
		mgl64.Vec3{-v[1], v[0], 0},
	)
}

func (m Matrix) MulVec(v Vector) Vector {
	var out Vector
	for i := 0; i < 6; i++ {
		sum := 0.0
		for j := 0; j < 6; j++ {
			sum += m[i][j] * v[j]
		}
		out[i] = sum
	}
	return out
}

func (m Matrix) Mul(o Matrix) Matrix {
	var out Matrix
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			sum := 0.0
			for k := 0; k < 6; k++ {
				sum += m[i][k] * o[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

func (m Matrix) Add(o Matrix) Matrix {
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] += o[i][j]
		}
	}
	return m
}

func (m Matrix) Sub(o Matrix) Matrix {
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] -= o[i][j]
		}
	}
	return m
}

func (m Matrix) Scale(s float64) Matrix {
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] *= s
		}
	}
	return m
}

func (m Matrix) Transpose() Matrix {
	var out Matrix
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			out[j][i] = m[i][j]
		}
	}
	return out
}
