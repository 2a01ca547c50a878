package math

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// FrameRotation maps vectors from an orbit's perifocal frame (X toward
// periapsis, Z along the angular momentum) into the parent reference frame.
//
// The matrix is Rz(ascendingNode) * Rx(inclination) * Rz(periapsis). It is
// built once and only read afterwards, so a FrameRotation may be shared
// between goroutines. Use NewFrameRotation; the zero value is not usable.
type FrameRotation struct {
	m *mat.Dense
}

// NewFrameRotation composes the perifocal to parent-frame rotation
func NewFrameRotation(inclination, ascendingNode, periapsis float64) FrameRotation {
	var inner, r mat.Dense
	inner.Mul(rotationX(inclination), rotationZ(periapsis))
	r.Mul(rotationZ(ascendingNode), &inner)
	return FrameRotation{m: &r}
}

// IdentityRotation returns a rotation that leaves vectors unchanged
func IdentityRotation() FrameRotation {
	return NewFrameRotation(0, 0, 0)
}

func rotationZ(angle float64) *mat.Dense {
	s, c := math.Sincos(angle)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

func rotationX(angle float64) *mat.Dense {
	s, c := math.Sincos(angle)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// Apply rotates a perifocal vector into the parent frame
func (f FrameRotation) Apply(v Vector3) Vector3 {
	return mulVec(f.m, v)
}

// Inverse rotates a parent-frame vector back into the perifocal frame
func (f FrameRotation) Inverse(v Vector3) Vector3 {
	return mulVec(f.m.T(), v)
}

// Matrix returns a copy of the rotation matrix in row-major order
func (f FrameRotation) Matrix() [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = f.m.At(i, j)
		}
	}
	return out
}

func mulVec(m mat.Matrix, v Vector3) Vector3 {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return Vector3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}
