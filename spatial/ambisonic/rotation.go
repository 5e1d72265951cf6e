package ambisonic

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cwbudde/algo-spatial/spatial"
)

// ErrNonOrthonormal is returned when a rotation matrix is not a proper
// rotation. Higher-order bands derived from such a matrix are meaningless.
var ErrNonOrthonormal = fmt.Errorf("ambisonic: rotation matrix is not orthonormal: %w", spatial.ErrConfiguration)

const orthonormalTolerance = 1e-3

// RotationFromBasis returns the world-to-listener rotation for a listener
// facing forward with the given up vector. Both must be unit length and
// orthogonal; see pose.Pose.Basis.
func RotationFromBasis(right, up, forward mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(right, up, forward.Mul(-1))
}

// RotationFromMat4 extracts the upper-left 3x3 rotation of a column-major
// 4x4 transform.
func RotationFromMat4(m mgl64.Mat4) mgl64.Mat3 {
	return m.Mat3()
}

// ValidateRotation checks that m is orthonormal with determinant +1.
func ValidateRotation(m mgl64.Mat3) error {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite element", ErrNonOrthonormal)
		}
	}
	gram := m.Transpose().Mul3(m)
	ident := mgl64.Ident3()
	for i := range gram {
		if math.Abs(gram[i]-ident[i]) > orthonormalTolerance {
			return ErrNonOrthonormal
		}
	}
	if det := m.Det(); math.Abs(det-1) > orthonormalTolerance {
		return fmt.Errorf("%w: determinant %f", ErrNonOrthonormal, det)
	}
	return nil
}

// AzimuthElevation returns the ambisonic azimuth and elevation in degrees of
// a world-space direction. A zero vector maps to straight ahead.
func AzimuthElevation(d mgl64.Vec3) (azimuth, elevation float64) {
	x, y, z := d.X(), d.Y(), d.Z()
	if x == 0 && y == 0 && z == 0 {
		return 0, 0
	}
	azimuth = math.Atan2(-x, -z) * 180 / math.Pi
	elevation = math.Atan2(y, math.Hypot(x, z)) * 180 / math.Pi
	return azimuth, elevation
}

// band1 maps ACN order-1 positions (Y, Z, X) to world axes and signs.
var (
	band1Axis = [3]int{0, 1, 2}
	band1Sign = [3]float64{-1, 1, -1}
)

// band1Matrix expresses world rotation m in the order-1 channel basis,
// indexed [m+1][n+1].
func band1Matrix(m mgl64.Mat3) [][]float64 {
	r := make([][]float64, 3)
	for a := range 3 {
		r[a] = make([]float64, 3)
		for b := range 3 {
			r[a][b] = band1Sign[a] * band1Sign[b] * m.At(band1Axis[a], band1Axis[b])
		}
	}
	return r
}
