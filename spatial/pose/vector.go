// Package pose provides positions, orientations and their interpolation
// over time.
//
// Vectors are mgl64.Vec3 values in world space (+x right, +y up, -z
// forward). An [InterpolatedPose] moves from one [Pose] to another over a
// transition window; consumers only read its Current pose.
package pose

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector3 is a point or direction in world space.
type Vector3 = mgl64.Vec3

// Default orientation axes.
var (
	Forward = Vector3{0, 0, -1}
	Up      = Vector3{0, 1, 0}
)

const angleEpsilon = 1e-9

// Normalize returns v scaled to unit length, or fallback when v has no
// usable direction.
func Normalize(v, fallback Vector3) Vector3 {
	l := v.Len()
	if !(l > angleEpsilon) || math.IsInf(l, 0) {
		return fallback
	}
	return v.Mul(1 / l)
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b Vector3, p float64) Vector3 {
	return a.Add(b.Sub(a).Mul(p))
}

// Slerp spherically interpolates between the directions a and b using the
// angle between them. Magnitudes are interpolated linearly. When the angle
// is zero the result is a plain linear blend.
func Slerp(a, b Vector3, p float64) Vector3 {
	la, lb := a.Len(), b.Len()
	if la < angleEpsilon || lb < angleEpsilon {
		return Lerp(a, b, p)
	}

	ua, ub := a.Mul(1/la), b.Mul(1/lb)
	cosTheta := mgl64.Clamp(ua.Dot(ub), -1, 1)
	theta := math.Acos(cosTheta)
	length := la + (lb-la)*p

	switch {
	case theta < angleEpsilon:
		return Lerp(a, b, p)
	case math.Pi-theta < angleEpsilon:
		// Opposite directions: rotate through any perpendicular axis.
		perp := Normalize(ua.Cross(Vector3{1, 0, 0}), Vector3{})
		if perp.Len() == 0 {
			perp = Normalize(ua.Cross(Vector3{0, 1, 0}), Vector3{0, 0, 1})
		}
		angle := math.Pi * p
		return ua.Mul(math.Cos(angle)).Add(perp.Mul(math.Sin(angle))).Mul(length)
	}

	sinTheta := math.Sin(theta)
	wa := math.Sin((1-p)*theta) / sinTheta
	wb := math.Sin(p*theta) / sinTheta
	return ua.Mul(wa).Add(ub.Mul(wb)).Mul(length)
}
