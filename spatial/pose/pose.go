package pose

import "github.com/go-gl/mathgl/mgl64"

// Pose is a timestamped position and orientation.
type Pose struct {
	T        float64
	Position Vector3
	Forward  Vector3
	Up       Vector3
}

// Default returns a pose at the origin facing -z with +y up.
func Default() Pose {
	return Pose{Forward: Forward, Up: Up}
}

// Basis returns an orthonormal right/up/forward frame for the pose. Forward
// is kept exactly; up is re-orthogonalised against it. Degenerate inputs
// fall back to the default axes.
func (p Pose) Basis() (right, up, forward Vector3) {
	forward = Normalize(p.Forward, Forward)
	up = Normalize(p.Up, Up)

	right = forward.Cross(up)
	if right.Len() < angleEpsilon {
		// Up parallel to forward; pick any perpendicular.
		alt := Vector3{0, 0, 1}
		if mgl64.Abs(forward.Z()) > 0.9 {
			alt = Vector3{0, 1, 0}
		}
		right = forward.Cross(alt)
	}
	right = right.Normalize()
	up = right.Cross(forward).Normalize()
	return right, up, forward
}

// Equal reports whether p and q match within an absolute tolerance eps,
// timestamp included.
func (p Pose) Equal(q Pose, eps float64) bool {
	return mgl64.Abs(p.T-q.T) <= eps &&
		Near(p.Position, q.Position, eps) &&
		Near(p.Forward, q.Forward, eps) &&
		Near(p.Up, q.Up, eps)
}

// Near reports whether every component of a and b differs by at most eps.
func Near(a, b Vector3, eps float64) bool {
	for i := range a {
		if !(mgl64.Abs(a[i]-b[i]) <= eps) {
			return false
		}
	}
	return true
}
