package pose

// InterpolatedPose moves from Start to End over the window [Start.T, End.T].
// Position is interpolated linearly and the orientation vectors spherically.
// Retargeting mid-window starts the new window from the pose reached so far,
// so Current never jumps.
type InterpolatedPose struct {
	Start   Pose
	Current Pose
	End     Pose
}

// NewInterpolated returns an interpolated pose resting at p.
func NewInterpolated(p Pose) *InterpolatedPose {
	return &InterpolatedPose{Start: p, Current: p, End: p}
}

// SetTarget opens a new transition window towards the given position,
// forward and up vectors, arriving at t+dt. With dt <= 0 the pose snaps to
// the target at t.
func (ip *InterpolatedPose) SetTarget(px, py, pz, fx, fy, fz, ux, uy, uz, t, dt float64) {
	ip.SetTargetPose(Pose{
		T:        t,
		Position: Vector3{px, py, pz},
		Forward:  Vector3{fx, fy, fz},
		Up:       Vector3{ux, uy, uz},
	}, dt)
}

// SetTargetPose is SetTarget with the target given as a Pose stamped at the
// start of the window.
func (ip *InterpolatedPose) SetTargetPose(target Pose, dt float64) {
	t := target.T
	if dt <= 0 {
		ip.Start, ip.Current, ip.End = target, target, target
		return
	}

	start := ip.Update(t)
	start.T = t
	ip.Start = start
	ip.Current = start

	ip.End = target
	ip.End.T = t + dt
}

// Update advances Current to time t and returns it.
func (ip *InterpolatedPose) Update(t float64) Pose {
	switch {
	case t <= ip.Start.T:
		ip.Current = ip.Start
	case t >= ip.End.T:
		ip.Current = ip.End
	default:
		p := (t - ip.Start.T) / (ip.End.T - ip.Start.T)
		ip.Current = Pose{
			T:        t,
			Position: Lerp(ip.Start.Position, ip.End.Position, p),
			Forward:  Slerp(ip.Start.Forward, ip.End.Forward, p),
			Up:       Slerp(ip.Start.Up, ip.End.Up, p),
		}
	}
	return ip.Current
}

// Progress returns the position of t within the window, in [0, 1].
func (ip *InterpolatedPose) Progress(t float64) float64 {
	span := ip.End.T - ip.Start.T
	switch {
	case t <= ip.Start.T:
		return 0
	case t >= ip.End.T || span <= 0:
		return 1
	}
	return (t - ip.Start.T) / span
}
