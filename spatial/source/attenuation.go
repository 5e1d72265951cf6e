package source

import "math"

// Default distance model.
const (
	DefaultMinDistance = 1.0
	DefaultMaxDistance = 1000.0
)

// Attenuation maps source distance to a gain between 0 and 1.
type Attenuation struct {
	minDistance float64
	maxDistance float64
	rolloff     Rolloff

	distance float64
	gain     float64
}

// NewAttenuation returns a logarithmic model between the default distances.
func NewAttenuation() *Attenuation {
	return &Attenuation{
		minDistance: DefaultMinDistance,
		maxDistance: DefaultMaxDistance,
		rolloff:     RolloffLogarithmic,
		gain:        1,
	}
}

// SetMinDistance sets the distance below which the gain is 1. Negative or
// NaN values are clamped to 0; the maximum distance is raised if needed.
func (a *Attenuation) SetMinDistance(d float64) {
	if !(d > 0) {
		d = 0
	}
	a.minDistance = d
	a.maxDistance = math.Max(a.maxDistance, d)
	a.update()
}

// SetMaxDistance sets the distance from which the gain is 0. It never drops
// below the minimum distance.
func (a *Attenuation) SetMaxDistance(d float64) {
	if math.IsNaN(d) {
		d = a.minDistance
	}
	a.maxDistance = math.Max(d, a.minDistance)
	a.update()
}

// SetRolloff selects the attenuation curve.
func (a *Attenuation) SetRolloff(r Rolloff) {
	a.rolloff = r
	a.update()
}

// SetDistance updates the distance and returns the new gain.
func (a *Attenuation) SetDistance(d float64) float64 {
	if !(d > 0) {
		d = 0
	}
	a.distance = d
	a.update()
	return a.gain
}

// Gain returns the gain for the last distance.
func (a *Attenuation) Gain() float64 {
	return a.gain
}

// MinDistance returns the distance below which the gain is 1.
func (a *Attenuation) MinDistance() float64 { return a.minDistance }

// MaxDistance returns the distance at and beyond which the gain is 0.
func (a *Attenuation) MaxDistance() float64 { return a.maxDistance }

// Rolloff returns the attenuation curve.
func (a *Attenuation) Rolloff() Rolloff { return a.rolloff }

func (a *Attenuation) update() {
	d := a.distance
	switch {
	case d >= a.maxDistance:
		a.gain = 0
		return
	case d <= a.minDistance:
		a.gain = 1
		return
	}

	span := a.maxDistance - a.minDistance
	switch a.rolloff {
	case RolloffLinear:
		a.gain = (a.maxDistance - d) / span
	case RolloffNone:
		a.gain = 1
	default:
		floor := 1 / (span + 1)
		a.gain = (1/(d-a.minDistance+1) - floor) / (1 - floor)
	}
}
