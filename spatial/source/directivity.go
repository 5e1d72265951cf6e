package source

import (
	"math"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/dsp/filter/onepole"
	"github.com/cwbudde/algo-spatial/spatial/pose"
)

// Directivity darkens a source heard from behind. The pattern is
//
//	coeff = |(1-alpha) + alpha*cos(theta)|^sharpness
//
// where theta is the angle between the source's forward vector and the
// direction to the listener. The lowpass cutoff is coeff times Nyquist.
type Directivity struct {
	alpha     float64
	sharpness float64

	coeff   float64
	nyquist float64
	lowpass *onepole.Lowpass
}

// NewDirectivity returns an omnidirectional pattern at sampleRate.
func NewDirectivity(sampleRate float64) *Directivity {
	return &Directivity{
		sharpness: 1,
		coeff:     1,
		nyquist:   sampleRate / 2,
		lowpass:   onepole.NewLowpass(sampleRate/2, sampleRate),
	}
}

// SetPattern sets the shape: alpha 0 is omnidirectional, 0.5 cardioid and
// 1 figure-eight; sharpness (at least 1) narrows the lobe. Both are
// clamped.
func (d *Directivity) SetPattern(alpha, sharpness float64) {
	if math.IsNaN(alpha) {
		alpha = 0
	}
	if !(sharpness >= 1) {
		sharpness = 1
	}
	d.alpha = core.Clamp(alpha, 0, 1)
	d.sharpness = sharpness
}

// Pattern returns alpha and sharpness.
func (d *Directivity) Pattern() (alpha, sharpness float64) {
	return d.alpha, d.sharpness
}

// ComputeAngle updates the filter for a source facing forward and a
// listener in direction toListener from the source.
func (d *Directivity) ComputeAngle(forward, toListener pose.Vector3) {
	f := pose.Normalize(forward, pose.Forward)
	cosTheta := 1.0
	if toListener.Len() > 0 {
		cosTheta = f.Dot(toListener.Normalize())
	}

	d.coeff = math.Pow(math.Abs((1-d.alpha)+d.alpha*cosTheta), d.sharpness)
	d.lowpass.SetCutoff(d.nyquist * d.coeff)
}

// Coefficient returns the last computed pattern value in [0, 1].
func (d *Directivity) Coefficient() float64 {
	return d.coeff
}

// Cutoff returns the current lowpass cutoff in Hz.
func (d *Directivity) Cutoff() float64 {
	return d.lowpass.Cutoff()
}

// ProcessBlock filters buf in place.
func (d *Directivity) ProcessBlock(buf []float64) {
	d.lowpass.ProcessBlock(buf)
}

// Reset clears the filter state.
func (d *Directivity) Reset() {
	d.lowpass.Reset()
}
