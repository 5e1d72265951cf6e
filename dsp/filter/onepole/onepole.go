// Package onepole provides first-order IIR sections: a bilinear lowpass with
// a movable cutoff and a generic one-pole/one-zero section used for shelving
// responses.
package onepole

import "math"

// Section is a first-order IIR filter
//
//	y[n] = B0*x[n] + B1*x[n-1] - A1*y[n-1]
type Section struct {
	B0, B1, A1 float64

	x1, y1 float64
}

// ProcessSample filters one sample.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.B1*s.x1 - s.A1*s.y1
	s.x1, s.y1 = x, y
	return y
}

// ProcessBlock filters buf in place.
func (s *Section) ProcessBlock(buf []float64) {
	b0, b1, a1 := s.B0, s.B1, s.A1
	x1, y1 := s.x1, s.y1
	for i, x := range buf {
		y := b0*x + b1*x1 - a1*y1
		x1, y1 = x, y
		buf[i] = y
	}
	s.x1, s.y1 = x1, y1
}

// Reset clears the filter state.
func (s *Section) Reset() {
	s.x1, s.y1 = 0, 0
}

// Lowpass is a bilinear one-pole lowpass with a zero at Nyquist. A cutoff at
// or above Nyquist bypasses the filter; a cutoff of zero mutes it.
type Lowpass struct {
	Section

	sampleRate float64
	cutoff     float64
	bypass     bool
	mute       bool
}

// NewLowpass returns a lowpass at cutoffHz. The filter starts bypassed when
// the cutoff is at or above Nyquist.
func NewLowpass(cutoffHz, sampleRate float64) *Lowpass {
	lp := &Lowpass{sampleRate: sampleRate}
	lp.SetCutoff(cutoffHz)
	return lp
}

// SetCutoff moves the cutoff. The filter state is kept so the change is
// click-free, except when leaving the bypass or mute states.
func (lp *Lowpass) SetCutoff(cutoffHz float64) {
	nyquist := lp.sampleRate / 2
	wasBypassed := lp.bypass || lp.mute
	lp.cutoff = cutoffHz

	switch {
	case !(cutoffHz > 0):
		lp.mute, lp.bypass = true, false
		lp.Reset()
		return
	case cutoffHz >= nyquist:
		lp.mute, lp.bypass = false, true
		return
	}

	lp.mute, lp.bypass = false, false
	if wasBypassed {
		lp.Reset()
	}

	k := math.Tan(math.Pi * cutoffHz / lp.sampleRate)
	lp.B0 = k / (1 + k)
	lp.B1 = lp.B0
	lp.A1 = (k - 1) / (k + 1)
}

// Cutoff returns the current cutoff in Hz.
func (lp *Lowpass) Cutoff() float64 {
	return lp.cutoff
}

// Bypassed reports whether the filter currently passes audio unchanged.
func (lp *Lowpass) Bypassed() bool {
	return lp.bypass
}

// ProcessBlock filters buf in place.
func (lp *Lowpass) ProcessBlock(buf []float64) {
	switch {
	case lp.bypass:
		return
	case lp.mute:
		clear(buf)
		return
	}
	lp.Section.ProcessBlock(buf)
}

// NewHeadShadow returns the one-pole/one-zero shelf of the spherical-head
// model: unity gain at DC, gain alpha towards Nyquist, transition around
// omega0 rad/s. alpha above 1 boosts the highs, below 1 shadows them.
func NewHeadShadow(alpha, omega0, sampleRate float64) *Section {
	d := omega0 + sampleRate
	return &Section{
		B0: (omega0 + alpha*sampleRate) / d,
		B1: (omega0 - alpha*sampleRate) / d,
		A1: (omega0 - sampleRate) / d,
	}
}
