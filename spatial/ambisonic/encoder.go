package ambisonic

import (
	"math"

	"github.com/cwbudde/algo-spatial/dsp/core"
)

// Encoder projects a mono signal arriving from one direction onto the
// ambisonic channels of its order.
type Encoder struct {
	order int

	azimuth   float64
	elevation float64
	width     float64

	gains     []float64
	prevGains []float64
	scratch   []float64
}

// NewEncoder returns an encoder for order, facing straight ahead with zero
// source width.
func NewEncoder(order int) (*Encoder, error) {
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}

	k := ChannelCount(order)
	e := &Encoder{
		order:     order,
		gains:     make([]float64, k),
		prevGains: make([]float64, k),
	}
	e.SetDirection(0, 0)
	copy(e.prevGains, e.gains)
	return e, nil
}

// Order returns the ambisonic order.
func (e *Encoder) Order() int {
	return e.order
}

// SetDirection points the encoder at azimuth/elevation in degrees. Azimuth
// wraps into [0, 360) and elevation is clamped to [-90, 90].
func (e *Encoder) SetDirection(azimuth, elevation float64) {
	if math.IsNaN(azimuth) {
		azimuth = 0
	}
	if math.IsNaN(elevation) {
		elevation = 0
	}
	e.azimuth = core.WrapDegrees(azimuth)
	e.elevation = core.Clamp(elevation, -90, 90)

	t := getTables()
	azRow := int(math.Round(e.azimuth)) % azimuthRows
	elRow := int(math.Round(e.elevation)) + 90
	weights := &t.maxRe[widthIndex(e.width)]

	e.gains[0] = weights[0]
	for l := 1; l <= e.order; l++ {
		for m := -l; m <= l; m++ {
			abs := m
			if abs < 0 {
				abs = -abs
			}
			g := t.elevation[elRow][elevationIndex(l, abs)]
			if m != 0 {
				g *= t.azimuth[azRow][azimuthIndex(m)]
			}
			e.gains[ACN(l, m)] = g * weights[l]
		}
	}
}

// SetSourceWidth sets the spread in degrees, clamped to [0, 359], and
// recomputes the channel gains for the current direction.
func (e *Encoder) SetSourceWidth(width float64) {
	e.width = float64(widthIndex(width))
	e.SetDirection(e.azimuth, e.elevation)
}

// Direction returns the quantisation-free azimuth and elevation in degrees.
func (e *Encoder) Direction() (azimuth, elevation float64) {
	return e.azimuth, e.elevation
}

// SourceWidth returns the current spread in degrees.
func (e *Encoder) SourceWidth() float64 {
	return e.width
}

// Gains returns the current per-channel gains. The slice is owned by the
// encoder.
func (e *Encoder) Gains() []float64 {
	return e.gains
}

// Settle makes the next block start at the current gains instead of
// ramping from the previous ones.
func (e *Encoder) Settle() {
	copy(e.prevGains, e.gains)
}

// ProcessBlock adds src into the channels of bus. Gains ramp linearly from
// the values used for the previous block to the current ones.
func (e *Encoder) ProcessBlock(bus [][]float64, src []float64) {
	e.scratch = core.EnsureLen(e.scratch, len(src))
	for k, g := range e.gains {
		core.MixRamp(bus[k], src, e.scratch, e.prevGains[k], g)
	}
	copy(e.prevGains, e.gains)
}
