// Package delay provides circular delay lines.
package delay

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatial/dsp/interp"
)

// ErrInvalidSize is returned for non-positive delay line sizes.
var ErrInvalidSize = errors.New("delay: invalid size")

// Line is a circular delay line. Delays are counted from the most recently
// written sample: Read(0) returns the sample just written.
type Line struct {
	buffer   []float64
	writePos int
	mode     interp.Mode
}

// New returns a delay line holding size samples, which supports delays up
// to size-1. Fractional reads use cubic Hermite interpolation.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: must be > 0: %d", ErrInvalidSize, size)
	}
	return &Line{buffer: make([]float64, size)}, nil
}

// ForDuration returns a line large enough for maxSeconds of delay at sampleRate.
func ForDuration(maxSeconds, sampleRate float64) (*Line, error) {
	if !(maxSeconds >= 0) || !(sampleRate > 0) {
		return nil, fmt.Errorf("%w: duration %f at %f Hz", ErrInvalidSize, maxSeconds, sampleRate)
	}
	return New(int(math.Ceil(maxSeconds*sampleRate)) + 3)
}

// SetInterpolation selects the algorithm used by ReadFractional.
func (d *Line) SetInterpolation(m interp.Mode) {
	d.mode = m
}

// Interpolation returns the fractional read algorithm.
func (d *Line) Interpolation() interp.Mode {
	return d.mode
}

// Len returns the internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write appends one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos == len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written delay samples ago. delay is clamped to
// [0, Len()-1].
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	delay = min(max(delay, 0), size-1)
	pos := d.writePos - 1 - delay
	if pos < 0 {
		pos += size
	}
	return d.buffer[pos]
}

// ReadFractional reads a non-integer delay. The delay is clamped so that
// every neighbour the interpolator needs is inside the line; the newest
// neighbour of a delay below one sample repeats Read(0).
func (d *Line) ReadFractional(delay float64) float64 {
	maxDelay := float64(max(len(d.buffer)-d.mode.Taps()+1, 0))
	if !(delay > 0) {
		return d.Read(0)
	}
	if delay >= maxDelay {
		return d.Read(int(maxDelay))
	}

	p := int(delay)
	t := delay - float64(p)
	if d.mode == interp.ModeLinear {
		return interp.Linear2(t, d.Read(p), d.Read(p+1))
	}
	return interp.Hermite4(t, d.Read(p-1), d.Read(p), d.Read(p+1), d.Read(p+2))
}

// Reset clears line state.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}
