package room

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatial/dsp/delay"
	"github.com/cwbudde/algo-spatial/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatial/dsp/filter/design"
	"github.com/cwbudde/algo-spatial/dsp/interp"
	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/pose"
)

// Early reflection constants.
const (
	ReflectionCutoff   = 6400.0 // Hz
	MaxReflectionDelay = 0.5    // s

	// added to every wall distance so a listener touching a wall does not
	// get an unbounded gain
	minReflectionDistance = 1.0
)

// Ambisonic channel and sign each wall's tap is mixed into; W always gets
// the tap with a positive sign.
var (
	wallChannel = [wallCount]int{Left: 1, Right: 1, Front: 3, Back: 3, Down: 2, Up: 2}
	wallSign    = [wallCount]float64{Left: 1, Right: -1, Front: 1, Back: -1, Down: -1, Up: 1}
)

// EarlyReflections renders one bounce per wall into a first-order bus.
type EarlyReflections struct {
	sampleRate   float64
	speedOfSound float64

	lowpass *biquad.Section
	line    *delay.Line

	geometry     Geometry
	coefficients [wallCount]float64
	listener     pose.Vector3

	delays    [wallCount]float64 // samples
	gains     [wallCount]float64
	prevGains [wallCount]float64

	filtered []float64
}

// NewEarlyReflections returns silent reflections for an empty room.
func NewEarlyReflections(sampleRate, speedOfSound float64) (*EarlyReflections, error) {
	if !(sampleRate > 0) || !(speedOfSound > 0) {
		return nil, fmt.Errorf("room: sample rate %f and speed of sound %f must be > 0: %w", sampleRate, speedOfSound, spatial.ErrConfiguration)
	}
	line, err := delay.ForDuration(MaxReflectionDelay, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("room: %w", err)
	}
	line.SetInterpolation(interp.ModeHermite)

	cutoff := math.Min(ReflectionCutoff, 0.45*sampleRate)
	return &EarlyReflections{
		sampleRate:   sampleRate,
		speedOfSound: speedOfSound,
		lowpass:      biquad.NewSection(design.Lowpass(cutoff, math.Sqrt2/2, sampleRate)),
		line:         line,
	}, nil
}

// SetRoomProperties sets the geometry and the per-wall reflection
// coefficients.
func (e *EarlyReflections) SetRoomProperties(g Geometry, coefficients [wallCount]float64) {
	e.geometry = g.clamped()
	e.coefficients = coefficients
	e.update()
}

// SetListenerPosition moves the listener relative to the room centre.
func (e *EarlyReflections) SetListenerPosition(p pose.Vector3) {
	e.listener = p
	e.update()
}

// Delay returns the current delay of a wall's tap in seconds.
func (e *EarlyReflections) Delay(w Wall) float64 {
	return e.delays[w] / e.sampleRate
}

// Gain returns the current gain of a wall's tap.
func (e *EarlyReflections) Gain(w Wall) float64 {
	return e.gains[w]
}

func (e *EarlyReflections) update() {
	g := e.geometry
	p := e.listener
	hw, hh, hd := g.Width/2, g.Height/2, g.Depth/2

	distances := [wallCount]float64{
		Left:  hw + p.X(),
		Right: hw - p.X(),
		Front: hd + p.Z(),
		Back:  hd - p.Z(),
		Down:  hh + p.Y(),
		Up:    hh - p.Y(),
	}

	maxDelay := MaxReflectionDelay * e.sampleRate
	for w, d := range distances {
		d = math.Max(0, d) + minReflectionDistance
		e.delays[w] = math.Min(d/e.speedOfSound*e.sampleRate, maxDelay)
		e.gains[w] = e.coefficients[w] / d
	}
}

// ProcessBlock adds the reflections of in into the first four channels of
// bus.
func (e *EarlyReflections) ProcessBlock(in []float64, bus [][]float64) {
	n := len(in)
	if cap(e.filtered) < n {
		e.filtered = make([]float64, n)
	}
	f := e.filtered[:n]
	e.lowpass.ProcessBlockTo(f, in)

	w := bus[0]
	inv := 1 / float64(n)
	for i, x := range f {
		e.line.Write(x)
		t := float64(i+1) * inv
		for wall := range wallCount {
			g := e.prevGains[wall] + (e.gains[wall]-e.prevGains[wall])*t
			if g == 0 {
				continue
			}
			v := g * e.line.ReadFractional(e.delays[wall])
			w[i] += v
			bus[wallChannel[wall]][i] += wallSign[wall] * v
		}
	}
	e.prevGains = e.gains
}

// Reset clears the filter and delay state.
func (e *EarlyReflections) Reset() {
	e.lowpass.Reset()
	e.line.Reset()
	e.prevGains = e.gains
}
