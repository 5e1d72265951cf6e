package room

import (
	"math"

	"github.com/cwbudde/algo-spatial/spatial/pose"
)

// Model constants.
const (
	// MaxDuration caps every band's reverberation time, in seconds.
	MaxDuration = 3.0

	// MinVolume below which a room has no reverberation, in m^3.
	MinVolume = 1e-4

	// Eyring's formula overestimates decay in small rooms; this factor
	// matches the synthesised tails to measured rooms.
	eyringCorrection = 1.38

	// 24 ln(10): the Sabine constant times the speed of sound.
	twentyFourLn10 = 55.262042231857097

	// Bands averaged for the broadband reflection coefficient.
	firstAveragingBand = 4
	averagingBands     = 3
)

// Air absorption per band in 1/m.
var airAbsorption = [Bands]float64{0.0006, 0.0006, 0.0007, 0.0008, 0.0010, 0.0015, 0.0026, 0.0060, 0.0207}

// Geometry is the size of the room in metres.
type Geometry struct {
	Width, Height, Depth float64
}

// clamped returns g with negative or NaN sides set to 0.
func (g Geometry) clamped() Geometry {
	f := func(v float64) float64 {
		if !(v > 0) {
			return 0
		}
		return v
	}
	return Geometry{f(g.Width), f(g.Height), f(g.Depth)}
}

// Volume returns the room volume.
func (g Geometry) Volume() float64 {
	c := g.clamped()
	return c.Width * c.Height * c.Depth
}

func (g Geometry) wallAreas() [wallCount]float64 {
	c := g.clamped()
	side := c.Height * c.Depth
	frontBack := c.Width * c.Height
	floor := c.Width * c.Depth
	return [wallCount]float64{side, side, frontBack, frontBack, floor, floor}
}

// SurfaceArea returns the total wall area.
func (g Geometry) SurfaceArea() float64 {
	var sum float64
	for _, a := range g.wallAreas() {
		sum += a
	}
	return sum
}

// DistanceOutside returns how far p lies outside the room, 0 inside or on
// the boundary.
func (g Geometry) DistanceOutside(p pose.Vector3) float64 {
	c := g.clamped()
	half := [3]float64{c.Width / 2, c.Height / 2, c.Depth / 2}
	var sq float64
	for i, h := range half {
		d := math.Max(0, math.Max(-h-p[i], p[i]-h))
		sq += d * d
	}
	return math.Sqrt(sq)
}

// OutsideGain fades the room sends from 1 at the boundary to 0 at one
// metre outside.
func OutsideGain(distance float64) float64 {
	if !(distance > 0) {
		return 1
	}
	return math.Max(0, 1-distance)
}

// ReflectionCoefficients returns the amplitude reflection coefficient of
// each wall, sqrt(1 - a) for the wall's mean absorption a over the middle
// bands.
func ReflectionCoefficients(m Materials) [wallCount]float64 {
	var out [wallCount]float64
	for w, bands := range m.Coefficients() {
		var sum float64
		for _, a := range bands[firstAveragingBand : firstAveragingBand+averagingBands] {
			sum += a
		}
		out[w] = math.Sqrt(math.Max(0, 1-sum/averagingBands))
	}
	return out
}

// RT60Durations estimates the per-band reverberation time with the Eyring
// formula plus air absorption. Degenerate rooms and fully absorbing walls
// give zero; results are clamped to [0, MaxDuration].
func RT60Durations(g Geometry, m Materials, speedOfSound float64) [Bands]float64 {
	var out [Bands]float64

	volume := g.Volume()
	if volume < MinVolume || !(speedOfSound > 0) {
		return out
	}

	areas := g.wallAreas()
	total := g.SurfaceArea()
	coeffs := m.Coefficients()
	k := twentyFourLn10 / speedOfSound

	for band := range Bands {
		var absorbed float64
		for w, area := range areas {
			absorbed += area * coeffs[w][band]
		}
		mean := absorbed / total
		if mean >= 1 {
			continue
		}
		d := eyringCorrection * k * volume / (-total*math.Log(1-mean) + 4*airAbsorption[band]*volume)
		out[band] = math.Min(math.Max(d, 0), MaxDuration)
	}
	return out
}
