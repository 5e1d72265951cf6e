package design

import (
	"math"

	"github.com/cwbudde/algo-spatial/dsp/filter/biquad"
)

const defaultQ = 1 / math.Sqrt2

// Lowpass designs a lowpass biquad at freq (Hz) with quality factor q.
// q = 1/sqrt(2) gives a Butterworth response.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b0 := (1 - cw) / 2
	b1 := 1 - cw
	b2 := (1 - cw) / 2
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// Bandpass designs a constant-skirt-gain bandpass biquad. Its peak gain is q.
func Bandpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	return normalizeBiquad(sw/2, 0, -sw/2, 1+alpha, -2*cw, 1-alpha)
}

// BandpassPeak designs a constant 0 dB peak bandpass biquad.
func BandpassPeak(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = normalizedQ(q)
	alpha := math.Sin(w0) / (2 * q)

	return normalizeBiquad(alpha, 0, -alpha, 1+alpha, -2*math.Cos(w0), 1-alpha)
}

// OctavesToQ converts a bandwidth in octaves, measured between the -3 dB
// points of the digital response at freq, into a quality factor.
func OctavesToQ(bandwidthOctaves, freq, sampleRate float64) float64 {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok || !(bandwidthOctaves > 0) {
		return defaultQ
	}
	return 1 / (2 * math.Sinh(math.Ln2/2*bandwidthOctaves*w0/math.Sin(w0)))
}

// normalizedW0 returns the angular frequency of freq. Frequencies at or
// above Nyquist are pulled just below it so a fixed design cutoff stays
// usable at low sample rates.
func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}
	if freq <= 0 || math.IsNaN(freq) {
		return 0, false
	}

	freq = math.Min(freq, 0.4999*sampleRate)
	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return defaultQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
