// Package window provides the tapers used for spectral analysis and for
// shaping synthesized impulse responses.
package window

import (
	"errors"
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

var errMismatchedLength = errors.New("window: samples and coefficients must have same length")

// Hann returns a Hann window of the given size. With periodic set, the
// window is the DFT-even variant used before an FFT of the same size.
func Hann(size int, periodic bool) ([]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window: size must be > 0: %d", size)
	}
	if size == 1 {
		return []float64{1}, nil
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	out := make([]float64, size)
	for i := range out {
		out[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/den))
	}
	return out, nil
}

// HalfHannRise returns the rising half of a Hann window of length 2n-1,
// starting at 0 and reaching 1 at index n-1.
func HalfHannRise(n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = 1
		return out
	}
	den := float64(2*n - 1)
	for i := range out {
		out[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/den))
	}
	return out
}

// FadeIn multiplies the head of buf by HalfHannRise(n). Samples beyond n are
// untouched. n larger than len(buf) is truncated.
func FadeIn(buf []float64, n int) {
	n = min(n, len(buf))
	if n <= 0 {
		return
	}
	vecmath.MulBlockInPlace(buf[:n], HalfHannRise(n))
}

// ApplyCoefficientsInPlace multiplies samples by coeffs element-wise.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}
	vecmath.MulBlockInPlace(samples, coeffs)
	return nil
}

// CoherentGain returns the mean of the window coefficients.
func CoherentGain(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}
	return vecmath.Sum(coeffs) / float64(len(coeffs))
}

// Kaiser returns a symmetric Kaiser window. beta trades main-lobe width
// for sidelobe level; zero gives a rectangular window.
func Kaiser(size int, beta float64) ([]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window: size must be > 0: %d", size)
	}
	if beta < 0 || math.IsNaN(beta) {
		return nil, fmt.Errorf("window: kaiser beta must be >= 0: %v", beta)
	}

	out := make([]float64, size)
	if size == 1 || beta == 0 {
		for i := range out {
			out[i] = 1
		}
		return out, nil
	}

	norm := besselI0(beta)
	for i := range out {
		r := 2*float64(i)/float64(size-1) - 1
		out[i] = besselI0(beta*math.Sqrt(math.Max(0, 1-r*r))) / norm
	}
	return out, nil
}

// besselI0 sums the power series of the modified Bessel function I0.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	q := x * x / 4
	for k := 1; k < 64; k++ {
		term *= q / float64(k*k)
		sum += term
		if term < 1e-16*sum {
			break
		}
	}
	return sum
}
