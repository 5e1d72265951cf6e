package conv

import (
	"errors"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Errors returned by convolution functions.
var (
	ErrEmptyInput       = errors.New("conv: empty input")
	ErrEmptyKernel      = errors.New("conv: empty kernel")
	ErrLengthMismatch   = errors.New("conv: buffer length mismatch")
	ErrInvalidBlockSize = errors.New("conv: invalid block size")
)

// Direct performs direct time-domain linear convolution of a and b.
// Returns a new slice of length len(a) + len(b) - 1.
func Direct(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	result := make([]float64, len(a)+len(b)-1)
	scaled := make([]float64, len(b))
	for i, x := range a {
		if x == 0 {
			continue
		}
		vecmath.ScaleBlock(scaled, b, x)
		vecmath.AddBlockInPlace(result[i:i+len(b)], scaled)
	}
	return result, nil
}

func isPowerOf2(n int) bool {
	return n > 0 && n&(n-1) == 0
}
