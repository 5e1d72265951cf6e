package spectrum

import (
	"sync"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

// splitInto writes the real and imaginary parts of in to re and im.
func splitInto(re, im []float64, in []complex128) {
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}
}

// Magnitude returns |X[k]| for each complex spectrum bin. Scratch buffers
// are pooled, so in steady state this allocates only the output slice.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	MagnitudeInto(out, in)
	return out
}

// MagnitudeInto computes |X[k]| into dst, which must be as long as in.
func MagnitudeInto(dst []float64, in []complex128) {
	re, im, buf := getScratch(len(in))
	splitInto(re, im, in)
	vecmath.Magnitude(dst, re, im)
	scratchPool.Put(buf)
}

// MagnitudeFromParts computes |X[k]| = sqrt(re[k]^2 + im[k]^2) into dst.
// All three slices must have the same length.
func MagnitudeFromParts(dst, re, im []float64) {
	vecmath.Magnitude(dst, re, im)
}

// Power returns |X[k]|^2 for each complex spectrum bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))
	splitInto(re, im, in)
	vecmath.Power(out, re, im)
	scratchPool.Put(buf)
	return out
}
