package core

import vecmath "github.com/cwbudde/algo-vecmath"

// EnsureLen returns a slice of length n, reusing buf's backing array when it
// is large enough.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero clears buf.
func Zero(buf []float64) {
	clear(buf)
}

// CopyInto copies src into dst and returns the number of copied elements.
func CopyInto(dst, src []float64) int {
	return copy(dst, src)
}

// NewPlanar allocates channels buffers of blockSize samples each.
func NewPlanar(channels, blockSize int) [][]float64 {
	bus := make([][]float64, channels)
	for i := range bus {
		bus[i] = make([]float64, blockSize)
	}
	return bus
}

// ZeroPlanar clears every channel of bus.
func ZeroPlanar(bus [][]float64) {
	for _, ch := range bus {
		clear(ch)
	}
}

// MixRamp adds src to dst with a gain that moves linearly from `from` to `to`
// across the block. The last sample reaches `to`, so consecutive blocks with
// matching endpoints are continuous. A constant gain takes the vectorized
// path through scratch, which must hold at least len(dst) samples.
func MixRamp(dst, src, scratch []float64, from, to float64) {
	n := min(len(dst), len(src))
	if n == 0 {
		return
	}
	if from == to {
		if from == 0 {
			return
		}
		vecmath.ScaleBlock(scratch[:n], src[:n], from)
		vecmath.AddBlockInPlace(dst[:n], scratch[:n])
		return
	}

	step := (to - from) / float64(n)
	g := from
	for i := range n {
		g += step
		dst[i] += src[i] * g
	}
}
