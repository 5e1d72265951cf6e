package ambisonic

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-spatial/dsp/core"
)

// Rotator rotates an ambisonic sound field in place.
type Rotator interface {
	// SetRotationMatrix installs a world-to-listener rotation. A matrix that
	// is not a proper rotation is rejected and the previous one kept.
	SetRotationMatrix(m mgl64.Mat3) error
	RotationMatrix() mgl64.Mat3
	Order() int
	// ProcessBlock rotates channels 1..K-1 of bus; channel 0 is untouched.
	ProcessBlock(bus [][]float64)
}

// NewRotator returns the rotator for order. Orders above MaxOrder are clamped
// with a warning.
func NewRotator(order int) Rotator {
	order = ClampOrder(order)
	if order == 1 {
		return NewFOARotator()
	}
	return NewHOARotator(order)
}

// bandMixer applies one band's (2l+1)x(2l+1) matrix to its channels,
// ramping each coefficient from the previous block's value.
type bandMixer struct {
	l       int
	matrix  [][]float64
	prev    [][]float64
	in      [][]float64
	scratch []float64
}

func newBandMixer(l int) *bandMixer {
	n := 2*l + 1
	b := &bandMixer{
		l:      l,
		matrix: make([][]float64, n),
		prev:   make([][]float64, n),
		in:     make([][]float64, n),
	}
	for i := range n {
		b.matrix[i] = make([]float64, n)
		b.prev[i] = make([]float64, n)
		b.matrix[i][i] = 1
		b.prev[i][i] = 1
	}
	return b
}

func (b *bandMixer) at(m, n int) float64 {
	if m < -b.l || m > b.l || n < -b.l || n > b.l {
		panic(fmt.Sprintf("ambisonic: band %d index (%d, %d) out of range", b.l, m, n))
	}
	return b.matrix[m+b.l][n+b.l]
}

func (b *bandMixer) process(bus [][]float64) {
	first := b.l * b.l
	size := len(bus[first])
	b.scratch = core.EnsureLen(b.scratch, size)
	for i := range b.in {
		b.in[i] = core.EnsureLen(b.in[i], size)
		copy(b.in[i], bus[first+i])
	}

	for i := range b.matrix {
		out := bus[first+i]
		clear(out)
		for j, src := range b.in {
			core.MixRamp(out, src, b.scratch, b.prev[i][j], b.matrix[i][j])
		}
		copy(b.prev[i], b.matrix[i])
	}
}

func copyMatrix(dst, src [][]float64) {
	for i := range src {
		copy(dst[i], src[i])
	}
}

// FOARotator rotates first-order fields with a single 3x3 mix of Y, Z, X.
type FOARotator struct {
	rotation mgl64.Mat3
	band     *bandMixer
}

// NewFOARotator returns a first-order rotator set to the identity.
func NewFOARotator() *FOARotator {
	return &FOARotator{rotation: mgl64.Ident3(), band: newBandMixer(1)}
}

// SetRotationMatrix implements Rotator.
func (r *FOARotator) SetRotationMatrix(m mgl64.Mat3) error {
	if err := ValidateRotation(m); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "FOARotator.SetRotationMatrix",
			"error":    err.Error(),
		}).Warn("Rejected rotation matrix")
		return err
	}
	r.rotation = m
	copyMatrix(r.band.matrix, band1Matrix(m))
	return nil
}

// RotationMatrix implements Rotator.
func (r *FOARotator) RotationMatrix() mgl64.Mat3 { return r.rotation }

// Order implements Rotator.
func (r *FOARotator) Order() int { return 1 }

// Band1 returns the order-1 channel matrix indexed [m+1][n+1].
func (r *FOARotator) Band1() [][]float64 { return r.band.matrix }

// ProcessBlock implements Rotator.
func (r *FOARotator) ProcessBlock(bus [][]float64) {
	r.band.process(bus)
}
