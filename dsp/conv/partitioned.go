package conv

import (
	"fmt"

	algofft "github.com/cwbudde/algo-fft"
)

// Partitioned is a uniformly partitioned overlap-save convolver.
//
// The kernel is split into partitions of BlockSize samples. Each partition
// is transformed once at construction into a 2*BlockSize spectrum. Every
// call to ProcessBlockTo transforms the latest two input blocks, pushes the
// spectrum into a frequency-domain delay line, accumulates the products with
// all partition spectra and keeps the alias-free second half of the inverse
// transform. Output is sample-aligned with the input.
type Partitioned struct {
	blockSize int
	fftSize   int
	kernelLen int

	plan *algofft.Plan[complex128]

	// partition spectra, one per kernel block
	kernelSpectra [][]complex128

	// frequency-domain delay line of input spectra, ring indexed by head
	fdl  [][]complex128
	head int

	// time-domain input: previous block followed by current block
	input []float64

	timeBuf []complex128
	accum   []complex128
}

// NewPartitioned creates a convolver for kernel running at blockSize frames
// per call. blockSize must be a power of two.
func NewPartitioned(kernel []float64, blockSize int) (*Partitioned, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}
	if !isPowerOf2(blockSize) {
		return nil, fmt.Errorf("%w: must be a power of two > 0, got %d", ErrInvalidBlockSize, blockSize)
	}

	fftSize := 2 * blockSize
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	partitions := (len(kernel) + blockSize - 1) / blockSize
	p := &Partitioned{
		blockSize:     blockSize,
		fftSize:       fftSize,
		kernelLen:     len(kernel),
		plan:          plan,
		kernelSpectra: make([][]complex128, partitions),
		fdl:           make([][]complex128, partitions),
		input:         make([]float64, fftSize),
		timeBuf:       make([]complex128, fftSize),
		accum:         make([]complex128, fftSize),
	}

	for i := range partitions {
		clear(p.timeBuf)
		start := i * blockSize
		end := min(start+blockSize, len(kernel))
		for j, v := range kernel[start:end] {
			p.timeBuf[j] = complex(v, 0)
		}

		spectrum := make([]complex128, fftSize)
		if err := plan.Forward(spectrum, p.timeBuf); err != nil {
			return nil, fmt.Errorf("conv: kernel partition %d FFT failed: %w", i, err)
		}
		p.kernelSpectra[i] = spectrum
		p.fdl[i] = make([]complex128, fftSize)
	}

	return p, nil
}

// ProcessBlockTo convolves one block of src into dst. Both must hold exactly
// BlockSize samples. dst may alias src.
func (p *Partitioned) ProcessBlockTo(dst, src []float64) error {
	if len(src) != p.blockSize {
		return fmt.Errorf("%w: expected %d input samples, got %d", ErrLengthMismatch, p.blockSize, len(src))
	}
	if len(dst) != p.blockSize {
		return fmt.Errorf("%w: expected %d output samples, got %d", ErrLengthMismatch, p.blockSize, len(dst))
	}

	// Slide the input window: [old current | new block].
	copy(p.input, p.input[p.blockSize:])
	copy(p.input[p.blockSize:], src)

	for i, v := range p.input {
		p.timeBuf[i] = complex(v, 0)
	}

	p.head--
	if p.head < 0 {
		p.head = len(p.fdl) - 1
	}
	if err := p.plan.Forward(p.fdl[p.head], p.timeBuf); err != nil {
		return fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	// Partition k multiplies the spectrum from k blocks ago.
	clear(p.accum)
	for k, h := range p.kernelSpectra {
		x := p.fdl[(p.head+k)%len(p.fdl)]
		for i := range p.accum {
			p.accum[i] += x[i] * h[i]
		}
	}

	if err := p.plan.Inverse(p.timeBuf, p.accum); err != nil {
		return fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	for i := range dst {
		dst[i] = real(p.timeBuf[p.blockSize+i])
	}
	return nil
}

// Reset clears the input history and the delay line.
func (p *Partitioned) Reset() {
	clear(p.input)
	for _, s := range p.fdl {
		clear(s)
	}
	p.head = 0
}

// BlockSize returns the fixed processing block size.
func (p *Partitioned) BlockSize() int {
	return p.blockSize
}

// KernelLen returns the original kernel length.
func (p *Partitioned) KernelLen() int {
	return p.kernelLen
}

// Partitions returns the number of kernel partitions.
func (p *Partitioned) Partitions() int {
	return len(p.kernelSpectra)
}
