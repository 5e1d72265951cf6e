package spectrum

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-spatial/dsp/window"
)

// Analyser defaults.
const (
	DefaultSmoothing = 0.8
	DefaultMinDB     = -100.0
	DefaultMaxDB     = -30.0
)

// ErrInvalidSize is returned for FFT sizes that are not a power of two of at
// least 32.
var ErrInvalidSize = errors.New("spectrum: invalid FFT size")

// AnalyserOption mutates analyser construction parameters.
type AnalyserOption func(*analyserConfig) error

type analyserConfig struct {
	smoothing    float64
	minDB, maxDB float64
}

// WithSmoothing sets the time constant in [0, 1) blending each spectrum
// with the previous one.
func WithSmoothing(tc float64) AnalyserOption {
	return func(cfg *analyserConfig) error {
		if tc < 0 || tc >= 1 || math.IsNaN(tc) {
			return fmt.Errorf("spectrum: smoothing must be in [0, 1): %f", tc)
		}
		cfg.smoothing = tc
		return nil
	}
}

// WithDecibelRange sets the range mapped onto [0, 1] by Scaled.
func WithDecibelRange(minDB, maxDB float64) AnalyserOption {
	return func(cfg *analyserConfig) error {
		if !(maxDB > minDB) || math.IsInf(minDB, 0) || math.IsInf(maxDB, 0) {
			return fmt.Errorf("spectrum: decibel range must satisfy min < max: %f, %f", minDB, maxDB)
		}
		cfg.minDB, cfg.maxDB = minDB, maxDB
		return nil
	}
}

// Analyser computes smoothed magnitude spectra of the most recent samples
// of a stream: Hann window, FFT, |X[k]|/N, then an exponential blend with
// the previous frame.
type Analyser struct {
	size int
	cfg  analyserConfig
	plan *algofft.Plan[complex128]

	window []float64
	ring   []float64
	pos    int

	frame    []complex128
	spectrum []complex128
	mag      []float64
	smoothed []float64
}

// NewAnalyser returns an analyser for FFT size n. It exposes n/2 bins.
func NewAnalyser(n int, opts ...AnalyserOption) (*Analyser, error) {
	if n < 32 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	cfg := analyserConfig{smoothing: DefaultSmoothing, minDB: DefaultMinDB, maxDB: DefaultMaxDB}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}
	w, err := window.Hann(n, true)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}

	return &Analyser{
		size:     n,
		cfg:      cfg,
		plan:     plan,
		window:   w,
		ring:     make([]float64, n),
		frame:    make([]complex128, n),
		spectrum: make([]complex128, n),
		mag:      make([]float64, n/2),
		smoothed: make([]float64, n/2),
	}, nil
}

// Size returns the FFT size.
func (a *Analyser) Size() int {
	return a.size
}

// Bins returns the number of magnitude bins, Size()/2.
func (a *Analyser) Bins() int {
	return a.size / 2
}

// BinFrequency returns the centre frequency of bin k.
func (a *Analyser) BinFrequency(k int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(a.size)
}

// Write appends samples to the analysis window, dropping the oldest.
func (a *Analyser) Write(samples []float64) {
	if len(samples) >= a.size {
		copy(a.ring, samples[len(samples)-a.size:])
		a.pos = 0
		return
	}
	for _, x := range samples {
		a.ring[a.pos] = x
		a.pos++
		if a.pos == a.size {
			a.pos = 0
		}
	}
}

// Update analyses the current window and blends it into the smoothed
// spectrum.
func (a *Analyser) Update() error {
	for i := range a.size {
		a.frame[i] = complex(a.ring[(a.pos+i)%a.size]*a.window[i], 0)
	}
	if err := a.plan.Forward(a.spectrum, a.frame); err != nil {
		return fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}

	MagnitudeInto(a.mag, a.spectrum[:a.size/2])
	tc := a.cfg.smoothing
	scale := 1 / float64(a.size)
	for k, m := range a.mag {
		v := tc*a.smoothed[k] + (1-tc)*m*scale
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		a.smoothed[k] = v
	}
	return nil
}

// Magnitudes returns the smoothed linear magnitudes. The slice is owned by
// the analyser and changes on Update.
func (a *Analyser) Magnitudes() []float64 {
	return a.smoothed
}

// Scaled writes the smoothed magnitudes in decibels, mapped linearly from
// the analyser's decibel range onto [0, 1] and clamped, into dst. It
// returns the number of bins written.
func (a *Analyser) Scaled(dst []float64) int {
	n := min(len(dst), len(a.smoothed))
	span := a.cfg.maxDB - a.cfg.minDB
	for k := range n {
		m := a.smoothed[k]
		if m <= 0 {
			dst[k] = 0
			continue
		}
		v := (20*math.Log10(m) - a.cfg.minDB) / span
		dst[k] = math.Min(math.Max(v, 0), 1)
	}
	return n
}

// Reset clears the window and the smoothed spectrum.
func (a *Analyser) Reset() {
	clear(a.ring)
	clear(a.smoothed)
	a.pos = 0
}
