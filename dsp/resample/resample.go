package resample

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidRatio indicates a non-positive up or down factor.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidRate indicates a non-positive or non-finite sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
	// ErrInvalidOption indicates an out-of-range option value.
	ErrInvalidOption = errors.New("resample: invalid option")
)

// Quality selects the anti-aliasing filter length and cutoff.
type Quality int

const (
	QualityFast Quality = iota
	QualityBalanced
	QualityBest
)

func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityBest:
		return "best"
	default:
		return "balanced"
	}
}

type filterParams struct {
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
}

func (q Quality) params() filterParams {
	switch q {
	case QualityFast:
		return filterParams{tapsPerPhase: 16, cutoffScale: 0.88, kaiserBeta: 5.0}
	case QualityBest:
		return filterParams{tapsPerPhase: 64, cutoffScale: 0.96, kaiserBeta: 9.0}
	default:
		return filterParams{tapsPerPhase: 32, cutoffScale: 0.92, kaiserBeta: 7.5}
	}
}

type config struct {
	quality Quality
	maxDen  int
}

// Option configures a Resampler.
type Option func(*config) error

// WithQuality selects the filter quality. The default is QualityBalanced.
func WithQuality(q Quality) Option {
	return func(cfg *config) error {
		if q < QualityFast || q > QualityBest {
			return fmt.Errorf("%w: quality %d", ErrInvalidOption, q)
		}
		cfg.quality = q
		return nil
	}
}

// WithMaxDenominator caps the denominator used when approximating a rate
// ratio. The default is 4096.
func WithMaxDenominator(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: max denominator must be > 0: %d", ErrInvalidOption, n)
		}
		cfg.maxDen = n
		return nil
	}
}

func applyOptions(opts []Option) (config, error) {
	cfg := config{quality: QualityBalanced, maxDen: 4096}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}
	return cfg, nil
}

// Resampler performs streaming rational sample-rate conversion.
type Resampler struct {
	up, down int
	quality  Quality

	phases     [][]float64
	maxPhaseLn int

	phase      int
	inputIndex int
	totalIn    int
	history    []float64
	work       []float64
}

// NewRational returns a resampler producing up output samples for every
// down input samples. The ratio is reduced.
func NewRational(up, down int, opts ...Option) (*Resampler, error) {
	if up <= 0 || down <= 0 {
		return nil, fmt.Errorf("%w: %d/%d", ErrInvalidRatio, up, down)
	}
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	g := gcd(up, down)
	up /= g
	down /= g

	phases, maxPhaseLn, err := designPolyphaseFIR(up, down, cfg.quality.params())
	if err != nil {
		return nil, err
	}

	return &Resampler{
		up:         up,
		down:       down,
		quality:    cfg.quality,
		phases:     phases,
		maxPhaseLn: maxPhaseLn,
		history:    make([]float64, 0, max(0, maxPhaseLn-1)),
	}, nil
}

// NewForRates returns a resampler from inRate to outRate.
func NewForRates(inRate, outRate float64, opts ...Option) (*Resampler, error) {
	if !(inRate > 0) || !(outRate > 0) || math.IsInf(inRate, 0) || math.IsInf(outRate, 0) {
		return nil, fmt.Errorf("%w: %g -> %g", ErrInvalidRate, inRate, outRate)
	}
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	up, down := approximateRatio(outRate/inRate, cfg.maxDen)
	return NewRational(up, down, opts...)
}

// Reset clears the filter history.
func (r *Resampler) Reset() {
	r.phase = 0
	r.inputIndex = 0
	r.totalIn = 0
	r.history = r.history[:0]
}

// ProcessAppend converts input and appends the result to dst. Filter state
// is kept for the next call.
func (r *Resampler) ProcessAppend(dst, input []float64) []float64 {
	if len(input) == 0 {
		return dst
	}

	n := len(r.history) + len(input)
	if cap(r.work) < n {
		r.work = make([]float64, n)
	}
	work := r.work[:n]
	copy(work, r.history)
	copy(work[len(r.history):], input)

	base := r.totalIn - len(r.history)
	last := r.totalIn + len(input) - 1

	for r.inputIndex <= last {
		var y float64
		for k, c := range r.phases[r.phase] {
			idx := r.inputIndex - k
			if idx < base {
				break
			}
			y += c * work[idx-base]
		}
		dst = append(dst, y)

		r.phase += r.down
		r.inputIndex += r.phase / r.up
		r.phase %= r.up
	}
	r.totalIn += len(input)

	keep := min(max(0, r.maxPhaseLn-1), len(work))
	r.history = append(r.history[:0], work[len(work)-keep:]...)
	return dst
}

// Flush feeds the filter enough silence to emit the output still held
// back by its group delay, appends it to dst and resets the resampler.
func (r *Resampler) Flush(dst []float64) []float64 {
	if r.totalIn == 0 {
		return dst
	}
	dst = r.ProcessAppend(dst, make([]float64, (r.maxPhaseLn+1)/2))
	r.Reset()
	return dst
}

// Process converts input into a newly allocated slice.
func (r *Resampler) Process(input []float64) []float64 {
	return r.ProcessAppend(make([]float64, 0, r.PredictOutputLen(len(input))), input)
}

// PredictOutputLen returns the number of samples the next call with
// inputLen samples will produce.
func (r *Resampler) PredictOutputLen(inputLen int) int {
	if inputLen <= 0 {
		return 0
	}
	last := r.totalIn + inputLen - 1
	i, phase := r.inputIndex, r.phase
	count := 0
	for i <= last {
		count++
		phase += r.down
		i += phase / r.up
		phase %= r.up
	}
	return count
}

// Ratio returns the reduced up/down factors.
func (r *Resampler) Ratio() (up, down int) {
	return r.up, r.down
}

// Quality returns the filter quality.
func (r *Resampler) Quality() Quality {
	return r.quality
}
