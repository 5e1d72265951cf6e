package decay

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-spatial/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatial/dsp/filter/design"
)

// Errors returned by decay analysis.
var (
	ErrEmptyIR           = errors.New("decay: impulse response is empty")
	ErrInvalidSampleRate = errors.New("decay: sample rate must be positive")
	ErrNoDecay           = errors.New("decay: insufficient decay for RT calculation")
)

// Metrics holds decay times in seconds. Zero means the range was not reached.
type Metrics struct {
	EDT  float64
	T20  float64
	T30  float64
	RT60 float64 // T30 when available, T20 otherwise
}

// Analyzer computes decay metrics at a fixed sample rate.
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer creates an analyzer for sampleRate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

func (a *Analyzer) validate(ir []float64) error {
	if len(ir) == 0 {
		return ErrEmptyIR
	}
	if !(a.SampleRate > 0) {
		return ErrInvalidSampleRate
	}
	return nil
}

// Analyze computes all decay metrics from ir, measured from its peak.
func (a *Analyzer) Analyze(ir []float64) (Metrics, error) {
	if err := a.validate(ir); err != nil {
		return Metrics{}, err
	}

	s := Schroeder(ir[peakIndex(ir):])
	m := Metrics{
		EDT: a.reverbTime(s, 0, -10),
		T20: a.reverbTime(s, -5, -25),
		T30: a.reverbTime(s, -5, -35),
	}
	m.RT60 = m.T30
	if m.RT60 == 0 {
		m.RT60 = m.T20
	}
	if m.RT60 == 0 {
		return m, ErrNoDecay
	}
	return m, nil
}

// RT60 returns the T30-based reverberation time, falling back to T20.
func (a *Analyzer) RT60(ir []float64) (float64, error) {
	m, err := a.Analyze(ir)
	return m.RT60, err
}

// BandRT60 filters ir with a one-octave bandpass at centerHz and returns the
// decay time of the result.
func (a *Analyzer) BandRT60(ir []float64, centerHz float64) (float64, error) {
	if err := a.validate(ir); err != nil {
		return 0, err
	}

	band := make([]float64, len(ir))
	q := design.OctavesToQ(1, centerHz, a.SampleRate)
	biquad.NewSection(design.BandpassPeak(centerHz, q, a.SampleRate)).ProcessBlockTo(band, ir)
	return a.RT60(band)
}

// Schroeder returns the backward-integrated energy decay of ir in dB,
// normalised to 0 dB at the first sample and floored at -200 dB.
func Schroeder(ir []float64) []float64 {
	out := make([]float64, len(ir))

	var sum float64
	for i := len(ir) - 1; i >= 0; i-- {
		sum += ir[i] * ir[i]
		out[i] = sum
	}
	if len(out) == 0 || out[0] <= 0 {
		return out
	}

	total := out[0]
	for i, v := range out {
		if v <= 0 {
			out[i] = -200
			continue
		}
		out[i] = 10 * math.Log10(v/total)
	}
	return out
}

// reverbTime fits a line to the Schroeder curve between startDB and endDB
// and extrapolates it to -60 dB.
func (a *Analyzer) reverbTime(schroeder []float64, startDB, endDB float64) float64 {
	startIdx, endIdx := -1, -1
	for i, v := range schroeder {
		if startIdx < 0 && v <= startDB {
			startIdx = i
		}
		if startIdx >= 0 && v <= endDB {
			endIdx = i
			break
		}
	}
	if startIdx < 0 || endIdx <= startIdx {
		return 0
	}

	var sumX, sumY, sumXX, sumXY float64
	for i := startIdx; i <= endIdx; i++ {
		x := float64(i - startIdx)
		y := schroeder[i]
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	n := float64(endIdx - startIdx + 1)
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}

	// dB per sample
	slope := (n*sumXY - sumX*sumY) / denom
	if slope >= 0 {
		return 0
	}
	return -60 / (slope * a.SampleRate)
}

func peakIndex(ir []float64) int {
	idx, peak := 0, 0.0
	for i, v := range ir {
		if av := math.Abs(v); av > peak {
			idx, peak = i, av
		}
	}
	return idx
}
