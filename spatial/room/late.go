package room

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-spatial/dsp/conv"
	"github.com/cwbudde/algo-spatial/dsp/delay"
	"github.com/cwbudde/algo-spatial/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatial/dsp/filter/design"
	"github.com/cwbudde/algo-spatial/dsp/window"
	"github.com/cwbudde/algo-spatial/spatial"
)

// Late reverberation constants.
const (
	ReverbPredelay  = 0.0015 // s
	ReverbTailOnset = 0.0038 // s
	ReverbGain      = 0.01
	ReverbBandwidth = 1.0 // octaves

	// ln(1000): a 60 dB amplitude decay.
	ln1000 = 6.907755278982137
)

// LateReflections convolves a pre-delayed signal with a synthesised
// reverberation tail.
type LateReflections struct {
	sampleRate float64
	blockSize  int
	seed       uint64

	predelay  *delay.Line
	predelayN int
	conv      *conv.Partitioned

	durations [Bands]float64
	ir        []float64

	delayed []float64
	wet     []float64
}

// NewLateReflections returns a reverb with all-zero durations. blockSize
// must be a power of two. The noise generator is seeded with seed, so equal
// durations always give the same impulse response.
func NewLateReflections(sampleRate float64, blockSize int, seed uint64) (*LateReflections, error) {
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("room: sample rate must be > 0: %f: %w", sampleRate, spatial.ErrConfiguration)
	}
	predelayN := int(math.Round(ReverbPredelay * sampleRate))
	line, err := delay.New(predelayN + 1)
	if err != nil {
		return nil, fmt.Errorf("room: %w", err)
	}

	l := &LateReflections{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		seed:       seed,
		predelay:   line,
		predelayN:  predelayN,
		delayed:    make([]float64, blockSize),
		wet:        make([]float64, blockSize),
	}
	if err := l.SetDurations([Bands]float64{}); err != nil {
		return nil, err
	}
	return l, nil
}

// SetDurations clamps the band RT60s to [0, MaxDuration], synthesises a new
// impulse response and swaps it in.
func (l *LateReflections) SetDurations(durations [Bands]float64) error {
	for i, d := range durations {
		if !(d > 0) {
			d = 0
		}
		l.durations[i] = math.Min(d, MaxDuration)
	}

	ir := synthesizeTail(l.durations, l.sampleRate, l.seed)
	c, err := conv.NewPartitioned(ir, l.blockSize)
	if err != nil {
		return fmt.Errorf("room: %w: %w", spatial.ErrConfiguration, err)
	}
	l.ir = ir
	l.conv = c

	logrus.WithFields(logrus.Fields{
		"function": "SetDurations",
		"samples":  len(ir),
	}).Debug("Synthesised late reverb")
	return nil
}

// Durations returns the clamped band durations in seconds.
func (l *LateReflections) Durations() [Bands]float64 {
	return l.durations
}

// ImpulseResponse returns the current tail without the predelay and output
// gain. The slice must not be modified.
func (l *LateReflections) ImpulseResponse() []float64 {
	return l.ir
}

// ProcessBlock adds the reverberated in into out.
func (l *LateReflections) ProcessBlock(in, out []float64) error {
	for i, x := range in {
		l.predelay.Write(x)
		l.delayed[i] = l.predelay.Read(l.predelayN)
	}
	if err := l.conv.ProcessBlockTo(l.wet, l.delayed); err != nil {
		return fmt.Errorf("room: late reverb: %w", err)
	}
	for i, v := range l.wet {
		out[i] += ReverbGain * v
	}
	return nil
}

// Reset clears the predelay and convolution history.
func (l *LateReflections) Reset() {
	l.predelay.Reset()
	l.conv.Reset()
}

// synthesizeTail sums, per band, white noise decaying by 60 dB over the
// band's duration and filtered by a one-octave bandpass, then fades the
// onset in. The result is at least one sample long.
func synthesizeTail(durations [Bands]float64, sampleRate float64, seed uint64) []float64 {
	var lengths [Bands]int
	n := 0
	for i, d := range durations {
		lengths[i] = int(math.Round(d * sampleRate))
		n = max(n, lengths[i])
	}
	ir := make([]float64, max(n, 1))
	if n == 0 {
		return ir
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	onset := int(math.Round(ReverbTailOnset * sampleRate))
	nyquist := sampleRate / 2

	for band, length := range lengths {
		if length == 0 || BandFrequencies[band] >= nyquist {
			continue
		}
		decay := -ln1000 / float64(length)
		fc := BandFrequencies[band]
		bp := biquad.NewSection(design.BandpassPeak(fc, design.OctavesToQ(ReverbBandwidth, fc, sampleRate), sampleRate))
		for i := range length {
			x := (2*rng.Float64() - 1) * math.Exp(decay*float64(i))
			ir[i] += bp.ProcessSample(x)
		}
	}

	window.FadeIn(ir, onset)
	return ir
}
