package activity

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatial/dsp/spectrum"
	"github.com/cwbudde/algo-spatial/spatial"
)

// Detection constants.
const (
	FFTSize = 1024

	// Vocal range averaged each tick, in Hz.
	BandLow  = 85.0
	BandHigh = 255.0

	// Level on the [0, 1] decibel scale counted as speech.
	LevelThreshold = 0.5

	CounterMax       = 60
	CounterThreshold = 5
)

// Analyser tracks whether a stream is active.
//
// Each tick the counter moves up by one while the band level is at or
// above LevelThreshold and down by one otherwise, within [0, CounterMax].
// The state turns active when the counter rises above CounterThreshold and
// silent when it falls below it.
type Analyser struct {
	spectrum *spectrum.Analyser
	lowBin   int
	highBin  int
	scaled   []float64

	counter  int
	active   bool
	level    float64
	onChange func(active bool)
}

// New returns a silent analyser for a stream at sampleRate.
func New(sampleRate float64) (*Analyser, error) {
	if !(sampleRate > 2*BandHigh) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("activity: sample rate must exceed %.0f Hz: %f: %w", 2*BandHigh, sampleRate, spatial.ErrConfiguration)
	}
	sa, err := spectrum.NewAnalyser(FFTSize)
	if err != nil {
		return nil, fmt.Errorf("activity: %w", err)
	}

	binHz := sampleRate / FFTSize
	low := int(math.Ceil(BandLow / binHz))
	high := max(int(math.Floor(BandHigh/binHz)), low)

	return &Analyser{
		spectrum: sa,
		lowBin:   low,
		highBin:  high,
		scaled:   make([]float64, sa.Bins()),
	}, nil
}

// OnChange registers fn to be called on every state transition. A nil fn
// removes the callback.
func (a *Analyser) OnChange(fn func(active bool)) {
	a.onChange = fn
}

// Write feeds captured samples into the analysis window.
func (a *Analyser) Write(samples []float64) {
	a.spectrum.Write(samples)
}

// Update analyses the current window and runs one tick. It returns the
// state after the tick.
func (a *Analyser) Update() (bool, error) {
	if err := a.spectrum.Update(); err != nil {
		return a.active, err
	}
	a.spectrum.Scaled(a.scaled)

	var sum float64
	for _, v := range a.scaled[a.lowBin : a.highBin+1] {
		sum += v
	}
	return a.Step(sum / float64(a.highBin-a.lowBin+1)), nil
}

// Step runs one tick with an externally measured band level in [0, 1] and
// returns the state after the tick.
func (a *Analyser) Step(level float64) bool {
	a.level = level
	if level >= LevelThreshold {
		a.counter = min(a.counter+1, CounterMax)
	} else {
		a.counter = max(a.counter-1, 0)
	}

	switch {
	case !a.active && a.counter > CounterThreshold:
		a.setActive(true)
	case a.active && a.counter < CounterThreshold:
		a.setActive(false)
	}
	return a.active
}

func (a *Analyser) setActive(active bool) {
	a.active = active
	if a.onChange != nil {
		a.onChange(active)
	}
}

// IsActive reports the current state.
func (a *Analyser) IsActive() bool {
	return a.active
}

// Level returns the band level of the last tick.
func (a *Analyser) Level() float64 {
	return a.level
}

// Counter returns the hysteresis counter.
func (a *Analyser) Counter() int {
	return a.counter
}

// Band returns the inclusive FFT bin range averaged each tick.
func (a *Analyser) Band() (low, high int) {
	return a.lowBin, a.highBin
}

// Reset returns to the silent state without firing the callback.
func (a *Analyser) Reset() {
	a.spectrum.Reset()
	a.counter = 0
	a.active = false
	a.level = 0
}
