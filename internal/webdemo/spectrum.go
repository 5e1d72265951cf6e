package webdemo

import (
	"github.com/cwbudde/algo-spatial/dsp/spectrum"
)

const spectrumSize = 2048

// outputSpectrum tracks the smoothed spectrum of the rendered mix for the
// page's analyser view.
type outputSpectrum struct {
	analyser *spectrum.Analyser
	mono     []float64
}

func newOutputSpectrum() (*outputSpectrum, error) {
	a, err := spectrum.NewAnalyser(spectrumSize)
	if err != nil {
		return nil, err
	}
	return &outputSpectrum{analyser: a}, nil
}

func (s *outputSpectrum) write(left, right []float64) {
	if cap(s.mono) < len(left) {
		s.mono = make([]float64, len(left))
	}
	mono := s.mono[:len(left)]
	for i := range mono {
		mono[i] = 0.5 * (left[i] + right[i])
	}
	s.analyser.Write(mono)
}

// Spectrum analyses the latest output window and writes its bins, scaled
// to [0, 1], into dst. It returns the number of bins written.
func (e *Engine) Spectrum(dst []float32) (int, error) {
	a := e.spectrum.analyser
	if err := a.Update(); err != nil {
		return 0, err
	}
	scaled := make([]float64, min(len(dst), a.Bins()))
	n := a.Scaled(scaled)
	for i := range n {
		dst[i] = float32(scaled[i])
	}
	return n, nil
}
