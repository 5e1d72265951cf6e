// Package decay measures reverberation decay of impulse responses.
//
// It derives the ISO 3382 decay times from the Schroeder backward
// integration of the squared impulse response:
//
//   - EDT: early decay time, 0 to -10 dB, extrapolated to -60 dB
//   - T20: -5 to -25 dB, extrapolated to -60 dB
//   - T30: -5 to -35 dB, extrapolated to -60 dB
//
// Band-limited decay times run the impulse response through a one-octave
// bandpass first. The room model uses these to check that a synthesized
// late-reverberation tail matches its target RT60 per band.
//
//	a := decay.NewAnalyzer(48000)
//	m, err := a.Analyze(tail)
//	fmt.Printf("RT60 = %.2f s\n", m.RT60)
package decay
