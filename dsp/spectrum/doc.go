// Package spectrum provides short-time magnitude analysis.
//
// Analyser keeps the most recent FFT-size samples of a stream and produces
// windowed, time-smoothed magnitude spectra, optionally mapped onto a
// normalised decibel scale. The magnitude helpers operate on spectra from
// any FFT backend.
package spectrum
