// Package design provides RBJ biquad coefficient designers.
//
// The functions in this package produce coefficients consumable by
// dsp/filter/biquad: a lowpass for the reflection path and bandpasses for
// per-band reverb shaping and band-limited decay measurement.
package design
