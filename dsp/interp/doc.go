// Package interp provides interpolation primitives used by delay-based DSP
// blocks.
//
// Available methods, from cheapest to highest quality:
//
//   - [Linear2]:  2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite (good default)
//
// The [Mode] enum lets [delay.Line] select the algorithm.
package interp
