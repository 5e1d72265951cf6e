// Package biquad provides second-order IIR sections.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Coefficient designers
// live in dsp/filter/design.
package biquad
