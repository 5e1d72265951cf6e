// Package conv provides the convolution kernels used by the renderer.
//
//   - Direct: O(N*M) time-domain linear convolution, the reference result.
//   - Partitioned: uniformly partitioned overlap-save convolution with a
//     frequency-domain delay line. It runs at a fixed block size with no
//     added latency and handles kernels from a few hundred taps (HRIRs) to
//     several seconds (reverb tails).
//
// Kernels are used as given; no energy normalisation is applied.
package conv
