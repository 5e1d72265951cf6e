// Package resample converts streamed audio between sample rates with a
// polyphase Kaiser-windowed sinc FIR.
//
// Capture streams recorded at a rate other than the engine rate pass
// through a Resampler block by block; state carries across calls so the
// output is identical to converting the whole signal at once.
package resample
