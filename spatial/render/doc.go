// Package render wires sources, the room model and binaural decoding into
// a listener's output.
//
// A Renderer owns one ambisonic bus. Sources encode into it, the room adds
// its first-order reflections and reverb, and the result is routed, rotated
// into the listener's frame and convolved with an HRIR set. Spatializer is
// the backend-neutral view used by callers that manage many sources.
package render
