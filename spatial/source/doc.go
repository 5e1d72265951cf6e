// Package source shapes one emitter before it reaches the listener's bus:
// input gain, distance attenuation, directivity lowpass, panning and the
// sends into the room model.
//
// Variants differ only by injected strategies. A [Panner] turns the mono
// signal into bus channels (ambisonic encoder or stereo equal-power), and a
// [Routing] decides whether the room sends are fed at all.
package source
