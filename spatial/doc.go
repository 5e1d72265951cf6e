// Package spatial is the root of a real-time 3D positional audio engine.
//
// Mono voice streams are placed in a shared 3D scene relative to a moving
// listener and rendered binaurally for headphones. The signal path per
// render quantum is
//
//	source: gain -> distance attenuation -> directivity -> ambisonic encoder
//	scene:  ambisonic bus + room reflections -> channel router -> rotator
//	        -> binaural convolver -> stereo
//
// Subpackages:
//
//   - pose: time-interpolated position and orientation
//   - ambisonic: encoder, sound-field rotation, channel routing
//   - binaural: HRIR sets, their loading and the binaural decoder
//   - source: per-source attenuation, directivity and encoding
//   - room: shoebox early reflections and synthesized late reverberation
//   - render: the listener-side renderer and spatializer backends
//   - activity: speech-band voice activity detection
//   - manager: per-user orchestration of all of the above
//   - output: audio sinks and capture streams
//
// # Coordinates
//
// World space is right-handed with +x right, +y up and -z forward. Angles
// follow the ambisonic convention: azimuth is counter-clockwise from the
// front (positive to the left) and elevation is positive upwards.
//
// # Errors
//
// Construction-time problems wrap [ErrConfiguration]; HRIR fetch and decode
// problems wrap [ErrAssetLoad]. Out-of-range runtime values (distances,
// angles, reverberation times, widths) are clamped instead of reported.
package spatial
