// Package binaural renders an ambisonic bus to two ears.
//
// Each ambisonic channel is convolved with its own head-related impulse
// response. The filters are stored as stereo pairs, one pair per two ACN
// channels, which is how HRIR assets are distributed on disk. Channels that
// are symmetric about the median plane (index m >= 0) reach both ears with
// the same sign; antisymmetric channels (m < 0) reach the right ear
// inverted. Only the left-ear filters are needed.
//
// HRIR sets come from three places: the built-in spherical-head model
// ([DefaultHRIRSet]), files decoded by a [Loader], or caller-built pairs
// passed to [NewHRIRSet]. Loading is asynchronous and reported through a
// [Future].
package binaural
