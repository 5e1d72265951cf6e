// Package room models a shoebox room around the listener.
//
// Early reflections use one delay tap per wall, as if each wall returned a
// single bounce from its nearest point, and are mixed into a first-order
// ambisonic bus. Late reverberation is a synthesised impulse response built
// from band-limited decaying noise whose per-band decay follows the
// Eyring reverberation time of the room.
//
// The room is centred on the origin: a room of width W spans x in
// [-W/2, W/2], and likewise height along y and depth along z.
package room
