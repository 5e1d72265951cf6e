// Package ambisonic implements ambisonic encoding, sound-field rotation and
// channel routing up to third order.
//
// Channels use ACN ordering with SN3D normalisation: order l holds 2l+1
// channels with index m in [-l, l], stored at ACN index l*l+l+m, for
// K = (order+1)^2 channels in total. First-order channels are W, Y, Z, X.
//
// Ambisonic axes relate to world space (+x right, +y up, -z forward) as
// X = front = -z, Y = left = -x, Z = up = +y.
package ambisonic
