// Package activity detects voice activity on a capture stream from the
// average spectral level of the vocal range, debounced by a bounded
// counter.
package activity
