// Package output connects the renderer to the outside world: sinks receive
// rendered stereo blocks, capture streams supply mono input per user.
package output
