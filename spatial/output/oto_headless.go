//go:build headless

package output

import (
	"errors"
	"fmt"
)

// ErrNoDevice is returned by NewOtoSink in headless builds.
var ErrNoDevice = errors.New("output: built without an audio device backend")

// OtoSink is unavailable in headless builds.
type OtoSink struct {
	*RingSink
}

// NewOtoSink always fails in headless builds.
func NewOtoSink(sampleRate, ringFrames int) (*OtoSink, error) {
	return nil, fmt.Errorf("output: %d Hz device: %w", sampleRate, ErrNoDevice)
}
