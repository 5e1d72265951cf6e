package output

import (
	"errors"
	"math"

	"github.com/sirupsen/logrus"
)

// Errors returned by sinks and streams.
var (
	ErrClosed          = errors.New("output: sink closed")
	ErrChannelMismatch = errors.New("output: left and right differ in length")
)

// Sink receives one rendered stereo block at a time.
type Sink interface {
	Write(left, right []float64) error
	// SelectDevice routes output to a platform device. Sinks without
	// devices record the id and ignore it.
	SelectDevice(id string) error
	Close() error
}

// NullSink discards audio and counts frames.
type NullSink struct {
	frames int64
	device string
	closed bool
}

// NewNullSink returns an open NullSink.
func NewNullSink() *NullSink {
	return &NullSink{}
}

// Write counts the frames of one block.
func (s *NullSink) Write(left, right []float64) error {
	if s.closed {
		return ErrClosed
	}
	if len(left) != len(right) {
		return ErrChannelMismatch
	}
	s.frames += int64(len(left))
	return nil
}

// SelectDevice records id.
func (s *NullSink) SelectDevice(id string) error {
	s.device = id
	logDeviceIgnored("NullSink.SelectDevice", id)
	return nil
}

// Close rejects further writes.
func (s *NullSink) Close() error {
	s.closed = true
	return nil
}

// Frames returns the number of frames written.
func (s *NullSink) Frames() int64 { return s.frames }

// Device returns the last selected device id.
func (s *NullSink) Device() string { return s.device }

func logDeviceIgnored(function, id string) {
	logrus.WithFields(logrus.Fields{
		"function": function,
		"device":   id,
	}).Debug("Sink has no output devices, selection recorded only")
}

// clampSample limits v to [-1, 1], mapping NaN to 0.
func clampSample(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	case math.IsNaN(v):
		return 0
	}
	return v
}
