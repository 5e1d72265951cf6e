package output

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
)

const (
	// FrameBytes is the size of one interleaved float32 stereo frame.
	FrameBytes = 8

	// DefaultRingFrames bounds the queue at about a second of 48 kHz audio.
	DefaultRingFrames = 48000
)

// RingSink queues rendered blocks as interleaved float32 frames and serves
// them to a pull-based device callback through Read. Underruns are filled
// with silence. When the queue is full the oldest frames are dropped.
type RingSink struct {
	mu        sync.Mutex
	pending   []float32
	pos       int
	maxFrames int
	underruns int64
	dropped   int64
	device    string
	closed    bool

	// signalled after every Read
	drained chan struct{}
}

// NewRingSink returns a queue holding at most maxFrames frames. Values <= 0
// select DefaultRingFrames.
func NewRingSink(maxFrames int) *RingSink {
	if maxFrames <= 0 {
		maxFrames = DefaultRingFrames
	}
	return &RingSink{maxFrames: maxFrames, drained: make(chan struct{}, 1)}
}

// Write appends one block. A full queue drops its oldest frames.
func (s *RingSink) Write(left, right []float64) error {
	if len(left) != len(right) {
		return ErrChannelMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.compactLocked()
	for i := range left {
		s.pending = append(s.pending,
			float32(clampSample(left[i])),
			float32(clampSample(right[i])))
	}
	if over := len(s.pending)/2 - s.maxFrames; over > 0 {
		s.pos = 2 * over
		s.dropped += int64(over)
		s.compactLocked()
	}
	return nil
}

// Read implements io.Reader for oto players. Only whole frames are
// produced; a short queue is padded with zeros.
func (s *RingSink) Read(p []byte) (int, error) {
	n := len(p) - len(p)%FrameBytes
	if n == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	short := false
	for i := 0; i < n; i += 4 {
		var v float32
		if s.pos < len(s.pending) {
			v = s.pending[s.pos]
			s.pos++
		} else {
			short = true
		}
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(v))
	}
	if short {
		s.underruns++
	}
	s.compactLocked()

	select {
	case s.drained <- struct{}{}:
	default:
	}
	return n, nil
}

// WaitBuffered blocks until at most frames frames are queued. A producer
// rendering faster than real time uses it to stay ahead of the device
// without overflowing.
func (s *RingSink) WaitBuffered(ctx context.Context, frames int) error {
	for s.Buffered() > frames {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.drained:
		}
	}
	return nil
}

// Buffered returns the number of queued frames.
func (s *RingSink) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (len(s.pending) - s.pos) / 2
}

// Underruns returns how many reads had to pad with silence.
func (s *RingSink) Underruns() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.underruns
}

// Dropped returns the number of frames discarded on overflow.
func (s *RingSink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// SelectDevice records id. Routing is left to the reader.
func (s *RingSink) SelectDevice(id string) error {
	s.mu.Lock()
	s.device = id
	s.mu.Unlock()
	logDeviceIgnored("RingSink.SelectDevice", id)
	return nil
}

// Device returns the last selected device id.
func (s *RingSink) Device() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// Close rejects further writes. Pending frames stay readable.
func (s *RingSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *RingSink) compactLocked() {
	if s.pos == 0 {
		return
	}
	if s.pos >= len(s.pending) {
		s.pending = s.pending[:0]
	} else {
		remaining := len(s.pending) - s.pos
		copy(s.pending, s.pending[s.pos:])
		s.pending = s.pending[:remaining]
	}
	s.pos = 0
}
