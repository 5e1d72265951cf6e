package output

import (
	"errors"
	"fmt"
	"io"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-spatial/dsp/resample"
)

// ErrInvalidStream is returned when a capture source cannot be decoded.
var ErrInvalidStream = errors.New("output: invalid capture stream")

// CaptureStream supplies mono samples in [-1, 1] at the engine sample
// rate. ReadSamples may return fewer samples than requested; io.EOF marks
// the end of a finite stream.
type CaptureStream interface {
	ReadSamples(dst []float64) (int, error)
}

// SliceStream plays a fixed buffer once or in a loop.
type SliceStream struct {
	samples []float64
	pos     int
	loop    bool
}

// NewSliceStream wraps samples without copying them.
func NewSliceStream(samples []float64, loop bool) *SliceStream {
	return &SliceStream{samples: samples, loop: loop}
}

// ReadSamples copies the next samples into dst, wrapping when looping.
func (s *SliceStream) ReadSamples(dst []float64) (int, error) {
	if len(s.samples) == 0 {
		return 0, io.EOF
	}
	n := 0
	for n < len(dst) {
		if s.pos >= len(s.samples) {
			if !s.loop {
				break
			}
			s.pos = 0
		}
		c := copy(dst[n:], s.samples[s.pos:])
		s.pos += c
		n += c
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Rewind restarts playback.
func (s *SliceStream) Rewind() { s.pos = 0 }

// PushStream is filled by an external producer, such as a browser capture
// callback, and drained by the render loop. Samples beyond capacity
// replace the oldest ones.
type PushStream struct {
	mu       sync.Mutex
	pending  []float64
	capacity int
	closed   bool
}

// NewPushStream returns a stream buffering at most capacity samples.
// Values <= 0 select DefaultRingFrames.
func NewPushStream(capacity int) *PushStream {
	if capacity <= 0 {
		capacity = DefaultRingFrames
	}
	return &PushStream{capacity: capacity}
}

// Push appends samples. It returns ErrClosed after Close.
func (s *PushStream) Push(samples []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, v := range samples {
		s.pending = append(s.pending, clampSample(v))
	}
	if over := len(s.pending) - s.capacity; over > 0 {
		n := copy(s.pending, s.pending[over:])
		s.pending = s.pending[:n]
	}
	return nil
}

// ReadSamples drains up to len(dst) samples. An empty open stream returns
// 0 and no error; a drained closed stream returns io.EOF.
func (s *PushStream) ReadSamples(dst []float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(dst, s.pending)
	if n == 0 && s.closed {
		return 0, io.EOF
	}
	rest := copy(s.pending, s.pending[n:])
	s.pending = s.pending[:rest]
	return n, nil
}

// Buffered returns the number of queued samples.
func (s *PushStream) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close marks the end of the stream. Queued samples stay readable.
func (s *PushStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// WAVStream decodes a PCM WAV incrementally, mixes it down to mono and
// converts it to the engine sample rate.
type WAVStream struct {
	dec        *wav.Decoder
	channels   int
	bitDepth   int
	sourceRate int

	buf     *goaudio.IntBuffer
	mono    []float64
	conv    *resample.Resampler
	pending []float64
	eof     bool
	err     error
}

// NewWAVStream reads the header of r and prepares conversion to
// sampleRate.
func NewWAVStream(r io.ReadSeeker, sampleRate int) (*WAVStream, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be > 0: %d", ErrInvalidStream, sampleRate)
	}
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a PCM WAV file", ErrInvalidStream)
	}

	s := &WAVStream{
		dec:        dec,
		channels:   int(dec.NumChans),
		bitDepth:   int(dec.BitDepth),
		sourceRate: int(dec.SampleRate),
	}
	if s.channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidStream, s.channels)
	}
	switch s.bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidStream, s.bitDepth)
	}
	if s.sourceRate != sampleRate {
		conv, err := resample.NewForRates(float64(s.sourceRate), float64(sampleRate))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidStream, err)
		}
		s.conv = conv
	}
	s.buf = &goaudio.IntBuffer{Format: dec.Format(), SourceBitDepth: s.bitDepth}
	return s, nil
}

// SourceRate returns the sample rate stored in the file.
func (s *WAVStream) SourceRate() int { return s.sourceRate }

// ReadSamples fills dst with mono samples at the engine rate. A decode
// error is reported once the samples decoded before it have been read.
func (s *WAVStream) ReadSamples(dst []float64) (int, error) {
	for len(s.pending) < len(dst) && !s.eof && s.err == nil {
		s.err = s.decode(len(dst))
	}
	n := copy(dst, s.pending)
	rest := copy(s.pending, s.pending[n:])
	s.pending = s.pending[:rest]
	switch {
	case n > 0:
		return n, nil
	case s.err != nil:
		return 0, s.err
	case s.eof:
		return 0, io.EOF
	}
	return 0, nil
}

func (s *WAVStream) decode(frames int) error {
	want := frames * s.channels
	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
	}
	s.buf.Data = s.buf.Data[:want]

	got, err := s.dec.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		s.convert(got)
		return fmt.Errorf("%w: %w", ErrInvalidStream, err)
	}
	if got == 0 {
		s.eof = true
		if s.conv != nil {
			s.pending = s.conv.Flush(s.pending)
		}
		return nil
	}
	s.convert(got)
	return nil
}

// convert mixes got interleaved samples down and queues them.
func (s *WAVStream) convert(got int) {
	n := got / s.channels
	if cap(s.mono) < n {
		s.mono = make([]float64, n)
	}
	mono := s.mono[:n]
	scale := float64(int64(1) << (s.bitDepth - 1))
	for i := range mono {
		var sum float64
		for c := range s.channels {
			v := s.buf.Data[i*s.channels+c]
			if s.bitDepth == 8 {
				v -= 128
			}
			sum += float64(v)
		}
		mono[i] = sum / (scale * float64(s.channels))
	}

	if s.conv != nil {
		s.pending = s.conv.ProcessAppend(s.pending, mono)
	} else {
		s.pending = append(s.pending, mono...)
	}
}
