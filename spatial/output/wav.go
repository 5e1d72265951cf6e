package output

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth = 16
	wavPCM      = 1
	wavMaxInt   = 32767
)

// WAVSink writes 16-bit stereo PCM.
type WAVSink struct {
	enc    *wav.Encoder
	file   io.Closer
	buf    *goaudio.IntBuffer
	device string
	frames int64
	closed bool
}

// NewWAVSink encodes into w. The header is finalised by Close, so w must be
// seekable.
func NewWAVSink(w io.WriteSeeker, sampleRate int) (*WAVSink, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("output: sample rate must be > 0: %d", sampleRate)
	}
	return &WAVSink{
		enc: wav.NewEncoder(w, sampleRate, wavBitDepth, 2, wavPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 2, SampleRate: sampleRate},
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

// CreateWAV creates path and returns a sink that closes it on Close.
func CreateWAV(path string, sampleRate int) (*WAVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	s, err := NewWAVSink(f, sampleRate)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	s.file = f
	return s, nil
}

// Write encodes one block as clamped 16-bit frames.
func (s *WAVSink) Write(left, right []float64) error {
	if s.closed {
		return ErrClosed
	}
	if len(left) != len(right) {
		return ErrChannelMismatch
	}

	data := s.buf.Data[:0]
	for i := range left {
		data = append(data,
			int(clampSample(left[i])*wavMaxInt),
			int(clampSample(right[i])*wavMaxInt))
	}
	s.buf.Data = data
	if err := s.enc.Write(s.buf); err != nil {
		return fmt.Errorf("output: wav write: %w", err)
	}
	s.frames += int64(len(left))
	return nil
}

// SelectDevice is recorded only; a file has no devices.
func (s *WAVSink) SelectDevice(id string) error {
	s.device = id
	logDeviceIgnored("WAVSink.SelectDevice", id)
	return nil
}

// Frames returns the number of frames written.
func (s *WAVSink) Frames() int64 { return s.frames }

// Close finalises the header and closes a file opened by CreateWAV.
func (s *WAVSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.enc.Close()
	if s.file != nil {
		if cerr := s.file.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("output: wav close: %w", err)
	}
	return nil
}
