package binaural

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/jfreymuth/oggvorbis"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-spatial/spatial"
)

// Loader decoding errors. All of them are reported wrapped in
// spatial.ErrAssetLoad.
var (
	ErrUnsupportedFormat   = errors.New("binaural: unsupported HRIR file format")
	ErrNotStereo           = errors.New("binaural: HRIR file must have two channels")
	ErrSampleRateMismatch  = errors.New("binaural: HRIR sample rate mismatch")
	ErrEmptyHRIR           = errors.New("binaural: HRIR file holds no samples")
	ErrUnsupportedBitDepth = errors.New("binaural: unsupported WAV bit depth")
)

// Loader decodes stereo HRIR files into an HRIRSet. WAV (PCM 8 to 32 bit)
// and Ogg Vorbis files are supported, selected by extension.
type Loader struct {
	fsys       fs.FS
	sampleRate float64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader) error

// WithFS makes the loader resolve paths inside fsys instead of the host
// filesystem.
func WithFS(fsys fs.FS) LoaderOption {
	return func(l *Loader) error {
		if fsys == nil {
			return fmt.Errorf("binaural: nil filesystem: %w", spatial.ErrConfiguration)
		}
		l.fsys = fsys
		return nil
	}
}

// NewLoader returns a loader expecting files recorded at sampleRate. Files
// at any other rate are rejected; no resampling takes place.
func NewLoader(sampleRate float64, opts ...LoaderOption) (*Loader, error) {
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("binaural: sample rate must be > 0: %f: %w", sampleRate, spatial.ErrConfiguration)
	}
	l := &Loader{sampleRate: sampleRate}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Load decodes all paths in parallel, one pair per file in order, and waits
// for all of them. The first failure cancels the remaining decodes and is
// returned wrapped in spatial.ErrAssetLoad.
func (l *Loader) Load(ctx context.Context, paths []string) (*HRIRSet, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("binaural: no HRIR paths: %w", spatial.ErrAssetLoad)
	}

	pairs := make([]Pair, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pair, err := l.loadFile(p)
			if err != nil {
				return fmt.Errorf("binaural: %s: %w: %w", p, spatial.ErrAssetLoad, err)
			}
			pairs[i] = pair
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if !errors.Is(err, spatial.ErrAssetLoad) {
			err = fmt.Errorf("binaural: %w: %w", spatial.ErrAssetLoad, err)
		}
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"files":    len(paths),
			"error":    err,
		}).Error("HRIR load failed")
		return nil, err
	}

	set, err := NewHRIRSet(pairs, l.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("binaural: %w: %w", spatial.ErrAssetLoad, err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"files":    len(paths),
	}).Info("HRIR files loaded")
	return set, nil
}

func (l *Loader) readFile(name string) ([]byte, error) {
	if l.fsys != nil {
		return fs.ReadFile(l.fsys, name)
	}
	return os.ReadFile(name)
}

type decodeFunc func(data []byte) (samples []float64, channels, rate int, err error)

func decoderFor(name string) (decodeFunc, error) {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".wav", ".wave":
		return decodeWAV, nil
	case ".ogg", ".oga":
		return decodeOgg, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func (l *Loader) loadFile(name string) (Pair, error) {
	decode, err := decoderFor(name)
	if err != nil {
		return Pair{}, err
	}
	data, err := l.readFile(name)
	if err != nil {
		return Pair{}, err
	}
	samples, channels, rate, err := decode(data)
	if err != nil {
		return Pair{}, err
	}

	if channels != 2 {
		return Pair{}, fmt.Errorf("%w: got %d", ErrNotStereo, channels)
	}
	if float64(rate) != l.sampleRate {
		return Pair{}, fmt.Errorf("%w: file %d Hz, renderer %g Hz", ErrSampleRateMismatch, rate, l.sampleRate)
	}
	if len(samples) < 2 {
		return Pair{}, ErrEmptyHRIR
	}

	return deinterleave(samples), nil
}

func deinterleave(samples []float64) Pair {
	frames := len(samples) / 2
	p := Pair{
		Even: make([]float64, frames),
		Odd:  make([]float64, frames),
	}
	for i := range frames {
		p.Even[i] = samples[2*i]
		p.Odd[i] = samples[2*i+1]
	}
	return p
}

func decodeWAV(data []byte) ([]float64, int, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, 0, 0, errors.New("binaural: invalid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("binaural: WAV decode: %w", err)
	}
	out, err := intBufferToFloat(buf, int(dec.BitDepth))
	if err != nil {
		return nil, 0, 0, err
	}
	return out, buf.Format.NumChannels, buf.Format.SampleRate, nil
}

// intBufferToFloat scales integer PCM to [-1, 1).
func intBufferToFloat(buf *goaudio.IntBuffer, bitDepth int) ([]float64, error) {
	var scale float64
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned
		out := make([]float64, len(buf.Data))
		for i, v := range buf.Data {
			out[i] = float64(v-128) / 128
		}
		return out, nil
	case 16, 24, 32:
		scale = float64(int64(1) << (bitDepth - 1))
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	out := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float64(v) / scale
	}
	return out, nil
}

func decodeOgg(data []byte) ([]float64, int, int, error) {
	raw, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("binaural: Ogg Vorbis decode: %w", err)
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, format.Channels, format.SampleRate, nil
}
