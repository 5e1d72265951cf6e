package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-spatial/spatial/manager"
	"github.com/cwbudde/algo-spatial/spatial/render"
)

// ambience is a pre-encoded ambisonic bed played under the sources, in the
// channel order given by -channel-map.
type ambience struct {
	channels [][]float64
	pos      int
	block    [][]float64
}

func loadAmbience(path string, sampleRate float64, blockSize int) (*ambience, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a PCM WAV file", path)
	}
	if dec.NumChans < 4 {
		return nil, fmt.Errorf("%s: ambience needs at least 4 channels, got %d", path, dec.NumChans)
	}
	if float64(dec.SampleRate) != sampleRate {
		return nil, fmt.Errorf("%s: ambience is %d Hz, scene runs at %g Hz", path, dec.SampleRate, sampleRate)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	nch := int(dec.NumChans)
	frames := len(buf.Data) / nch
	scale := float64(int64(1) << (dec.BitDepth - 1))
	a := &ambience{channels: make([][]float64, nch), block: make([][]float64, nch)}
	for c := range nch {
		a.channels[c] = make([]float64, frames)
		a.block[c] = make([]float64, blockSize)
	}
	for i := range frames {
		for c := range nch {
			v := buf.Data[i*nch+c]
			if dec.BitDepth == 8 {
				v -= 128
			}
			a.channels[c][i] = float64(v) / scale
		}
	}
	return a, nil
}

// next returns the following block, silent past the end of the file.
func (a *ambience) next() [][]float64 {
	for c, ch := range a.channels {
		n := 0
		if a.pos < len(ch) {
			n = copy(a.block[c], ch[a.pos:])
		}
		clear(a.block[c][n:])
	}
	a.pos += len(a.block[0])
	return a.block
}

// mixer returns the renderer the bed is mixed into. Only the scene backend
// has an ambisonic bus.
func (a *ambience) mixer(m *manager.Manager) (*render.Renderer, error) {
	s, ok := m.Spatializer().(*render.SceneSpatializer)
	if !ok {
		return nil, errors.New("ambience needs the scene backend")
	}
	return s.Renderer(), nil
}
