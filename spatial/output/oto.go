//go:build !headless

package output

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// OtoSink plays rendered audio on the default system device.
type OtoSink struct {
	*RingSink

	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
}

// NewOtoSink opens the audio device at sampleRate and starts playback from
// an internal RingSink.
func NewOtoSink(sampleRate, ringFrames int) (*OtoSink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("output: oto context: %w", err)
	}
	<-ready

	s := &OtoSink{RingSink: NewRingSink(ringFrames), ctx: ctx}
	s.player = ctx.NewPlayer(s.RingSink)
	s.player.Play()

	logrus.WithFields(logrus.Fields{
		"function":    "NewOtoSink",
		"sample_rate": sampleRate,
	}).Info("Audio device opened")
	return s, nil
}

// SelectDevice is recorded only: oto always plays on the default device.
func (s *OtoSink) SelectDevice(id string) error {
	return s.RingSink.SelectDevice(id)
}

// Close stops the player. Frames still queued are discarded.
func (s *OtoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.RingSink.Close(); err != nil {
		return err
	}
	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	if err != nil {
		return fmt.Errorf("output: oto player: %w", err)
	}
	return nil
}
