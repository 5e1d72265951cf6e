// Package webdemo is the browser-facing engine behind web/wasm. It wraps a
// manager.Manager with a flat API of strings, numbers and float32 slices
// so the JavaScript bridge stays a thin adapter.
package webdemo

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/spatial/manager"
	"github.com/cwbudde/algo-spatial/spatial/output"
	"github.com/cwbudde/algo-spatial/spatial/render"
	"github.com/cwbudde/algo-spatial/spatial/room"
	"github.com/cwbudde/algo-spatial/spatial/source"
)

const (
	defaultBlockSize = 128
	// pushCapacity bounds each user's capture queue to half a second.
	pushCapacity = 24000
)

// Options configures a new Engine.
type Options struct {
	SampleRate float64
	BlockSize  int
	Backend    string
	Order      int
}

// Engine runs one listener's spatial mix.
type Engine struct {
	m       *manager.Manager
	streams map[string]*output.PushStream

	left, right []float64
	spectrum    *outputSpectrum
	events      []manager.ActivityEvent
}

// NewEngine builds a manager for opts and starts HRIR loading.
func NewEngine(opts Options) (*Engine, error) {
	if opts.SampleRate == 0 {
		opts.SampleRate = 48000
	}
	if opts.BlockSize == 0 {
		opts.BlockSize = defaultBlockSize
	}
	if opts.Backend == "" {
		opts.Backend = "scene"
	}
	if opts.Order == 0 {
		opts.Order = render.DefaultOrder
	}

	kind, err := render.ParseKind(opts.Backend)
	if err != nil {
		return nil, err
	}

	e := &Engine{streams: make(map[string]*output.PushStream)}
	m, err := manager.New(
		manager.WithBackend(kind),
		manager.WithRenderOptions(
			render.WithProcessor(core.WithSampleRate(opts.SampleRate), core.WithBlockSize(opts.BlockSize)),
			render.WithAmbisonicOrder(opts.Order),
		),
		manager.WithActivityHandler(func(ev manager.ActivityEvent) {
			e.events = append(e.events, ev)
		}),
	)
	if err != nil {
		return nil, err
	}
	m.Initialize(context.Background())

	view, err := newOutputSpectrum()
	if err != nil {
		return nil, err
	}

	e.m = m
	e.left = make([]float64, opts.BlockSize)
	e.right = make([]float64, opts.BlockSize)
	e.spectrum = view
	return e, nil
}

// BlockSize returns the frames rendered per block.
func (e *Engine) BlockSize() int { return len(e.left) }

// Join adds a user.
func (e *Engine) Join(id, name string) error {
	return e.m.Join(id, name)
}

// Leave removes a user and drops its queued audio.
func (e *Engine) Leave(id string) error {
	if s, ok := e.streams[id]; ok {
		_ = s.Close()
		delete(e.streams, id)
	}
	return e.m.Leave(id)
}

// Attach starts (attached true) or mutes (false) a user's capture. Samples
// arrive later through PushSamples.
func (e *Engine) Attach(id string, attached bool) error {
	if !attached {
		return e.m.AttachStream(id, nil)
	}
	s, ok := e.streams[id]
	if !ok {
		s = output.NewPushStream(pushCapacity)
	}
	if err := e.m.AttachStream(id, s); err != nil {
		return err
	}
	e.streams[id] = s
	return nil
}

// PushSamples queues captured mono audio for an attached user.
func (e *Engine) PushSamples(id string, samples []float32) error {
	s, ok := e.streams[id]
	if !ok {
		return fmt.Errorf("%w: %q has no stream", manager.ErrUnknownUser, id)
	}
	buf := make([]float64, len(samples))
	for i, v := range samples {
		buf[i] = float64(v)
	}
	return s.Push(buf)
}

// SetPose moves a user. values holds a position or position, forward and
// up.
func (e *Engine) SetPose(id string, values []float64) error {
	msg, err := manager.PoseFromTuple(values)
	if err != nil {
		return err
	}
	return e.m.ApplyPose(id, msg)
}

// SetListener moves the listener.
func (e *Engine) SetListener(values []float64) error {
	msg, err := manager.PoseFromTuple(values)
	if err != nil {
		return err
	}
	e.m.ApplyListenerPose(msg)
	return nil
}

// Tick advances to t seconds and returns the activity changes since the
// last tick.
func (e *Engine) Tick(t float64) []manager.ActivityEvent {
	e.m.Update(t)
	events := e.events
	e.events = nil
	return events
}

// Render fills dst with interleaved stereo frames, one block at a time,
// and returns the number of frames written. Trailing space smaller than a
// block is left untouched.
func (e *Engine) Render(dst []float32) (int, error) {
	block := len(e.left)
	frames := 0
	for len(dst)-2*frames >= 2*block {
		if err := e.m.Render(e.left, e.right); err != nil {
			return frames, err
		}
		out := dst[2*frames:]
		for i := range block {
			out[2*i] = float32(e.left[i])
			out[2*i+1] = float32(e.right[i])
		}
		e.spectrum.write(e.left, e.right)
		frames += block
	}
	return frames, nil
}

// SetAudioProperties changes the distance model of every user.
func (e *Engine) SetAudioProperties(minDistance, maxDistance float64, rolloff string, transitionTime float64) {
	e.m.SetAudioProperties(render.AudioProperties{
		MinDistance:    minDistance,
		MaxDistance:    maxDistance,
		Rolloff:        source.ParseRolloff(rolloff),
		TransitionTime: transitionTime,
	})
}

// SetRoom gives the scene a room with one material on every wall.
func (e *Engine) SetRoom(width, height, depth float64, material string) error {
	return e.m.SetRoom(room.Geometry{Width: width, Height: height, Depth: depth}, room.UniformMaterials(material))
}

// SetMode switches between ambisonic, bypass and off.
func (e *Engine) SetMode(name string) error {
	mode, err := render.ParseMode(name)
	if err != nil {
		return err
	}
	return e.m.SetRenderingMode(mode)
}

// Users returns the current participants.
func (e *Engine) Users() []manager.User {
	return e.m.Users()
}

// Dispose releases the manager.
func (e *Engine) Dispose() error {
	for id, s := range e.streams {
		_ = s.Close()
		delete(e.streams, id)
	}
	return e.m.Dispose()
}
