package render

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/ambisonic"
	"github.com/cwbudde/algo-spatial/spatial/binaural"
	"github.com/cwbudde/algo-spatial/spatial/pose"
	"github.com/cwbudde/algo-spatial/spatial/room"
	"github.com/cwbudde/algo-spatial/spatial/source"
)

// ErrDisposed is returned by Render after Dispose.
var ErrDisposed = errors.New("render: renderer disposed")

// Renderer is the listener side of a scene: it owns the ambisonic bus that
// sources encode into and turns it into a stereo block per call to Render.
//
// All methods except Dispose must be called from the render thread.
type Renderer struct {
	cfg      Config
	order    int
	channels int

	listener pose.Pose
	mode     Mode

	bus      [][]float64
	external [][]float64
	early    []float64
	late     []float64

	room      *room.Room
	router    *ambisonic.Router
	rotator   ambisonic.Rotator
	convolver *binaural.Convolver

	pending  *binaural.Future
	loadErr  error
	disposed atomic.Bool
}

// New validates every option before building anything.
func New(opts ...Option) (*Renderer, error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "New",
			"error":    err.Error(),
		}).Error("Invalid renderer option")
		return nil, err
	}
	return NewWithConfig(cfg)
}

// NewWithConfig builds a renderer from an explicit config.
func NewWithConfig(cfg Config) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewWithConfig",
			"error":    err.Error(),
		}).Error("Invalid renderer configuration")
		return nil, err
	}

	router, err := ambisonic.NewRouter(cfg.ChannelMap)
	if err != nil {
		return nil, err
	}
	convolver, err := binaural.NewConvolver(cfg.Order, cfg.Processor.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	rm, err := room.New(cfg.Processor, room.WithSpeedOfSound(cfg.SpeedOfSound), room.WithSeed(cfg.Seed))
	if err != nil {
		return nil, err
	}
	if err := rm.SetProperties(cfg.Geometry, cfg.Materials); err != nil {
		return nil, err
	}

	channels := ambisonic.ChannelCount(cfg.Order)
	r := &Renderer{
		cfg:       cfg,
		order:     cfg.Order,
		channels:  channels,
		listener:  pose.Default(),
		bus:       core.NewPlanar(channels, cfg.Processor.BlockSize),
		external:  core.NewPlanar(4, cfg.Processor.BlockSize),
		early:     make([]float64, cfg.Processor.BlockSize),
		late:      make([]float64, cfg.Processor.BlockSize),
		room:      rm,
		router:    router,
		rotator:   ambisonic.NewRotator(cfg.Order),
		convolver: convolver,
	}
	r.SetRenderingMode(cfg.Mode)

	logrus.WithFields(logrus.Fields{
		"function":    "NewWithConfig",
		"order":       cfg.Order,
		"mode":        cfg.Mode.String(),
		"sample_rate": cfg.Processor.SampleRate,
		"block_size":  cfg.Processor.BlockSize,
	}).Info("Renderer created")
	return r, nil
}

// Initialize starts loading the HRIR set: the configured files, or the
// built-in set when none were given. The returned future resolves once
// loading finishes; the set itself is installed by the next Render call.
// Until then the binaural output is silent. Calling Initialize again
// returns the first future.
func (r *Renderer) Initialize(ctx context.Context) *binaural.Future {
	if r.pending != nil {
		return r.pending
	}
	if r.convolver.Loaded() {
		return binaural.Resolved(r.convolver.HRIRSet(), nil)
	}

	if len(r.cfg.HRIRPaths) == 0 {
		r.pending = binaural.Resolved(binaural.DefaultHRIRSet(r.order, r.cfg.Processor.SampleRate))
		return r.pending
	}

	var loaderOpts []binaural.LoaderOption
	if r.cfg.HRIRFS != nil {
		loaderOpts = append(loaderOpts, binaural.WithFS(r.cfg.HRIRFS))
	}
	loader, err := binaural.NewLoader(r.cfg.Processor.SampleRate, loaderOpts...)
	if err != nil {
		r.pending = binaural.Resolved(nil, err)
		return r.pending
	}
	r.pending = binaural.LoadAsync(ctx, loader, r.cfg.HRIRPaths)
	return r.pending
}

// applyPending installs a finished HRIR load. A load that finishes after
// Dispose is dropped.
func (r *Renderer) applyPending() {
	if r.pending == nil || !r.pending.Ready() {
		return
	}
	set, err := r.pending.Result()
	r.pending = nil

	if r.disposed.Load() {
		return
	}
	if err == nil {
		_, err = r.convolver.SetHRIRSet(set)
	}
	if err != nil {
		r.loadErr = err
		logrus.WithFields(logrus.Fields{
			"function": "applyPending",
			"error":    err.Error(),
		}).Error("HRIR set unavailable, binaural output stays silent")
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "applyPending",
		"pairs":    set.Len(),
	}).Info("HRIR set loaded")
}

// Ready reports whether an HRIR set is installed.
func (r *Renderer) Ready() bool {
	return r.convolver.Loaded()
}

// LoadError returns the error of a failed HRIR load, if any.
func (r *Renderer) LoadError() error {
	return r.loadErr
}

// SetRenderingMode switches between binaural, bypass and silent output.
// Setting the current mode again has no effect.
func (r *Renderer) SetRenderingMode(m Mode) {
	if !m.valid() {
		logrus.WithFields(logrus.Fields{
			"function": "SetRenderingMode",
			"mode":     int(m),
		}).Warn("Ignoring invalid rendering mode")
		return
	}
	if m == ModeAmbisonic {
		r.convolver.Enable()
	} else {
		r.convolver.Disable()
	}
	if m != r.mode {
		logrus.WithFields(logrus.Fields{
			"function": "SetRenderingMode",
			"from":     r.mode.String(),
			"to":       m.String(),
		}).Debug("Rendering mode changed")
	}
	r.mode = m
}

// RenderingMode returns the active mode.
func (r *Renderer) RenderingMode() Mode {
	return r.mode
}

// SetChannelMap changes the channel order of external input passed to
// MixAmbisonic.
func (r *Renderer) SetChannelMap(m ambisonic.ChannelMap) error {
	return r.router.SetChannelMap(m)
}

// SetListenerPose moves and turns the listener.
func (r *Renderer) SetListenerPose(p pose.Pose) {
	r.listener = p
	r.room.SetListenerPosition(p.Position)

	right, up, forward := p.Basis()
	if err := r.rotator.SetRotationMatrix(ambisonic.RotationFromBasis(right, up, forward)); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "SetListenerPose",
			"error":    err.Error(),
		}).Warn("Keeping previous listener orientation")
	}
}

// ListenerPose returns the last pose passed to SetListenerPose.
func (r *Renderer) ListenerPose() pose.Pose {
	return r.listener
}

// SetRoom replaces the room geometry and wall materials.
func (r *Renderer) SetRoom(g room.Geometry, m room.Materials) error {
	return r.room.SetProperties(g, m)
}

// Room returns the room model, which also scales source room sends.
func (r *Renderer) Room() *room.Room {
	return r.room
}

// Order returns the ambisonic order.
func (r *Renderer) Order() int {
	return r.order
}

// Config returns the construction config.
func (r *Renderer) Config() Config {
	return r.cfg
}

// Output returns the buses sources add into for the current block. They
// are cleared by Render.
func (r *Renderer) Output() source.Output {
	return source.Output{Bus: r.bus, Early: r.early, Late: r.late}
}

// NewSource returns a scene source feeding this renderer's buses.
func (r *Renderer) NewSource() (*source.Source, error) {
	s, err := source.NewAmbisonic(r.order, r.cfg.Processor)
	if err != nil {
		return nil, err
	}
	s.SetRoom(r.room)
	return s, nil
}

// MixAmbisonic adds one block of externally encoded ambisonic audio to the
// bus for the next Render. Its first four channels are reordered by the
// channel map; higher channels are taken in ACN order and those above the
// renderer's order are dropped. Sources always encode ACN and bypass the
// map.
func (r *Renderer) MixAmbisonic(in [][]float64) error {
	n := r.cfg.Processor.BlockSize
	if len(in) < len(r.external) {
		return fmt.Errorf("render: ambisonic input needs at least %d channels, got %d: %w", len(r.external), len(in), spatial.ErrConfiguration)
	}
	for c, ch := range in {
		if len(ch) != n {
			return fmt.Errorf("render: ambisonic channel %d holds %d samples, want %d: %w", c, len(ch), n, spatial.ErrConfiguration)
		}
	}
	if r.disposed.Load() {
		return ErrDisposed
	}

	for c := range r.external {
		copy(r.external[c], in[c])
	}
	r.router.ProcessBlock(r.external)
	for c := range min(len(in), r.channels) {
		src := in[c]
		if c < len(r.external) {
			src = r.external[c]
		}
		dst := r.bus[c]
		for i, v := range src {
			dst[i] += v
		}
	}
	return nil
}

// Render mixes the room into the bus, decodes one block into left and
// right, and clears the buses for the next block.
func (r *Renderer) Render(left, right []float64) error {
	n := r.cfg.Processor.BlockSize
	if len(left) != n || len(right) != n {
		return fmt.Errorf("render: outputs must hold %d samples, got %d and %d: %w", n, len(left), len(right), spatial.ErrConfiguration)
	}
	if r.disposed.Load() {
		clear(left)
		clear(right)
		return ErrDisposed
	}
	r.applyPending()
	defer r.clearBuses()

	if err := r.room.ProcessBlock(r.early, r.late, r.bus); err != nil {
		return err
	}

	switch r.mode {
	case ModeBypass:
		copy(left, r.bus[0])
		copy(right, r.bus[0])
		return nil
	case ModeOff:
		clear(left)
		clear(right)
		return nil
	}

	r.rotator.ProcessBlock(r.bus)
	return r.convolver.ProcessBlock(r.bus, left, right)
}

func (r *Renderer) clearBuses() {
	core.ZeroPlanar(r.bus)
	clear(r.early)
	clear(r.late)
}

// Dispose marks the renderer dead. It may be called from any goroutine; a
// pending HRIR load is dropped when it completes.
func (r *Renderer) Dispose() {
	if r.disposed.Swap(true) {
		return
	}
	logrus.WithFields(logrus.Fields{
		"function": "Dispose",
	}).Info("Renderer disposed")
}

// Disposed reports whether Dispose was called.
func (r *Renderer) Disposed() bool {
	return r.disposed.Load()
}
