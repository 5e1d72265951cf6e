package room

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/pose"
)

// DefaultSeed seeds the late reverb noise unless WithSeed overrides it.
const DefaultSeed uint64 = 0x5eed

// Option mutates room construction parameters.
type Option func(*roomConfig) error

type roomConfig struct {
	speedOfSound float64
	seed         uint64
}

// WithSpeedOfSound sets the speed of sound in m/s.
func WithSpeedOfSound(c float64) Option {
	return func(cfg *roomConfig) error {
		if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("room: speed of sound must be > 0 and finite: %f: %w", c, spatial.ErrConfiguration)
		}
		cfg.speedOfSound = c
		return nil
	}
}

// WithSeed sets the late reverb noise seed.
func WithSeed(seed uint64) Option {
	return func(cfg *roomConfig) error {
		cfg.seed = seed
		return nil
	}
}

// Room renders early reflections and late reverberation for a shoebox room
// into a first-order ambisonic bus. A new room has no walls and renders
// nothing until SetProperties is called.
type Room struct {
	cfg          core.ProcessorConfig
	speedOfSound float64

	geometry  Geometry
	materials Materials
	listener  pose.Vector3

	early *EarlyReflections
	late  *LateReflections

	outputGain, prevOutputGain float64

	wet     [][]float64
	scratch []float64
}

// New creates a room for blocks of cfg.BlockSize samples.
func New(cfg core.ProcessorConfig, opts ...Option) (*Room, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("room: %w: %w", spatial.ErrConfiguration, err)
	}
	rc := roomConfig{speedOfSound: spatial.SpeedOfSound, seed: DefaultSeed}
	for _, opt := range opts {
		if err := opt(&rc); err != nil {
			return nil, err
		}
	}

	early, err := NewEarlyReflections(cfg.SampleRate, rc.speedOfSound)
	if err != nil {
		return nil, err
	}
	late, err := NewLateReflections(cfg.SampleRate, cfg.BlockSize, rc.seed)
	if err != nil {
		return nil, err
	}

	return &Room{
		cfg:            cfg,
		speedOfSound:   rc.speedOfSound,
		materials:      UniformMaterials(MaterialTransparent),
		early:          early,
		late:           late,
		outputGain:     1,
		prevOutputGain: 1,
		wet:            core.NewPlanar(4, cfg.BlockSize),
		scratch:        make([]float64, cfg.BlockSize),
	}, nil
}

// SetProperties recomputes reflection coefficients and reverberation times
// for a new geometry and set of wall materials.
func (r *Room) SetProperties(g Geometry, m Materials) error {
	r.geometry = g.clamped()
	r.materials = m

	r.early.SetRoomProperties(r.geometry, ReflectionCoefficients(m))
	durations := RT60Durations(r.geometry, m, r.speedOfSound)
	if err := r.late.SetDurations(durations); err != nil {
		return err
	}
	r.updateOutputGain()

	logrus.WithFields(logrus.Fields{
		"function": "SetProperties",
		"width":    r.geometry.Width,
		"height":   r.geometry.Height,
		"depth":    r.geometry.Depth,
		"rt60_1k":  durations[5],
	}).Debug("Room properties updated")
	return nil
}

// SetListenerPosition moves the listener relative to the room centre.
func (r *Room) SetListenerPosition(p pose.Vector3) {
	r.listener = p
	r.early.SetListenerPosition(p)
	r.updateOutputGain()
}

func (r *Room) updateOutputGain() {
	r.outputGain = OutsideGain(r.DistanceOutsideRoom(r.listener))
}

// DistanceOutsideRoom returns how far p lies outside the walls.
func (r *Room) DistanceOutsideRoom(p pose.Vector3) float64 {
	return r.geometry.DistanceOutside(p)
}

// SendGain scales the room sends of a source at position.
func (r *Room) SendGain(position pose.Vector3) float64 {
	return OutsideGain(r.DistanceOutsideRoom(position))
}

// Geometry returns the current room size.
func (r *Room) Geometry() Geometry {
	return r.geometry
}

// Materials returns the current wall materials.
func (r *Room) Materials() Materials {
	return r.materials
}

// Durations returns the per-band reverberation times in use.
func (r *Room) Durations() [Bands]float64 {
	return r.late.Durations()
}

// OutputGain returns the gain applied to the room output for the current
// listener position.
func (r *Room) OutputGain() float64 {
	return r.outputGain
}

// Early returns the early reflection renderer.
func (r *Room) Early() *EarlyReflections {
	return r.early
}

// Late returns the late reverberation renderer.
func (r *Room) Late() *LateReflections {
	return r.late
}

// ProcessBlock renders the early and late send buses and adds the result
// into the first four channels of bus. All buffers hold one block.
func (r *Room) ProcessBlock(early, late []float64, bus [][]float64) error {
	n := r.cfg.BlockSize
	if len(early) != n || len(late) != n {
		return fmt.Errorf("room: send buses must hold %d samples, got %d and %d: %w", n, len(early), len(late), spatial.ErrConfiguration)
	}
	if len(bus) < 4 {
		return fmt.Errorf("room: bus needs 4 channels, got %d: %w", len(bus), spatial.ErrConfiguration)
	}
	for ch := range 4 {
		if len(bus[ch]) != n {
			return fmt.Errorf("room: bus channel %d holds %d samples, want %d: %w", ch, len(bus[ch]), n, spatial.ErrConfiguration)
		}
	}

	core.ZeroPlanar(r.wet)
	r.early.ProcessBlock(early, r.wet)
	if err := r.late.ProcessBlock(late, r.wet[0]); err != nil {
		return err
	}

	from, to := r.prevOutputGain, r.outputGain
	r.prevOutputGain = to
	if from == 0 && to == 0 {
		return nil
	}
	for ch := range 4 {
		core.MixRamp(bus[ch], r.wet[ch], r.scratch, from, to)
	}
	return nil
}

// Reset clears all reflection and reverb state.
func (r *Room) Reset() {
	r.early.Reset()
	r.late.Reset()
	r.prevOutputGain = r.outputGain
}
