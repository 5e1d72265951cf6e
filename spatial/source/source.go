package source

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/ambisonic"
	"github.com/cwbudde/algo-spatial/spatial/pose"
)

// Routing selects which buses a source feeds.
type Routing int

const (
	// RoutingScene feeds the panned bus and both room sends.
	RoutingScene Routing = iota
	// RoutingDirect feeds the panned bus only.
	RoutingDirect
)

// RoomSender scales the room sends of a source at a given position, 1
// inside the room falling to 0 outside it.
type RoomSender interface {
	SendGain(position pose.Vector3) float64
}

// Output is the set of buses a source adds into for one block. Early and
// Late may be nil when the routing does not use them.
type Output struct {
	Bus   [][]float64
	Early []float64
	Late  []float64
}

// Source is one emitter.
type Source struct {
	blockSize int

	position pose.Vector3
	forward  pose.Vector3
	up       pose.Vector3
	gain     float64
	width    float64

	attenuation *Attenuation
	directivity *Directivity
	panner      Panner
	routing     Routing
	room        RoomSender

	// per-block gain targets and their values at the end of the last block
	inputGain, prevInputGain float64
	distGain, prevDistGain   float64
	sendGain, prevSendGain   float64
	// fresh is set until the first Process; the first Update snaps ramps
	fresh bool

	pre     []float64
	dry     []float64
	scratch []float64
}

// New returns a source at the origin facing -z. The panner decides the
// bus layout; routing decides whether room sends are used.
func New(panner Panner, routing Routing, cfg core.ProcessorConfig) (*Source, error) {
	if panner == nil {
		return nil, fmt.Errorf("source: nil panner: %w", spatial.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("source: %w: %w", spatial.ErrConfiguration, err)
	}

	s := &Source{
		blockSize:   cfg.BlockSize,
		forward:     pose.Forward,
		up:          pose.Up,
		gain:        1,
		attenuation: NewAttenuation(),
		directivity: NewDirectivity(cfg.SampleRate),
		panner:      panner,
		routing:     routing,
		pre:         make([]float64, cfg.BlockSize),
		dry:         make([]float64, cfg.BlockSize),
		scratch:     make([]float64, cfg.BlockSize),
	}
	s.inputGain, s.prevInputGain = 1, 1
	s.distGain, s.prevDistGain = 1, 1
	s.sendGain, s.prevSendGain = 1, 1
	s.fresh = true
	return s, nil
}

// NewAmbisonic returns a scene source encoding into an ambisonic bus.
func NewAmbisonic(order int, cfg core.ProcessorConfig) (*Source, error) {
	p, err := NewAmbisonicPanner(order)
	if err != nil {
		return nil, err
	}
	return New(p, RoutingScene, cfg)
}

// SetRoom sets the room used for send gains. nil keeps the sends at 1.
func (s *Source) SetRoom(r RoomSender) {
	s.room = r
}

// SetPosition moves the source. It takes effect on the next Update.
func (s *Source) SetPosition(p pose.Vector3) {
	s.position = p
}

// SetOrientation sets the source's forward and up vectors.
func (s *Source) SetOrientation(forward, up pose.Vector3) {
	s.forward = pose.Normalize(forward, pose.Forward)
	s.up = pose.Normalize(up, pose.Up)
}

// SetPose applies position and orientation at once.
func (s *Source) SetPose(p pose.Pose) {
	s.SetPosition(p.Position)
	s.SetOrientation(p.Forward, p.Up)
}

// SetGain sets the linear input gain. Negative and NaN values become 0.
func (s *Source) SetGain(g float64) {
	if !(g > 0) {
		g = 0
	}
	s.gain = g
	s.inputGain = g
}

// SetSourceWidth spreads the source over width degrees, 0 to 359.
func (s *Source) SetSourceWidth(width float64) {
	if math.IsNaN(width) {
		width = 0
	}
	s.width = core.Clamp(width, 0, 359)
	s.panner.SetSourceWidth(s.width)
}

// SetMinDistance forwards to the attenuation model.
func (s *Source) SetMinDistance(d float64) { s.attenuation.SetMinDistance(d) }

// SetMaxDistance forwards to the attenuation model.
func (s *Source) SetMaxDistance(d float64) { s.attenuation.SetMaxDistance(d) }

// SetRolloff forwards to the attenuation model.
func (s *Source) SetRolloff(r Rolloff) { s.attenuation.SetRolloff(r) }

// Attenuation returns the distance model.
func (s *Source) Attenuation() *Attenuation { return s.attenuation }

// Directivity returns the directivity filter.
func (s *Source) Directivity() *Directivity { return s.directivity }

// Panner returns the bus panner.
func (s *Source) Panner() Panner { return s.panner }

// Routing returns which buses the source feeds.
func (s *Source) Routing() Routing { return s.routing }

// Position returns the last position set.
func (s *Source) Position() pose.Vector3 { return s.position }

// Gain returns the linear input gain.
func (s *Source) Gain() float64 { return s.gain }

// SourceWidth returns the spread in degrees.
func (s *Source) SourceWidth() float64 { return s.width }

// SetDirectivityPattern forwards to the directivity filter.
func (s *Source) SetDirectivityPattern(alpha, sharpness float64) {
	s.directivity.SetPattern(alpha, sharpness)
}

// Update recomputes direction, distance gain, directivity and room sends
// for a listener pose. Call it once per block before Process. Before the
// first Process the new targets apply at once rather than ramping in.
func (s *Source) Update(listener pose.Pose) {
	toSource := s.position.Sub(listener.Position)
	distance := toSource.Len()

	world := pose.Forward
	if distance > 0 {
		world = toSource.Mul(1 / distance)
	}
	right, up, forward := listener.Basis()
	local := ambisonic.RotationFromBasis(right, up, forward).Mul3x1(world)
	s.panner.Point(world, local)

	s.distGain = s.attenuation.SetDistance(distance)
	s.directivity.ComputeAngle(s.forward, toSource.Mul(-1))

	s.sendGain = 1
	if s.room != nil {
		s.sendGain = s.room.SendGain(s.position)
	}

	if s.fresh {
		s.Reset()
	}
}

// Process adds one block of input into out. The late send is taken after
// the input gain, the early send after distance attenuation, and the panned
// signal after directivity.
func (s *Source) Process(input []float64, out Output) error {
	if len(input) != s.blockSize {
		return fmt.Errorf("source: expected %d samples, got %d: %w", s.blockSize, len(input), spatial.ErrConfiguration)
	}
	if len(out.Bus) < s.panner.Channels() {
		return fmt.Errorf("source: bus has %d channels, panner needs %d: %w", len(out.Bus), s.panner.Channels(), spatial.ErrConfiguration)
	}

	clear(s.pre)
	core.MixRamp(s.pre, input, s.scratch, s.prevInputGain, s.inputGain)

	scene := s.routing == RoutingScene
	if scene && out.Late != nil {
		core.MixRamp(out.Late, s.pre, s.scratch, s.prevSendGain, s.sendGain)
	}

	clear(s.dry)
	core.MixRamp(s.dry, s.pre, s.scratch, s.prevDistGain, s.distGain)

	if scene && out.Early != nil {
		core.MixRamp(out.Early, s.dry, s.scratch, s.prevSendGain, s.sendGain)
	}

	s.directivity.ProcessBlock(s.dry)
	s.panner.ProcessBlock(out.Bus, s.dry)

	s.prevInputGain = s.inputGain
	s.prevDistGain = s.distGain
	s.prevSendGain = s.sendGain
	s.fresh = false
	return nil
}

// Reset clears filter state and snaps all gain ramps to their targets.
func (s *Source) Reset() {
	s.directivity.Reset()
	s.prevInputGain = s.inputGain
	s.prevDistGain = s.distGain
	s.prevSendGain = s.sendGain
	s.panner.Settle()
}
