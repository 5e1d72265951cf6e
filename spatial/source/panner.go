package source

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/spatial/ambisonic"
	"github.com/cwbudde/algo-spatial/spatial/pose"
)

// Panner spreads a mono signal over the channels of an output bus.
type Panner interface {
	// Channels returns the number of bus channels written.
	Channels() int
	// Point aims the panner. world is the unit listener-to-source direction
	// in world axes, local the same direction in the listener's own axes.
	Point(world, local pose.Vector3)
	SetSourceWidth(width float64)
	// Settle drops any pending gain ramp so the next block starts at the
	// current target.
	Settle()
	// ProcessBlock adds src into bus.
	ProcessBlock(bus [][]float64, src []float64)
}

// AmbisonicPanner encodes in world axes; the renderer's rotator applies the
// listener orientation afterwards.
type AmbisonicPanner struct {
	enc *ambisonic.Encoder
}

// NewAmbisonicPanner returns an encoder-backed panner of order.
func NewAmbisonicPanner(order int) (*AmbisonicPanner, error) {
	enc, err := ambisonic.NewEncoder(order)
	if err != nil {
		return nil, err
	}
	return &AmbisonicPanner{enc: enc}, nil
}

// Channels returns the ambisonic channel count of the encoder's order.
func (p *AmbisonicPanner) Channels() int {
	return ambisonic.ChannelCount(p.enc.Order())
}

// Point encodes towards world; the listener rotation is applied later.
func (p *AmbisonicPanner) Point(world, _ pose.Vector3) {
	p.enc.SetDirection(ambisonic.AzimuthElevation(world))
}

// SetSourceWidth forwards to the encoder.
func (p *AmbisonicPanner) SetSourceWidth(width float64) {
	p.enc.SetSourceWidth(width)
}

// Settle snaps the encoder gains.
func (p *AmbisonicPanner) Settle() {
	p.enc.Settle()
}

// ProcessBlock encodes src into bus.
func (p *AmbisonicPanner) ProcessBlock(bus [][]float64, src []float64) {
	p.enc.ProcessBlock(bus, src)
}

// Encoder exposes the underlying encoder.
func (p *AmbisonicPanner) Encoder() *ambisonic.Encoder {
	return p.enc
}

// StereoPanner is an equal-power left/right panner working in listener
// axes. Elevation narrows the image towards the centre, as does the source
// width.
type StereoPanner struct {
	pan   float64
	width float64

	gains     [2]float64
	prevGains [2]float64
	scratch   []float64
}

// NewStereoPanner returns a centred panner.
func NewStereoPanner() *StereoPanner {
	p := &StereoPanner{}
	p.update()
	p.prevGains = p.gains
	return p
}

// Channels returns 2.
func (p *StereoPanner) Channels() int {
	return 2
}

// Point pans by the lateral component of local; -x is left.
func (p *StereoPanner) Point(_, local pose.Vector3) {
	p.pan = core.Clamp(local.X(), -1, 1)
	if math.IsNaN(p.pan) {
		p.pan = 0
	}
	p.update()
}

// SetSourceWidth narrows the pan by width/360.
func (p *StereoPanner) SetSourceWidth(width float64) {
	if math.IsNaN(width) {
		width = 0
	}
	p.width = core.Clamp(width, 0, 359)
	p.update()
}

// Gains returns the current left and right gain.
func (p *StereoPanner) Gains() (left, right float64) {
	return p.gains[0], p.gains[1]
}

func (p *StereoPanner) update() {
	pan := p.pan * (1 - p.width/360)
	theta := (pan + 1) * math.Pi / 4
	p.gains = [2]float64{math.Cos(theta), math.Sin(theta)}
}

// Settle snaps both gains to their targets.
func (p *StereoPanner) Settle() {
	p.prevGains = p.gains
}

// ProcessBlock adds src into the left and right channels.
func (p *StereoPanner) ProcessBlock(bus [][]float64, src []float64) {
	p.scratch = core.EnsureLen(p.scratch, len(src))
	for ch := range 2 {
		core.MixRamp(bus[ch], src, p.scratch, p.prevGains[ch], p.gains[ch])
	}
	p.prevGains = p.gains
}

// DirectPanner copies the source into both channels of a stereo bus at unit
// gain, ignoring direction and width.
type DirectPanner struct{}

// NewDirectPanner returns a DirectPanner.
func NewDirectPanner() DirectPanner { return DirectPanner{} }

func (DirectPanner) Channels() int            { return 2 }
func (DirectPanner) Point(_, _ pose.Vector3)  {}
func (DirectPanner) SetSourceWidth(_ float64) {}
func (DirectPanner) Settle()                  {}

// ProcessBlock adds src into both channels.
func (DirectPanner) ProcessBlock(bus [][]float64, src []float64) {
	vecmath.AddBlockInPlace(bus[0], src)
	vecmath.AddBlockInPlace(bus[1], src)
}
