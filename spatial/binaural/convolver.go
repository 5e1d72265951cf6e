package binaural

import (
	"errors"
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-spatial/dsp/conv"
	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/ambisonic"
)

// ErrChannelMismatch is returned when a bus does not carry the channels of
// the convolver's order.
var ErrChannelMismatch = errors.New("binaural: bus channel count mismatch")

// Convolver renders an ambisonic bus of one order to a stereo pair.
//
// The HRIR set is assigned once. Until then, and while disabled, the output
// is silent. Convolution energy is used exactly as stored in the set.
type Convolver struct {
	order     int
	channels  int
	blockSize int

	set   *HRIRSet
	convs []*conv.Partitioned

	enabled bool
	stale   bool

	scratch []float64
	pos     []float64
	neg     []float64
}

// NewConvolver returns an enabled convolver without filters. blockSize must
// be a power of two.
func NewConvolver(order, blockSize int) (*Convolver, error) {
	if err := ambisonic.ValidateOrder(order); err != nil {
		return nil, err
	}
	if blockSize <= 0 || blockSize&(blockSize-1) != 0 {
		return nil, fmt.Errorf("binaural: block size must be a power of two: %d: %w", blockSize, spatial.ErrConfiguration)
	}

	return &Convolver{
		order:     order,
		channels:  ambisonic.ChannelCount(order),
		blockSize: blockSize,
		enabled:   true,
		scratch:   make([]float64, blockSize),
		pos:       make([]float64, blockSize),
		neg:       make([]float64, blockSize),
	}, nil
}

// Order returns the ambisonic order.
func (c *Convolver) Order() int {
	return c.order
}

// SetHRIRSet assigns the filters. It reports whether the set was taken: a
// set of the wrong length is rejected with ErrConfiguration, and any call
// after the first successful one is ignored.
func (c *Convolver) SetHRIRSet(set *HRIRSet) (bool, error) {
	if c.set != nil {
		logrus.WithFields(logrus.Fields{
			"function": "SetHRIRSet",
			"order":    c.order,
		}).Debug("HRIR set already assigned, ignoring")
		return false, nil
	}
	if set == nil {
		return false, fmt.Errorf("binaural: nil HRIR set: %w", spatial.ErrConfiguration)
	}
	if want := PairCount(c.order); set.Len() != want {
		err := fmt.Errorf("binaural: order %d needs %d HRIR pairs, got %d: %w", c.order, want, set.Len(), spatial.ErrConfiguration)
		logrus.WithFields(logrus.Fields{
			"function": "SetHRIRSet",
			"error":    err,
		}).Error("Rejecting HRIR set")
		return false, err
	}

	convs := make([]*conv.Partitioned, c.channels)
	for k := range convs {
		kernel := set.Filter(k)
		if kernel == nil {
			return false, fmt.Errorf("binaural: no filter for channel %d: %w", k, spatial.ErrConfiguration)
		}
		p, err := conv.NewPartitioned(kernel, c.blockSize)
		if err != nil {
			return false, fmt.Errorf("binaural: channel %d: %w", k, err)
		}
		convs[k] = p
	}

	c.set = set
	c.convs = convs
	logrus.WithFields(logrus.Fields{
		"function": "SetHRIRSet",
		"order":    c.order,
		"pairs":    set.Len(),
	}).Info("HRIR set assigned")
	return true, nil
}

// HRIRSet returns the assigned set, or nil.
func (c *Convolver) HRIRSet() *HRIRSet {
	return c.set
}

// Loaded reports whether filters have been assigned.
func (c *Convolver) Loaded() bool {
	return c.set != nil
}

// Enable connects the convolver to its output. Repeated calls are no-ops.
func (c *Convolver) Enable() {
	if c.enabled {
		return
	}
	c.enabled = true
	c.stale = true
}

// Disable disconnects the convolver; ProcessBlock then writes silence and
// skips all convolution work. Repeated calls are no-ops.
func (c *Convolver) Disable() {
	c.enabled = false
}

// Enabled reports whether the convolver is connected.
func (c *Convolver) Enabled() bool {
	return c.enabled
}

// Reset clears the convolution history.
func (c *Convolver) Reset() {
	for _, p := range c.convs {
		p.Reset()
	}
	c.stale = false
}

// ProcessBlock renders bus into left and right, overwriting both. The bus
// must hold at least the order's channel count, every slice BlockSize long.
func (c *Convolver) ProcessBlock(bus [][]float64, left, right []float64) error {
	if !c.enabled || c.set == nil {
		clear(left)
		clear(right)
		return nil
	}
	if len(bus) < c.channels {
		return fmt.Errorf("%w: order %d needs %d channels, got %d", ErrChannelMismatch, c.order, c.channels, len(bus))
	}
	if len(left) != c.blockSize || len(right) != c.blockSize {
		return fmt.Errorf("%w: outputs must hold %d samples", conv.ErrLengthMismatch, c.blockSize)
	}
	if c.stale {
		c.Reset()
	}

	clear(c.pos)
	clear(c.neg)
	for k, p := range c.convs {
		if err := p.ProcessBlockTo(c.scratch, bus[k]); err != nil {
			return fmt.Errorf("binaural: channel %d: %w", k, err)
		}
		if _, m := ambisonic.Degree(k); m < 0 {
			vecmath.AddBlockInPlace(c.neg, c.scratch)
		} else {
			vecmath.AddBlockInPlace(c.pos, c.scratch)
		}
	}

	vecmath.AddBlock(left, c.pos, c.neg)
	vecmath.ScaleBlock(right, c.neg, -1)
	vecmath.AddBlockInPlace(right, c.pos)
	return nil
}
