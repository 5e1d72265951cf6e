package ambisonic

import (
	"fmt"

	"github.com/cwbudde/algo-spatial/spatial"
)

// ChannelMap reorders the four first-order channels: input channel i goes
// to ACN channel m[i]. ChannelMapFuMa thus turns W X Y Z into W Y Z X.
type ChannelMap [4]int

// Predefined channel maps.
var (
	ChannelMapACN  = ChannelMap{0, 1, 2, 3}
	ChannelMapFuMa = ChannelMap{0, 3, 1, 2}
)

// ParseChannelMap validates a caller-supplied map. It must be a permutation
// of 0..3.
func ParseChannelMap(m []int) (ChannelMap, error) {
	var cm ChannelMap
	if len(m) != len(cm) {
		return cm, fmt.Errorf("ambisonic: channel map needs 4 entries, got %d: %w", len(m), spatial.ErrConfiguration)
	}
	var seen [4]bool
	for i, c := range m {
		if c < 0 || c > 3 || seen[c] {
			return cm, fmt.Errorf("ambisonic: channel map %v is not a permutation of 0..3: %w", m, spatial.ErrConfiguration)
		}
		seen[c] = true
		cm[i] = c
	}
	return cm, nil
}

// Router permutes the first four channels of a bus.
type Router struct {
	channelMap ChannelMap
	scratch    [4][]float64
}

// NewRouter returns a router for m.
func NewRouter(m ChannelMap) (*Router, error) {
	if _, err := ParseChannelMap(m[:]); err != nil {
		return nil, err
	}
	return &Router{channelMap: m}, nil
}

// ChannelMap returns the active map.
func (r *Router) ChannelMap() ChannelMap {
	return r.channelMap
}

// SetChannelMap replaces the map, keeping the previous one on error.
func (r *Router) SetChannelMap(m ChannelMap) error {
	if _, err := ParseChannelMap(m[:]); err != nil {
		return err
	}
	r.channelMap = m
	return nil
}

// ProcessBlock reorders bus[0..3] in place.
func (r *Router) ProcessBlock(bus [][]float64) {
	if r.channelMap == ChannelMapACN {
		return
	}
	for i := range r.scratch {
		r.scratch[i] = append(r.scratch[i][:0], bus[i]...)
	}
	for i, dst := range r.channelMap {
		copy(bus[dst], r.scratch[i])
	}
}
