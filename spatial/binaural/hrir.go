package binaural

import (
	"fmt"

	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/ambisonic"
)

// Pair holds the filters of two consecutive ACN channels, 2i in Even and
// 2i+1 in Odd. On disk they are the left and right channel of one stereo
// file. Odd is empty for the last pair of an even-order set.
type Pair struct {
	Even []float64
	Odd  []float64
}

// HRIRSet is an immutable ordered list of HRIR pairs at one sample rate.
type HRIRSet struct {
	pairs      []Pair
	sampleRate float64
}

// PairCount returns the number of stereo pairs an order needs, ceil(K/2).
func PairCount(order int) int {
	return (ambisonic.ChannelCount(order) + 1) / 2
}

// NewHRIRSet deep-copies pairs into a new set. Every pair needs a non-empty
// Even filter.
func NewHRIRSet(pairs []Pair, sampleRate float64) (*HRIRSet, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("binaural: empty HRIR list: %w", spatial.ErrConfiguration)
	}
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("binaural: sample rate must be > 0: %f: %w", sampleRate, spatial.ErrConfiguration)
	}

	s := &HRIRSet{
		pairs:      make([]Pair, len(pairs)),
		sampleRate: sampleRate,
	}
	for i, p := range pairs {
		if len(p.Even) == 0 {
			return nil, fmt.Errorf("binaural: pair %d has no filter: %w", i, spatial.ErrConfiguration)
		}
		s.pairs[i] = Pair{
			Even: append([]float64(nil), p.Even...),
			Odd:  append([]float64(nil), p.Odd...),
		}
	}
	return s, nil
}

// Len returns the number of pairs.
func (s *HRIRSet) Len() int {
	return len(s.pairs)
}

// SampleRate returns the rate the filters were designed or recorded at.
func (s *HRIRSet) SampleRate() float64 {
	return s.sampleRate
}

// Filter returns the filter of ACN channel k, or nil when the set does not
// cover it. The returned slice must not be modified.
func (s *HRIRSet) Filter(k int) []float64 {
	i := k / 2
	if k < 0 || i >= len(s.pairs) {
		return nil
	}
	if k%2 == 0 {
		return s.pairs[i].Even
	}
	if len(s.pairs[i].Odd) == 0 {
		return nil
	}
	return s.pairs[i].Odd
}

// Order returns the highest ambisonic order whose pair count matches the
// set, or 0 when the length fits none.
func (s *HRIRSet) Order() int {
	for order := 1; order <= ambisonic.MaxOrder; order++ {
		if PairCount(order) == len(s.pairs) {
			return order
		}
	}
	return 0
}
