package binaural

import (
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-spatial/dsp/filter/onepole"
	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/ambisonic"
)

// Spherical-head model constants.
const (
	HeadRadius = 0.0875 // m

	defaultLength   = 256
	defaultSpeakers = 50
	onsetSamples    = 8
)

type defaultKey struct {
	order      int
	sampleRate float64
}

var (
	defaultMu   sync.Mutex
	defaultSets = map[defaultKey]*HRIRSet{}
)

// DefaultHRIRSet returns the built-in HRIR set for order at sampleRate. The
// set is synthesised on first use and shared afterwards.
//
// The filters come from a rigid spherical head: every virtual speaker of a
// uniform grid reaches the left ear after the Woodworth path delay and
// through a one-pole shelf modelling head shadow. The speaker responses are
// then projected onto the spherical harmonics of each ACN channel.
func DefaultHRIRSet(order int, sampleRate float64) (*HRIRSet, error) {
	if err := ambisonic.ValidateOrder(order); err != nil {
		return nil, err
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("binaural: sample rate must be > 0 and finite: %f: %w", sampleRate, spatial.ErrConfiguration)
	}

	key := defaultKey{order: order, sampleRate: sampleRate}

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if set, ok := defaultSets[key]; ok {
		return set, nil
	}

	set, err := NewHRIRSet(synthesizePairs(order, sampleRate), sampleRate)
	if err != nil {
		return nil, err
	}
	defaultSets[key] = set

	logrus.WithFields(logrus.Fields{
		"function":    "DefaultHRIRSet",
		"order":       order,
		"sample_rate": sampleRate,
	}).Debug("Synthesised default HRIR set")
	return set, nil
}

func synthesizePairs(order int, sampleRate float64) []Pair {
	k := ambisonic.ChannelCount(order)
	filters := make([][]float64, k)
	for i := range filters {
		filters[i] = make([]float64, defaultLength)
	}

	gains := make([]float64, k)
	ear := make([]float64, defaultLength)
	for _, s := range fibonacciSphere(defaultSpeakers) {
		leftEarResponse(ear, s, sampleRate)

		az := math.Atan2(s[1], s[0]) * 180 / math.Pi
		el := math.Asin(s[2]) * 180 / math.Pi
		ambisonic.Harmonics(gains, az, el)

		for ch := range k {
			l, _ := ambisonic.Degree(ch)
			w := float64(2*l+1) / defaultSpeakers * gains[ch]
			for n, v := range ear {
				filters[ch][n] += w * v
			}
		}
	}

	pairs := make([]Pair, PairCount(order))
	for i := range pairs {
		pairs[i].Even = filters[2*i]
		if 2*i+1 < k {
			pairs[i].Odd = filters[2*i+1]
		}
	}
	return pairs
}

// leftEarResponse writes the left-ear impulse response for a unit direction
// s given as ambisonic (front, left, up) components.
func leftEarResponse(dst []float64, s [3]float64, sampleRate float64) {
	clear(dst)

	// angle between the source and the left ear axis
	theta := math.Acos(math.Min(math.Max(s[1], -1), 1))

	tau := HeadRadius / spatial.SpeedOfSound
	if theta < math.Pi/2 {
		tau *= 1 - math.Cos(theta)
	} else {
		tau *= 1 + theta - math.Pi/2
	}

	pos := onsetSamples + tau*sampleRate
	n := int(pos)
	frac := pos - float64(n)
	if n+1 < len(dst) {
		dst[n] = 1 - frac
		dst[n+1] = frac
	}

	alpha := 1.05 + 0.95*math.Cos(theta*180/150)
	shadow := onepole.NewHeadShadow(alpha, spatial.SpeedOfSound/HeadRadius, sampleRate)
	shadow.ProcessBlock(dst)
}

// fibonacciSphere spreads n nearly uniform unit vectors over the sphere.
func fibonacciSphere(n int) [][3]float64 {
	golden := math.Pi * (3 - math.Sqrt(5))
	out := make([][3]float64, n)
	for i := range out {
		z := 1 - (2*float64(i)+1)/float64(n)
		r := math.Sqrt(1 - z*z)
		phi := float64(i) * golden
		out[i] = [3]float64{r * math.Cos(phi), r * math.Sin(phi), z}
	}
	return out
}
