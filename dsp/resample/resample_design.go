package resample

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatial/dsp/window"
)

// designPolyphaseFIR designs a Kaiser-windowed sinc lowpass at the tighter
// of the two Nyquist limits and deals its taps out into up branches. The
// prototype is normalised to a DC gain of up, so every branch has unity gain.
func designPolyphaseFIR(up, down int, p filterParams) ([][]float64, int, error) {
	length := p.tapsPerPhase * up
	cutoff := p.cutoffScale * 0.5 / float64(max(up, down))
	if cutoff <= 0 || cutoff >= 0.5 {
		return nil, 0, fmt.Errorf("resample: invalid cutoff %.6f", cutoff)
	}

	proto, err := window.Kaiser(length, p.kaiserBeta)
	if err != nil {
		return nil, 0, fmt.Errorf("resample: %w", err)
	}

	mid := 0.5 * float64(length-1)
	dc := 0.0
	for i := range proto {
		proto[i] *= 2 * cutoff * sinc(2*cutoff*(float64(i)-mid))
		dc += proto[i]
	}
	if dc == 0 {
		return nil, 0, errors.New("resample: designed zero-sum filter")
	}
	norm := float64(up) / dc

	branches := make([][]float64, up)
	longest := 0
	for ph := range up {
		var b []float64
		for i := ph; i < length; i += up {
			b = append(b, proto[i]*norm)
		}
		branches[ph] = b
		longest = max(longest, len(b))
	}
	return branches, longest, nil
}

// approximateRatio finds the continued-fraction convergent of v with the
// largest denominator not above maxDen.
func approximateRatio(v float64, maxDen int) (num, den int) {
	if maxDen <= 0 {
		maxDen = 4096
	}

	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}

	a0 := math.Floor(v)
	p0, q0 := 1.0, 0.0
	p1, q1 := a0, 1.0
	x := v

	for {
		frac := x - math.Floor(x)
		if frac == 0 {
			break
		}

		x = 1 / frac
		a := math.Floor(x)
		p2 := a*p1 + p0

		q2 := a*q1 + q0
		if q2 > float64(maxDen) {
			break
		}

		p0, q0 = p1, q1
		p1, q1 = p2, q2
	}

	num = int(math.Round(p1))

	den = int(math.Round(q1))
	if den <= 0 {
		return 1, 1
	}

	g := gcd(num, den)

	return num / g, den / g
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}

	if b < 0 {
		b = -b
	}

	for b != 0 {
		a, b = b, a%b
	}

	if a == 0 {
		return 1
	}

	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	pix := math.Pi * x

	return math.Sin(pix) / pix
}
