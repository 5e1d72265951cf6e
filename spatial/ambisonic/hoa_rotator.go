package ambisonic

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

// HOARotator rotates fields of order 2 and 3. The order-1 matrix comes from
// the world rotation; every higher band is derived from band 1 and the band
// below it with the Ivanic-Ruedenberg recursion.
type HOARotator struct {
	order    int
	rotation mgl64.Mat3
	bands    []*bandMixer // index l-1
}

// NewHOARotator returns a rotator for order, clamped to [1, MaxOrder], set
// to the identity.
func NewHOARotator(order int) *HOARotator {
	order = ClampOrder(order)
	r := &HOARotator{order: order, rotation: mgl64.Ident3()}
	for l := 1; l <= order; l++ {
		r.bands = append(r.bands, newBandMixer(l))
	}
	return r
}

// SetRotationMatrix implements Rotator.
func (r *HOARotator) SetRotationMatrix(m mgl64.Mat3) error {
	if err := ValidateRotation(m); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "HOARotator.SetRotationMatrix",
			"order":    r.order,
			"error":    err.Error(),
		}).Warn("Rejected rotation matrix")
		return err
	}

	r.rotation = m
	copyMatrix(r.bands[0].matrix, band1Matrix(m))
	for l := 2; l <= r.order; l++ {
		r.computeBand(l)
	}
	return nil
}

// RotationMatrix implements Rotator.
func (r *HOARotator) RotationMatrix() mgl64.Mat3 { return r.rotation }

// Order implements Rotator.
func (r *HOARotator) Order() int { return r.order }

// Band returns the (2l+1)x(2l+1) matrix of band l indexed [m+l][n+l], or nil
// for bands outside [1, Order()].
func (r *HOARotator) Band(l int) [][]float64 {
	if l < 1 || l > r.order {
		return nil
	}
	return r.bands[l-1].matrix
}

// ProcessBlock implements Rotator.
func (r *HOARotator) ProcessBlock(bus [][]float64) {
	for _, b := range r.bands {
		b.process(bus)
	}
}

// p is the shared term of the U, V and W functions for band l.
func (r *HOARotator) p(i, a, b, l int) float64 {
	r1 := r.bands[0]
	prev := r.bands[l-2]

	switch b {
	case l:
		return r1.at(i, 1)*prev.at(a, l-1) - r1.at(i, -1)*prev.at(a, -l+1)
	case -l:
		return r1.at(i, 1)*prev.at(a, -l+1) + r1.at(i, -1)*prev.at(a, l-1)
	default:
		return r1.at(i, 0) * prev.at(a, b)
	}
}

func (r *HOARotator) u(m, n, l int) float64 {
	return r.p(0, m, n, l)
}

func (r *HOARotator) v(m, n, l int) float64 {
	switch {
	case m == 0:
		return r.p(1, 1, n, l) + r.p(-1, -1, n, l)
	case m > 0:
		d := 0.0
		if m == 1 {
			d = 1
		}
		return r.p(1, m-1, n, l)*math.Sqrt(1+d) - r.p(-1, -m+1, n, l)*(1-d)
	default:
		d := 0.0
		if m == -1 {
			d = 1
		}
		return r.p(1, m+1, n, l)*(1-d) + r.p(-1, -m-1, n, l)*math.Sqrt(1+d)
	}
}

func (r *HOARotator) w(m, n, l int) float64 {
	switch {
	case m > 0:
		return r.p(1, m+1, n, l) + r.p(-1, -m-1, n, l)
	case m < 0:
		return r.p(1, m-1, n, l) - r.p(-1, -m+1, n, l)
	}
	return 0
}

func (r *HOARotator) computeBand(l int) {
	band := r.bands[l-1]
	for m := -l; m <= l; m++ {
		absM := m
		if absM < 0 {
			absM = -absM
		}
		d := 0.0
		if m == 0 {
			d = 1
		}

		for n := -l; n <= l; n++ {
			var denom float64
			if n == l || n == -l {
				denom = float64(2 * l * (2*l - 1))
			} else {
				denom = float64((l + n) * (l - n))
			}

			uc := math.Sqrt(float64((l+m)*(l-m)) / denom)
			vc := 0.5 * (1 - 2*d) * math.Sqrt((1+d)*float64((l+absM-1)*(l+absM))/denom)
			wc := -0.5 * (1 - d) * math.Sqrt(float64((l-absM-1)*(l-absM))/denom)

			// Terms with a zero coefficient would read outside band l-1.
			var value float64
			if uc != 0 {
				value += uc * r.u(m, n, l)
			}
			if vc != 0 {
				value += vc * r.v(m, n, l)
			}
			if wc != 0 {
				value += wc * r.w(m, n, l)
			}
			band.matrix[m+l][n+l] = value
		}
	}
}
