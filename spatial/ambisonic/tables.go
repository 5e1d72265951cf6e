package ambisonic

import (
	"math"
	"sync"
)

// Table resolutions. Directions and widths are quantised to whole degrees.
const (
	azimuthRows   = 360
	elevationRows = 181
	widthRows     = 360

	azimuthCols   = 2 * MaxOrder
	elevationCols = MaxOrder * (MaxOrder + 3) / 2
)

type shTables struct {
	// sin(|m|az) for m<0 in columns [0, MaxOrder), cos(m az) for m>0 above.
	azimuth [azimuthRows][azimuthCols]float64
	// SN3D associated Legendre P_l^|m|(sin el), column l(l+1)/2+|m|-1.
	elevation [elevationRows][elevationCols]float64
	// per-order weights for a source spread of `row` degrees
	maxRe [widthRows][MaxOrder + 1]float64
}

var (
	tables     *shTables
	tablesOnce sync.Once
)

func getTables() *shTables {
	tablesOnce.Do(func() {
		tables = buildTables()
	})
	return tables
}

func buildTables() *shTables {
	t := &shTables{}

	for row := range azimuthRows {
		az := float64(row) * math.Pi / 180
		for col := range azimuthCols {
			if col < MaxOrder {
				t.azimuth[row][col] = math.Sin(float64(MaxOrder-col) * az)
			} else {
				t.azimuth[row][col] = math.Cos(float64(col-MaxOrder+1) * az)
			}
		}
	}

	for row := range elevationRows {
		s := math.Sin(float64(row-90) * math.Pi / 180)
		for l := 1; l <= MaxOrder; l++ {
			for m := 0; m <= l; m++ {
				t.elevation[row][elevationIndex(l, m)] = sn3d(l, m) * legendre(l, m, s)
			}
		}
	}

	for row := range widthRows {
		t.maxRe[row] = capWeights(float64(row))
	}

	return t
}

func elevationIndex(l, absM int) int {
	return l*(l+1)/2 + absM - 1
}

func azimuthIndex(m int) int {
	if m < 0 {
		return MaxOrder + m
	}
	return MaxOrder + m - 1
}

// legendre evaluates the associated Legendre function P_l^m(x) without the
// Condon-Shortley phase.
func legendre(l, m int, x float64) float64 {
	pmm := 1.0
	if m > 0 {
		s := math.Sqrt(math.Max(0, 1-x*x))
		f := 1.0
		for range m {
			pmm *= f * s
			f += 2
		}
	}
	if l == m {
		return pmm
	}

	pmm1 := x * float64(2*m+1) * pmm
	if l == m+1 {
		return pmm1
	}

	for ll := m + 2; ll <= l; ll++ {
		pll := (float64(2*ll-1)*x*pmm1 - float64(ll+m-1)*pmm) / float64(ll-m)
		pmm, pmm1 = pmm1, pll
	}
	return pmm1
}

func sn3d(l, m int) float64 {
	delta := 0.0
	if m == 0 {
		delta = 1
	}
	ratio := 1.0
	for k := l - m + 1; k <= l+m; k++ {
		ratio /= float64(k)
	}
	return math.Sqrt((2 - delta) * ratio)
}

// capWeights returns the per-order gains that smooth a point source into a
// spherical cap of the given angular spread. Order 0 is always 1; a zero
// spread leaves every order at 1 and a full sphere leaves only order 0.
func capWeights(spreadDeg float64) [MaxOrder + 1]float64 {
	var w [MaxOrder + 1]float64
	w[0] = 1

	c := math.Cos(spreadDeg / 2 * math.Pi / 180)
	if 1-c < 1e-12 {
		for l := range w {
			w[l] = 1
		}
		return w
	}

	for l := 1; l <= MaxOrder; l++ {
		g := (legendre(l-1, 0, c) - legendre(l+1, 0, c)) / (float64(2*l+1) * (1 - c))
		w[l] = math.Min(math.Max(g, 0), 1)
	}
	return w
}

// MaxReWeights returns the per-order weight row for a source width in
// degrees. Widths are rounded and clamped to [0, 359].
func MaxReWeights(width float64) [MaxOrder + 1]float64 {
	return getTables().maxRe[widthIndex(width)]
}

func widthIndex(width float64) int {
	if math.IsNaN(width) {
		return 0
	}
	return int(math.Min(math.Max(math.Round(width), 0), widthRows-1))
}

// Harmonics writes the unweighted SN3D spherical harmonics of every channel
// in dst for an exact direction in degrees, without table rounding. len(dst)
// selects the order and must be a channel count of order 1..MaxOrder.
func Harmonics(dst []float64, azimuth, elevation float64) {
	az := azimuth * math.Pi / 180
	s := math.Sin(elevation * math.Pi / 180)

	dst[0] = 1
	for k := 1; k < len(dst); k++ {
		l, m := Degree(k)
		absM := m
		if m < 0 {
			absM = -m
		}
		g := sn3d(l, absM) * legendre(l, absM, s)
		switch {
		case m < 0:
			g *= math.Sin(float64(absM) * az)
		case m > 0:
			g *= math.Cos(float64(m) * az)
		}
		dst[k] = g
	}
}
