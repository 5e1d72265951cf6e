package room

import (
	"slices"

	"github.com/sirupsen/logrus"
)

// Bands is the number of octave bands of the acoustic model.
const Bands = 9

// BandFrequencies are the octave band centres in Hz, 31.25 Hz times 2^i.
var BandFrequencies = [Bands]float64{31.25, 62.5, 125, 250, 500, 1000, 2000, 4000, 8000}

// Wall indexes the six faces of the room.
type Wall int

const (
	Left Wall = iota
	Right
	Front
	Back
	Down
	Up

	wallCount = 6
)

var wallNames = [wallCount]string{"left", "right", "front", "back", "down", "up"}

func (w Wall) String() string {
	if w < 0 || w >= wallCount {
		return "unknown"
	}
	return wallNames[w]
}

// Material names understood by the room model.
const (
	MaterialTransparent = "transparent"
	MaterialUniform     = "uniform"
)

// absorption per material and band. Transparent walls absorb everything,
// i.e. they are open air.
var absorption = map[string][Bands]float64{
	"transparent":               {1, 1, 1, 1, 1, 1, 1, 1, 1},
	"acoustic-ceiling-tiles":    {0.672, 0.675, 0.700, 0.660, 0.720, 0.920, 0.880, 0.750, 1.000},
	"brick-bare":                {0.030, 0.030, 0.030, 0.030, 0.030, 0.040, 0.050, 0.070, 0.140},
	"brick-painted":             {0.006, 0.007, 0.010, 0.010, 0.020, 0.020, 0.020, 0.030, 0.060},
	"concrete-block-coarse":     {0.360, 0.360, 0.360, 0.440, 0.310, 0.290, 0.390, 0.250, 0.500},
	"concrete-block-painted":    {0.092, 0.090, 0.100, 0.050, 0.060, 0.070, 0.090, 0.080, 0.160},
	"curtain-heavy":             {0.073, 0.106, 0.140, 0.350, 0.550, 0.720, 0.700, 0.650, 1.000},
	"fiber-glass-insulation":    {0.193, 0.220, 0.220, 0.820, 0.990, 0.990, 0.990, 0.990, 1.000},
	"glass-thin":                {0.180, 0.169, 0.180, 0.060, 0.040, 0.030, 0.020, 0.020, 0.040},
	"glass-thick":               {0.350, 0.350, 0.350, 0.250, 0.180, 0.120, 0.070, 0.040, 0.080},
	"grass":                     {0.050, 0.050, 0.150, 0.250, 0.400, 0.550, 0.600, 0.600, 0.600},
	"linoleum-on-concrete":      {0.020, 0.020, 0.020, 0.030, 0.030, 0.030, 0.030, 0.020, 0.040},
	"marble":                    {0.010, 0.010, 0.010, 0.010, 0.010, 0.010, 0.020, 0.020, 0.040},
	"metal":                     {0.030, 0.035, 0.040, 0.040, 0.050, 0.050, 0.050, 0.070, 0.090},
	"parquet-on-concrete":       {0.028, 0.030, 0.040, 0.040, 0.070, 0.060, 0.060, 0.070, 0.140},
	"plaster-rough":             {0.017, 0.018, 0.020, 0.030, 0.040, 0.050, 0.040, 0.030, 0.060},
	"plaster-smooth":            {0.011, 0.012, 0.013, 0.015, 0.020, 0.030, 0.040, 0.050, 0.100},
	"plywood-panel":             {0.400, 0.340, 0.280, 0.220, 0.170, 0.090, 0.100, 0.110, 0.220},
	"polished-concrete-or-tile": {0.008, 0.008, 0.010, 0.010, 0.015, 0.020, 0.020, 0.020, 0.040},
	"sheet-rock":                {0.290, 0.279, 0.290, 0.100, 0.050, 0.040, 0.070, 0.090, 0.180},
	"water-or-ice-surface":      {0.006, 0.006, 0.008, 0.008, 0.013, 0.015, 0.020, 0.025, 0.050},
	"wood-ceiling":              {0.150, 0.147, 0.150, 0.110, 0.100, 0.070, 0.060, 0.070, 0.140},
	"wood-panel":                {0.280, 0.280, 0.280, 0.220, 0.170, 0.090, 0.100, 0.110, 0.220},
	"uniform":                   {0.500, 0.500, 0.500, 0.500, 0.500, 0.500, 0.500, 0.500, 0.500},
}

// Absorption returns the band absorption coefficients of a material.
func Absorption(name string) ([Bands]float64, bool) {
	a, ok := absorption[name]
	return a, ok
}

// MaterialNames returns all known material names, sorted.
func MaterialNames() []string {
	names := make([]string, 0, len(absorption))
	for name := range absorption {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Materials assigns a material name to each wall.
type Materials struct {
	Left, Right, Front, Back, Down, Up string
}

// UniformMaterials uses name on every wall.
func UniformMaterials(name string) Materials {
	return Materials{name, name, name, name, name, name}
}

// DefaultMaterials is an open space: every wall transparent.
func DefaultMaterials() Materials {
	return UniformMaterials(MaterialTransparent)
}

// Name returns the material of wall w.
func (m Materials) Name(w Wall) string {
	switch w {
	case Left:
		return m.Left
	case Right:
		return m.Right
	case Front:
		return m.Front
	case Back:
		return m.Back
	case Down:
		return m.Down
	case Up:
		return m.Up
	}
	return ""
}

// Coefficients returns the absorption table of every wall. Unknown names
// are treated as transparent and logged.
func (m Materials) Coefficients() [wallCount][Bands]float64 {
	var out [wallCount][Bands]float64
	for w := range Wall(wallCount) {
		name := m.Name(w)
		a, ok := absorption[name]
		if !ok {
			logrus.WithFields(logrus.Fields{
				"function": "Coefficients",
				"wall":     w.String(),
				"material": name,
			}).Warn("Unknown material, using transparent")
			a = absorption[MaterialTransparent]
		}
		out[w] = a
	}
	return out
}
