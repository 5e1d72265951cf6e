package render

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-spatial/spatial"
)

// Mode selects how the ambisonic bus reaches the output.
type Mode int

const (
	// ModeAmbisonic decodes binaurally through the HRIR convolver.
	ModeAmbisonic Mode = iota
	// ModeBypass sends the omnidirectional channel to both ears.
	ModeBypass
	// ModeOff renders silence.
	ModeOff
)

func (m Mode) String() string {
	switch m {
	case ModeAmbisonic:
		return "ambisonic"
	case ModeBypass:
		return "bypass"
	case ModeOff:
		return "off"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "ambisonic", "bypass" and "off", case-insensitively.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ambisonic":
		return ModeAmbisonic, nil
	case "bypass":
		return ModeBypass, nil
	case "off", "none":
		return ModeOff, nil
	}
	return ModeOff, fmt.Errorf("render: unknown rendering mode %q: %w", name, spatial.ErrConfiguration)
}

func (m Mode) valid() bool {
	return m >= ModeAmbisonic && m <= ModeOff
}
