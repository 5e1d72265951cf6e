package source

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Rolloff selects the distance attenuation curve.
type Rolloff int

const (
	RolloffLogarithmic Rolloff = iota
	RolloffLinear
	RolloffNone
)

func (r Rolloff) String() string {
	switch r {
	case RolloffLogarithmic:
		return "logarithmic"
	case RolloffLinear:
		return "linear"
	case RolloffNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseRolloff maps a name to a Rolloff. Unknown names fall back to
// logarithmic with a warning.
func ParseRolloff(name string) Rolloff {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "logarithmic", "log":
		return RolloffLogarithmic
	case "linear":
		return RolloffLinear
	case "none":
		return RolloffNone
	}
	logrus.WithFields(logrus.Fields{
		"function": "ParseRolloff",
		"rolloff":  name,
	}).Warn("Unknown rolloff, using logarithmic")
	return RolloffLogarithmic
}
