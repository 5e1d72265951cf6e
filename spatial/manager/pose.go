package manager

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/pose"
)

// PoseMessage is a parsed pose update: position, forward and up as
// numeric tuples in world coordinates.
type PoseMessage struct {
	Position [3]float64 `json:"position"`
	Forward  [3]float64 `json:"forward"`
	Up       [3]float64 `json:"up"`
}

// DefaultPoseMessage is a pose at the origin facing -z with +y up.
func DefaultPoseMessage() PoseMessage {
	return PoseMessage{Forward: pose.Forward, Up: pose.Up}
}

// PoseFromTuple reads 3 values (position only, default orientation) or 9
// values (position, forward, up).
func PoseFromTuple(v []float64) (PoseMessage, error) {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return PoseMessage{}, fmt.Errorf("manager: pose values must be finite: %w", spatial.ErrConfiguration)
		}
	}
	msg := DefaultPoseMessage()
	switch len(v) {
	case 9:
		copy(msg.Forward[:], v[3:6])
		copy(msg.Up[:], v[6:9])
		fallthrough
	case 3:
		copy(msg.Position[:], v[:3])
		return msg, nil
	}
	return PoseMessage{}, fmt.Errorf("manager: pose tuple needs 3 or 9 values, got %d: %w", len(v), spatial.ErrConfiguration)
}

func (m PoseMessage) pose(t float64) pose.Pose {
	return pose.Pose{
		T:        t,
		Position: pose.Vector3(m.Position),
		Forward:  pose.Vector3(m.Forward),
		Up:       pose.Vector3(m.Up),
	}
}
