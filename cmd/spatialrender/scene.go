package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/cwbudde/algo-spatial/spatial/manager"
	"github.com/cwbudde/algo-spatial/spatial/output"
	"github.com/cwbudde/algo-spatial/spatial/room"
)

// Scene is the JSON description of an offline render.
type Scene struct {
	SampleRate     float64     `json:"sampleRate"`
	BlockSize      int         `json:"blockSize"`
	Backend        string      `json:"backend"`
	Seconds        float64     `json:"seconds"`
	TransitionTime *float64    `json:"transitionTime"`
	MinDistance    float64     `json:"minDistance"`
	MaxDistance    float64     `json:"maxDistance"`
	Rolloff        string      `json:"rolloff"`
	Room           *SceneRoom  `json:"room"`
	Ambience       string      `json:"ambience"`
	Listener       []Keyframe  `json:"listener"`
	Sources        []SceneItem `json:"sources"`
}

// SceneRoom sets the room size and wall materials. Material applies to
// every wall not named in Walls.
type SceneRoom struct {
	Width    float64           `json:"width"`
	Height   float64           `json:"height"`
	Depth    float64           `json:"depth"`
	Material string            `json:"material"`
	Walls    map[string]string `json:"walls"`
}

// Keyframe is a pose update sent at time T. The pose then moves towards it
// over the scene transition time.
type Keyframe struct {
	T        float64     `json:"t"`
	Position [3]float64  `json:"position"`
	Forward  *[3]float64 `json:"forward"`
	Up       *[3]float64 `json:"up"`
}

// SceneItem is one source. Audio comes from a WAV stem or a test tone.
type SceneItem struct {
	ID          string     `json:"id"`
	WAV         string     `json:"wav"`
	Tone        *Tone      `json:"tone"`
	Loop        bool       `json:"loop"`
	Gain        *float64   `json:"gain"`
	Width       float64    `json:"width"`
	Directivity *Pattern   `json:"directivity"`
	Keyframes   []Keyframe `json:"keyframes"`
}

// Tone is a sine test signal.
type Tone struct {
	Frequency float64 `json:"frequency"`
	Amplitude float64 `json:"amplitude"`
}

// Pattern is a source directivity shape.
type Pattern struct {
	Alpha     float64 `json:"alpha"`
	Sharpness float64 `json:"sharpness"`
}

// LoadScene reads and validates a scene file. Relative WAV paths, the
// ambience included, are
// resolved against the file's directory.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseScene(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if s.Ambience != "" && !filepath.IsAbs(s.Ambience) {
		s.Ambience = filepath.Join(dir, s.Ambience)
	}
	for i := range s.Sources {
		if w := s.Sources[i].WAV; w != "" && !filepath.IsAbs(w) {
			s.Sources[i].WAV = filepath.Join(dir, w)
		}
	}
	return s, nil
}

// ParseScene decodes a scene and fills in defaults.
func ParseScene(data []byte) (*Scene, error) {
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	if s.SampleRate == 0 {
		s.SampleRate = 48000
	}
	if s.BlockSize == 0 {
		s.BlockSize = 512
	}
	if s.Backend == "" {
		s.Backend = "scene"
	}

	seen := make(map[string]bool, len(s.Sources))
	for i, src := range s.Sources {
		if src.ID == "" {
			return nil, fmt.Errorf("scene: source %d has no id", i)
		}
		if seen[src.ID] {
			return nil, fmt.Errorf("scene: duplicate source id %q", src.ID)
		}
		seen[src.ID] = true
		if (src.WAV == "") == (src.Tone == nil) {
			return nil, fmt.Errorf("scene: source %q needs exactly one of wav or tone", src.ID)
		}
		sortKeyframes(s.Sources[i].Keyframes)
	}
	sortKeyframes(s.Listener)
	return &s, nil
}

func sortKeyframes(k []Keyframe) {
	slices.SortStableFunc(k, func(a, b Keyframe) int {
		switch {
		case a.T < b.T:
			return -1
		case a.T > b.T:
			return 1
		}
		return 0
	})
}

// Message converts k to a manager pose message.
func (k Keyframe) Message() manager.PoseMessage {
	msg := manager.DefaultPoseMessage()
	msg.Position = k.Position
	if k.Forward != nil {
		msg.Forward = *k.Forward
	}
	if k.Up != nil {
		msg.Up = *k.Up
	}
	return msg
}

// Geometry returns the room size and materials.
func (r *SceneRoom) Geometry() (room.Geometry, room.Materials) {
	g := room.Geometry{Width: r.Width, Height: r.Height, Depth: r.Depth}
	base := r.Material
	if base == "" {
		base = room.MaterialTransparent
	}
	m := room.UniformMaterials(base)
	for wall, name := range r.Walls {
		switch wall {
		case "left":
			m.Left = name
		case "right":
			m.Right = name
		case "front":
			m.Front = name
		case "back":
			m.Back = name
		case "down", "floor":
			m.Down = name
		case "up", "ceiling":
			m.Up = name
		}
	}
	return g, m
}

// Stream opens the source audio at sampleRate.
func (it SceneItem) Stream(sampleRate float64) (output.CaptureStream, func() error, error) {
	if it.Tone != nil {
		// One second loops without a seam for integer frequencies.
		tone := make([]float64, int(sampleRate))
		for i := range tone {
			tone[i] = it.Tone.Amplitude * math.Sin(2*math.Pi*it.Tone.Frequency*float64(i)/sampleRate)
		}
		return output.NewSliceStream(tone, true), func() error { return nil }, nil
	}

	f, err := os.Open(it.WAV)
	if err != nil {
		return nil, nil, err
	}
	s, err := output.NewWAVStream(f, int(sampleRate))
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s: %w", it.WAV, err)
	}
	if !it.Loop {
		return s, f.Close, nil
	}
	return &loopingWAV{f: f, s: s, rate: int(sampleRate)}, f.Close, nil
}

// loopingWAV rewinds a WAV stream when it ends.
type loopingWAV struct {
	f    *os.File
	s    *output.WAVStream
	rate int
}

// ReadSamples reads from the current pass, reopening the file at its end.
func (l *loopingWAV) ReadSamples(dst []float64) (int, error) {
	n, err := l.s.ReadSamples(dst)
	if err == nil || n > 0 {
		return n, nil
	}
	if _, serr := l.f.Seek(0, 0); serr != nil {
		return 0, serr
	}
	s, serr := output.NewWAVStream(l.f, l.rate)
	if serr != nil {
		return 0, serr
	}
	l.s = s
	return l.s.ReadSamples(dst)
}
