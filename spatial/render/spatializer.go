package render

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/binaural"
	"github.com/cwbudde/algo-spatial/spatial/pose"
	"github.com/cwbudde/algo-spatial/spatial/source"
)

// Spatializer errors.
var (
	ErrSourceExists  = errors.New("render: source already exists")
	ErrUnknownSource = errors.New("render: unknown source")
)

// DefaultTransitionTime is the pose interpolation window, in seconds.
const DefaultTransitionTime = 0.1

// AudioProperties are the distance model defaults shared by every source.
type AudioProperties struct {
	MinDistance    float64
	MaxDistance    float64
	Rolloff        source.Rolloff
	TransitionTime float64
}

// DefaultAudioProperties returns the source defaults.
func DefaultAudioProperties() AudioProperties {
	return AudioProperties{
		MinDistance:    source.DefaultMinDistance,
		MaxDistance:    source.DefaultMaxDistance,
		Rolloff:        source.RolloffLogarithmic,
		TransitionTime: DefaultTransitionTime,
	}
}

// clamped returns p with invalid fields replaced by defaults.
func (p AudioProperties) clamped() AudioProperties {
	d := DefaultAudioProperties()
	if !(p.MinDistance >= 0) || math.IsInf(p.MinDistance, 0) {
		p.MinDistance = d.MinDistance
	}
	if !(p.MaxDistance > 0) {
		p.MaxDistance = d.MaxDistance
	}
	p.MaxDistance = math.Max(p.MaxDistance, p.MinDistance)
	if !(p.TransitionTime >= 0) || math.IsInf(p.TransitionTime, 0) {
		p.TransitionTime = d.TransitionTime
	}
	return p
}

// Kind selects a spatializer backend.
type Kind int

const (
	// KindScene renders through an ambisonic scene with room acoustics.
	KindScene Kind = iota
	// KindPanner pans each source in stereo with distance attenuation.
	KindPanner
	// KindDirect mixes sources without spatialisation.
	KindDirect
)

func (k Kind) String() string {
	switch k {
	case KindScene:
		return "scene"
	case KindPanner:
		return "panner"
	case KindDirect:
		return "direct"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts "scene", "panner" and "direct".
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "scene", "ambisonic":
		return KindScene, nil
	case "panner", "stereo":
		return KindPanner, nil
	case "direct":
		return KindDirect, nil
	}
	return KindDirect, fmt.Errorf("render: unknown spatializer %q: %w", name, spatial.ErrConfiguration)
}

// Spatializer renders a set of sources, keyed by id, for one listener.
type Spatializer interface {
	Kind() Kind
	// Initialize starts any asynchronous setup. The future resolves with a
	// nil set for backends that need no HRIRs.
	Initialize(ctx context.Context) *binaural.Future
	SetAudioProperties(p AudioProperties)
	AudioProperties() AudioProperties
	CreateSource(id string) (*source.Source, error)
	RemoveSource(id string) error
	Source(id string) (*source.Source, bool)
	// Update recomputes every source for the listener pose.
	Update(listener pose.Pose)
	// Render processes one block per source id present in inputs and
	// writes the mix to left and right.
	Render(inputs map[string][]float64, left, right []float64) error
	Dispose()
}

// NewSpatializer builds the backend for kind. Renderer options only apply
// to KindScene, except WithProcessor which sets the block size of every
// backend.
func NewSpatializer(kind Kind, opts ...Option) (Spatializer, error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	var s Spatializer
	switch kind {
	case KindScene:
		s, err = NewSceneSpatializer(cfg)
	case KindPanner:
		s, err = NewPannerSpatializer(cfg.Processor)
	case KindDirect:
		s, err = NewDirectSpatializer(cfg.Processor)
	default:
		err = fmt.Errorf("render: invalid spatializer kind %d: %w", int(kind), spatial.ErrConfiguration)
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewSpatializer",
		"kind":     kind.String(),
	}).Info("Spatializer selected")
	return s, nil
}

// sourceSet is the bookkeeping shared by all backends.
type sourceSet struct {
	cfg     core.ProcessorConfig
	props   AudioProperties
	sources map[string]*source.Source
	newFn   func() (*source.Source, error)
}

func newSourceSet(cfg core.ProcessorConfig, newFn func() (*source.Source, error)) sourceSet {
	return sourceSet{
		cfg:     cfg,
		props:   DefaultAudioProperties(),
		sources: make(map[string]*source.Source),
		newFn:   newFn,
	}
}

func (s *sourceSet) SetAudioProperties(p AudioProperties) {
	s.props = p.clamped()
	for _, src := range s.sources {
		s.applyProperties(src)
	}
}

func (s *sourceSet) AudioProperties() AudioProperties {
	return s.props
}

func (s *sourceSet) applyProperties(src *source.Source) {
	src.SetMinDistance(s.props.MinDistance)
	src.SetMaxDistance(s.props.MaxDistance)
	src.SetRolloff(s.props.Rolloff)
}

func (s *sourceSet) CreateSource(id string) (*source.Source, error) {
	if _, ok := s.sources[id]; ok {
		return nil, fmt.Errorf("%w: %q", ErrSourceExists, id)
	}
	src, err := s.newFn()
	if err != nil {
		return nil, err
	}
	s.applyProperties(src)
	s.sources[id] = src
	return src, nil
}

func (s *sourceSet) RemoveSource(id string) error {
	if _, ok := s.sources[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSource, id)
	}
	delete(s.sources, id)
	return nil
}

func (s *sourceSet) Source(id string) (*source.Source, bool) {
	src, ok := s.sources[id]
	return src, ok
}

func (s *sourceSet) update(listener pose.Pose) {
	for _, src := range s.sources {
		src.Update(listener)
	}
}

// process runs every source that has input this block. Sources are visited
// in id order so the floating-point mix is reproducible.
func (s *sourceSet) process(inputs map[string][]float64, out source.Output) error {
	for _, id := range slices.Sorted(maps.Keys(s.sources)) {
		in, ok := inputs[id]
		if !ok || in == nil {
			continue
		}
		if err := s.sources[id].Process(in, out); err != nil {
			return fmt.Errorf("render: source %q: %w", id, err)
		}
	}
	return nil
}

func (s *sourceSet) checkOutputs(left, right []float64) error {
	n := s.cfg.BlockSize
	if len(left) != n || len(right) != n {
		return fmt.Errorf("render: outputs must hold %d samples, got %d and %d: %w", n, len(left), len(right), spatial.ErrConfiguration)
	}
	return nil
}

func (s *sourceSet) dispose() {
	clear(s.sources)
}

// SceneSpatializer renders sources through an ambisonic Renderer with room
// acoustics and binaural decoding.
type SceneSpatializer struct {
	sourceSet
	renderer *Renderer
}

// NewSceneSpatializer builds a Renderer from cfg.
func NewSceneSpatializer(cfg Config) (*SceneSpatializer, error) {
	r, err := NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &SceneSpatializer{
		sourceSet: newSourceSet(cfg.Processor, r.NewSource),
		renderer:  r,
	}, nil
}

func (s *SceneSpatializer) Kind() Kind { return KindScene }

// Renderer returns the underlying scene renderer.
func (s *SceneSpatializer) Renderer() *Renderer { return s.renderer }

// Initialize starts loading the renderer's HRIRs.
func (s *SceneSpatializer) Initialize(ctx context.Context) *binaural.Future {
	return s.renderer.Initialize(ctx)
}

// Update moves the listener and recomputes every source.
func (s *SceneSpatializer) Update(listener pose.Pose) {
	s.renderer.SetListenerPose(listener)
	s.update(listener)
}

// Render encodes every source into the renderer's bus and decodes one
// binaural block.
func (s *SceneSpatializer) Render(inputs map[string][]float64, left, right []float64) error {
	if err := s.checkOutputs(left, right); err != nil {
		return err
	}
	if s.renderer.Disposed() {
		return s.renderer.Render(left, right)
	}
	if err := s.process(inputs, s.renderer.Output()); err != nil {
		return err
	}
	return s.renderer.Render(left, right)
}

// Dispose releases the renderer and all sources.
func (s *SceneSpatializer) Dispose() {
	s.renderer.Dispose()
	s.dispose()
}

// stereoSpatializer mixes sources into a two-channel bus.
type stereoSpatializer struct {
	sourceSet
	bus     [][]float64
	updates bool
}

func (s *stereoSpatializer) Initialize(context.Context) *binaural.Future {
	return binaural.Resolved(nil, nil)
}

// Update recomputes every source for listener.
func (s *stereoSpatializer) Update(listener pose.Pose) {
	if s.updates {
		s.update(listener)
	}
}

// Render mixes one block of every source into left and right.
func (s *stereoSpatializer) Render(inputs map[string][]float64, left, right []float64) error {
	if err := s.checkOutputs(left, right); err != nil {
		return err
	}
	core.ZeroPlanar(s.bus)
	if err := s.process(inputs, source.Output{Bus: s.bus}); err != nil {
		return err
	}
	copy(left, s.bus[0])
	copy(right, s.bus[1])
	return nil
}

func (s *stereoSpatializer) Dispose() {
	s.dispose()
}

// PannerSpatializer pans every source with an equal-power stereo panner
// and distance attenuation. There is no room model.
type PannerSpatializer struct {
	stereoSpatializer
}

// NewPannerSpatializer returns an empty panner backend.
func NewPannerSpatializer(cfg core.ProcessorConfig) (*PannerSpatializer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w: %w", spatial.ErrConfiguration, err)
	}
	newFn := func() (*source.Source, error) {
		return source.New(source.NewStereoPanner(), source.RoutingDirect, cfg)
	}
	return &PannerSpatializer{stereoSpatializer{
		sourceSet: newSourceSet(cfg, newFn),
		bus:       core.NewPlanar(2, cfg.BlockSize),
		updates:   true,
	}}, nil
}

func (s *PannerSpatializer) Kind() Kind { return KindPanner }

// DirectSpatializer mixes every source into both ears at its own gain,
// ignoring poses and distance.
type DirectSpatializer struct {
	stereoSpatializer
}

// NewDirectSpatializer returns an empty direct backend.
func NewDirectSpatializer(cfg core.ProcessorConfig) (*DirectSpatializer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w: %w", spatial.ErrConfiguration, err)
	}
	newFn := func() (*source.Source, error) {
		return source.New(source.NewDirectPanner(), source.RoutingDirect, cfg)
	}
	return &DirectSpatializer{stereoSpatializer{
		sourceSet: newSourceSet(cfg, newFn),
		bus:       core.NewPlanar(2, cfg.BlockSize),
	}}, nil
}

func (s *DirectSpatializer) Kind() Kind { return KindDirect }
