package render

import (
	"fmt"
	"io/fs"
	"math"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/ambisonic"
	"github.com/cwbudde/algo-spatial/spatial/binaural"
	"github.com/cwbudde/algo-spatial/spatial/room"
)

// DefaultOrder is the ambisonic order used unless WithAmbisonicOrder is
// given.
const DefaultOrder = 1

// Config holds renderer construction parameters.
type Config struct {
	Processor    core.ProcessorConfig
	Order        int
	Mode         Mode
	ChannelMap   ambisonic.ChannelMap
	HRIRPaths    []string
	HRIRFS       fs.FS
	Geometry     room.Geometry
	Materials    room.Materials
	SpeedOfSound float64
	Seed         uint64
}

// Option mutates renderer construction parameters.
type Option func(*Config) error

// DefaultConfig returns a first-order binaural renderer in an open space
// at 48 kHz.
func DefaultConfig() Config {
	return Config{
		Processor:    core.DefaultProcessorConfig(),
		Order:        DefaultOrder,
		Mode:         ModeAmbisonic,
		ChannelMap:   ambisonic.ChannelMapACN,
		Materials:    room.DefaultMaterials(),
		SpeedOfSound: spatial.SpeedOfSound,
		Seed:         room.DefaultSeed,
	}
}

// ApplyOptions applies opts to the default config and stops at the first
// error.
func ApplyOptions(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// WithAmbisonicOrder sets the order. Orders above ambisonic.MaxOrder are
// clamped with a warning; orders below 1 are rejected.
func WithAmbisonicOrder(order int) Option {
	return func(cfg *Config) error {
		if order < 1 {
			return fmt.Errorf("render: ambisonic order must be >= 1: %d: %w", order, spatial.ErrConfiguration)
		}
		cfg.Order = ambisonic.ClampOrder(order)
		return nil
	}
}

// WithRenderingMode sets the initial rendering mode.
func WithRenderingMode(m Mode) Option {
	return func(cfg *Config) error {
		if !m.valid() {
			return fmt.Errorf("render: invalid rendering mode %d: %w", int(m), spatial.ErrConfiguration)
		}
		cfg.Mode = m
		return nil
	}
}

// WithChannelMap sets the order of the first four channels of external
// ambisonic input, e.g. ambisonic.ChannelMapFuMa for W X Y Z streams. The
// scene bus fed by sources is always ACN and is not reordered.
func WithChannelMap(m []int) Option {
	return func(cfg *Config) error {
		cm, err := ambisonic.ParseChannelMap(m)
		if err != nil {
			return err
		}
		cfg.ChannelMap = cm
		return nil
	}
}

// WithHRIRPaths replaces the built-in HRIR set with stereo files, one per
// channel pair. The count is checked against the order in New.
func WithHRIRPaths(paths ...string) Option {
	return func(cfg *Config) error {
		if len(paths) == 0 {
			return fmt.Errorf("render: empty HRIR path list: %w", spatial.ErrConfiguration)
		}
		cfg.HRIRPaths = append([]string(nil), paths...)
		return nil
	}
}

// WithHRIRFS reads HRIR paths from fsys instead of the host file system.
func WithHRIRFS(fsys fs.FS) Option {
	return func(cfg *Config) error {
		if fsys == nil {
			return fmt.Errorf("render: nil HRIR file system: %w", spatial.ErrConfiguration)
		}
		cfg.HRIRFS = fsys
		return nil
	}
}

// WithRoom sets the initial room.
func WithRoom(g room.Geometry, m room.Materials) Option {
	return func(cfg *Config) error {
		cfg.Geometry = g
		cfg.Materials = m
		return nil
	}
}

// WithSpeedOfSound sets the speed of sound used by the room model, in m/s.
func WithSpeedOfSound(c float64) Option {
	return func(cfg *Config) error {
		if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("render: speed of sound must be > 0 and finite: %f: %w", c, spatial.ErrConfiguration)
		}
		cfg.SpeedOfSound = c
		return nil
	}
}

// WithReverbSeed fixes the late reverb noise seed.
func WithReverbSeed(seed uint64) Option {
	return func(cfg *Config) error {
		cfg.Seed = seed
		return nil
	}
}

// WithProcessor applies DSP-level options such as sample rate and block
// size.
func WithProcessor(opts ...core.ProcessorOption) Option {
	return func(cfg *Config) error {
		pc := cfg.Processor
		for _, opt := range opts {
			if opt != nil {
				opt(&pc)
			}
		}
		if err := pc.Validate(); err != nil {
			return fmt.Errorf("render: %w: %w", spatial.ErrConfiguration, err)
		}
		cfg.Processor = pc
		return nil
	}
}

// Validate checks the combined settings.
func (c Config) Validate() error {
	if err := c.Processor.Validate(); err != nil {
		return fmt.Errorf("render: %w: %w", spatial.ErrConfiguration, err)
	}
	if bs := c.Processor.BlockSize; bs&(bs-1) != 0 {
		return fmt.Errorf("render: block size must be a power of two: %d: %w", bs, spatial.ErrConfiguration)
	}
	if err := ambisonic.ValidateOrder(c.Order); err != nil {
		return err
	}
	if !c.Mode.valid() {
		return fmt.Errorf("render: invalid rendering mode %d: %w", int(c.Mode), spatial.ErrConfiguration)
	}
	if len(c.HRIRPaths) > 0 {
		if want := binaural.PairCount(c.Order); len(c.HRIRPaths) != want {
			return fmt.Errorf("render: order %d needs %d HRIR files, got %d: %w", c.Order, want, len(c.HRIRPaths), spatial.ErrConfiguration)
		}
	}
	return nil
}
