package manager

import (
	"fmt"

	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/output"
	"github.com/cwbudde/algo-spatial/spatial/render"
)

// ActivityEvent reports that a user started or stopped talking.
type ActivityEvent struct {
	ID       string
	IsActive bool
}

// Config holds manager construction parameters.
type Config struct {
	Backend    render.Kind
	Render     []render.Option
	Properties render.AudioProperties
	Sink       output.Sink
	OnActivity func(ActivityEvent)
}

// Option mutates manager construction parameters.
type Option func(*Config) error

// DefaultConfig renders an ambisonic scene with default renderer settings
// and no sink.
func DefaultConfig() Config {
	return Config{
		Backend:    render.KindScene,
		Properties: render.DefaultAudioProperties(),
	}
}

// WithBackend selects the spatializer.
func WithBackend(kind render.Kind) Option {
	return func(cfg *Config) error {
		switch kind {
		case render.KindScene, render.KindPanner, render.KindDirect:
			cfg.Backend = kind
			return nil
		}
		return fmt.Errorf("manager: invalid backend %d: %w", int(kind), spatial.ErrConfiguration)
	}
}

// WithRenderOptions appends spatializer options.
func WithRenderOptions(opts ...render.Option) Option {
	return func(cfg *Config) error {
		cfg.Render = append(cfg.Render, opts...)
		return nil
	}
}

// WithAudioProperties sets the distance model defaults for new users.
func WithAudioProperties(p render.AudioProperties) Option {
	return func(cfg *Config) error {
		cfg.Properties = p
		return nil
	}
}

// WithSink routes every rendered block to s. The manager closes s on
// Dispose.
func WithSink(s output.Sink) Option {
	return func(cfg *Config) error {
		cfg.Sink = s
		return nil
	}
}

// WithActivityHandler registers fn for activity events. fn runs on the
// goroutine calling Update, after the manager lock is released.
func WithActivityHandler(fn func(ActivityEvent)) Option {
	return func(cfg *Config) error {
		cfg.OnActivity = fn
		return nil
	}
}
