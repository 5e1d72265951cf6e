// Command spatialrender renders a JSON scene of moving sources to a
// binaural WAV file.
//
// Usage:
//
//	spatialrender [flags] -scene scene.json
//
// Examples:
//
//	spatialrender -scene demo.json -out demo.wav
//	spatialrender -scene demo.json -order 3 -seconds 20
//	spatialrender -scene demo.json -mode bypass
//	spatialrender -scene ambience.json -channel-map 0,3,1,2
//	spatialrender -scene demo.json -report
//	spatialrender -scene demo.json -play
//	spatialrender -info
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/spatial/manager"
	"github.com/cwbudde/algo-spatial/spatial/output"
	"github.com/cwbudde/algo-spatial/spatial/render"
	"github.com/cwbudde/algo-spatial/spatial/source"
)

type options struct {
	scene      string
	out        string
	order      int
	mode       string
	channelMap string
	hrir       string
	seconds    float64
	report     bool
	play       bool
	info       bool
	verbose    bool
}

func main() {
	var o options
	fs := flag.NewFlagSet("spatialrender", flag.ExitOnError)
	fs.StringVar(&o.scene, "scene", "", "scene description (JSON)")
	fs.StringVar(&o.out, "out", "out.wav", "output WAV file")
	fs.IntVar(&o.order, "order", render.DefaultOrder, "ambisonic order (1-3)")
	fs.StringVar(&o.mode, "mode", "ambisonic", "rendering mode: ambisonic, bypass or off")
	fs.StringVar(&o.channelMap, "channel-map", "", "channel order of the scene ambience, e.g. 0,3,1,2 for FuMa")
	fs.StringVar(&o.hrir, "hrir", "", "comma-separated HRIR stereo WAV/Ogg files replacing the built-in set")
	fs.Float64Var(&o.seconds, "seconds", 0, "render length in seconds (overrides the scene)")
	fs.BoolVar(&o.report, "report", false, "print target and measured RT60 of the room tail")
	fs.BoolVar(&o.play, "play", false, "play on the default audio device instead of writing -out")
	fs.BoolVar(&o.info, "info", false, "print CPU features used by the vector kernels")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: spatialrender [flags] -scene scene.json\n\n")
		fmt.Fprintf(os.Stderr, "Renders a scene of moving sources to a binaural WAV file.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if o.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if err := run(context.Background(), o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, w io.Writer) error {
	if o.info {
		printInfo(w)
		if o.scene == "" {
			return nil
		}
	}
	if o.scene == "" {
		return errors.New("missing -scene")
	}

	scene, err := LoadScene(o.scene)
	if err != nil {
		return err
	}
	if o.seconds > 0 {
		scene.Seconds = o.seconds
	}
	if !(scene.Seconds > 0) {
		scene.Seconds = 5
	}

	renderOpts, err := o.renderOptions(scene)
	if err != nil {
		return err
	}
	kind, err := render.ParseKind(scene.Backend)
	if err != nil {
		return err
	}

	sink, err := o.openSink(int(scene.SampleRate))
	if err != nil {
		return err
	}
	m, err := manager.New(
		manager.WithBackend(kind),
		manager.WithRenderOptions(renderOpts...),
		manager.WithAudioProperties(scene.audioProperties()),
		manager.WithSink(sink),
	)
	if err != nil {
		_ = sink.Close()
		return err
	}
	defer m.Dispose()

	if _, err := m.Initialize(ctx).Wait(ctx); err != nil {
		return err
	}

	closers, err := attachSources(m, scene)
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()
	if err != nil {
		return err
	}

	var bed *ambience
	if scene.Ambience != "" {
		if bed, err = loadAmbience(scene.Ambience, scene.SampleRate, m.BlockSize()); err != nil {
			return err
		}
	}

	pace := pacerFor(ctx, sink, m.BlockSize())
	frames, err := renderScene(m, scene, bed, pace)
	if err != nil {
		return err
	}
	if o.play {
		if p, ok := sink.(pacedSink); ok {
			if err := p.WaitBuffered(ctx, 0); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "played %d frames at %g Hz (%s)\n", frames, scene.SampleRate, kind)
	} else {
		fmt.Fprintf(w, "wrote %s: %d frames at %g Hz (%s)\n", o.out, frames, scene.SampleRate, kind)
	}

	if o.report {
		return printReport(w, m)
	}
	return nil
}

// openDevice opens the playback sink for -play.
var openDevice = func(sampleRate int) (output.Sink, error) {
	return output.NewOtoSink(sampleRate, output.DefaultRingFrames)
}

func (o options) openSink(sampleRate int) (output.Sink, error) {
	if o.play {
		return openDevice(sampleRate)
	}
	return output.CreateWAV(o.out, sampleRate)
}

// pacedSink is a sink drained by a device in real time.
type pacedSink interface {
	output.Sink
	WaitBuffered(ctx context.Context, frames int) error
}

// pacerFor keeps a real-time sink a few blocks ahead of the device. Sinks
// that accept any rate get no pacing.
func pacerFor(ctx context.Context, sink output.Sink, block int) func() error {
	p, ok := sink.(pacedSink)
	if !ok {
		return nil
	}
	const aheadBlocks = 8
	return func() error {
		return p.WaitBuffered(ctx, aheadBlocks*block)
	}
}

func (o options) renderOptions(scene *Scene) ([]render.Option, error) {
	opts := []render.Option{
		render.WithProcessor(core.WithSampleRate(scene.SampleRate), core.WithBlockSize(scene.BlockSize)),
		render.WithAmbisonicOrder(o.order),
	}

	mode, err := render.ParseMode(o.mode)
	if err != nil {
		return nil, err
	}
	opts = append(opts, render.WithRenderingMode(mode))

	if o.channelMap != "" {
		cm, err := parseInts(o.channelMap)
		if err != nil {
			return nil, fmt.Errorf("-channel-map: %w", err)
		}
		opts = append(opts, render.WithChannelMap(cm))
	}
	if o.hrir != "" {
		opts = append(opts, render.WithHRIRPaths(splitList(o.hrir)...))
	}
	if scene.Room != nil {
		g, mat := scene.Room.Geometry()
		opts = append(opts, render.WithRoom(g, mat))
	}
	return opts, nil
}

func (s *Scene) audioProperties() render.AudioProperties {
	p := render.DefaultAudioProperties()
	if s.MinDistance > 0 {
		p.MinDistance = s.MinDistance
	}
	if s.MaxDistance > 0 {
		p.MaxDistance = s.MaxDistance
	}
	if s.Rolloff != "" {
		p.Rolloff = source.ParseRolloff(s.Rolloff)
	}
	if s.TransitionTime != nil {
		p.TransitionTime = *s.TransitionTime
	}
	return p
}

func attachSources(m *manager.Manager, scene *Scene) ([]func() error, error) {
	var closers []func() error
	for _, it := range scene.Sources {
		stream, closer, err := it.Stream(scene.SampleRate)
		if err != nil {
			return closers, err
		}
		closers = append(closers, closer)

		if err := m.Join(it.ID, it.ID); err != nil {
			return closers, err
		}
		if err := m.AttachStream(it.ID, stream); err != nil {
			return closers, err
		}

		src, _ := m.Spatializer().Source(it.ID)
		if it.Gain != nil {
			src.SetGain(*it.Gain)
		}
		src.SetSourceWidth(it.Width)
		if it.Directivity != nil {
			src.SetDirectivityPattern(it.Directivity.Alpha, it.Directivity.Sharpness)
		}
	}
	return closers, nil
}

// renderScene runs the block loop, sending keyframes as their time comes.
// bed, when set, is mixed into every block; pace, when set, runs after
// every block.
func renderScene(m *manager.Manager, scene *Scene, bed *ambience, pace func() error) (int, error) {
	var mixer *render.Renderer
	if bed != nil {
		var err error
		if mixer, err = bed.mixer(m); err != nil {
			return 0, err
		}
	}

	block := m.BlockSize()
	total := int(math.Ceil(scene.Seconds * scene.SampleRate / float64(block)))
	left := make([]float64, block)
	right := make([]float64, block)

	listenerNext := 0
	sourceNext := make([]int, len(scene.Sources))

	for i := range total {
		t := float64(i*block) / scene.SampleRate
		for ; listenerNext < len(scene.Listener) && scene.Listener[listenerNext].T <= t; listenerNext++ {
			m.ApplyListenerPose(scene.Listener[listenerNext].Message())
		}
		for s, it := range scene.Sources {
			for ; sourceNext[s] < len(it.Keyframes) && it.Keyframes[sourceNext[s]].T <= t; sourceNext[s]++ {
				if err := m.ApplyPose(it.ID, it.Keyframes[sourceNext[s]].Message()); err != nil {
					return 0, err
				}
			}
		}

		m.Update(t)
		if mixer != nil {
			if err := mixer.MixAmbisonic(bed.next()); err != nil {
				return 0, err
			}
		}
		if err := m.Render(left, right); err != nil {
			return 0, err
		}
		if pace != nil {
			if err := pace(); err != nil {
				return 0, err
			}
		}
	}
	return total * block, nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, f := range splitList(s) {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
