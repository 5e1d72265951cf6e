package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cwbudde/algo-vecmath/cpu"

	"github.com/cwbudde/algo-spatial/measure/decay"
	"github.com/cwbudde/algo-spatial/spatial/manager"
	"github.com/cwbudde/algo-spatial/spatial/render"
	"github.com/cwbudde/algo-spatial/spatial/room"
)

// printReport compares the requested RT60 per band with the decay measured
// on the synthesized tail.
func printReport(w io.Writer, m *manager.Manager) error {
	scene, ok := m.Spatializer().(*render.SceneSpatializer)
	if !ok {
		return fmt.Errorf("-report needs the scene backend, have %s", m.Spatializer().Kind())
	}
	r := scene.Renderer().Room()
	targets := r.Durations()
	ir := r.Late().ImpulseResponse()
	analyzer := decay.NewAnalyzer(m.SampleRate())

	g := r.Geometry()
	fmt.Fprintf(w, "room %.2f x %.2f x %.2f m, tail %d samples\n", g.Width, g.Height, g.Depth, len(ir))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "band Hz\ttarget s\tmeasured s\t")
	for i, f := range room.BandFrequencies {
		if targets[i] == 0 || f >= m.SampleRate()/2 {
			fmt.Fprintf(tw, "%g\t%.3f\t-\t\n", f, targets[i])
			continue
		}
		rt, err := analyzer.BandRT60(ir, f)
		if err != nil {
			fmt.Fprintf(tw, "%g\t%.3f\t%v\t\n", f, targets[i], err)
			continue
		}
		fmt.Fprintf(tw, "%g\t%.3f\t%.3f\t\n", f, targets[i], rt)
	}
	return tw.Flush()
}

func printInfo(w io.Writer) {
	f := cpu.DetectFeatures()
	fmt.Fprintf(w, "arch:   %s\n", f.Architecture)
	fmt.Fprintf(w, "sse2:   %t\n", f.HasSSE2)
	fmt.Fprintf(w, "avx:    %t\n", f.HasAVX)
	fmt.Fprintf(w, "avx2:   %t\n", f.HasAVX2)
	fmt.Fprintf(w, "avx512: %t\n", f.HasAVX512)
	fmt.Fprintf(w, "neon:   %t\n", f.HasNEON)
}
