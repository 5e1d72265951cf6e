package spectrum

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-spatial/internal/testutil"
)

func TestMagnitudeAndPower(t *testing.T) {
	bins := []complex128{3 + 4i, -1 - 1i, 0}

	mag := Magnitude(bins)
	if len(mag) != len(bins) {
		t.Fatalf("Magnitude length mismatch: got=%d want=%d", len(mag), len(bins))
	}
	testutil.RequireSliceNearlyEqual(t, mag, []float64{5, math.Sqrt2, 0}, 1e-12)

	pow := Power(bins)
	testutil.RequireSliceNearlyEqual(t, pow, []float64{25, 2, 0}, 1e-12)

	dst := make([]float64, 2)
	MagnitudeFromParts(dst, []float64{3, 0}, []float64{4, -2})
	testutil.RequireSliceNearlyEqual(t, dst, []float64{5, 2}, 1e-12)

	if Magnitude(nil) != nil || Power(nil) != nil {
		t.Fatal("empty input should give nil")
	}
}

// --- Analyser ---

func TestAnalyserSinePeak(t *testing.T) {
	const (
		n  = 256
		fs = 8000.0
		k0 = 16
	)
	a, err := NewAnalyser(n, WithSmoothing(0))
	if err != nil {
		t.Fatal(err)
	}
	a.Write(testutil.DeterministicSine(a.BinFrequency(k0, fs), fs, 1, n))
	if err := a.Update(); err != nil {
		t.Fatal(err)
	}

	mag := a.Magnitudes()
	testutil.RequireNearlyEqual(t, "peak", mag[k0], 0.25, 1e-9)
	testutil.RequireNearlyEqual(t, "lower neighbour", mag[k0-1], 0.125, 1e-9)
	testutil.RequireNearlyEqual(t, "upper neighbour", mag[k0+1], 0.125, 1e-9)
	testutil.RequireNearlyEqual(t, "far bin", mag[k0+10], 0, 1e-9)
}

func TestAnalyserSmoothing(t *testing.T) {
	const n = 64
	a, err := NewAnalyser(n)
	if err != nil {
		t.Fatal(err)
	}
	a.Write(testutil.DC(1, n))
	if err := a.Update(); err != nil {
		t.Fatal(err)
	}

	// DC through a periodic Hann window gives N/2 at bin 0
	first := a.Magnitudes()[0]
	testutil.RequireNearlyEqual(t, "first frame", first, (1-DefaultSmoothing)*0.5, 1e-9)

	if err := a.Update(); err != nil {
		t.Fatal(err)
	}
	testutil.RequireNearlyEqual(t, "second frame", a.Magnitudes()[0], DefaultSmoothing*first+(1-DefaultSmoothing)*0.5, 1e-9)

	a.Reset()
	testutil.RequireSilent(t, a.Magnitudes())
}

func TestAnalyserScaled(t *testing.T) {
	a, err := NewAnalyser(64, WithSmoothing(0), WithDecibelRange(-60, 0))
	if err != nil {
		t.Fatal(err)
	}
	a.smoothed[0] = 1
	a.smoothed[1] = math.Pow(10, -1.5) // -30 dB
	a.smoothed[2] = 1e-4
	a.smoothed[3] = 10

	dst := make([]float64, 4)
	if got := a.Scaled(dst); got != 4 {
		t.Fatalf("Scaled wrote %d bins, want 4", got)
	}
	testutil.RequireSliceNearlyEqual(t, dst, []float64{1, 0.5, 0, 1}, 1e-12)
}

func TestAnalyserWriteKeepsLatestSamples(t *testing.T) {
	a, err := NewAnalyser(32, WithSmoothing(0))
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewAnalyser(32, WithSmoothing(0))
	if err != nil {
		t.Fatal(err)
	}

	signal := testutil.DeterministicNoise(5, 1, 100)
	a.Write(signal)
	for _, block := range testutil.Blocks(signal, 10) {
		b.Write(block)
	}
	if err := a.Update(); err != nil {
		t.Fatal(err)
	}
	if err := b.Update(); err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, a.Magnitudes(), b.Magnitudes(), 1e-12)
}

func TestNewAnalyserErrors(t *testing.T) {
	for _, n := range []int{0, 16, 100} {
		if _, err := NewAnalyser(n); err == nil {
			t.Fatalf("size %d: expected error", n)
		}
	}
	if _, err := NewAnalyser(64, WithSmoothing(1)); err == nil {
		t.Fatal("smoothing 1: expected error")
	}
	if _, err := NewAnalyser(64, WithDecibelRange(0, -10)); err == nil {
		t.Fatal("inverted range: expected error")
	}
}
