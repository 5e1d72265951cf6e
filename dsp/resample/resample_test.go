package resample

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-spatial/internal/testutil"
)

func TestNewRationalValidation(t *testing.T) {
	for _, r := range [][2]int{{0, 1}, {1, 0}, {-2, 3}} {
		if _, err := NewRational(r[0], r[1]); !errors.Is(err, ErrInvalidRatio) {
			t.Fatalf("NewRational(%d, %d) err = %v, want ErrInvalidRatio", r[0], r[1], err)
		}
	}
	if _, err := NewRational(1, 2, WithQuality(Quality(9))); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("err = %v, want ErrInvalidOption", err)
	}
	if _, err := NewForRates(0, 48000); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("err = %v, want ErrInvalidRate", err)
	}
	if _, err := NewForRates(44100, math.NaN()); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("err = %v, want ErrInvalidRate", err)
	}
	if _, err := NewForRates(44100, 48000, WithMaxDenominator(0)); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("err = %v, want ErrInvalidOption", err)
	}
}

func TestRatioReduction(t *testing.T) {
	r, err := NewRational(320, 294)
	if err != nil {
		t.Fatalf("NewRational: %v", err)
	}
	if up, down := r.Ratio(); up != 160 || down != 147 {
		t.Fatalf("ratio = %d/%d, want 160/147", up, down)
	}

	r, err = NewForRates(44100, 48000)
	if err != nil {
		t.Fatalf("NewForRates: %v", err)
	}
	if up, down := r.Ratio(); up != 160 || down != 147 {
		t.Fatalf("ratio = %d/%d, want 160/147", up, down)
	}
	if r.Quality() != QualityBalanced {
		t.Fatalf("Quality() = %v, want balanced", r.Quality())
	}
}

func TestPredictOutputLenMatchesProcess(t *testing.T) {
	r, err := NewRational(3, 2)
	if err != nil {
		t.Fatalf("NewRational: %v", err)
	}
	in := testutil.DeterministicSine(1000, 48000, 1, 257)
	want := r.PredictOutputLen(len(in))
	if got := len(r.Process(in)); got != want {
		t.Fatalf("len(out) = %d, want %d", got, want)
	}
}

func TestStandardRatesLength(t *testing.T) {
	tests := []struct {
		inRate, outRate float64
	}{
		{44100, 48000},
		{48000, 44100},
		{16000, 48000},
		{96000, 48000},
	}
	for _, tc := range tests {
		r, err := NewForRates(tc.inRate, tc.outRate)
		if err != nil {
			t.Fatalf("NewForRates(%v, %v): %v", tc.inRate, tc.outRate, err)
		}
		in := testutil.DeterministicSine(1000, tc.inRate, 1, 4096)
		out := r.Process(in)
		expected := int(math.Round(float64(len(in)) * tc.outRate / tc.inRate))
		if d := len(out) - expected; d > 1 || d < -1 {
			t.Fatalf("%v->%v len = %d, want ~%d", tc.inRate, tc.outRate, len(out), expected)
		}
	}
}

func TestStreamingMatchesWhole(t *testing.T) {
	r1, err := NewRational(160, 147)
	if err != nil {
		t.Fatalf("NewRational: %v", err)
	}
	r2, err := NewRational(160, 147)
	if err != nil {
		t.Fatalf("NewRational: %v", err)
	}

	in := testutil.DeterministicSine(1000, 44100, 1, 8192)
	whole := r1.Process(in)

	var chunked []float64
	for i := 0; i < len(in); i += 257 {
		chunked = r2.ProcessAppend(chunked, in[i:min(len(in), i+257)])
	}

	if len(chunked) != len(whole) {
		t.Fatalf("chunked len = %d, whole len = %d", len(chunked), len(whole))
	}
	testutil.RequireSliceNearlyEqual(t, chunked, whole, 1e-12)
}

func TestResetRestartsStream(t *testing.T) {
	r, err := NewRational(2, 1)
	if err != nil {
		t.Fatalf("NewRational: %v", err)
	}
	in := testutil.DeterministicNoise(3, 1, 300)
	first := r.Process(in)
	r.Reset()
	second := r.Process(in)
	testutil.RequireSliceNearlyEqual(t, second, first, 0)
}

func TestFlushEmitsDelayedTail(t *testing.T) {
	r, err := NewRational(2, 1)
	if err != nil {
		t.Fatalf("NewRational: %v", err)
	}
	if got := r.Flush(nil); len(got) != 0 {
		t.Fatalf("flush before input = %d samples, want 0", len(got))
	}

	in := testutil.DC(1, 200)
	first := r.Process(in)
	out := r.Flush(first)
	if len(out) != 432 {
		t.Fatalf("len = %d, want 432", len(out))
	}
	// The last input samples come out of the flushed part at full level.
	for i := 400; i < 405; i++ {
		testutil.RequireNearlyEqual(t, "tail", out[i], 1, 2e-2)
	}

	again := r.Process(in)
	testutil.RequireSliceNearlyEqual(t, again, out[:400], 0)
}

func TestDCGainIsUnity(t *testing.T) {
	r, err := NewForRates(16000, 48000)
	if err != nil {
		t.Fatalf("NewForRates: %v", err)
	}
	out := r.Process(testutil.DC(0.5, 2048))
	for i := 1000; i < 5000; i++ {
		testutil.RequireNearlyEqual(t, "dc", out[i], 0.5, 5e-3)
	}
}

func TestQualityPassbandAndStopband(t *testing.T) {
	tests := []struct {
		quality       Quality
		maxPassbandDB float64
		minStopbandDB float64
	}{
		{quality: QualityFast, maxPassbandDB: 0.7, minStopbandDB: 20},
		{quality: QualityBalanced, maxPassbandDB: 0.35, minStopbandDB: 35},
		{quality: QualityBest, maxPassbandDB: 0.2, minStopbandDB: 50},
	}

	for _, tc := range tests {
		t.Run(tc.quality.String(), func(t *testing.T) {
			rPass, err := NewRational(1, 2, WithQuality(tc.quality))
			if err != nil {
				t.Fatalf("NewRational: %v", err)
			}
			rStop, err := NewRational(1, 2, WithQuality(tc.quality))
			if err != nil {
				t.Fatalf("NewRational: %v", err)
			}

			inPass := testutil.DeterministicSine(2000, 48000, 1, 32768)
			inStop := testutil.DeterministicSine(17000, 48000, 1, 32768)
			outPass := rPass.Process(inPass)
			outStop := rStop.Process(inStop)

			if d := math.Abs(dbRatio(rms(outPass[2048:]), rms(inPass[4096:]))); d > tc.maxPassbandDB {
				t.Fatalf("passband droop %.2f dB > %.2f dB", d, tc.maxPassbandDB)
			}
			if a := -dbRatio(rms(outStop[2048:]), rms(inStop[4096:])); a < tc.minStopbandDB {
				t.Fatalf("stopband attenuation %.2f dB < %.2f dB", a, tc.minStopbandDB)
			}
		})
	}
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(testutil.Energy(x) / float64(len(x)))
}

func dbRatio(out, in float64) float64 {
	if in == 0 || out == 0 {
		return -300
	}
	return 20 * math.Log10(out/in)
}
