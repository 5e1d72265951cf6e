package core

import "testing"

func TestEnsureLenReuse(t *testing.T) {
	buf := make([]float64, 4, 8)

	out := EnsureLen(buf, 6)
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}
	if cap(out) != cap(buf) {
		t.Fatalf("cap = %d, want %d", cap(out), cap(buf))
	}
	if got := EnsureLen(buf, 16); len(got) != 16 {
		t.Fatalf("len = %d, want 16", len(got))
	}
}

func TestNewPlanar(t *testing.T) {
	bus := NewPlanar(4, 32)
	if len(bus) != 4 {
		t.Fatalf("channels = %d, want 4", len(bus))
	}
	bus[2][5] = 1
	ZeroPlanar(bus)
	for ch := range bus {
		if len(bus[ch]) != 32 {
			t.Fatalf("channel %d len = %d, want 32", ch, len(bus[ch]))
		}
		for i, v := range bus[ch] {
			if v != 0 {
				t.Fatalf("bus[%d][%d] = %v, want 0", ch, i, v)
			}
		}
	}
}

func TestMixRampConstant(t *testing.T) {
	dst := []float64{1, 1, 1, 1}
	src := []float64{1, 2, 3, 4}
	scratch := make([]float64, 4)

	MixRamp(dst, src, scratch, 0.5, 0.5)

	want := []float64{1.5, 2, 2.5, 3}
	for i := range want {
		if !NearlyEqual(dst[i], want[i], 1e-12) {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestMixRampReachesTarget(t *testing.T) {
	dst := make([]float64, 4)
	src := []float64{1, 1, 1, 1}

	MixRamp(dst, src, make([]float64, 4), 0, 1)

	want := []float64{0.25, 0.5, 0.75, 1}
	for i := range want {
		if !NearlyEqual(dst[i], want[i], 1e-12) {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestMixRampZeroGainIsNoop(t *testing.T) {
	dst := []float64{3, 3}
	MixRamp(dst, []float64{1, 1}, make([]float64, 2), 0, 0)
	if dst[0] != 3 || dst[1] != 3 {
		t.Fatalf("dst = %v, want unchanged", dst)
	}
}
