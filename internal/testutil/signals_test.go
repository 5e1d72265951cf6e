package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1000, 48000, 1.0, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(42, 1.0, 64)
	b := DeterministicNoise(42, 1.0, 64)
	c := DeterministicNoise(43, 1.0, 64)
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise not deterministic at index %d", i)
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestImpulseAndEnergy(t *testing.T) {
	imp := Impulse(8, 3)
	if imp[3] != 1 || Energy(imp) != 1 {
		t.Fatalf("unexpected impulse %v", imp)
	}
	if Energy(Impulse(4, 10)) != 0 {
		t.Fatal("out-of-range impulse should be silent")
	}
}

func TestBlocks(t *testing.T) {
	blocks := Blocks([]float64{1, 2, 3, 4, 5}, 2)
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(blocks))
	}
	if blocks[2][0] != 5 || blocks[2][1] != 0 {
		t.Fatalf("last block = %v, want [5 0]", blocks[2])
	}
}

func TestMaxAbsDiff(t *testing.T) {
	d, err := MaxAbsDiff([]float64{1, 2}, []float64{1, 2.5})
	if err != nil || d != 0.5 {
		t.Fatalf("MaxAbsDiff = %v, %v; want 0.5, nil", d, err)
	}
	if _, err := MaxAbsDiff([]float64{1}, nil); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
