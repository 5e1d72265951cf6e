package source

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-spatial/internal/testutil"
)

func TestAttenuationBounds(t *testing.T) {
	for _, r := range []Rolloff{RolloffLogarithmic, RolloffLinear, RolloffNone} {
		a := NewAttenuation()
		a.SetRolloff(r)
		a.SetMinDistance(2)
		a.SetMaxDistance(10)

		for _, d := range []float64{-1, 0, 1, 2} {
			if g := a.SetDistance(d); g != 1 {
				t.Fatalf("%v: gain at %v = %v, want 1", r, d, g)
			}
		}
		for _, d := range []float64{10, 11, math.Inf(1)} {
			if g := a.SetDistance(d); g != 0 {
				t.Fatalf("%v: gain at %v = %v, want 0", r, d, g)
			}
		}
	}
}

func TestAttenuationCurves(t *testing.T) {
	a := NewAttenuation()
	a.SetMinDistance(1)
	a.SetMaxDistance(11)

	// range 10: (1/(d-min+1) - 1/11) / (1 - 1/11)
	testutil.RequireNearlyEqual(t, "log", a.SetDistance(2), (0.5-1.0/11)/(1-1.0/11), 1e-12)

	a.SetRolloff(RolloffLinear)
	testutil.RequireNearlyEqual(t, "linear", a.SetDistance(6), 0.5, 1e-12)

	a.SetRolloff(RolloffNone)
	testutil.RequireNearlyEqual(t, "none", a.SetDistance(6), 1, 0)
}

func TestAttenuationLogarithmicIsMonotonic(t *testing.T) {
	a := NewAttenuation()
	prev := 1.0
	for d := 1.0; d < 1000; d *= 1.5 {
		g := a.SetDistance(d)
		if g > prev || g < 0 {
			t.Fatalf("gain at %v = %v after %v", d, g, prev)
		}
		prev = g
	}
}

func TestAttenuationMaxNeverBelowMin(t *testing.T) {
	a := NewAttenuation()
	a.SetMinDistance(5)
	a.SetMaxDistance(2)
	if a.MaxDistance() != 5 {
		t.Fatalf("MaxDistance = %v, want 5", a.MaxDistance())
	}
	a.SetMinDistance(8)
	if a.MaxDistance() != 8 {
		t.Fatalf("MaxDistance = %v, want 8", a.MaxDistance())
	}
}

func TestParseRolloff(t *testing.T) {
	tests := map[string]Rolloff{
		"logarithmic": RolloffLogarithmic,
		"Linear":      RolloffLinear,
		" none ":      RolloffNone,
		"inverse":     RolloffLogarithmic,
	}
	for in, want := range tests {
		if got := ParseRolloff(in); got != want {
			t.Fatalf("ParseRolloff(%q) = %v, want %v", in, got, want)
		}
	}
	if RolloffLinear.String() != "linear" || Rolloff(9).String() != "unknown" {
		t.Fatal("unexpected Rolloff names")
	}
}
