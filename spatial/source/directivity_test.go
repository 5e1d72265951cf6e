package source

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-spatial/internal/testutil"
	"github.com/cwbudde/algo-spatial/spatial/pose"
)

func TestDirectivityPattern(t *testing.T) {
	front := pose.Vector3{0, 0, -1}
	tests := []struct {
		name             string
		alpha, sharpness float64
		toListener       pose.Vector3
		want             float64
	}{
		{"omni behind", 0, 1, pose.Vector3{0, 0, 1}, 1},
		{"cardioid front", 0.5, 1, pose.Vector3{0, 0, -5}, 1},
		{"cardioid side", 0.5, 1, pose.Vector3{3, 0, 0}, 0.5},
		{"cardioid behind", 0.5, 1, pose.Vector3{0, 0, 2}, 0},
		{"sharp cardioid side", 0.5, 3, pose.Vector3{0, 1, 0}, 0.125},
		{"figure eight behind", 1, 1, pose.Vector3{0, 0, 1}, 1},
		{"figure eight side", 1, 1, pose.Vector3{1, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDirectivity(48000)
			d.SetPattern(tt.alpha, tt.sharpness)
			d.ComputeAngle(front, tt.toListener)
			testutil.RequireNearlyEqual(t, "coefficient", d.Coefficient(), tt.want, 1e-12)
			testutil.RequireNearlyEqual(t, "cutoff", d.Cutoff(), 24000*tt.want, 1e-6)
		})
	}
}

func TestDirectivityClampsPattern(t *testing.T) {
	d := NewDirectivity(48000)
	d.SetPattern(2, 0.2)
	if a, s := d.Pattern(); a != 1 || s != 1 {
		t.Fatalf("Pattern = %v, %v; want 1, 1", a, s)
	}
	d.SetPattern(math.NaN(), math.NaN())
	if a, s := d.Pattern(); a != 0 || s != 1 {
		t.Fatalf("Pattern = %v, %v; want 0, 1", a, s)
	}
}

func TestDirectivityFiltersBehind(t *testing.T) {
	d := NewDirectivity(48000)
	d.SetPattern(0.5, 1)

	d.ComputeAngle(pose.Vector3{0, 0, -1}, pose.Vector3{0, 0, -1})
	buf := testutil.DeterministicNoise(3, 1, 512)
	want := append([]float64(nil), buf...)
	d.ProcessBlock(buf)
	testutil.RequireSliceNearlyEqual(t, buf, want, 0)

	d.ComputeAngle(pose.Vector3{0, 0, -1}, pose.Vector3{0, 0, 1})
	d.ProcessBlock(buf)
	testutil.RequireSilent(t, buf)
}
