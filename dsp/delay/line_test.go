package delay

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-spatial/dsp/interp"
)

// --- construction ---

func TestNewValidation(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := New(size); !errors.Is(err, ErrInvalidSize) {
			t.Fatalf("New(%d): err = %v, want ErrInvalidSize", size, err)
		}
	}
	if _, err := ForDuration(-1, 48000); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("ForDuration: err = %v, want ErrInvalidSize", err)
	}
}

func TestForDuration(t *testing.T) {
	d, err := ForDuration(0.01, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() < 481 {
		t.Fatalf("Len = %d, want >= 481", d.Len())
	}
}

// --- integer reads ---

func TestReadWrite(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 10; i++ {
		d.Write(float64(i))
	}

	if got := d.Read(0); got != 10 {
		t.Fatalf("Read(0) = %v, want 10", got)
	}
	if got := d.Read(3); got != 7 {
		t.Fatalf("Read(3) = %v, want 7", got)
	}
	if got := d.Read(7); got != 3 {
		t.Fatalf("Read(7) = %v, want 3", got)
	}
	if got := d.Read(100); got != 3 {
		t.Fatalf("Read(100) = %v, want clamped 3", got)
	}
}

// --- fractional reads ---

func rampLine(t *testing.T, mode interp.Mode) *Line {
	t.Helper()
	d, err := New(16)
	if err != nil {
		t.Fatal(err)
	}
	d.SetInterpolation(mode)
	for i := range 16 {
		d.Write(float64(i))
	}
	return d
}

func TestReadFractionalLinear(t *testing.T) {
	d := rampLine(t, interp.ModeLinear)

	tests := []struct {
		delay float64
		want  float64
	}{
		{delay: 0, want: 15},
		{delay: 1, want: 14},
		{delay: 2.5, want: 12.5},
		{delay: 0.25, want: 14.75},
		{delay: -3, want: 15},
		{delay: 40, want: 0},
	}
	for _, tt := range tests {
		if got := d.ReadFractional(tt.delay); math.Abs(got-tt.want) > 1e-12 {
			t.Fatalf("ReadFractional(%v) = %v, want %v", tt.delay, got, tt.want)
		}
	}
}

func TestReadFractionalHermite(t *testing.T) {
	d := rampLine(t, interp.ModeHermite)
	if d.Interpolation() != interp.ModeHermite {
		t.Fatalf("default mode = %v, want hermite", d.Interpolation())
	}

	tests := []struct {
		delay float64
		want  float64
	}{
		{delay: 1, want: 14},
		{delay: 2.5, want: 12.5},
		{delay: 7.25, want: 7.75},
		{delay: -3, want: 15},
		// clamped so that Read(p+2) stays inside the line
		{delay: 40, want: 2},
	}
	for _, tt := range tests {
		if got := d.ReadFractional(tt.delay); math.Abs(got-tt.want) > 1e-12 {
			t.Fatalf("ReadFractional(%v) = %v, want %v", tt.delay, got, tt.want)
		}
	}
}

func TestReadFractionalHermiteSmoothOnSine(t *testing.T) {
	const n = 64
	lin, _ := New(n)
	lin.SetInterpolation(interp.ModeLinear)
	her, _ := New(n)

	step := 2 * math.Pi / 10
	for i := range n {
		v := math.Sin(float64(i) * step)
		lin.Write(v)
		her.Write(v)
	}

	var errLin, errHer float64
	for delay := 2.5; delay < 40; delay += 1 {
		want := math.Sin((float64(n-1) - delay) * step)
		errLin = max(errLin, math.Abs(lin.ReadFractional(delay)-want))
		errHer = max(errHer, math.Abs(her.ReadFractional(delay)-want))
	}
	if errHer >= errLin/2 {
		t.Fatalf("hermite error %v not well below linear %v", errHer, errLin)
	}
}

func TestReset(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	d.Write(1)
	d.Reset()
	for i := range 4 {
		if d.Read(i) != 0 {
			t.Fatalf("Read(%d) after Reset = %v, want 0", i, d.Read(i))
		}
	}
}
