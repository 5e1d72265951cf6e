package pose

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestSlerpEndpointsAndMidpoint(t *testing.T) {
	a := Vector3{1, 0, 0}
	b := Vector3{0, 1, 0}

	if got := Slerp(a, b, 0); !Near(got, a, eps) {
		t.Fatalf("Slerp(p=0) = %v, want %v", got, a)
	}
	if got := Slerp(a, b, 1); !Near(got, b, eps) {
		t.Fatalf("Slerp(p=1) = %v, want %v", got, b)
	}

	mid := Slerp(a, b, 0.5)
	want := Vector3{math.Sqrt2 / 2, math.Sqrt2 / 2, 0}
	if !Near(mid, want, eps) {
		t.Fatalf("Slerp(p=0.5) = %v, want %v", mid, want)
	}
	if math.Abs(mid.Len()-1) > eps {
		t.Fatalf("|mid| = %v, want 1", mid.Len())
	}
}

func TestSlerpZeroAngle(t *testing.T) {
	a := Vector3{0, 0, -1}
	got := Slerp(a, a, 0.3)
	for _, c := range got {
		if math.IsNaN(c) {
			t.Fatalf("Slerp of identical vectors produced NaN: %v", got)
		}
	}
	if !Near(got, a, eps) {
		t.Fatalf("got %v, want %v", got, a)
	}
}

func TestSlerpOpposite(t *testing.T) {
	a := Vector3{0, 0, -1}
	got := Slerp(a, a.Mul(-1), 0.5)
	if math.Abs(got.Len()-1) > eps {
		t.Fatalf("|Slerp| = %v, want 1", got.Len())
	}
	if math.Abs(got.Dot(a)) > eps {
		t.Fatalf("midpoint %v not perpendicular to %v", got, a)
	}
}

func TestBasisOrthonormal(t *testing.T) {
	p := Pose{Forward: Vector3{0, 0.1, -2}, Up: Vector3{0.2, 1, 0}}
	right, up, fwd := p.Basis()

	for name, v := range map[string]Vector3{"right": right, "up": up, "forward": fwd} {
		if math.Abs(v.Len()-1) > eps {
			t.Fatalf("%s not unit: %v", name, v)
		}
	}
	if math.Abs(right.Dot(up)) > eps || math.Abs(right.Dot(fwd)) > eps || math.Abs(up.Dot(fwd)) > eps {
		t.Fatalf("basis not orthogonal: %v %v %v", right, up, fwd)
	}

	r, u, f := Default().Basis()
	if !Near(r, Vector3{1, 0, 0}, eps) || !Near(u, Up, eps) || !Near(f, Forward, eps) {
		t.Fatalf("default basis = %v %v %v", r, u, f)
	}
}

func TestBasisDegenerate(t *testing.T) {
	_, up, fwd := Pose{Forward: Vector3{0, 1, 0}, Up: Vector3{0, 1, 0}}.Basis()
	if math.Abs(up.Dot(fwd)) > eps || math.IsNaN(up.X()) {
		t.Fatalf("degenerate basis: up %v forward %v", up, fwd)
	}
}
