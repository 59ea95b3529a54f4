package sim_test

import (
	"math"
	"testing"

	sim "virtual-drone/internal/sim"
)

func TestVec3Ops(t *testing.T) {
	a := sim.Vec3{X: 1, Y: 2, Z: 3}
	b := sim.Vec3{X: -3, Y: 0, Z: 5}
	if got := a.Add(b); got != (sim.Vec3{X: -2, Y: 2, Z: 8}) {
		t.Fatalf("Add got %v", got)
	}
	if got := a.Sub(b); got != (sim.Vec3{X: 4, Y: 2, Z: -2}) {
		t.Fatalf("Sub got %v", got)
	}
	if got := a.Mul(2); got != (sim.Vec3{X: 2, Y: 4, Z: 6}) {
		t.Fatalf("Mul got %v", got)
	}
	if a.Dot(b) != (1*-3 + 2*0 + 3*5) {
		t.Fatalf("Dot mismatch")
	}
	n := a.Normalize()
	if n.Length() < 0.99 || n.Length() > 1.01 {
		t.Fatalf("Normalize length ~1, got %v", n.Length())
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	n := sim.Vec3{}.Normalize()
	if n != (sim.Vec3{}) {
		t.Fatalf("expected zero vector, got %v", n)
	}
	if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
		t.Fatalf("normalize of zero produced NaN: %v", n)
	}
}

func TestNormalizeNonFinite(t *testing.T) {
	cases := []sim.Vec3{
		{X: math.NaN(), Y: 1, Z: 1},
		{X: math.Inf(1), Y: 0, Z: 0},
		{X: math.Inf(-1), Y: math.NaN(), Z: math.Inf(1)},
	}
	for _, v := range cases {
		n := v.Normalize()
		if !n.IsFinite() {
			t.Fatalf("Normalize(%v) produced non-finite %v", v, n)
		}
	}
}

func TestNormalizeSafeEps(t *testing.T) {
	tiny := sim.Vec3{X: 1e-12}
	if got := tiny.NormalizeSafe(1e-8); got != (sim.Vec3{}) {
		t.Fatalf("expected zero vector for sub-eps input, got %v", got)
	}
}

func TestClampLength(t *testing.T) {
	v := sim.Vec3{X: 3, Y: 4}
	c := v.ClampLength(2.5)
	if math.Abs(c.Length()-2.5) > 1e-9 {
		t.Fatalf("clamped length %v, want 2.5", c.Length())
	}
	same := v.ClampLength(10)
	if same != v {
		t.Fatalf("under-limit vector changed: %v", same)
	}
}
