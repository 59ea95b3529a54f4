package camera

import (
	"math"
	"testing"
)

func TestStaticPatternStaysAtOrigin(t *testing.T) {
	origin := Point{100, 80}
	for _, elapsed := range []float64{0, 1.5, 600} {
		pos, ok := patternPosition(origin, PatternStatic, 50, PatternParams{}, elapsed)
		if !ok || pos != origin {
			t.Fatalf("static at t=%.1f: got %+v, want %+v", elapsed, pos, origin)
		}
	}
}

func TestLinearPatternFollowsDirection(t *testing.T) {
	origin := Point{10, 10}
	params := PatternParams{Direction: Point{3, 4}} // normalized to (0.6, 0.8)
	pos, ok := patternPosition(origin, PatternLinear, 10, params, 2)
	if !ok {
		t.Fatalf("linear pattern not handled")
	}
	want := Point{10 + 0.6*20, 10 + 0.8*20}
	if math.Abs(pos.X-want.X) > 1e-9 || math.Abs(pos.Y-want.Y) > 1e-9 {
		t.Fatalf("linear at t=2: got %+v, want %+v", pos, want)
	}
}

func TestLinearPatternDegenerateDirection(t *testing.T) {
	pos, ok := patternPosition(Point{}, PatternLinear, 5, PatternParams{}, 1)
	if !ok {
		t.Fatalf("linear pattern not handled")
	}
	// Zero direction falls back to +X.
	if pos != (Point{5, 0}) {
		t.Fatalf("got %+v, want {5 0}", pos)
	}
}

func TestCircularPatternStaysOnOrbit(t *testing.T) {
	origin := Point{50, 50}
	params := PatternParams{Radius: 20}
	for _, elapsed := range []float64{0, 0.7, 3.3, 12} {
		pos, ok := patternPosition(origin, PatternCircular, 8, params, elapsed)
		if !ok {
			t.Fatalf("circular pattern not handled")
		}
		if d := pos.Sub(origin).Length(); math.Abs(d-20) > 1e-9 {
			t.Fatalf("orbit distance at t=%.1f: got %.6f, want 20", elapsed, d)
		}
	}
}

func TestCircularPatternZeroRadiusIsStatic(t *testing.T) {
	origin := Point{50, 50}
	pos, ok := patternPosition(origin, PatternCircular, 8, PatternParams{}, 5)
	if !ok || pos != origin {
		t.Fatalf("zero-radius orbit should stay at origin, got %+v", pos)
	}
}

func TestSineWavePatternOscillates(t *testing.T) {
	origin := Point{0, 100}
	params := PatternParams{Direction: Point{1, 0}, Amplitude: 10, Frequency: 1}
	// A quarter period along +X with perpendicular (0,1) offset at peak.
	pos, ok := patternPosition(origin, PatternSineWave, 4, params, 0.25)
	if !ok {
		t.Fatalf("sine pattern not handled")
	}
	if math.Abs(pos.X-1) > 1e-9 {
		t.Fatalf("along-axis travel: got %.6f, want 1", pos.X)
	}
	if math.Abs(pos.Y-110) > 1e-9 {
		t.Fatalf("perpendicular offset: got %.6f, want 110", pos.Y)
	}
	// Full period returns to the travel axis.
	pos, _ = patternPosition(origin, PatternSineWave, 4, params, 1)
	if math.Abs(pos.Y-100) > 1e-6 {
		t.Fatalf("after full period Y=%.6f, want 100", pos.Y)
	}
}

func TestDeterministicPatternsAreElapsedOnly(t *testing.T) {
	origin := Point{30, 30}
	cases := []struct {
		pattern MovementPattern
		params  PatternParams
	}{
		{PatternLinear, PatternParams{Direction: Point{1, 2}}},
		{PatternCircular, PatternParams{Radius: 15}},
		{PatternSineWave, PatternParams{Direction: Point{0, 1}, Amplitude: 6, Frequency: 0.5}},
	}
	for _, tc := range cases {
		a, _ := patternPosition(origin, tc.pattern, 7, tc.params, 4.2)
		// Evaluate intermediate instants, then the same instant again.
		patternPosition(origin, tc.pattern, 7, tc.params, 1.0)
		patternPosition(origin, tc.pattern, 7, tc.params, 2.0)
		b, _ := patternPosition(origin, tc.pattern, 7, tc.params, 4.2)
		if a != b {
			t.Fatalf("%v: same elapsed gave %+v then %+v", tc.pattern, a, b)
		}
	}
}

func TestRandomWalkIsNotPure(t *testing.T) {
	if _, ok := patternPosition(Point{}, PatternRandomWalk, 5, PatternParams{}, 1); ok {
		t.Fatalf("random walk must not be evaluated as a pure pattern")
	}
}
