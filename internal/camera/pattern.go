package camera

import (
	"math"
)

// Point is a 2D position in frame pixels. X grows right, Y grows down.
type Point struct {
	X, Y float64
}

func (p Point) Add(o Point) Point   { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point   { return Point{p.X - o.X, p.Y - o.Y} }
func (p Point) Mul(k float64) Point { return Point{p.X * k, p.Y * k} }
func (p Point) Length() float64     { return math.Hypot(p.X, p.Y) }

// unit returns the direction of p, or (1,0) when p is degenerate, so a
// misconfigured pattern still moves predictably instead of collapsing.
func (p Point) unit() Point {
	l := p.Length()
	if l < 1e-9 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Point{1, 0}
	}
	return Point{p.X / l, p.Y / l}
}

type MovementPattern int

const (
	PatternStatic MovementPattern = iota
	PatternLinear
	PatternCircular
	PatternSineWave
	PatternRandomWalk
)

func (p MovementPattern) String() string {
	switch p {
	case PatternStatic:
		return "static"
	case PatternLinear:
		return "linear"
	case PatternCircular:
		return "circular"
	case PatternSineWave:
		return "sine_wave"
	case PatternRandomWalk:
		return "random_walk"
	}
	return "unknown"
}

// PatternParams carries the per-pattern tunables. Unused fields are ignored.
type PatternParams struct {
	Direction Point   // linear/sine travel direction (normalized at use)
	Radius    float64 // circular orbit radius, px
	Amplitude float64 // sine oscillation amplitude, px
	Frequency float64 // sine oscillation frequency, Hz
	MaxStep   float64 // random walk step bound per update, px
}

// patternPosition evaluates the deterministic patterns as pure functions of
// (origin, elapsed, params): the same elapsed time always yields the same
// point, independent of how many frames were rendered in between.
// RandomWalk is the stateful exception and returns ok=false; the stream
// advances it incrementally instead.
func patternPosition(origin Point, pattern MovementPattern, speed float64, params PatternParams, elapsed float64) (Point, bool) {
	switch pattern {
	case PatternStatic:
		return origin, true

	case PatternLinear:
		return origin.Add(params.Direction.unit().Mul(speed * elapsed)), true

	case PatternCircular:
		r := math.Abs(params.Radius)
		if r < 1e-9 {
			return origin, true
		}
		omega := speed / r
		wt := omega * elapsed
		return Point{origin.X + r*math.Cos(wt), origin.Y + r*math.Sin(wt)}, true

	case PatternSineWave:
		dir := params.Direction.unit()
		perp := Point{-dir.Y, dir.X}
		along := dir.Mul(speed * elapsed)
		wave := perp.Mul(params.Amplitude * math.Sin(2*math.Pi*params.Frequency*elapsed))
		return origin.Add(along).Add(wave), true
	}
	return origin, false
}
