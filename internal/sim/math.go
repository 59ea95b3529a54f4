package sim

import (
	"math"
)

// Vec3 is a 3D vector in world coordinates: X east, Y north, Z up (meters).
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(other Vec3) Vec3 { return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z} }
func (v Vec3) Sub(other Vec3) Vec3 { return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z} }
func (v Vec3) Mul(scalar float64) Vec3 {
	return Vec3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

func (v Vec3) Length() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Normalize returns a unit vector. A zero or non-finite input yields (0,0,0)
// rather than NaN/Inf components.
func (v Vec3) Normalize() Vec3 {
	v = v.Sanitized()
	length := v.Length()
	if length == 0 {
		return Vec3{0, 0, 0}
	}
	return Vec3{v.X / length, v.Y / length, v.Z / length}
}

// NormalizeSafe normalizes unless |v| < eps, in which case it returns (0,0,0).
func (v Vec3) NormalizeSafe(eps float64) Vec3 {
	if v.Sanitized().Length() < eps {
		return Vec3{0, 0, 0}
	}
	return v.Normalize()
}

// Sanitized replaces NaN/Inf components with zero.
func (v Vec3) Sanitized() Vec3 {
	return Vec3{sanitizeFinite(v.X), sanitizeFinite(v.Y), sanitizeFinite(v.Z)}
}

func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// ClampLength scales v down so its magnitude does not exceed max.
func (v Vec3) ClampLength(max float64) Vec3 {
	if max <= 0 {
		return Vec3{}
	}
	l := v.Length()
	if l <= max || l == 0 {
		return v
	}
	return v.Mul(max / l)
}

func sanitizeFinite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func DegToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func RadToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

// wrapAngle maps an angle to [-pi, pi] in constant time, so callers holding
// a lock stay bounded even for huge finite inputs.
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
