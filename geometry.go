package server

import "math"

// Vec3 is a position or direction in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// distance returns the Euclidean distance between two positions.
func distance(a, b Vec3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (v Vec3) sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// normalized returns the unit vector, or the zero vector for zero input.
func (v Vec3) normalized() Vec3 {
	length := v.length()
	if length == 0 {
		return Vec3{}
	}
	return v.scale(1 / length)
}

// clamped bounds every component to [-extent, extent].
func (v Vec3) clamped(extent float64) Vec3 {
	return Vec3{
		X: clamp(v.X, -extent, extent),
		Y: clamp(v.Y, -extent, extent),
		Z: clamp(v.Z, -extent, extent),
	}
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
