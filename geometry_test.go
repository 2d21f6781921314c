package server

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 6, Z: 3}
	if d := distance(a, b); d != 5 {
		t.Fatalf("expected 5, got %f", d)
	}
	if d := distance(a, a); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestNormalized(t *testing.T) {
	v := Vec3{X: 3, Y: 4}.normalized()
	if math.Abs(v.length()-1) > 1e-9 {
		t.Fatalf("expected unit length, got %f", v.length())
	}
	if zero := (Vec3{}).normalized(); zero != (Vec3{}) {
		t.Fatalf("zero vector should normalize to zero, got %+v", zero)
	}
}

func TestClampedKeepsVectorInBounds(t *testing.T) {
	v := Vec3{X: 1500, Y: -2000, Z: 10}.clamped(1000)
	if v.X != 1000 || v.Y != -1000 || v.Z != 10 {
		t.Fatalf("unexpected clamp result: %+v", v)
	}
}

func TestClamp(t *testing.T) {
	if clamp(5, 0, 10) != 5 {
		t.Fatalf("in-range value changed")
	}
	if clamp(-1, 0, 10) != 0 {
		t.Fatalf("lower clamp failed")
	}
	if clamp(11, 0, 10) != 10 {
		t.Fatalf("upper clamp failed")
	}
}
