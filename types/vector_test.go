package types

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestNormalize(t *testing.T) {
	v := Vec3{3, 0, 4}.Normalize()
	if d := math32.Abs(v.Len() - 1); d > 1e-6 {
		t.Fatalf("expected unit length vector; got len %f", v.Len())
	}

	if v := (Vec3{}).Normalize(); v != (Vec3{}) {
		t.Fatalf("expected zero vector to normalize to zero; got %v", v)
	}
}

func TestNormalizeTinyVectors(t *testing.T) {
	specs := []struct {
		in  Vec3
		exp Vec3
	}{
		{Vec3{0, 0, -1e-13}, Vec3{0, 0, -1}},
		{Vec3{1e-30, 0, 0}, Vec3{1, 0, 0}},
		{Vec3{0, 1e-40, 0}, Vec3{0, 1, 0}},
	}

	for specIndex, s := range specs {
		v := s.in.Normalize()
		for axis := 0; axis < 3; axis++ {
			if d := math32.Abs(v[axis] - s.exp[axis]); d > 1e-6 {
				t.Fatalf("[spec %d] expected %v; got %v", specIndex, s.exp, v)
			}
		}
	}
}

func TestRecip(t *testing.T) {
	r := Vec3{2, 0, -4}.Recip()
	if r[0] != 0.5 || r[2] != -0.25 {
		t.Fatalf("unexpected reciprocal %v", r)
	}
	if !math32.IsInf(r[1], 1) {
		t.Fatalf("expected +Inf for zero component; got %f", r[1])
	}

	negZero := math32.Copysign(0, -1)
	r = Vec3{negZero, 1, 1}.Recip()
	if !math32.IsInf(r[0], -1) {
		t.Fatalf("expected -Inf for negative zero component; got %f", r[0])
	}
}

func TestCrossDot(t *testing.T) {
	x := XYZ(1, 0, 0)
	y := XYZ(0, 1, 0)
	if z := x.Cross(y); z != XYZ(0, 0, 1) {
		t.Fatalf("expected x cross y to be +z; got %v", z)
	}
	if d := x.Dot(y); d != 0 {
		t.Fatalf("expected orthogonal vectors to have zero dot product; got %f", d)
	}
}

func TestMinMaxVec3(t *testing.T) {
	a := XYZ(1, 5, -2)
	b := XYZ(3, -1, -2)

	if v := MinVec3(a, b); v != XYZ(1, -1, -2) {
		t.Fatalf("unexpected min %v", v)
	}
	if v := MaxVec3(a, b); v != XYZ(3, 5, -2) {
		t.Fatalf("unexpected max %v", v)
	}
}
