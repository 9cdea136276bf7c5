package math

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestComposeIdentity(t *testing.T) {
	m := Compose(mgl32.Vec3{}, mgl32.QuatIdent(), Vec3One)
	if !MatApproxEqual(m, mgl32.Ident4(), Epsilon) {
		t.Errorf("Compose of identity TRS should be identity, got %v", m)
	}
}

func TestComposeOrder(t *testing.T) {
	pos := mgl32.Vec3{1, 2, 3}
	rot := QuatFromAxisAngle(mgl32.Vec3{0, 1, 0}, float32(math.Pi/2))
	scale := mgl32.Vec3{2, 2, 2}

	m := Compose(pos, rot, scale)
	want := mgl32.Translate3D(1, 2, 3).Mul4(rot.Mat4()).Mul4(mgl32.Scale3D(2, 2, 2))
	if !MatApproxEqual(m, want, Epsilon) {
		t.Errorf("Compose: got %v, want %v", m, want)
	}

	// (1,0,0) is scaled to (2,0,0), rotated to (0,0,-2), then moved by pos.
	p := TransformPoint(m, mgl32.Vec3{1, 0, 0})
	if !Vec3ApproxEqual(p, mgl32.Vec3{1, 2, 1}, 1e-4) {
		t.Errorf("TransformPoint: got %v, want (1, 2, 1)", p)
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		pos   mgl32.Vec3
		rot   mgl32.Quat
		scale mgl32.Vec3
	}{
		{"identity", mgl32.Vec3{}, mgl32.QuatIdent(), Vec3One},
		{"translate", mgl32.Vec3{5, -3, 2}, mgl32.QuatIdent(), Vec3One},
		{"rotate", mgl32.Vec3{}, QuatFromAxisAngle(mgl32.Vec3{1, 1, 0}, 0.7), Vec3One},
		{"non-uniform scale", mgl32.Vec3{1, 1, 1}, QuatFromAxisAngle(mgl32.Vec3{0, 0, 1}, 1.2), mgl32.Vec3{1, 2, 3}},
		{"mirrored", mgl32.Vec3{0, 4, 0}, QuatFromAxisAngle(mgl32.Vec3{0, 1, 0}, 0.3), mgl32.Vec3{-1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compose(tt.pos, tt.rot, tt.scale)
			pos, rot, scale := Decompose(m)
			if !Vec3ApproxEqual(pos, tt.pos, 1e-4) {
				t.Errorf("pos: got %v, want %v", pos, tt.pos)
			}
			if !Vec3ApproxEqual(scale, tt.scale, 1e-4) {
				t.Errorf("scale: got %v, want %v", scale, tt.scale)
			}
			if back := Compose(pos, rot, scale); !MatApproxEqual(back, m, 1e-4) {
				t.Errorf("recomposed matrix differs: got %v, want %v", back, m)
			}
		})
	}
}

func TestInverseSingular(t *testing.T) {
	var zero mgl32.Mat4
	if got := Inverse(zero); got != mgl32.Ident4() {
		t.Errorf("Inverse of singular matrix should be identity, got %v", got)
	}

	m := Compose(mgl32.Vec3{1, 2, 3}, QuatFromAxisAngle(mgl32.Vec3{0, 1, 0}, 0.4), mgl32.Vec3{2, 2, 2})
	if !MatApproxEqual(m.Mul4(Inverse(m)), mgl32.Ident4(), 1e-4) {
		t.Error("M * M^-1 should be identity")
	}
}

func TestWithoutScale(t *testing.T) {
	m := Compose(mgl32.Vec3{1, 0, 0}, mgl32.QuatIdent(), mgl32.Vec3{3, 3, 3})
	got := WithoutScale(m)
	if !Vec3ApproxEqual(ScaleOf(got), Vec3One, 1e-5) {
		t.Errorf("WithoutScale: scale should be 1, got %v", ScaleOf(got))
	}
	if !Vec3ApproxEqual(Translation(got), mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Errorf("WithoutScale: translation changed to %v", Translation(got))
	}
}

func TestTransformDirection(t *testing.T) {
	m := mgl32.Translate3D(10, 20, 30)
	d := TransformDirection(m, mgl32.Vec3{0, 0, -1})
	if !Vec3ApproxEqual(d, mgl32.Vec3{0, 0, -1}, 1e-6) {
		t.Errorf("translation must not affect directions, got %v", d)
	}
}
