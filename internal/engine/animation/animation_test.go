package animation

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/pkg/math"
)

func TestVec3CurveLinear(t *testing.T) {
	c := NewVec3Curve(
		Vec3Key{Time: 1, Value: mgl32.Vec3{2, 0, 0}},
		Vec3Key{Time: 0, Value: mgl32.Vec3{1, 0, 0}},
	)

	tests := []struct {
		time float32
		want mgl32.Vec3
	}{
		{-1, mgl32.Vec3{1, 0, 0}}, // before first key
		{0, mgl32.Vec3{1, 0, 0}},
		{0.5, mgl32.Vec3{1.5, 0, 0}},
		{1, mgl32.Vec3{2, 0, 0}},
		{3, mgl32.Vec3{2, 0, 0}}, // past last key
	}
	for _, tt := range tests {
		got := c.ValueAt(tt.time, mgl32.Vec3{})
		if !math.Vec3ApproxEqual(got, tt.want, 1e-6) {
			t.Errorf("ValueAt(%v) = %v, want %v", tt.time, got, tt.want)
		}
	}
}

func TestVec3CurveStep(t *testing.T) {
	c := NewVec3Curve(
		Vec3Key{Time: 0, Value: mgl32.Vec3{0, 1, 0}},
		Vec3Key{Time: 1, Value: mgl32.Vec3{0, 5, 0}},
	)
	c.Interpolation = Step

	if got := c.ValueAt(0.99, mgl32.Vec3{}); got != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("step curve should hold previous key, got %v", got)
	}
}

func TestEmptyCurveFallback(t *testing.T) {
	var pos *Vec3Curve
	if got := pos.ValueAt(2, mgl32.Vec3{7, 7, 7}); got != (mgl32.Vec3{7, 7, 7}) {
		t.Errorf("nil curve should return fallback, got %v", got)
	}

	rot := NewQuatCurve()
	if got := rot.ValueAt(2, mgl32.QuatIdent()); got != mgl32.QuatIdent() {
		t.Errorf("empty curve should return fallback, got %v", got)
	}
}

func TestQuatCurveSlerp(t *testing.T) {
	q90 := math.QuatFromAxisAngle(mgl32.Vec3{0, 0, 1}, float32(gomath.Pi/2))
	c := NewQuatCurve(
		QuatKey{Time: 0, Value: mgl32.QuatIdent()},
		QuatKey{Time: 2, Value: q90},
	)

	got := c.ValueAt(1, mgl32.QuatIdent())
	want := math.QuatFromAxisAngle(mgl32.Vec3{0, 0, 1}, float32(gomath.Pi/4))
	if !math.QuatApproxEqual(got, want, 1e-5) {
		t.Errorf("ValueAt(1) = %v, want %v", got, want)
	}
}

func TestBoneAnimationDefaults(t *testing.T) {
	b := &BoneAnimation{
		Name:    "arm",
		PosKeys: NewVec3Curve(Vec3Key{Time: 0, Value: mgl32.Vec3{0, 3, 0}}),
	}
	pos, rot, scale := b.Sample(10)
	if pos != (mgl32.Vec3{0, 3, 0}) {
		t.Errorf("pos = %v", pos)
	}
	if rot != mgl32.QuatIdent() {
		t.Errorf("missing rotation curve should give identity, got %v", rot)
	}
	if scale != math.Vec3One {
		t.Errorf("missing scale curve should give unit scale, got %v", scale)
	}
}

func TestSkeletalAnimationSample(t *testing.T) {
	anim := New("wave")
	anim.AddBoneAnimation(&BoneAnimation{
		Name: "hand",
		PosKeys: NewVec3Curve(
			Vec3Key{Time: 0, Value: mgl32.Vec3{0, 0, 0}},
			Vec3Key{Time: 1.5, Value: mgl32.Vec3{3, 0, 0}},
		),
	})

	if anim.Length != 1.5 {
		t.Errorf("Length should cover the keys, got %v", anim.Length)
	}

	if _, _, _, ok := anim.Sample("foot", 0.5); ok {
		t.Error("expected no channel for foot")
	}
	pos, _, _, ok := anim.Sample("hand", 0.75)
	if !ok {
		t.Fatal("expected channel for hand")
	}
	if !math.Vec3ApproxEqual(pos, mgl32.Vec3{1.5, 0, 0}, 1e-6) {
		t.Errorf("hand pos at 0.75 = %v", pos)
	}

	var missing *SkeletalAnimation
	if _, ok := missing.Channel("hand"); ok {
		t.Error("nil clip must report no channels")
	}
}

func TestComputeLengthAndWrap(t *testing.T) {
	anim := &SkeletalAnimation{BoneAnimations: map[string]*BoneAnimation{
		"a": {Name: "a", RotKeys: NewQuatCurve(QuatKey{Time: 2, Value: mgl32.QuatIdent()})},
		"b": {Name: "b", ScaleKeys: NewVec3Curve(Vec3Key{Time: 4, Value: math.Vec3One})},
	}}

	if got := anim.ComputeLength(); got != 4 {
		t.Fatalf("ComputeLength = %v, want 4", got)
	}
	if got := anim.Wrap(5); gomath.Abs(float64(got-1)) > 1e-6 {
		t.Errorf("Wrap(5) = %v, want 1", got)
	}

	still := New("pose")
	if got := still.Wrap(5); got != 5 {
		t.Errorf("zero-length clip must not wrap, got %v", got)
	}
}
