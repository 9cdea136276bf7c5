package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/internal/engine/animation"
	"github.com/Faultbox/iris3d/internal/engine/renderlist"
	"github.com/Faultbox/iris3d/internal/engine/skeleton"
	"github.com/Faultbox/iris3d/pkg/math"
)

func rig(t *testing.T) (*skeleton.Skeleton, *animation.SkeletalAnimation) {
	t.Helper()
	s, err := skeleton.FromHierarchy([]skeleton.BoneDesc{
		{Name: "root"},
		{Name: "arm", Parent: "root", Pos: mgl32.Vec3{1, 0, 0}},
	})
	if err != nil {
		t.Fatalf("FromHierarchy: %v", err)
	}
	anim := animation.New("swing")
	anim.AddBoneAnimation(&animation.BoneAnimation{
		Name: "arm",
		PosKeys: animation.NewVec3Curve(
			animation.Vec3Key{Time: 0, Value: mgl32.Vec3{1, 0, 0}},
			animation.Vec3Key{Time: 1, Value: mgl32.Vec3{3, 0, 0}},
		),
	})
	return s, anim
}

func TestMonotonicClock(t *testing.T) {
	s, anim := rig(t)
	m := NewWithAnimations([]*ModelMesh{NewModelMesh(&Mesh{Name: "arm"}, "arm")}, []*animation.SkeletalAnimation{anim})
	m.SetSkeleton(s)
	m.SetLooping(false)
	if !m.SetActiveAnimation("swing") {
		t.Fatal("SetActiveAnimation failed")
	}

	const n = 90
	for i := 0; i < n; i++ {
		m.UpdateAnimation(1.0 / 60)
	}
	want := float32(n) / 60
	if d := m.AnimationTime() - want; d > 1e-4 || d < -1e-4 {
		t.Errorf("AnimationTime = %v, want %v", m.AnimationTime(), want)
	}

	before := m.AnimationTime()
	m.UpdateAnimation(-0.5)
	if m.AnimationTime() != before {
		t.Errorf("negative dt changed time from %v to %v", before, m.AnimationTime())
	}
}

func TestLoopingWrapsSampleTime(t *testing.T) {
	s, anim := rig(t)
	mesh := NewModelMesh(&Mesh{Name: "arm"}, "arm")
	m := NewWithAnimations([]*ModelMesh{mesh}, []*animation.SkeletalAnimation{anim})
	m.SetSkeleton(s)
	m.SetActiveAnimation("swing")

	m.UpdateAnimation(1.5)
	if m.AnimationTime() != 1.5 {
		t.Errorf("elapsed time should not wrap, got %v", m.AnimationTime())
	}
	// 1.5 wraps to 0.5 on a one second clip.
	got := math.Translation(mesh.Transform)
	if !math.Vec3ApproxEqual(got, mgl32.Vec3{2, 0, 0}, 1e-4) {
		t.Errorf("arm at wrapped t=0.5: got %v, want (2, 0, 0)", got)
	}
}

func TestUnmatchedBindingKeepsTransform(t *testing.T) {
	s, anim := rig(t)
	stale := mgl32.Translate3D(7, 7, 7)
	prop := &ModelMesh{Mesh: &Mesh{Name: "prop"}, MeshName: "renamed-bone", Transform: stale}
	arm := NewModelMesh(&Mesh{Name: "arm"}, "arm")

	m := NewWithAnimations([]*ModelMesh{prop, arm}, []*animation.SkeletalAnimation{anim})
	m.SetSkeleton(s)
	m.SetActiveAnimation("swing")

	for _, tm := range []float32{0, 0.3, 0.9} {
		m.ApplyAnimation(tm)
		if prop.Transform != stale {
			t.Errorf("t=%v: unmatched binding transform changed to %v", tm, prop.Transform)
		}
	}
	if math.MatApproxEqual(arm.Transform, mgl32.Ident4(), 1e-6) {
		t.Error("matched binding should follow its bone")
	}
}

func TestTransformIsRederived(t *testing.T) {
	s, anim := rig(t)
	arm := NewModelMesh(&Mesh{Name: "arm"}, "arm")
	m := NewWithAnimations([]*ModelMesh{arm}, []*animation.SkeletalAnimation{anim})
	m.SetSkeleton(s)
	m.SetActiveAnimation("swing")

	m.ApplyAnimation(0.5)
	first := arm.Transform
	m.ApplyAnimation(0.5)
	if !math.MatApproxEqual(arm.Transform, first, 1e-6) {
		t.Errorf("applying the same time twice should give the same transform")
	}
}

func TestNestedSkeletonSkinned(t *testing.T) {
	s, anim := rig(t)
	inner, err := skeleton.FromHierarchy([]skeleton.BoneDesc{
		{Name: "root"},
		{Name: "arm", Parent: "root", Pos: mgl32.Vec3{1, 0, 0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	body := NewModelMesh(&Mesh{Name: "body", Skeleton: inner}, "root")
	m := NewWithAnimations([]*ModelMesh{body}, []*animation.SkeletalAnimation{anim})
	m.SetSkeleton(s)
	m.SetActiveAnimation("swing")

	m.ApplyAnimation(0)
	for i, sm := range inner.BoneTransforms() {
		if !math.MatApproxEqual(sm, mgl32.Ident4(), 1e-4) {
			t.Errorf("bone %d: skin at bind pose should be identity, got %v", i, sm)
		}
	}

	m.ApplyAnimation(1)
	arm := inner.Bone("arm").SkinMatrix
	if got := math.Translation(arm); !math.Vec3ApproxEqual(got, mgl32.Vec3{2, 0, 0}, 1e-4) {
		t.Errorf("arm skin translation: got %v, want (2, 0, 0)", got)
	}

	var list renderlist.List
	m.SubmitRenderItems(&list, mgl32.Ident4())
	if list.Count(renderlist.KindSkinnedMesh) != 1 {
		t.Fatalf("expected one skinned item, got %v", list.Items())
	}
	if n := len(list.Items()[0].SkinMatrices); n != 2 {
		t.Errorf("expected 2 skin matrices, got %d", n)
	}
}

func TestSetActiveAnimationUnknown(t *testing.T) {
	_, anim := rig(t)
	m := NewWithAnimations(nil, []*animation.SkeletalAnimation{anim})
	m.SetActiveAnimation("swing")
	if m.SetActiveAnimation("dance") {
		t.Error("unknown clip should not activate")
	}
	if m.ActiveAnimation() != anim {
		t.Error("active clip should be unchanged")
	}
}

func TestNoSkeletonIsNoop(t *testing.T) {
	_, anim := rig(t)
	mesh := NewModelMesh(&Mesh{Name: "crate"}, "crate")
	m := NewWithAnimations([]*ModelMesh{mesh}, []*animation.SkeletalAnimation{anim})
	m.SetActiveAnimation("swing")
	m.UpdateAnimation(0.5)
	if mesh.Transform != mgl32.Ident4() {
		t.Errorf("without a skeleton bindings stay put, got %v", mesh.Transform)
	}

	var list renderlist.List
	m.SubmitRenderItems(&list, mgl32.Translate3D(0, 1, 0))
	if list.Count(renderlist.KindMesh) != 1 {
		t.Fatalf("expected one mesh item, got %v", list.Items())
	}
	if got := math.Translation(list.Items()[0].World); got != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("world translation: got %v", got)
	}
}

func TestAddSkeletalAnimationReplacesByName(t *testing.T) {
	_, swing := rig(t)
	idle := animation.New("idle")
	m := NewWithAnimations(nil, []*animation.SkeletalAnimation{swing, idle})
	m.SetActiveAnimation("swing")

	swing2 := animation.New("swing")
	m.AddSkeletalAnimation(swing2)

	clips := m.SkeletalAnimations()
	if len(clips) != 2 {
		t.Fatalf("got %d clips, want 2", len(clips))
	}
	tests := []struct {
		i    int
		want *animation.SkeletalAnimation
	}{
		{0, swing2},
		{1, idle},
	}
	for _, tt := range tests {
		if clips[tt.i] != tt.want {
			t.Errorf("clip %d: got %q %p, want %p", tt.i, clips[tt.i].Name, clips[tt.i], tt.want)
		}
	}
	if got, ok := m.SkeletalAnimation("swing"); !ok || got != swing2 {
		t.Error("lookup should return the replacement")
	}
	if m.ActiveAnimation() != swing2 {
		t.Error("replacing the active clip should switch playback to the replacement")
	}
}
