package scenegraph

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/internal/config"
	"github.com/Faultbox/iris3d/internal/engine/animation"
	"github.com/Faultbox/iris3d/internal/engine/model"
	"github.com/Faultbox/iris3d/internal/engine/physics"
	"github.com/Faultbox/iris3d/internal/engine/renderlist"
	"github.com/Faultbox/iris3d/internal/engine/skeleton"
	"github.com/Faultbox/iris3d/pkg/math"
)

const frame = 1.0 / 60

func ballProp() *physics.Property {
	p := physics.DefaultProperty()
	p.Type = physics.TypeRigidBody
	p.Shape = physics.ShapeSphere
	return p
}

func TestTransformPropagation(t *testing.T) {
	s := New(config.Default(), nil)
	parent := NewNode("parent")
	parent.SetLocalPos(mgl32.Vec3{1, 0, 0})
	parent.SetLocalRot(math.QuatFromAxisAngle(mgl32.Vec3{0, 1, 0}, mgl32.DegToRad(90)))
	child := NewNode("child")
	child.SetLocalPos(mgl32.Vec3{0, 0, -2})
	parent.AddChild(child)
	s.AddNode(parent)

	s.Update(frame)

	want := parent.GlobalTransform().Mul4(child.LocalTransform())
	if !math.MatApproxEqual(child.GlobalTransform(), want, 1e-5) {
		t.Errorf("child global: got %v, want %v", child.GlobalTransform(), want)
	}
	// -Z turned 90 degrees about Y points along -X.
	if got := child.GlobalPosition(); !math.Vec3ApproxEqual(got, mgl32.Vec3{-1, 0, 0}, 1e-5) {
		t.Errorf("child position: got %v, want (-1, 0, 0)", got)
	}
	if s.Node(child.GUID()) != child {
		t.Error("child should be registered with the scene")
	}
}

func TestGlobalOverrideLastsOneTick(t *testing.T) {
	s := New(config.Default(), nil)
	parent := NewNode("parent")
	child := NewNode("child")
	child.SetLocalPos(mgl32.Vec3{0, 1, 0})
	parent.AddChild(child)
	s.AddNode(parent)
	s.Update(frame)

	parent.SetGlobalTransform(mgl32.Translate3D(10, 0, 0))
	s.Update(frame)
	if got := parent.GlobalPosition(); got != (mgl32.Vec3{10, 0, 0}) {
		t.Errorf("override should hold for the tick, got %v", got)
	}
	if got := child.GlobalPosition(); !math.Vec3ApproxEqual(got, mgl32.Vec3{10, 1, 0}, 1e-5) {
		t.Errorf("child should inherit the override, got %v", got)
	}

	s.Update(frame)
	if got := parent.GlobalPosition(); got != (mgl32.Vec3{}) {
		t.Errorf("without a new override the local transform wins, got %v", got)
	}
}

func TestNegativeDeltaDoesNotRewind(t *testing.T) {
	s := New(config.Default(), nil)
	s.Update(0.5)
	s.Update(-1)
	if s.RunningTime() != 0.5 {
		t.Errorf("RunningTime = %v, want 0.5", s.RunningTime())
	}
}

func TestCameraUpdatedExplicitly(t *testing.T) {
	s := New(config.Default(), nil)
	cam := NewCamera("cam")
	cam.SetLocalPos(mgl32.Vec3{0, 0, 5})
	s.AddNode(&cam.Node)

	s.Update(frame)
	if cam.GlobalTransform() != mgl32.Ident4() {
		t.Error("cameras are not part of the root walk")
	}

	s.SetCamera(cam)
	s.Update(frame)
	if got := cam.GlobalPosition(); got != (mgl32.Vec3{0, 0, 5}) {
		t.Errorf("active camera position: got %v", got)
	}
	if got := math.TransformPoint(cam.View(), mgl32.Vec3{0, 0, 0}); !math.Vec3ApproxEqual(got, mgl32.Vec3{0, 0, -5}, 1e-5) {
		t.Errorf("origin in view space: got %v, want (0, 0, -5)", got)
	}
}

func TestCameraPickingDirection(t *testing.T) {
	cam := NewCamera("cam")
	cam.SetLocalPos(mgl32.Vec3{5, 0, 0})
	cam.LookAt(mgl32.Vec3{})
	cam.Update(frame)

	dir := cam.CalculatePickingDirection(800, 600, 400, 300)
	if !math.Vec3ApproxEqual(dir, mgl32.Vec3{-1, 0, 0}, 1e-4) {
		t.Errorf("center ray: got %v, want (-1, 0, 0)", dir)
	}

	cam.Projection = Orthographic
	cam.UpdateCameraMatrices()
	if cam.ProjectionMatrix() == mgl32.Ident4() {
		t.Error("orthographic projection not built")
	}
}

func TestSimulationOverridesNodes(t *testing.T) {
	s := New(config.Default(), nil)
	pinned := NewNode("pinned")
	pinned.SetLocalPos(mgl32.Vec3{0, 5, 0})
	pinned.SetPhysicsProperty(ballProp())
	pinned.DisablePhysicsTransform(true)
	free := NewNode("free")
	free.SetLocalPos(mgl32.Vec3{5, 5, 0})
	free.SetPhysicsProperty(ballProp())
	s.AddNode(pinned)
	s.AddNode(free)
	s.Update(frame)

	pinnedBefore := pinned.GlobalTransform()
	s.StartSimulation()
	if !s.Environment().IsSimulating() {
		t.Fatal("simulation should be running")
	}
	lastY := free.GlobalPosition()[1]
	for i := 0; i < 20; i++ {
		s.Update(frame)
		if y := free.GlobalPosition()[1]; y >= lastY {
			t.Fatalf("frame %d: free node should fall, y %v -> %v", i, lastY, y)
		}
		lastY = free.GlobalPosition()[1]
		if pinned.GlobalTransform() != pinnedBefore {
			t.Fatalf("frame %d: pinned node moved", i)
		}
	}

	s.StopSimulation()
	s.Update(frame)
	if got := free.GlobalPosition(); !math.Vec3ApproxEqual(got, mgl32.Vec3{5, 5, 0}, 1e-5) {
		t.Errorf("stop should restore the node, got %v", got)
	}
	if s.Environment().Stats().Bodies != 0 {
		t.Error("stop should drop bodies")
	}

	s.RestartSimulation()
	if s.Environment().Stats().Bodies != 2 {
		t.Errorf("restart should rebuild bodies, got %d", s.Environment().Stats().Bodies)
	}
}

func TestStartSimulationBeforeFirstUpdate(t *testing.T) {
	tests := []struct {
		name   string
		parent mgl32.Vec3
		local  mgl32.Vec3
		want   mgl32.Vec3
	}{
		{"root child", mgl32.Vec3{}, mgl32.Vec3{2, 3, 4}, mgl32.Vec3{2, 3, 4}},
		{"nested", mgl32.Vec3{10, 0, 0}, mgl32.Vec3{0, 5, 0}, mgl32.Vec3{10, 5, 0}},
	}
	for _, tt := range tests {
		s := New(config.Default(), nil)
		parent := NewNode("parent")
		parent.SetLocalPos(tt.parent)
		ball := NewNode("ball")
		ball.SetLocalPos(tt.local)
		ball.SetPhysicsProperty(ballProp())
		parent.AddChild(ball)
		s.AddNode(parent)

		s.StartSimulation()
		body, ok := s.Environment().Body(ball.GUID())
		if !ok {
			t.Fatalf("%s: no body", tt.name)
		}
		if got := body.WorldTransform().Origin; !math.Vec3ApproxEqual(got, tt.want, 1e-5) {
			t.Errorf("%s: body at %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSceneDebugLines(t *testing.T) {
	cfg := config.Default()
	cfg.Physics.DebugDraw = "aabb"
	s := New(cfg, nil)
	ball := NewNode("ball")
	ball.SetLocalPos(mgl32.Vec3{0, 5, 0})
	ball.SetPhysicsProperty(ballProp())
	s.AddNode(ball)
	s.StartSimulation()
	s.Update(frame)

	items := s.DebugRenderList().Items()
	if len(items) != 1 || items[0].Kind != renderlist.KindLines || items[0].Mesh != ball.GUID() {
		t.Fatalf("expected one box for the ball, got %v", items)
	}
	if s.RenderList().Count(renderlist.KindLines) != 0 {
		t.Error("debug lines belong to the debug list only")
	}
}

func TestRemoveNodeDropsBodies(t *testing.T) {
	s := New(config.Default(), nil)
	parent := NewNode("parent")
	parent.SetPhysicsProperty(ballProp())
	child := NewNode("child")
	child.SetLocalPos(mgl32.Vec3{0, 5, 0})
	child.SetPhysicsProperty(ballProp())
	parent.AddChild(child)
	s.AddNode(parent)
	s.Update(frame)
	s.StartSimulation()

	s.RemoveNode(parent)
	env := s.Environment()
	for _, n := range []*Node{parent, child} {
		if _, ok := env.Body(n.GUID()); ok {
			t.Errorf("%s: body still tracked", n.Name)
		}
		if _, ok := env.Snapshot(n.GUID()); ok {
			t.Errorf("%s: snapshot still tracked", n.Name)
		}
		if s.Node(n.GUID()) != nil {
			t.Errorf("%s: still registered", n.Name)
		}
	}
	if len(s.Root().Children()) != 0 {
		t.Error("removed node still attached to the root")
	}
	s.Update(frame)
}

func TestGUIDCollisionRerolls(t *testing.T) {
	s := New(config.Default(), nil)
	a := NewNode("a")
	b := NewNode("b")
	b.guid = a.guid
	s.AddNode(a)
	s.AddNode(b)
	if a.GUID() == b.GUID() {
		t.Fatal("colliding GUID should be replaced")
	}
	if s.Node(a.GUID()) != a || s.Node(b.GUID()) != b {
		t.Error("both nodes should be reachable by GUID")
	}
}

func TestPick(t *testing.T) {
	s := New(config.Default(), nil)
	target := NewNode("target")
	target.SetLocalPos(mgl32.Vec3{0, 0, -10})
	prop := ballProp()
	prop.Static = true
	target.SetPhysicsProperty(prop)
	s.AddNode(target)
	s.Update(frame)
	s.StartSimulation()

	n, hit, ok := s.Pick(mgl32.Vec3{}, mgl32.Vec3{0, 0, -100})
	if !ok || n != target {
		t.Fatalf("expected to hit target, got %v %v", n, ok)
	}
	if !math.Vec3ApproxEqual(hit, mgl32.Vec3{0, 0, -9}, 1e-3) {
		t.Errorf("hit point: got %v, want (0, 0, -9)", hit)
	}
	if _, _, ok := s.Pick(mgl32.Vec3{5, 5, 0}, mgl32.Vec3{5, 5, -100}); ok {
		t.Error("ray should miss")
	}
}

func TestAnimatedMeshSubmitsSkinnedItem(t *testing.T) {
	skel, err := skeleton.FromHierarchy([]skeleton.BoneDesc{
		{Name: "R"},
		{Name: "C", Parent: "R", Pos: mgl32.Vec3{1, 0, 0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	anim := animation.New("move")
	anim.AddBoneAnimation(&animation.BoneAnimation{
		Name: "C",
		PosKeys: animation.NewVec3Curve(
			animation.Vec3Key{Time: 0, Value: mgl32.Vec3{1, 0, 0}},
			animation.Vec3Key{Time: 1, Value: mgl32.Vec3{2, 0, 0}},
		),
	})
	body := model.NewModelMesh(&model.Mesh{Name: "body", Skeleton: skel}, "R")
	m := model.NewWithAnimations([]*model.ModelMesh{body}, []*animation.SkeletalAnimation{anim})
	m.SetSkeleton(skel)
	m.SetLooping(false)
	m.SetActiveAnimation("move")

	s := New(config.Default(), nil)
	node := NewMeshNode("rig", m)
	node.SetLocalPos(mgl32.Vec3{0, 3, 0})
	s.AddNode(node)

	for i := 0; i < 30; i++ {
		s.Update(frame)
	}
	got := math.Translation(skel.Bone("C").TransformMatrix)
	if !math.Vec3ApproxEqual(got, mgl32.Vec3{1.5, 0, 0}, 1e-3) {
		t.Errorf("C after 0.5s: got %v, want (1.5, 0, 0)", got)
	}

	list := s.RenderList()
	if list.Count(renderlist.KindSkinnedMesh) != 1 {
		t.Fatalf("expected one skinned item, got %v", list.Items())
	}
	item := list.Items()[0]
	if got := math.Translation(item.World); !math.Vec3ApproxEqual(got, mgl32.Vec3{0, 3, 0}, 1e-5) {
		t.Errorf("item world translation: got %v", got)
	}

	s.UpdateSceneAnimation(1)
	got = math.Translation(skel.Bone("C").TransformMatrix)
	if !math.Vec3ApproxEqual(got, mgl32.Vec3{2, 0, 0}, 1e-5) {
		t.Errorf("C at t=1: got %v, want (2, 0, 0)", got)
	}
}
