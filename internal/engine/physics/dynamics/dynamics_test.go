package dynamics

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/pkg/math"
)

func newBody(shape *Shape, mass float32, pos mgl32.Vec3) *RigidBody {
	ms := NewDefaultMotionState(NewTransform(mgl32.QuatIdent(), pos))
	return NewRigidBody(NewRigidBodyConstructionInfo(mass, ms, shape, shape.CalculateLocalInertia(mass)))
}

func TestTransformRoundTrip(t *testing.T) {
	rot := math.QuatFromAxisAngle(mgl32.Vec3{0, 1, 0}, 0.8)
	tr := NewTransform(rot, mgl32.Vec3{1, 2, 3})

	m := tr.Mat4()
	want := math.Compose(mgl32.Vec3{1, 2, 3}, rot, math.Vec3One)
	if !math.MatApproxEqual(m, want, 1e-5) {
		t.Errorf("Mat4: got %v, want %v", m, want)
	}

	back := TransformFromMat4(m)
	if !math.Vec3ApproxEqual(back.Origin, tr.Origin, 1e-5) || !math.QuatApproxEqual(back.Rotation(), rot, 1e-5) {
		t.Errorf("TransformFromMat4 lost data: %+v", back)
	}

	id := tr.Mul(tr.Inverse())
	if !math.MatApproxEqual(id.Mat4(), mgl32.Ident4(), 1e-5) {
		t.Errorf("t * t^-1 should be identity, got %v", id.Mat4())
	}
}

func TestFreeFall(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.SleepTime = 0
	w := NewDiscreteDynamicsWorld(cfg)
	b := newBody(NewSphereShape(0.5), 1, mgl32.Vec3{0, 10, 0})
	w.AddRigidBody(b)

	for i := 0; i < 60; i++ {
		if n := w.StepSimulation(1.0 / 60); n != 1 {
			t.Fatalf("step %d: expected 1 sub-step, got %d", i, n)
		}
	}

	v := b.LinearVelocity()
	if gomath.Abs(float64(v[1]+10)) > 0.05 {
		t.Errorf("velocity after 1s of free fall: got %v, want ~(0,-10,0)", v)
	}
	if y := b.WorldTransform().Origin[1]; y > 5.5 || y < 4.5 {
		t.Errorf("height after 1s: got %v, want ~5", y)
	}
	if got := b.MotionState().WorldTransform().Origin; got != b.WorldTransform().Origin {
		t.Errorf("motion state not synchronized: %v vs %v", got, b.WorldTransform().Origin)
	}
}

func TestStaticBodyDoesNotMove(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	ground := newBody(NewStaticPlaneShape(mgl32.Vec3{0, 1, 0}, 0), 0, mgl32.Vec3{})
	w.AddRigidBody(ground)
	for i := 0; i < 10; i++ {
		w.StepSimulation(1.0 / 60)
	}
	if ground.WorldTransform().Origin != (mgl32.Vec3{}) {
		t.Errorf("static body moved to %v", ground.WorldTransform().Origin)
	}
	if ground.Gravity() != (mgl32.Vec3{}) {
		t.Errorf("static body should not take world gravity")
	}
}

func TestSubStepAccumulator(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.MaxSubSteps = 4
	w := NewDiscreteDynamicsWorld(cfg)

	tests := []struct {
		dt   float32
		want int
	}{
		{1.0 / 120, 0},
		{1.0 / 120, 1},
		{2.5 / 60, 2},
		{1, 4},
		{-1, 0},
	}
	for _, tt := range tests {
		if got := w.StepSimulation(tt.dt); got != tt.want {
			t.Errorf("StepSimulation(%v) = %d, want %d", tt.dt, got, tt.want)
		}
	}
}

func TestSleeping(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Gravity = mgl32.Vec3{}
	cfg.SleepTime = 0.5
	w := NewDiscreteDynamicsWorld(cfg)

	sleepy := newBody(NewBoxShape(mgl32.Vec3{1, 1, 1}), 1, mgl32.Vec3{})
	awake := newBody(NewBoxShape(mgl32.Vec3{1, 1, 1}), 1, mgl32.Vec3{10, 0, 0})
	awake.ForceActivationState(DisableDeactivation)
	w.AddRigidBody(sleepy)
	w.AddRigidBody(awake)

	for i := 0; i < 60; i++ {
		w.StepSimulation(1.0 / 60)
	}
	if sleepy.ActivationState() != IslandSleeping {
		t.Errorf("resting body should sleep, state %v", sleepy.ActivationState())
	}
	if awake.ActivationState() != DisableDeactivation {
		t.Errorf("body with deactivation disabled must stay awake, state %v", awake.ActivationState())
	}

	sleepy.Activate(false)
	if !sleepy.IsActive() {
		t.Error("Activate should wake the body")
	}
}

func TestActivationStateGuards(t *testing.T) {
	b := newBody(NewSphereShape(1), 1, mgl32.Vec3{})
	b.ForceActivationState(DisableSimulation)
	b.SetActivationState(Active)
	if b.ActivationState() != DisableSimulation {
		t.Errorf("SetActivationState must not override disabled simulation")
	}
	b.ForceActivationState(Active)
	if b.ActivationState() != Active {
		t.Errorf("ForceActivationState should always apply")
	}
}

func TestShapeReferences(t *testing.T) {
	shape := NewBoxShape(mgl32.Vec3{1, 1, 1})
	b1 := newBody(shape, 1, mgl32.Vec3{})
	b2 := newBody(shape, 1, mgl32.Vec3{})
	if shape.Refs() != 2 {
		t.Fatalf("Refs = %d, want 2", shape.Refs())
	}
	if err := shape.Release(); !errors.Is(err, ErrShapeInUse) {
		t.Errorf("expected ErrShapeInUse, got %v", err)
	}

	b1.Release()
	b1.Release()
	if shape.Refs() != 1 {
		t.Errorf("double release must drop one ref, Refs = %d", shape.Refs())
	}
	b2.Release()
	if err := shape.Release(); err != nil {
		t.Errorf("Release: %v", err)
	}
	if !b1.MotionState().Released() {
		t.Error("body release should release its motion state")
	}
}

func TestPairCache(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Gravity = mgl32.Vec3{}
	w := NewDiscreteDynamicsWorld(cfg)

	a := newBody(NewSphereShape(1), 1, mgl32.Vec3{0, 0, 0})
	b := newBody(NewSphereShape(1), 1, mgl32.Vec3{1, 0, 0})
	far := newBody(NewSphereShape(1), 1, mgl32.Vec3{50, 0, 0})
	w.AddRigidBody(a)
	w.AddRigidBody(b)
	w.AddRigidBody(far)
	w.StepSimulation(1.0 / 60)

	if !w.PairCache().Contains(a, b) {
		t.Error("overlapping spheres should form a pair")
	}
	if w.PairCache().Contains(a, far) {
		t.Error("distant spheres should not form a pair")
	}

	w.RemoveRigidBody(b)
	if w.PairCache().Len() != 0 {
		t.Errorf("removing a body should clean its pairs, %d left", w.PairCache().Len())
	}
}

func TestDisableCollisionsBetweenLinkedBodies(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Gravity = mgl32.Vec3{}
	w := NewDiscreteDynamicsWorld(cfg)

	a := newBody(NewSphereShape(1), 1, mgl32.Vec3{0, 0, 0})
	b := newBody(NewSphereShape(1), 1, mgl32.Vec3{1, 0, 0})
	w.AddRigidBody(a)
	w.AddRigidBody(b)
	w.AddConstraint(NewPoint2PointConstraint(a, b, mgl32.Vec3{0.5, 0, 0}, mgl32.Vec3{-0.5, 0, 0}), true)
	w.StepSimulation(1.0 / 60)

	if w.PairCache().Contains(a, b) {
		t.Error("linked bodies with collisions disabled must not pair")
	}
}

func TestPoint2PointPullsTowardsPivot(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Gravity = mgl32.Vec3{}
	cfg.SleepTime = 0
	w := NewDiscreteDynamicsWorld(cfg)

	b := newBody(NewSphereShape(0.5), 1, mgl32.Vec3{})
	b.SetDamping(0.5, 0.5)
	w.AddRigidBody(b)
	c := NewPoint2PointConstraintFixed(b, mgl32.Vec3{})
	c.SetPivotB(mgl32.Vec3{2, 0, 0})
	w.AddConstraint(c, false)

	start := b.WorldTransform().Origin.Sub(mgl32.Vec3{2, 0, 0}).Len()
	for i := 0; i < 30; i++ {
		w.StepSimulation(1.0 / 60)
	}
	end := b.WorldTransform().Origin.Sub(mgl32.Vec3{2, 0, 0}).Len()
	if end >= start {
		t.Errorf("constraint should pull the body in: distance %v -> %v", start, end)
	}
}

func TestSixDofParams(t *testing.T) {
	b := newBody(NewSphereShape(1), 1, mgl32.Vec3{})
	c := NewGeneric6DofConstraint(b, nil, IdentityTransform(), IdentityTransform())
	for axis := 0; axis < 6; axis++ {
		c.SetParam(ParamStopCFM, 0.1, axis)
		c.SetParam(ParamStopERP, 0.5, axis)
	}
	c.SetParam(ParamStopERP, 9, 6)

	if got := c.Param(ParamStopCFM, 2); got != 0.1 {
		t.Errorf("CFM = %v, want 0.1", got)
	}
	if got := c.Param(ParamStopERP, 5); got != 0.5 {
		t.Errorf("ERP = %v, want 0.5", got)
	}
	if got := c.Param(ParamStopERP, 6); got != 0 {
		t.Errorf("out of range axis should read 0, got %v", got)
	}
}

func TestRayTest(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	near := newBody(NewBoxShape(mgl32.Vec3{1, 1, 1}), 1, mgl32.Vec3{0, 0, -5})
	far := newBody(NewSphereShape(1), 1, mgl32.Vec3{0, 0, -10})
	w.AddRigidBody(far)
	w.AddRigidBody(near)

	res := w.RayTest(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -20})
	if res.Body != near {
		t.Fatalf("expected the near box, got %+v", res)
	}
	if !math.Vec3ApproxEqual(res.Point, mgl32.Vec3{0, 0, -4}, 1e-4) {
		t.Errorf("hit point: got %v, want (0, 0, -4)", res.Point)
	}
	if !math.Vec3ApproxEqual(res.Normal, mgl32.Vec3{0, 0, 1}, 1e-4) {
		t.Errorf("hit normal: got %v, want (0, 0, 1)", res.Normal)
	}

	miss := w.RayTest(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{5, 0, -20})
	if miss.HasHit() {
		t.Errorf("ray should miss, hit %+v", miss)
	}
}

func TestReleaseOrder(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	b := newBody(NewSphereShape(1), 1, mgl32.Vec3{})
	w.AddRigidBody(b)

	if err := w.Release(); !errors.Is(err, ErrWorldInUse) {
		t.Errorf("expected ErrWorldInUse, got %v", err)
	}
	w.RemoveRigidBody(b)
	if err := w.Release(); err != nil {
		t.Errorf("Release: %v", err)
	}
	if err := w.Release(); err != nil {
		t.Errorf("second Release should be a no-op, got %v", err)
	}
}
