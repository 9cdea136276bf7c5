package dynamics

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ActivationState controls whether a body is simulated.
type ActivationState int

const (
	Active ActivationState = iota + 1
	IslandSleeping
	WantsDeactivation
	DisableDeactivation
	DisableSimulation
)

func (s ActivationState) String() string {
	switch s {
	case Active:
		return "active"
	case IslandSleeping:
		return "island-sleeping"
	case WantsDeactivation:
		return "wants-deactivation"
	case DisableDeactivation:
		return "disable-deactivation"
	case DisableSimulation:
		return "disable-simulation"
	default:
		return "unknown"
	}
}

// RigidBodyConstructionInfo describes a new body. A zero mass makes the
// body static.
type RigidBodyConstructionInfo struct {
	Mass           float32
	MotionState    *MotionState
	Shape          *Shape
	LocalInertia   mgl32.Vec3
	StartTransform Transform // used when MotionState is nil

	LinearDamping  float32
	AngularDamping float32
	Friction       float32
	Restitution    float32
}

// NewRigidBodyConstructionInfo returns construction info with the usual
// friction and no damping.
func NewRigidBodyConstructionInfo(mass float32, ms *MotionState, shape *Shape, inertia mgl32.Vec3) RigidBodyConstructionInfo {
	return RigidBodyConstructionInfo{
		Mass:           mass,
		MotionState:    ms,
		Shape:          shape,
		LocalInertia:   inertia,
		StartTransform: IdentityTransform(),
		Friction:       0.5,
	}
}

// RigidBody is a simulated body. Static bodies have zero inverse mass.
type RigidBody struct {
	id uint64

	transform   Transform
	motionState *MotionState
	shape       *Shape

	invMass    float32
	invInertia mgl32.Vec3

	linVel      mgl32.Vec3
	angVel      mgl32.Vec3
	totalForce  mgl32.Vec3
	totalTorque mgl32.Vec3
	gravity     mgl32.Vec3

	linDamping  float32
	angDamping  float32
	friction    float32
	restitution float32

	activation     ActivationState
	deactivateTime float32

	// UserData links the body back to its owner, usually a node GUID.
	UserData string

	inWorld  bool
	released bool
}

// NewRigidBody creates a body and takes a reference on its shape.
func NewRigidBody(info RigidBodyConstructionInfo) *RigidBody {
	b := &RigidBody{
		motionState: info.MotionState,
		shape:       info.Shape,
		linDamping:  clamp01(info.LinearDamping),
		angDamping:  clamp01(info.AngularDamping),
		friction:    info.Friction,
		restitution: info.Restitution,
		activation:  Active,
	}
	if b.motionState != nil {
		b.transform = b.motionState.WorldTransform()
	} else {
		b.transform = info.StartTransform
		if b.transform.Basis == (mgl32.Mat3{}) {
			b.transform.Basis = mgl32.Ident3()
		}
	}
	if info.Mass > 0 {
		b.invMass = 1 / info.Mass
		for i := 0; i < 3; i++ {
			if info.LocalInertia[i] != 0 {
				b.invInertia[i] = 1 / info.LocalInertia[i]
			}
		}
	}
	if b.shape != nil {
		b.shape.refs++
	}
	return b
}

// Mass returns the body mass, zero for static bodies.
func (b *RigidBody) Mass() float32 {
	if b.invMass == 0 {
		return 0
	}
	return 1 / b.invMass
}

// InvMass returns the inverse mass.
func (b *RigidBody) InvMass() float32 { return b.invMass }

// IsStatic reports whether the body has infinite mass.
func (b *RigidBody) IsStatic() bool { return b.invMass == 0 }

// Shape returns the collision shape.
func (b *RigidBody) Shape() *Shape { return b.shape }

// MotionState returns the motion state, or nil.
func (b *RigidBody) MotionState() *MotionState { return b.motionState }

// WorldTransform returns the simulated transform.
func (b *RigidBody) WorldTransform() Transform { return b.transform }

// SetWorldTransform moves the body. The motion state is not touched.
func (b *RigidBody) SetWorldTransform(t Transform) { b.transform = t }

// LinearVelocity returns the linear velocity.
func (b *RigidBody) LinearVelocity() mgl32.Vec3 { return b.linVel }

// SetLinearVelocity sets the linear velocity.
func (b *RigidBody) SetLinearVelocity(v mgl32.Vec3) { b.linVel = v }

// AngularVelocity returns the angular velocity.
func (b *RigidBody) AngularVelocity() mgl32.Vec3 { return b.angVel }

// SetAngularVelocity sets the angular velocity.
func (b *RigidBody) SetAngularVelocity(v mgl32.Vec3) { b.angVel = v }

// ApplyCentralForce accumulates a force for the next step.
func (b *RigidBody) ApplyCentralForce(f mgl32.Vec3) {
	b.totalForce = b.totalForce.Add(f)
}

// ApplyTorque accumulates a torque for the next step.
func (b *RigidBody) ApplyTorque(t mgl32.Vec3) {
	b.totalTorque = b.totalTorque.Add(t)
}

// ApplyCentralImpulse changes the velocity immediately.
func (b *RigidBody) ApplyCentralImpulse(j mgl32.Vec3) {
	b.linVel = b.linVel.Add(j.Mul(b.invMass))
}

// TotalForce returns the accumulated force.
func (b *RigidBody) TotalForce() mgl32.Vec3 { return b.totalForce }

// ClearForces drops accumulated forces and torques.
func (b *RigidBody) ClearForces() {
	b.totalForce = mgl32.Vec3{}
	b.totalTorque = mgl32.Vec3{}
}

// Gravity returns the body's gravity acceleration.
func (b *RigidBody) Gravity() mgl32.Vec3 { return b.gravity }

// SetGravity sets the body's gravity acceleration.
func (b *RigidBody) SetGravity(g mgl32.Vec3) { b.gravity = g }

// SetDamping sets linear and angular damping, clamped to [0, 1].
func (b *RigidBody) SetDamping(linear, angular float32) {
	b.linDamping = clamp01(linear)
	b.angDamping = clamp01(angular)
}

// LinearDamping returns the linear damping.
func (b *RigidBody) LinearDamping() float32 { return b.linDamping }

// AngularDamping returns the angular damping.
func (b *RigidBody) AngularDamping() float32 { return b.angDamping }

// SetRestitution sets the restitution coefficient.
func (b *RigidBody) SetRestitution(r float32) { b.restitution = r }

// Restitution returns the restitution coefficient.
func (b *RigidBody) Restitution() float32 { return b.restitution }

// SetFriction sets the friction coefficient.
func (b *RigidBody) SetFriction(f float32) { b.friction = f }

// Friction returns the friction coefficient.
func (b *RigidBody) Friction() float32 { return b.friction }

// ActivationState returns the activation state.
func (b *RigidBody) ActivationState() ActivationState { return b.activation }

// SetActivationState changes the state unless deactivation or simulation
// has been disabled on the body.
func (b *RigidBody) SetActivationState(s ActivationState) {
	if b.activation == DisableDeactivation || b.activation == DisableSimulation {
		return
	}
	b.activation = s
}

// ForceActivationState changes the state unconditionally.
func (b *RigidBody) ForceActivationState(s ActivationState) {
	b.activation = s
}

// Activate wakes the body. Static bodies only wake when forced.
func (b *RigidBody) Activate(force bool) {
	if b.IsStatic() && !force {
		return
	}
	b.SetActivationState(Active)
	b.deactivateTime = 0
}

// IsActive reports whether the body is integrated by the world.
func (b *RigidBody) IsActive() bool {
	return b.activation != IslandSleeping && b.activation != DisableSimulation
}

// InWorld reports whether the body is currently added to a world.
func (b *RigidBody) InWorld() bool { return b.inWorld }

// Released reports whether Release was called.
func (b *RigidBody) Released() bool { return b.released }

// Release frees the body and its motion state and drops its shape
// reference. Remove the body from its world first.
func (b *RigidBody) Release() {
	if b.released {
		return
	}
	b.released = true
	if b.motionState != nil {
		b.motionState.Release()
	}
	if b.shape != nil && b.shape.refs > 0 {
		b.shape.refs--
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
