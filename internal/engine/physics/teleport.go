package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/internal/engine/physics/dynamics"
)

// StartRigidBodyTeleport puts the body of guid under direct control. It
// reports whether the node has a body.
func (e *Environment) StartRigidBodyTeleport(guid string) bool {
	body, ok := e.bodies[guid]
	if !ok {
		return false
	}
	e.teleports[guid] = body
	return true
}

// UpdateRigidBodyTeleport moves a teleporting body to the rigid part of m
// and stops it dead: velocities, forces and gravity are zeroed until the
// teleport ends.
func (e *Environment) UpdateRigidBodyTeleport(guid string, m mgl32.Mat4) {
	body, ok := e.teleports[guid]
	if !ok {
		return
	}
	t := dynamics.TransformFromMat4(m)
	body.SetWorldTransform(t)
	if ms := body.MotionState(); ms != nil {
		ms.SetWorldTransform(t)
	}
	body.SetGravity(mgl32.Vec3{})
	body.SetLinearVelocity(mgl32.Vec3{})
	body.SetAngularVelocity(mgl32.Vec3{})
	body.ClearForces()
}

// EndRigidBodyTeleport hands the body back to the simulation with the
// world gravity.
func (e *Environment) EndRigidBodyTeleport(guid string) {
	body, ok := e.teleports[guid]
	if !ok {
		return
	}
	delete(e.teleports, guid)
	if !body.IsStatic() {
		body.SetGravity(e.gravity)
	}
	body.Activate(false)
}

// IsTeleporting reports whether guid is under direct control.
func (e *Environment) IsTeleporting(guid string) bool {
	_, ok := e.teleports[guid]
	return ok
}
