package dynamics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/pkg/math"
)

// Transform is a rigid transform: a rotation basis and an origin. It never
// carries scale.
type Transform struct {
	Origin mgl32.Vec3
	Basis  mgl32.Mat3
}

// IdentityTransform returns the identity rigid transform.
func IdentityTransform() Transform {
	return Transform{Basis: mgl32.Ident3()}
}

// NewTransform builds a transform from a rotation and an origin.
func NewTransform(rot mgl32.Quat, origin mgl32.Vec3) Transform {
	return Transform{Origin: origin, Basis: math.NormalizeQuat(rot).Mat4().Mat3()}
}

// TransformFromMat4 extracts the rigid part of m. Scale is dropped.
func TransformFromMat4(m mgl32.Mat4) Transform {
	pos, rot, _ := math.Decompose(m)
	return NewTransform(rot, pos)
}

// Mat4 returns the transform as a 4x4 matrix.
func (t Transform) Mat4() mgl32.Mat4 {
	m := t.Basis.Mat4()
	m.SetCol(3, t.Origin.Vec4(1))
	return m
}

// Rotation returns the basis as a quaternion.
func (t Transform) Rotation() mgl32.Quat {
	return math.NormalizeQuat(mgl32.Mat4ToQuat(t.Basis.Mat4()))
}

// SetRotation replaces the basis.
func (t *Transform) SetRotation(q mgl32.Quat) {
	t.Basis = math.NormalizeQuat(q).Mat4().Mat3()
}

// Inverse returns the inverse rigid transform.
func (t Transform) Inverse() Transform {
	inv := t.Basis.Transpose()
	return Transform{Origin: inv.Mul3x1(t.Origin).Mul(-1), Basis: inv}
}

// Mul returns t * o.
func (t Transform) Mul(o Transform) Transform {
	return Transform{
		Origin: t.Apply(o.Origin),
		Basis:  t.Basis.Mul3(o.Basis),
	}
}

// Apply transforms a point.
func (t Transform) Apply(p mgl32.Vec3) mgl32.Vec3 {
	return t.Basis.Mul3x1(p).Add(t.Origin)
}

// MotionState mirrors a body's world transform for the caller. The world
// writes it after every step.
type MotionState struct {
	transform Transform
	released  bool
}

// NewDefaultMotionState creates a motion state at the given start transform.
func NewDefaultMotionState(start Transform) *MotionState {
	return &MotionState{transform: start}
}

// WorldTransform returns the last synchronized transform.
func (m *MotionState) WorldTransform() Transform { return m.transform }

// SetWorldTransform overwrites the transform.
func (m *MotionState) SetWorldTransform(t Transform) { m.transform = t }

// Release marks the motion state as freed. It is safe to call twice.
func (m *MotionState) Release() { m.released = true }

// Released reports whether Release was called.
func (m *MotionState) Released() bool { return m.released }
