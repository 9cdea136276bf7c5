package physics

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/iris3d/internal/engine/physics/dynamics"
)

// PickingHandleType identifies the input that holds a body.
type PickingHandleType int

const (
	PickingNone PickingHandleType = iota
	PickingLeftHand
	PickingRightHand
	PickingMouseButton
)

func (h PickingHandleType) String() string {
	switch h {
	case PickingNone:
		return "none"
	case PickingLeftHand:
		return "left-hand"
	case PickingRightHand:
		return "right-hand"
	case PickingMouseButton:
		return "mouse"
	default:
		return "unknown"
	}
}

type picking struct {
	guid       string
	body       *dynamics.RigidBody
	constraint *dynamics.Generic6DofConstraint
	savedState dynamics.ActivationState

	hitPos   mgl32.Vec3
	rayEnd   mgl32.Vec3
	distance float32
}

// CreatePickingConstraint attaches the body of guid to handle at the world
// point hit. segStart and segEnd are the picking ray; the body is later held
// at the same distance from the ray origin. An existing picking on the
// same handle is released first. It returns false when there is nothing to
// pick.
func (e *Environment) CreatePickingConstraint(handle PickingHandleType, guid string, hit, segStart, segEnd mgl32.Vec3) bool {
	if handle == PickingNone || e.world == nil {
		return false
	}
	body, ok := e.bodies[guid]
	if !ok || body.IsStatic() {
		return false
	}
	if _, held := e.pickings[handle]; held {
		e.CleanupPickingConstraint(handle)
	}

	saved := body.ActivationState()
	if other := e.holder(body); other != nil {
		saved = other.savedState
	}
	body.ForceActivationState(dynamics.DisableDeactivation)

	frameA := dynamics.IdentityTransform()
	frameA.Origin = body.WorldTransform().Inverse().Apply(hit)
	target := dynamics.IdentityTransform()
	target.Origin = hit

	c := dynamics.NewGeneric6DofConstraint(body, nil, frameA, target)
	c.SetAngularLowerLimit(mgl32.Vec3{})
	c.SetAngularUpperLimit(mgl32.Vec3{})
	for axis := 0; axis < 6; axis++ {
		c.SetParam(dynamics.ParamStopCFM, e.cfg.PickingCFM, axis)
		c.SetParam(dynamics.ParamStopERP, e.cfg.PickingERP, axis)
	}
	c.ImpulseClamp = e.cfg.PickingClamp
	e.AddConstraintToWorld(c, false)

	e.pickings[handle] = &picking{
		guid:       guid,
		body:       body,
		constraint: c,
		savedState: saved,
		hitPos:     hit,
		rayEnd:     segEnd,
		distance:   hit.Sub(segStart).Len(),
	}
	e.log.Debug("picking started", zap.Stringer("handle", handle), zap.String("guid", guid))
	return true
}

// UpdatePickingConstraint moves the target of handle along a new ray,
// keeping the distance from the original pick.
func (e *Environment) UpdatePickingConstraint(handle PickingHandleType, rayDir, cameraPos mgl32.Vec3) {
	p, ok := e.pickings[handle]
	if !ok || rayDir.Len() == 0 {
		return
	}
	pivot := cameraPos.Add(rayDir.Normalize().Mul(p.distance))
	target := p.constraint.FrameOffsetB()
	target.Origin = pivot
	p.constraint.SetFrames(p.constraint.FrameOffsetA(), target)
	p.rayEnd = cameraPos.Add(rayDir)
}

// UpdatePickingConstraintTransform moves the target of handle to the
// translation of m, as a tracked hand would.
func (e *Environment) UpdatePickingConstraintTransform(handle PickingHandleType, m mgl32.Mat4) {
	p, ok := e.pickings[handle]
	if !ok {
		return
	}
	p.constraint.SetFrames(p.constraint.FrameOffsetA(), dynamics.TransformFromMat4(m))
}

// PickingTarget returns the world point handle pulls towards.
func (e *Environment) PickingTarget(handle PickingHandleType) (mgl32.Vec3, bool) {
	p, ok := e.pickings[handle]
	if !ok {
		return mgl32.Vec3{}, false
	}
	return p.constraint.FrameOffsetB().Origin, true
}

// PickedGUID returns the GUID held by handle.
func (e *Environment) PickedGUID(handle PickingHandleType) (string, bool) {
	p, ok := e.pickings[handle]
	if !ok {
		return "", false
	}
	return p.guid, true
}

// CleanupPickingConstraint releases handle. The body gets its activation
// state back once no other handle holds it. Unknown handles are ignored.
func (e *Environment) CleanupPickingConstraint(handle PickingHandleType) {
	p, ok := e.pickings[handle]
	if !ok {
		return
	}
	delete(e.pickings, handle)

	if e.holder(p.body) == nil {
		p.body.ForceActivationState(p.savedState)
		p.body.Activate(false)
	}
	e.RemoveConstraintFromWorld(p.constraint)
	p.constraint.Release()
	e.log.Debug("picking released", zap.Stringer("handle", handle), zap.String("guid", p.guid))
}

// ActivePickingHandles returns the handles currently holding a body.
func (e *Environment) ActivePickingHandles() []PickingHandleType {
	out := make([]PickingHandleType, 0, len(e.pickings))
	for h := range e.pickings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (e *Environment) holder(body *dynamics.RigidBody) *picking {
	for _, p := range e.pickings {
		if p.body == body {
			return p
		}
	}
	return nil
}
