package dynamics

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Constraint links one body to another body or to the world.
type Constraint interface {
	BodyA() *RigidBody
	// BodyB returns nil for constraints against the world.
	BodyB() *RigidBody
	Release()
	Released() bool

	solve(h float32)
}

type constraintBase struct {
	a, b     *RigidBody
	released bool
}

func (c *constraintBase) BodyA() *RigidBody { return c.a }
func (c *constraintBase) BodyB() *RigidBody { return c.b }
func (c *constraintBase) Release()          { c.released = true }
func (c *constraintBase) Released() bool    { return c.released }

// share returns the fraction of a correction that goes to a and to b.
func (c *constraintBase) share() (sa, sb float32) {
	ia := c.a.invMass
	var ib float32
	if c.b != nil {
		ib = c.b.invMass
	}
	sum := ia + ib
	if sum == 0 {
		return 0, 0
	}
	return ia / sum, ib / sum
}

// ConstraintSetting tunes a point to point constraint.
type ConstraintSetting struct {
	Tau          float32
	Damping      float32
	ImpulseClamp float32 // zero disables clamping
}

// Point2PointConstraint pins a pivot on body A to a pivot on body B, or to a
// fixed world point.
type Point2PointConstraint struct {
	constraintBase
	pivotA, pivotB mgl32.Vec3
	Setting        ConstraintSetting
}

// NewPoint2PointConstraint pins pivotA (A local) to pivotB (B local).
func NewPoint2PointConstraint(a, b *RigidBody, pivotA, pivotB mgl32.Vec3) *Point2PointConstraint {
	return &Point2PointConstraint{
		constraintBase: constraintBase{a: a, b: b},
		pivotA:         pivotA,
		pivotB:         pivotB,
		Setting:        ConstraintSetting{Tau: 0.3, Damping: 1},
	}
}

// NewPoint2PointConstraintFixed pins pivotA to its current world position.
func NewPoint2PointConstraintFixed(a *RigidBody, pivotA mgl32.Vec3) *Point2PointConstraint {
	return NewPoint2PointConstraint(a, nil, pivotA, a.transform.Apply(pivotA))
}

// PivotA returns the pivot in A's local space.
func (c *Point2PointConstraint) PivotA() mgl32.Vec3 { return c.pivotA }

// PivotB returns the pivot in B's local space, or in world space for
// constraints against the world.
func (c *Point2PointConstraint) PivotB() mgl32.Vec3 { return c.pivotB }

// SetPivotB moves the target pivot.
func (c *Point2PointConstraint) SetPivotB(p mgl32.Vec3) { c.pivotB = p }

func (c *Point2PointConstraint) solve(h float32) {
	pa := c.a.transform.Apply(c.pivotA)
	pb := c.pivotB
	var vb mgl32.Vec3
	if c.b != nil {
		pb = c.b.transform.Apply(c.pivotB)
		vb = c.b.linVel
	}

	// Drive the relative velocity towards tau of the error per step.
	target := pb.Sub(pa).Mul(c.Setting.Tau / h)
	dv := target.Sub(c.a.linVel.Sub(vb)).Mul(c.Setting.Damping)
	if c.Setting.ImpulseClamp > 0 && dv.Len() > c.Setting.ImpulseClamp {
		dv = dv.Normalize().Mul(c.Setting.ImpulseClamp)
	}
	sa, sb := c.share()
	if c.a.invMass > 0 {
		c.a.linVel = c.a.linVel.Add(dv.Mul(sa))
	}
	if c.b != nil && c.b.invMass > 0 {
		c.b.linVel = c.b.linVel.Sub(dv.Mul(sb))
	}
}

// ConstraintParam selects a tunable of a 6-DoF axis.
type ConstraintParam uint8

const (
	ParamStopERP ConstraintParam = iota
	ParamStopCFM
)

// Default axis tuning for new 6-DoF constraints.
const (
	DefaultStopERP = 0.2
	DefaultStopCFM = 0
)

type axisParams struct {
	erp, cfm float32
}

// Generic6DofConstraint limits the relative motion of two frames along three
// linear and three angular axes. A lower limit above the upper limit leaves
// the axis free; equal limits lock it.
//
// Axes are compliant: each stop drives the body towards erp of the error per
// step, softened by 1/(1+cfm).
type Generic6DofConstraint struct {
	constraintBase
	frameA, frameB Transform

	linLower, linUpper mgl32.Vec3
	angLower, angUpper mgl32.Vec3

	// axes 0..2 linear, 3..5 angular
	params [6]axisParams

	// ImpulseClamp bounds the linear velocity change per pass. Zero disables it.
	ImpulseClamp float32
}

// NewGeneric6DofConstraint creates a constraint between frameA on body A and
// frameB on body B. With a nil B, frameB is in world space. All axes start
// locked.
func NewGeneric6DofConstraint(a, b *RigidBody, frameA, frameB Transform) *Generic6DofConstraint {
	c := &Generic6DofConstraint{
		constraintBase: constraintBase{a: a, b: b},
		frameA:         frameA,
		frameB:         frameB,
	}
	for i := range c.params {
		c.params[i] = axisParams{erp: DefaultStopERP, cfm: DefaultStopCFM}
	}
	return c
}

// SetLinearLowerLimit sets the lower linear limits.
func (c *Generic6DofConstraint) SetLinearLowerLimit(v mgl32.Vec3) { c.linLower = v }

// SetLinearUpperLimit sets the upper linear limits.
func (c *Generic6DofConstraint) SetLinearUpperLimit(v mgl32.Vec3) { c.linUpper = v }

// SetAngularLowerLimit sets the lower angular limits.
func (c *Generic6DofConstraint) SetAngularLowerLimit(v mgl32.Vec3) { c.angLower = v }

// SetAngularUpperLimit sets the upper angular limits.
func (c *Generic6DofConstraint) SetAngularUpperLimit(v mgl32.Vec3) { c.angUpper = v }

// SetParam sets a tunable on one axis (0..5). Out of range axes are ignored.
func (c *Generic6DofConstraint) SetParam(p ConstraintParam, value float32, axis int) {
	if axis < 0 || axis >= len(c.params) {
		return
	}
	switch p {
	case ParamStopERP:
		c.params[axis].erp = value
	case ParamStopCFM:
		c.params[axis].cfm = value
	}
}

// Param returns a tunable of one axis.
func (c *Generic6DofConstraint) Param(p ConstraintParam, axis int) float32 {
	if axis < 0 || axis >= len(c.params) {
		return 0
	}
	if p == ParamStopCFM {
		return c.params[axis].cfm
	}
	return c.params[axis].erp
}

// FrameOffsetA returns frame A in A's local space.
func (c *Generic6DofConstraint) FrameOffsetA() Transform { return c.frameA }

// FrameOffsetB returns frame B.
func (c *Generic6DofConstraint) FrameOffsetB() Transform { return c.frameB }

// SetFrames replaces both frames.
func (c *Generic6DofConstraint) SetFrames(frameA, frameB Transform) {
	c.frameA = frameA
	c.frameB = frameB
}

func (c *Generic6DofConstraint) solve(h float32) {
	wa := c.a.transform.Mul(c.frameA)
	wb := c.frameB
	var vb mgl32.Vec3
	if c.b != nil {
		wb = c.b.transform.Mul(c.frameB)
		vb = c.b.linVel
	}

	// Work in frame A's axes.
	basisT := wa.Basis.Transpose()
	offset := basisT.Mul3x1(wb.Origin.Sub(wa.Origin))
	rel := basisT.Mul3x1(c.a.linVel.Sub(vb))
	var dvLocal mgl32.Vec3
	for i := 0; i < 3; i++ {
		lo, hi := c.linLower[i], c.linUpper[i]
		if lo > hi {
			continue
		}
		clamped := offset[i]
		if clamped < lo {
			clamped = lo
		} else if clamped > hi {
			clamped = hi
		}
		err := offset[i] - clamped
		if err == 0 && lo != hi {
			continue
		}
		p := c.params[i]
		target := err * p.erp / h
		dvLocal[i] = (target - rel[i]) / (1 + p.cfm)
	}
	dv := wa.Basis.Mul3x1(dvLocal)
	if c.ImpulseClamp > 0 && dv.Len() > c.ImpulseClamp {
		dv = dv.Normalize().Mul(c.ImpulseClamp)
	}

	sa, sb := c.share()
	if c.a.invMass > 0 {
		c.a.linVel = c.a.linVel.Add(dv.Mul(sa))
		c.a.angVel = c.lockAngular(c.a.angVel)
	}
	if c.b != nil && c.b.invMass > 0 {
		c.b.linVel = c.b.linVel.Sub(dv.Mul(sb))
		c.b.angVel = c.lockAngular(c.b.angVel)
	}
}

// lockAngular removes angular velocity on locked angular axes. The cfm of
// the axis lets a fraction of it through.
func (c *Generic6DofConstraint) lockAngular(w mgl32.Vec3) mgl32.Vec3 {
	for i := 0; i < 3; i++ {
		if c.angLower[i] == c.angUpper[i] {
			p := c.params[3+i]
			w[i] *= p.cfm / (1 + p.cfm)
		}
	}
	return w
}
