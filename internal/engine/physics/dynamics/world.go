// Package dynamics is a small rigid-body world: fixed-step integration,
// gravity, damping, sleeping, soft constraint relaxation, an AABB pair cache
// and ray tests. It does not resolve contacts.
package dynamics

import (
	"errors"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrWorldInUse is returned when releasing a world that still holds bodies
// or constraints.
var ErrWorldInUse = errors.New("dynamics: world still holds bodies or constraints")

// WorldConfig holds the world tuning.
type WorldConfig struct {
	Gravity          mgl32.Vec3
	FixedTimeStep    float32
	MaxSubSteps      int // zero steps once with the raw delta
	SolverIterations int

	SleepLinearThreshold float32
	SleepTime            float32 // zero disables sleeping
}

// DefaultWorldConfig returns the stock world tuning.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Gravity:              mgl32.Vec3{0, -10, 0},
		FixedTimeStep:        1.0 / 60,
		MaxSubSteps:          1,
		SolverIterations:     10,
		SleepLinearThreshold: 0.8,
		SleepTime:            2,
	}
}

type constraintEntry struct {
	c                 Constraint
	disableCollisions bool
}

// Stats counts live objects in a world.
type Stats struct {
	Bodies      int
	Constraints int
	Pairs       int
	Steps       int
}

// DiscreteDynamicsWorld steps a set of rigid bodies and constraints.
type DiscreteDynamicsWorld struct {
	cfg         WorldConfig
	bodies      []*RigidBody
	constraints []constraintEntry
	pairs       *PairCache

	localTime float32
	steps     int
	nextID    uint64
	released  bool
}

// NewDiscreteDynamicsWorld creates a world.
func NewDiscreteDynamicsWorld(cfg WorldConfig) *DiscreteDynamicsWorld {
	if cfg.FixedTimeStep <= 0 {
		cfg.FixedTimeStep = 1.0 / 60
	}
	if cfg.SolverIterations <= 0 {
		cfg.SolverIterations = 1
	}
	return &DiscreteDynamicsWorld{cfg: cfg, pairs: NewPairCache()}
}

// Gravity returns the world gravity.
func (w *DiscreteDynamicsWorld) Gravity() mgl32.Vec3 { return w.cfg.Gravity }

// SetGravity sets the world gravity and applies it to every dynamic body.
func (w *DiscreteDynamicsWorld) SetGravity(g mgl32.Vec3) {
	w.cfg.Gravity = g
	for _, b := range w.bodies {
		if !b.IsStatic() {
			b.gravity = g
		}
	}
}

// PairCache returns the overlapping pair cache.
func (w *DiscreteDynamicsWorld) PairCache() *PairCache { return w.pairs }

// Bodies returns the bodies in insertion order.
func (w *DiscreteDynamicsWorld) Bodies() []*RigidBody { return w.bodies }

// NumCollisionObjects returns the number of bodies.
func (w *DiscreteDynamicsWorld) NumCollisionObjects() int { return len(w.bodies) }

// NumConstraints returns the number of constraints.
func (w *DiscreteDynamicsWorld) NumConstraints() int { return len(w.constraints) }

// Constraints returns the constraints in insertion order.
func (w *DiscreteDynamicsWorld) Constraints() []Constraint {
	out := make([]Constraint, len(w.constraints))
	for i, e := range w.constraints {
		out[i] = e.c
	}
	return out
}

// AddRigidBody adds a body and gives it the world gravity. Adding a body
// twice is a no-op.
func (w *DiscreteDynamicsWorld) AddRigidBody(b *RigidBody) {
	if b == nil || b.inWorld {
		return
	}
	w.nextID++
	b.id = w.nextID
	b.inWorld = true
	if !b.IsStatic() {
		b.gravity = w.cfg.Gravity
	}
	w.bodies = append(w.bodies, b)
}

// RemoveRigidBody removes a body and its cached pairs. It reports whether
// the body was in the world.
func (w *DiscreteDynamicsWorld) RemoveRigidBody(b *RigidBody) bool {
	for i, o := range w.bodies {
		if o == b {
			w.pairs.CleanOverlappingPairs(b)
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			b.inWorld = false
			return true
		}
	}
	return false
}

// AddConstraint adds a constraint. With disableCollisions the linked bodies
// never form a pair.
func (w *DiscreteDynamicsWorld) AddConstraint(c Constraint, disableCollisions bool) {
	for _, e := range w.constraints {
		if e.c == c {
			return
		}
	}
	w.constraints = append(w.constraints, constraintEntry{c: c, disableCollisions: disableCollisions})
}

// RemoveConstraint removes a constraint and reports whether it was present.
func (w *DiscreteDynamicsWorld) RemoveConstraint(c Constraint) bool {
	for i, e := range w.constraints {
		if e.c == c {
			w.constraints = append(w.constraints[:i], w.constraints[i+1:]...)
			return true
		}
	}
	return false
}

// StepSimulation advances the world by dt using fixed sub-steps and returns
// the number of sub-steps taken. Time beyond MaxSubSteps is dropped.
func (w *DiscreteDynamicsWorld) StepSimulation(dt float32) int {
	if dt <= 0 {
		return 0
	}

	n := 1
	h := dt
	if w.cfg.MaxSubSteps > 0 {
		h = w.cfg.FixedTimeStep
		w.localTime += dt
		n = 0
		if w.localTime >= h {
			n = int(w.localTime / h)
			w.localTime -= float32(n) * h
		}
		if n > w.cfg.MaxSubSteps {
			n = w.cfg.MaxSubSteps
		}
	}

	for i := 0; i < n; i++ {
		w.singleStep(h)
	}
	w.synchronizeMotionStates()
	return n
}

func (w *DiscreteDynamicsWorld) singleStep(h float32) {
	for _, b := range w.bodies {
		if b.IsStatic() || !b.IsActive() {
			continue
		}
		f := b.totalForce.Add(b.gravity.Mul(b.Mass()))
		b.linVel = b.linVel.Add(f.Mul(b.invMass * h))
		b.angVel = b.angVel.Add(mulVec(b.totalTorque, b.invInertia).Mul(h))
		b.linVel = b.linVel.Mul(dampFactor(b.linDamping, h))
		b.angVel = b.angVel.Mul(dampFactor(b.angDamping, h))
	}

	for it := 0; it < w.cfg.SolverIterations; it++ {
		for _, e := range w.constraints {
			if constraintAwake(e.c) {
				e.c.solve(h)
			}
		}
	}

	for _, b := range w.bodies {
		if b.IsStatic() || !b.IsActive() {
			b.ClearForces()
			continue
		}
		b.transform.Origin = b.transform.Origin.Add(b.linVel.Mul(h))
		if b.angVel.Len() > 0 {
			q := b.transform.Rotation()
			spin := mgl32.Quat{W: 0, V: b.angVel}.Mul(q).Scale(0.5 * h)
			b.transform.SetRotation(q.Add(spin))
		}
		b.ClearForces()
		w.updateDeactivation(b, h)
	}

	w.pairs.update(w.bodies, w.collisionDisabled)
	w.steps++
}

func (w *DiscreteDynamicsWorld) updateDeactivation(b *RigidBody, h float32) {
	if w.cfg.SleepTime <= 0 || b.activation == DisableDeactivation {
		return
	}
	thr := w.cfg.SleepLinearThreshold
	if b.linVel.Len() < thr && b.angVel.Len() < thr {
		b.deactivateTime += h
	} else {
		b.deactivateTime = 0
		b.SetActivationState(Active)
		return
	}
	if b.deactivateTime >= w.cfg.SleepTime {
		b.SetActivationState(IslandSleeping)
		b.linVel = mgl32.Vec3{}
		b.angVel = mgl32.Vec3{}
	} else if b.activation == Active && b.deactivateTime >= w.cfg.SleepTime/2 {
		b.activation = WantsDeactivation
	}
}

func (w *DiscreteDynamicsWorld) collisionDisabled(a, b *RigidBody) bool {
	for _, e := range w.constraints {
		if !e.disableCollisions {
			continue
		}
		ca, cb := e.c.BodyA(), e.c.BodyB()
		if (ca == a && cb == b) || (ca == b && cb == a) {
			return true
		}
	}
	return false
}

func (w *DiscreteDynamicsWorld) synchronizeMotionStates() {
	for _, b := range w.bodies {
		if b.motionState != nil && !b.IsStatic() {
			b.motionState.SetWorldTransform(b.transform)
		}
	}
}

// Stats returns live object counts.
func (w *DiscreteDynamicsWorld) Stats() Stats {
	return Stats{
		Bodies:      len(w.bodies),
		Constraints: len(w.constraints),
		Pairs:       w.pairs.Len(),
		Steps:       w.steps,
	}
}

// Released reports whether Release was called.
func (w *DiscreteDynamicsWorld) Released() bool { return w.released }

// Release frees the world. Bodies and constraints must be removed first.
// Releasing twice is a no-op.
func (w *DiscreteDynamicsWorld) Release() error {
	if w.released {
		return nil
	}
	if len(w.bodies) > 0 || len(w.constraints) > 0 {
		return ErrWorldInUse
	}
	w.pairs.Clear()
	w.released = true
	return nil
}

func constraintAwake(c Constraint) bool {
	a, b := c.BodyA(), c.BodyB()
	return (a != nil && a.IsActive()) || (b != nil && b.IsActive())
}

// dampFactor returns (1-d)^h.
func dampFactor(d, h float32) float32 {
	return float32(gomath.Pow(float64(1-d), float64(h)))
}
