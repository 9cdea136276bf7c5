// Package physics keeps scene nodes and rigid bodies in step. It owns the
// physics world, the node GUID to body map and the pre-simulation snapshots
// used to put nodes back when a run ends.
package physics

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/iris3d/internal/config"
	"github.com/Faultbox/iris3d/internal/engine/physics/dynamics"
	"github.com/Faultbox/iris3d/internal/engine/renderlist"
	"github.com/Faultbox/iris3d/internal/logger"
	"github.com/Faultbox/iris3d/pkg/math"
)

// Node is the view of a scene node the physics layer needs.
type Node interface {
	GUID() string
	GlobalTransform() mgl32.Mat4
	// SetGlobalTransform overrides the node's world transform for the
	// current tick.
	SetGlobalTransform(m mgl32.Mat4)
	LocalScale() mgl32.Vec3
	PhysicsTransformDisabled() bool
	// PhysicsProperty returns nil for nodes without physics.
	PhysicsProperty() *Property
}

// Resolver finds a node by GUID. It returns nil for unknown GUIDs.
type Resolver func(guid string) Node

// Stats counts live physics objects.
type Stats struct {
	Bodies      int
	Snapshots   int
	Constraints int
	Shapes      int
	Pairs       int
	Pickings    int
	Teleports   int
}

// Environment is the physics half of a scene.
type Environment struct {
	cfg config.PhysicsConfig
	log *zap.Logger

	world       *dynamics.DiscreteDynamicsWorld
	bodies      map[string]*dynamics.RigidBody
	snapshots   map[string]mgl32.Mat4
	constraints []dynamics.Constraint
	shapes      []*dynamics.Shape

	pickings  map[PickingHandleType]*picking
	teleports map[string]*dynamics.RigidBody

	gravity    mgl32.Vec3
	stepping   bool
	simulating bool

	debugFlags DebugDrawFlags
	debugList  renderlist.List
}

// NewEnvironment creates an environment with a fresh world.
func NewEnvironment(cfg config.PhysicsConfig) *Environment {
	e := &Environment{
		cfg:     cfg,
		log:     logger.Named("physics"),
		gravity: mgl32.Vec3{0, cfg.Gravity, 0},
	}
	flags, err := ParseDebugDrawFlags(cfg.DebugDraw)
	if err != nil {
		e.log.Warn("ignoring debug draw layer", zap.Error(err))
	}
	e.debugFlags = flags
	e.CreatePhysicsWorld()
	return e
}

// CreatePhysicsWorld creates an empty world. An existing world is
// destroyed first.
func (e *Environment) CreatePhysicsWorld() {
	if e.world != nil {
		e.DestroyPhysicsWorld()
	}
	e.world = dynamics.NewDiscreteDynamicsWorld(dynamics.WorldConfig{
		Gravity:              e.gravity,
		FixedTimeStep:        e.cfg.FixedTimeStep,
		MaxSubSteps:          e.cfg.MaxSubSteps,
		SolverIterations:     e.cfg.SolverPasses,
		SleepLinearThreshold: e.cfg.SleepThreshold,
		SleepTime:            e.cfg.SleepTime,
	})
	e.bodies = make(map[string]*dynamics.RigidBody)
	e.snapshots = make(map[string]mgl32.Mat4)
	e.pickings = make(map[PickingHandleType]*picking)
	e.teleports = make(map[string]*dynamics.RigidBody)
	e.log.Debug("physics world created", zap.Float32("gravity", e.gravity[1]))
}

// DestroyPhysicsWorld releases everything the world owns: constraints,
// then bodies and motion states, then the pair cache, then shapes, then
// the world. It is safe to call repeatedly or on an empty world.
func (e *Environment) DestroyPhysicsWorld() {
	if e.world == nil {
		return
	}

	for _, c := range e.world.Constraints() {
		e.world.RemoveConstraint(c)
		c.Release()
	}
	for _, c := range e.constraints {
		c.Release()
	}
	e.constraints = nil
	e.pickings = make(map[PickingHandleType]*picking)

	bodies := e.world.Bodies()
	for i := len(bodies) - 1; i >= 0; i-- {
		b := bodies[i]
		e.world.RemoveRigidBody(b)
		b.Release()
	}
	e.world.PairCache().Clear()

	for _, s := range e.shapes {
		if err := s.Release(); err != nil {
			e.log.Warn("collision shape still referenced", zap.Stringer("kind", s.Kind), zap.Error(err))
		}
	}
	e.shapes = nil

	if err := e.world.Release(); err != nil {
		e.log.Error("physics world release failed", zap.Error(err))
	}
	e.world = nil

	e.bodies = make(map[string]*dynamics.RigidBody)
	e.snapshots = make(map[string]mgl32.Mat4)
	e.teleports = make(map[string]*dynamics.RigidBody)
	e.debugList.Clear()
	e.log.Debug("physics world destroyed")
}

// World returns the current world, or nil after DestroyPhysicsWorld.
func (e *Environment) World() *dynamics.DiscreteDynamicsWorld { return e.world }

// SimulatePhysics starts stepping and marks the run as started.
func (e *Environment) SimulatePhysics() {
	e.stepping = true
	e.simulating = true
	e.log.Info("simulation started", zap.Int("bodies", len(e.bodies)))
}

// IsSimulating reports whether a run is in progress.
func (e *Environment) IsSimulating() bool { return e.simulating }

// IsStepping reports whether StepSimulation advances the world.
func (e *Environment) IsStepping() bool { return e.stepping }

// StopPhysics halts stepping. The run itself is still in progress.
func (e *Environment) StopPhysics() { e.stepping = false }

// StopSimulation marks the run as ended.
func (e *Environment) StopSimulation() {
	e.simulating = false
	e.log.Info("simulation stopped")
}

// RestartPhysics stops the run and rebuilds the world from scratch. Node
// transforms are not touched.
func (e *Environment) RestartPhysics() {
	e.StopPhysics()
	e.StopSimulation()
	e.DestroyPhysicsWorld()
	e.CreatePhysicsWorld()
}

// StepSimulation advances the world by dt while stepping. With debug layers
// selected the debug list is rebuilt even when stepping is halted.
func (e *Environment) StepSimulation(dt float32) {
	if e.world == nil {
		return
	}
	if e.stepping {
		e.world.StepSimulation(math.ClampDelta(dt))
	}
	if e.debugFlags != DebugDrawNone {
		e.drawDebug()
	}
}

// AddBodyToWorld adds a body for node and snapshots the node's current
// global transform. A node has at most one body; an existing one is
// replaced.
func (e *Environment) AddBodyToWorld(body *dynamics.RigidBody, node Node) {
	if body == nil || node == nil || e.world == nil {
		return
	}
	guid := node.GUID()
	if old, ok := e.bodies[guid]; ok && old != body {
		e.RemoveBodyFromWorldByGUID(guid)
	}
	body.UserData = guid
	e.world.AddRigidBody(body)
	e.bodies[guid] = body
	e.snapshots[guid] = node.GlobalTransform()
}

// RemoveBodyFromWorld removes a tracked body. Untracked bodies are ignored.
func (e *Environment) RemoveBodyFromWorld(body *dynamics.RigidBody) {
	if body == nil {
		return
	}
	for guid, b := range e.bodies {
		if b == body {
			e.RemoveBodyFromWorldByGUID(guid)
			return
		}
	}
}

// RemoveBodyFromWorldByGUID removes and releases the body of a node together
// with its snapshot, its constraints and any picking or teleport on it.
// Unknown GUIDs are ignored.
func (e *Environment) RemoveBodyFromWorldByGUID(guid string) {
	body, ok := e.bodies[guid]
	if !ok {
		return
	}
	for h, p := range e.pickings {
		if p.body == body {
			e.CleanupPickingConstraint(h)
		}
	}
	for i := len(e.constraints) - 1; i >= 0; i-- {
		c := e.constraints[i]
		if c.BodyA() == body || c.BodyB() == body {
			e.RemoveConstraintFromWorld(c)
			c.Release()
		}
	}
	delete(e.teleports, guid)

	if e.world != nil {
		e.world.RemoveRigidBody(body)
	}
	body.Release()
	delete(e.bodies, guid)
	delete(e.snapshots, guid)
}

// Body returns the body of a node.
func (e *Environment) Body(guid string) (*dynamics.RigidBody, bool) {
	b, ok := e.bodies[guid]
	return b, ok
}

// Snapshot returns the transform a node had when its body was added.
func (e *Environment) Snapshot(guid string) (mgl32.Mat4, bool) {
	m, ok := e.snapshots[guid]
	return m, ok
}

// StoreCollisionShape hands ownership of a shape to the environment. It is
// released after the bodies when the world is destroyed.
func (e *Environment) StoreCollisionShape(s *dynamics.Shape) {
	if s != nil {
		e.shapes = append(e.shapes, s)
	}
}

// AddConstraintToWorld adds and tracks a constraint.
func (e *Environment) AddConstraintToWorld(c dynamics.Constraint, disableCollisions bool) {
	if c == nil || e.world == nil {
		return
	}
	e.world.AddConstraint(c, disableCollisions)
	e.constraints = append(e.constraints, c)
}

// RemoveConstraintFromWorld removes a tracked constraint. Untracked
// constraints are ignored.
func (e *Environment) RemoveConstraintFromWorld(c dynamics.Constraint) {
	for i, o := range e.constraints {
		if o == c {
			e.constraints = append(e.constraints[:i], e.constraints[i+1:]...)
			if e.world != nil {
				e.world.RemoveConstraint(c)
			}
			return
		}
	}
}

// Constraints returns the tracked constraints.
func (e *Environment) Constraints() []dynamics.Constraint { return e.constraints }

// SyncNodes writes the simulated position and rotation of every body into
// its node, keeping the node's local scale. Nodes that disable physics
// transforms are left alone.
func (e *Environment) SyncNodes(resolve Resolver) {
	if resolve == nil {
		return
	}
	for guid, body := range e.bodies {
		n := resolve(guid)
		if n == nil || n.PhysicsTransformDisabled() {
			continue
		}
		t := body.WorldTransform()
		if ms := body.MotionState(); ms != nil {
			t = ms.WorldTransform()
		}
		n.SetGlobalTransform(math.Compose(t.Origin, t.Rotation(), n.LocalScale()))
	}
}

// RestoreNodeTransformations puts every node back to its snapshot.
func (e *Environment) RestoreNodeTransformations(resolve Resolver) {
	if resolve == nil {
		return
	}
	for guid, m := range e.snapshots {
		if n := resolve(guid); n != nil {
			n.SetGlobalTransform(m)
		}
	}
}

// SetWorldGravity sets the world gravity. Bodies being teleported keep
// zero gravity.
func (e *Environment) SetWorldGravity(g mgl32.Vec3) {
	e.gravity = g
	if e.world == nil {
		return
	}
	e.world.SetGravity(g)
	for _, b := range e.teleports {
		b.SetGravity(mgl32.Vec3{})
	}
}

// WorldGravity returns the world gravity.
func (e *Environment) WorldGravity() mgl32.Vec3 { return e.gravity }

// Stats returns live object counts.
func (e *Environment) Stats() Stats {
	s := Stats{
		Bodies:      len(e.bodies),
		Snapshots:   len(e.snapshots),
		Constraints: len(e.constraints),
		Shapes:      len(e.shapes),
		Pickings:    len(e.pickings),
		Teleports:   len(e.teleports),
	}
	if e.world != nil {
		s.Pairs = e.world.PairCache().Len()
	}
	return s
}
