package scenegraph

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/iris3d/internal/config"
	"github.com/Faultbox/iris3d/internal/engine/physics"
	"github.com/Faultbox/iris3d/internal/engine/renderlist"
	"github.com/Faultbox/iris3d/internal/logger"
	"github.com/Faultbox/iris3d/pkg/math"
)

// Scene owns a node hierarchy, its physics environment and the render list
// rebuilt every frame.
type Scene struct {
	log *zap.Logger

	root   *Node
	nodes  map[string]*Node
	meshes []*Node
	camera *Camera

	renderList *renderlist.List
	env        *physics.Environment

	time float32
}

// New creates a scene with a root node named "World". A nil log uses the
// global "scene" logger.
func New(cfg *config.Config, log *zap.Logger) *Scene {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Named("scene")
	}
	s := &Scene{
		log:        log,
		nodes:      make(map[string]*Node),
		renderList: &renderlist.List{},
		env:        physics.NewEnvironment(cfg.Physics),
	}
	s.root = NewNode("World")
	s.register(s.root)
	return s
}

// Root returns the root node.
func (s *Scene) Root() *Node { return s.root }

// RenderList returns the list filled by the last Update.
func (s *Scene) RenderList() *renderlist.List { return s.renderList }

// DebugRenderList returns the physics debug lines from the last Update.
func (s *Scene) DebugRenderList() *renderlist.List { return s.env.DebugRenderList() }

// Environment returns the physics environment.
func (s *Scene) Environment() *physics.Environment { return s.env }

// RunningTime returns the total elapsed time in seconds.
func (s *Scene) RunningTime() float32 { return s.time }

// Node returns the registered node with the given GUID, or nil.
func (s *Scene) Node(guid string) *Node { return s.nodes[guid] }

// Len returns the number of registered nodes, the root included.
func (s *Scene) Len() int { return len(s.nodes) }

// SetCamera sets the camera updated each frame. Nil clears it.
func (s *Scene) SetCamera(c *Camera) { s.camera = c }

// Camera returns the active camera, or nil.
func (s *Scene) Camera() *Camera { return s.camera }

// AddNode attaches n under the root unless it already has a parent and
// registers its subtree.
func (s *Scene) AddNode(n *Node) {
	if n == nil {
		return
	}
	if n.parent == nil && n != s.root {
		s.root.AddChild(n)
	}
	s.register(n)
}

func (s *Scene) register(n *Node) {
	n.walk(func(c *Node) {
		if c.scene == s {
			return
		}
		for {
			if existing, ok := s.nodes[c.guid]; !ok || existing == c {
				break
			}
			c.guid = uuid.NewString()
		}
		c.scene = s
		s.nodes[c.guid] = c
		if c.kind == KindMesh {
			s.meshes = append(s.meshes, c)
		}
	})
}

// RemoveNode detaches n and unregisters its subtree. Physics bodies of the
// removed nodes go together with their snapshots.
func (s *Scene) RemoveNode(n *Node) {
	if n == nil || n == s.root || n.scene != s {
		return
	}
	if n.parent != nil {
		n.parent.detach(n)
	}
	n.walk(func(c *Node) {
		s.env.RemoveBodyFromWorldByGUID(c.guid)
		delete(s.nodes, c.guid)
		for i, m := range s.meshes {
			if m == c {
				s.meshes = append(s.meshes[:i], s.meshes[i+1:]...)
				break
			}
		}
		if s.camera != nil && &s.camera.Node == c {
			s.camera = nil
		}
		c.scene = nil
	})
}

func (s *Scene) resolve(guid string) physics.Node {
	if n, ok := s.nodes[guid]; ok {
		return n
	}
	return nil
}

// Update advances the scene by dt: physics step, body to node write-back,
// camera, transform propagation with animation, render list rebuild.
func (s *Scene) Update(dt float32) {
	dt = math.ClampDelta(dt)
	s.time += dt

	s.env.StepSimulation(dt)
	if s.env.IsSimulating() {
		s.env.SyncNodes(s.resolve)
	}

	if s.camera != nil {
		s.camera.Update(dt)
	}

	s.root.Update(dt)

	s.renderList.Clear()
	for _, m := range s.meshes {
		m.SubmitRenderItems(s.renderList)
	}
}

// UpdateSceneAnimation poses every model at absolute time t.
func (s *Scene) UpdateSceneAnimation(t float32) {
	s.root.walk(func(n *Node) {
		if n.model != nil {
			n.model.ApplyAnimation(t)
		}
	})
}

// physicsNodes returns the nodes in hierarchy order.
func (s *Scene) physicsNodes() []physics.Node {
	var out []physics.Node
	s.root.walk(func(n *Node) {
		if n.physics != nil {
			out = append(out, n)
		}
	})
	return out
}

// StartSimulation creates bodies from node physics properties and starts
// stepping. World matrices are refreshed first so bodies start where their
// nodes are even before the first Update.
func (s *Scene) StartSimulation() {
	if s.env.IsSimulating() {
		return
	}
	s.root.refreshTransforms()
	s.env.InitializePhysicsWorldFromScene(s.physicsNodes())
	s.env.SimulatePhysics()
}

// StopSimulation ends the run, puts nodes back where they started and
// drops the bodies.
func (s *Scene) StopSimulation() {
	s.env.StopPhysics()
	s.env.StopSimulation()
	s.env.RestoreNodeTransformations(s.resolve)
	s.env.RestartPhysics()
}

// RestartSimulation discards the current run and starts a new one from the
// original node transforms.
func (s *Scene) RestartSimulation() {
	s.StopSimulation()
	s.StartSimulation()
	s.log.Info("simulation restarted")
}

// Pick returns the node whose body is hit first by the segment from -> to.
func (s *Scene) Pick(from, to mgl32.Vec3) (*Node, mgl32.Vec3, bool) {
	w := s.env.World()
	if w == nil {
		return nil, mgl32.Vec3{}, false
	}
	res := w.RayTest(from, to)
	if !res.HasHit() {
		return nil, mgl32.Vec3{}, false
	}
	n := s.nodes[res.Body.UserData]
	if n == nil {
		return nil, mgl32.Vec3{}, false
	}
	return n, res.Point, true
}

// SetWorldGravity sets the Y gravity of the physics world.
func (s *Scene) SetWorldGravity(g float32) {
	s.env.SetWorldGravity(mgl32.Vec3{0, g, 0})
}

// WorldGravity returns the Y gravity of the physics world.
func (s *Scene) WorldGravity() float32 { return s.env.WorldGravity()[1] }
