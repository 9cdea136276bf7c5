// Package scenegraph holds the node hierarchy of a scene, its cameras and
// the per-frame update that ties physics, transforms, animation and render
// submission together.
package scenegraph

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/Faultbox/iris3d/internal/engine/model"
	"github.com/Faultbox/iris3d/internal/engine/physics"
	"github.com/Faultbox/iris3d/internal/engine/renderlist"
	"github.com/Faultbox/iris3d/pkg/math"
)

// Kind identifies what a node carries.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindMesh
	KindCamera
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindMesh:
		return "mesh"
	case KindCamera:
		return "camera"
	default:
		return "unknown"
	}
}

// Node is one element of the scene hierarchy. A node owns its children; the
// parent link is a plain back-reference.
type Node struct {
	guid string
	Name string
	kind Kind

	pos   mgl32.Vec3
	rot   mgl32.Quat
	scale mgl32.Vec3

	localTransform  mgl32.Mat4
	globalTransform mgl32.Mat4
	globalOverride  bool

	parent   *Node
	children []*Node
	scene    *Scene

	Visible                 bool
	disablePhysicsTransform bool
	physics                 *physics.Property
	model                   *model.Model
}

func newNode(name string, kind Kind) *Node {
	return &Node{
		guid:            uuid.NewString(),
		Name:            name,
		kind:            kind,
		rot:             mgl32.QuatIdent(),
		scale:           math.Vec3One,
		localTransform:  mgl32.Ident4(),
		globalTransform: mgl32.Ident4(),
		Visible:         true,
	}
}

// NewNode creates an empty grouping node.
func NewNode(name string) *Node {
	return newNode(name, KindEmpty)
}

// NewMeshNode creates a node that renders and animates m.
func NewMeshNode(name string, m *model.Model) *Node {
	n := newNode(name, KindMesh)
	n.model = m
	return n
}

// GUID returns the node's unique id.
func (n *Node) GUID() string { return n.guid }

// Kind returns what the node carries.
func (n *Node) Kind() Kind { return n.kind }

// Model returns the node's model, or nil.
func (n *Node) Model() *model.Model { return n.model }

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the direct children.
func (n *Node) Children() []*Node { return n.children }

// Scene returns the scene the node is registered with, or nil.
func (n *Node) Scene() *Scene { return n.scene }

// AddChild attaches child under n, detaching it from any previous parent.
// If n belongs to a scene the child's subtree is registered with it.
func (n *Node) AddChild(child *Node) {
	if child == nil || child == n || child.isAncestorOf(n) {
		return
	}
	if child.parent != nil {
		child.parent.detach(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	if n.scene != nil && child.scene != n.scene {
		n.scene.register(child)
	}
}

// RemoveChild detaches child from n. The child stays registered with the
// scene; use Scene.RemoveNode to drop it completely.
func (n *Node) RemoveChild(child *Node) {
	if child == nil || child.parent != n {
		return
	}
	n.detach(child)
}

func (n *Node) detach(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

func (n *Node) isAncestorOf(o *Node) bool {
	for p := o; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// LocalPos returns the local position.
func (n *Node) LocalPos() mgl32.Vec3 { return n.pos }

// SetLocalPos sets the local position.
func (n *Node) SetLocalPos(p mgl32.Vec3) { n.pos = p }

// LocalRot returns the local rotation.
func (n *Node) LocalRot() mgl32.Quat { return n.rot }

// SetLocalRot sets the local rotation.
func (n *Node) SetLocalRot(q mgl32.Quat) { n.rot = math.NormalizeQuat(q) }

// LocalScale returns the local scale.
func (n *Node) LocalScale() mgl32.Vec3 { return n.scale }

// SetLocalScale sets the local scale.
func (n *Node) SetLocalScale(s mgl32.Vec3) { n.scale = s }

// SetLocalTransform decomposes m into the local position, rotation and scale.
func (n *Node) SetLocalTransform(m mgl32.Mat4) {
	n.pos, n.rot, n.scale = math.Decompose(m)
	n.localTransform = m
}

// LocalTransform returns the local matrix from the last update.
func (n *Node) LocalTransform() mgl32.Mat4 { return n.localTransform }

// GlobalTransform returns the world matrix from the last update.
func (n *Node) GlobalTransform() mgl32.Mat4 { return n.globalTransform }

// GlobalPosition returns the world position.
func (n *Node) GlobalPosition() mgl32.Vec3 { return math.Translation(n.globalTransform) }

// GlobalRotation returns the world rotation.
func (n *Node) GlobalRotation() mgl32.Quat {
	_, rot, _ := math.Decompose(n.globalTransform)
	return rot
}

// SetGlobalTransform overrides the world matrix. The next update keeps it
// instead of recomputing it from the local transform; children still
// inherit it.
func (n *Node) SetGlobalTransform(m mgl32.Mat4) {
	n.globalTransform = m
	n.globalOverride = true
}

// DisablePhysicsTransform stops the simulation from moving the node.
func (n *Node) DisablePhysicsTransform(disable bool) { n.disablePhysicsTransform = disable }

// PhysicsTransformDisabled reports whether the simulation may move the node.
func (n *Node) PhysicsTransformDisabled() bool { return n.disablePhysicsTransform }

// SetPhysicsProperty attaches a physics description. Nil removes it.
func (n *Node) SetPhysicsProperty(p *physics.Property) { n.physics = p }

// PhysicsProperty returns the physics description, or nil.
func (n *Node) PhysicsProperty() *physics.Property { return n.physics }

// Update recomputes the node's matrices and then its children's. Camera
// children are skipped; their scene updates them. Models animate after the
// subtree has been placed.
func (n *Node) Update(dt float32) {
	n.updateTransform()
	for _, c := range n.children {
		if c.kind == KindCamera {
			continue
		}
		c.Update(dt)
	}
	if n.model != nil {
		n.model.UpdateAnimation(dt)
	}
}

func (n *Node) updateTransform() {
	if n.globalOverride {
		n.globalOverride = false
		return
	}
	n.composeTransform()
}

// composeTransform rebuilds the local and world matrices from the local
// position, rotation and scale. The parent's world matrix must be current.
func (n *Node) composeTransform() {
	n.localTransform = math.Compose(n.pos, n.rot, n.scale)
	if n.parent != nil {
		n.globalTransform = n.parent.globalTransform.Mul4(n.localTransform)
	} else {
		n.globalTransform = n.localTransform
	}
}

// refreshTransforms recomputes world matrices for the subtree without
// advancing animation. Pending global overrides are kept for the next
// Update.
func (n *Node) refreshTransforms() {
	n.walk(func(c *Node) {
		if !c.globalOverride {
			c.composeTransform()
		}
	})
}

// SubmitRenderItems hands the node's model to the render list.
func (n *Node) SubmitRenderItems(list *renderlist.List) {
	if n.model == nil || !n.Visible {
		return
	}
	n.model.SubmitRenderItems(list, n.globalTransform)
}

// walk visits n and its subtree depth first, parent before child.
func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}
