package scenegraph

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/pkg/math"
)

// Projection selects the camera projection.
type Projection uint8

const (
	Perspective Projection = iota
	Orthographic
)

// Camera is a scene node that views the scene. Cameras are not updated by
// the parent walk; the owning scene updates its active camera once per
// frame.
type Camera struct {
	Node

	Projection Projection
	FOV        float32 // vertical, degrees
	Aspect     float32
	Near, Far  float32
	OrthoSize  float32

	view mgl32.Mat4
	proj mgl32.Mat4
}

// NewCamera creates a perspective camera looking down -Z.
func NewCamera(name string) *Camera {
	return &Camera{
		Node:       *newNode(name, KindCamera),
		Projection: Perspective,
		FOV:        45,
		Aspect:     1,
		Near:       0.1,
		Far:        1000,
		OrthoSize:  100,
		view:       mgl32.Ident4(),
		proj:       mgl32.Ident4(),
	}
}

// Update places the camera and derives its matrices.
func (c *Camera) Update(dt float32) {
	c.Node.Update(dt)
	c.UpdateCameraMatrices()
}

// UpdateCameraMatrices derives the view matrix from the global transform and
// the projection from the camera parameters.
func (c *Camera) UpdateCameraMatrices() {
	g := c.globalTransform
	pos := math.Translation(g)
	target := math.TransformPoint(g, mgl32.Vec3{0, 0, -1})
	up := math.TransformDirection(g, mgl32.Vec3{0, 1, 0})
	c.view = mgl32.LookAtV(pos, target, up)

	if c.Projection == Perspective {
		c.proj = mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
	} else {
		w := c.OrthoSize * c.Aspect
		c.proj = mgl32.Ortho(-w, w, -c.OrthoSize, c.OrthoSize, -c.Far, c.Far)
	}
}

// View returns the view matrix.
func (c *Camera) View() mgl32.Mat4 { return c.view }

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() mgl32.Mat4 { return c.proj }

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() mgl32.Mat4 { return c.proj.Mul4(c.view) }

// CalculatePickingDirection returns the world direction through the
// viewport pixel (x, y).
func (c *Camera) CalculatePickingDirection(width, height int, x, y float32) mgl32.Vec3 {
	if width <= 0 || height <= 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	nx := 2*x/float32(width) - 1
	ny := 1 - 2*y/float32(height)

	ray := math.Inverse(c.proj).Mul4x1(mgl32.Vec4{nx, ny, -1, 1})
	ray[2], ray[3] = -1, 0
	dir := math.Inverse(c.view).Mul4x1(ray).Vec3()
	if dir.Len() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return dir.Normalize()
}

// LookAt turns the camera towards target, keeping its local position.
func (c *Camera) LookAt(target mgl32.Vec3) {
	if target.Sub(c.pos).Len() == 0 {
		return
	}
	m := mgl32.LookAtV(c.pos, target, mgl32.Vec3{0, 1, 0})
	c.SetLocalTransform(math.Inverse(m))
}
