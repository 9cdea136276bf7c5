// Package model drives skeletal animation for a set of mesh bindings and
// hands the posed result to the render list.
package model

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/iris3d/internal/engine/animation"
	"github.com/Faultbox/iris3d/internal/engine/renderlist"
	"github.com/Faultbox/iris3d/internal/engine/skeleton"
	"github.com/Faultbox/iris3d/internal/logger"
	"github.com/Faultbox/iris3d/pkg/math"
)

// Model is a set of mesh bindings posed by an optional skeleton.
type Model struct {
	meshes     []*ModelMesh
	skeleton   *skeleton.Skeleton
	animations map[string]*animation.SkeletalAnimation
	clipOrder  []string

	active   *animation.SkeletalAnimation
	animTime float32
	looping  bool
	speed    float32
}

// New creates a model from mesh bindings.
func New(meshes []*ModelMesh) *Model {
	return &Model{
		meshes:     meshes,
		animations: make(map[string]*animation.SkeletalAnimation),
		looping:    true,
		speed:      1,
	}
}

// NewWithAnimations creates a model and registers its clips.
func NewWithAnimations(meshes []*ModelMesh, anims []*animation.SkeletalAnimation) *Model {
	m := New(meshes)
	for _, a := range anims {
		m.AddSkeletalAnimation(a)
	}
	return m
}

// SetSkeleton sets the skeleton that places mesh bindings.
func (m *Model) SetSkeleton(s *skeleton.Skeleton) { m.skeleton = s }

// HasSkeleton reports whether a skeleton is set.
func (m *Model) HasSkeleton() bool { return m.skeleton != nil }

// Skeleton returns the model skeleton, or nil.
func (m *Model) Skeleton() *skeleton.Skeleton { return m.skeleton }

// Meshes returns the mesh bindings.
func (m *Model) Meshes() []*ModelMesh { return m.meshes }

// AddSkeletalAnimation registers a clip under its name. A clip with the same
// name is replaced; if it was active the new clip takes over at the current
// playback time. Nil clips are ignored.
func (m *Model) AddSkeletalAnimation(a *animation.SkeletalAnimation) {
	if a == nil {
		return
	}
	old, ok := m.animations[a.Name]
	if !ok {
		m.clipOrder = append(m.clipOrder, a.Name)
	}
	m.animations[a.Name] = a
	if ok && m.active == old {
		m.active = a
	}
}

// SkeletalAnimation returns the clip registered under name.
func (m *Model) SkeletalAnimation(name string) (*animation.SkeletalAnimation, bool) {
	a, ok := m.animations[name]
	return a, ok
}

// SkeletalAnimations returns the registered clips in registration order.
func (m *Model) SkeletalAnimations() []*animation.SkeletalAnimation {
	out := make([]*animation.SkeletalAnimation, len(m.clipOrder))
	for i, name := range m.clipOrder {
		out[i] = m.animations[name]
	}
	return out
}

// HasSkeletalAnimations reports whether any clip is registered.
func (m *Model) HasSkeletalAnimations() bool { return len(m.animations) > 0 }

// SetActiveAnimation activates the registered clip with the given name and
// rewinds playback. It returns false and keeps the current clip when there
// is no such clip.
func (m *Model) SetActiveAnimation(name string) bool {
	if a, ok := m.animations[name]; ok {
		m.SetActiveSkeletalAnimation(a)
		return true
	}
	logger.Named("model").Warn("animation not found", zap.String("name", name))
	return false
}

// SetActiveSkeletalAnimation activates a clip directly and rewinds playback.
func (m *Model) SetActiveSkeletalAnimation(a *animation.SkeletalAnimation) {
	m.active = a
	m.animTime = 0
}

// ActiveAnimation returns the active clip, or nil.
func (m *Model) ActiveAnimation() *animation.SkeletalAnimation { return m.active }

// AnimationTime returns the elapsed playback time in seconds.
func (m *Model) AnimationTime() float32 { return m.animTime }

// SetLooping sets whether the sample time wraps at the clip length.
func (m *Model) SetLooping(loop bool) { m.looping = loop }

// SetSpeed sets the playback rate. Negative rates are treated as zero.
func (m *Model) SetSpeed(speed float32) {
	if speed < 0 {
		speed = 0
	}
	m.speed = speed
}

// UpdateAnimation advances playback by dt and poses the model.
func (m *Model) UpdateAnimation(dt float32) {
	if m.active == nil {
		return
	}
	m.animTime += math.ClampDelta(dt) * m.speed

	t := m.animTime
	if m.looping {
		t = m.active.Wrap(t)
	}
	m.ApplyAnimation(t)
}

// ApplyAnimation poses the skeleton at time t and places the mesh bindings.
//
// A binding whose name matches a bone takes that bone's skeleton space
// matrix. Bindings with no matching bone keep their previous transform.
// Nested skeletons are skinned against the inverse of the binding transform.
func (m *Model) ApplyAnimation(t float32) {
	if m.active == nil || m.skeleton == nil {
		return
	}

	m.skeleton.ApplyAnimation(m.active, t)
	space := m.skeleton.SkeletonSpaceMatrices()

	for _, mm := range m.meshes {
		if bone, ok := space[mm.MeshName]; ok {
			mm.Transform = bone
		}
		if mm.Mesh.IsSkinned() {
			mm.Mesh.Skeleton.ApplySkinning(math.Inverse(mm.Transform), space)
		}
	}
}

// SubmitRenderItems emits one render item per binding placed in world space.
func (m *Model) SubmitRenderItems(list *renderlist.List, world mgl32.Mat4) {
	for _, mm := range m.meshes {
		item := renderlist.Item{
			Kind:  renderlist.KindMesh,
			World: world.Mul4(mm.Transform),
		}
		if mm.Mesh != nil {
			item.Mesh = mm.Mesh.Name
		}
		if mm.Mesh.IsSkinned() {
			item.Kind = renderlist.KindSkinnedMesh
			item.SkinMatrices = append([]mgl32.Mat4(nil), mm.Mesh.Skeleton.BoneTransforms()...)
		}
		list.Submit(item)
	}
}
