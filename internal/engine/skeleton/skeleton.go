// Package skeleton evaluates bone hierarchies: local transforms from animation
// curves or the bind pose, skeleton space transforms through the parent
// chain, and mesh space skin matrices.
package skeleton

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/pkg/math"
)

var (
	// ErrDuplicateBone is returned when a bone name is already taken.
	ErrDuplicateBone = errors.New("skeleton: duplicate bone name")
	// ErrBadParent is returned for invalid parent links.
	ErrBadParent = errors.New("skeleton: invalid parent link")
)

// Sampler produces a local transform for a bone at a point in time.
// ok is false when it has nothing for that bone.
type Sampler interface {
	Sample(bone string, t float32) (pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3, ok bool)
}

// Skeleton owns a set of bones and the per-bone output matrices.
type Skeleton struct {
	bones          []*Bone
	boneMap        map[string]int
	boneTransforms []mgl32.Mat4

	// reused traversal stack
	stack []int
}

// New creates an empty skeleton.
func New() *Skeleton {
	return &Skeleton{boneMap: make(map[string]int)}
}

// AddBone appends a detached bone and returns its index.
func (s *Skeleton) AddBone(b *Bone) (int, error) {
	if b == nil {
		return -1, fmt.Errorf("skeleton: nil bone")
	}
	if _, ok := s.boneMap[b.Name]; ok {
		return -1, fmt.Errorf("%w: %q", ErrDuplicateBone, b.Name)
	}
	if b.index >= 0 {
		return -1, fmt.Errorf("skeleton: bone %q already belongs to a skeleton", b.Name)
	}

	b.index = len(s.bones)
	s.bones = append(s.bones, b)
	s.boneMap[b.Name] = b.index
	s.boneTransforms = append(s.boneTransforms, mgl32.Ident4())
	return b.index, nil
}

// AddChild links child under parent. A bone can have only one parent and
// links that would form a cycle are rejected.
func (s *Skeleton) AddChild(parent, child int) error {
	if parent < 0 || parent >= len(s.bones) || child < 0 || child >= len(s.bones) {
		return fmt.Errorf("%w: index out of range (%d -> %d)", ErrBadParent, parent, child)
	}
	if parent == child {
		return fmt.Errorf("%w: %q cannot parent itself", ErrBadParent, s.bones[child].Name)
	}
	c := s.bones[child]
	if c.parent >= 0 {
		return fmt.Errorf("%w: %q already has a parent", ErrBadParent, c.Name)
	}
	for p := parent; p >= 0; p = s.bones[p].parent {
		if p == child {
			return fmt.Errorf("%w: linking %q under %q forms a cycle", ErrBadParent, c.Name, s.bones[parent].Name)
		}
	}

	c.parent = parent
	s.bones[parent].children = append(s.bones[parent].children, child)
	return nil
}

// Bone returns the bone with the given name, or nil if there is none.
func (s *Skeleton) Bone(name string) *Bone {
	if i, ok := s.boneMap[name]; ok {
		return s.bones[i]
	}
	return nil
}

// BoneIndex returns the index of the named bone.
func (s *Skeleton) BoneIndex(name string) (int, bool) {
	i, ok := s.boneMap[name]
	return i, ok
}

// Bones returns the bones in insertion order.
func (s *Skeleton) Bones() []*Bone { return s.bones }

// Len returns the number of bones.
func (s *Skeleton) Len() int { return len(s.bones) }

// BoneTransforms returns the skin matrices, one per bone, in bone order.
func (s *Skeleton) BoneTransforms() []mgl32.Mat4 { return s.boneTransforms }

// RootBone returns the first bone without a parent, or nil.
func (s *Skeleton) RootBone() *Bone {
	for _, b := range s.bones {
		if b.parent < 0 {
			return b
		}
	}
	return nil
}

// RootBones returns every bone without a parent. Skeletons imported from
// scene graphs often have several disjoint roots.
func (s *Skeleton) RootBones() []*Bone {
	var roots []*Bone
	for _, b := range s.bones {
		if b.parent < 0 {
			roots = append(roots, b)
		}
	}
	return roots
}

// ApplyAnimation evaluates every bone at time t.
//
// Bones the sampler has a channel for take the sampled transform, all others
// fall back to their bind pose. Each root is walked depth first so a parent's
// TransformMatrix is final before any descendant reads it. Skin matrices are
// reset to identity; ApplySkinning fills them in.
func (s *Skeleton) ApplyAnimation(sampler Sampler, t float32) {
	for i, b := range s.bones {
		b.TransformMatrix = mgl32.Ident4()
		b.LocalMatrix = mgl32.Ident4()
		b.SkinMatrix = mgl32.Ident4()
		s.boneTransforms[i] = mgl32.Ident4()
	}

	for _, root := range s.bones {
		if root.parent >= 0 {
			continue
		}
		s.stack = append(s.stack[:0], root.index)
		for len(s.stack) > 0 {
			i := s.stack[len(s.stack)-1]
			s.stack = s.stack[:len(s.stack)-1]

			b := s.bones[i]
			s.evalLocal(b, sampler, t)
			if b.parent >= 0 {
				b.TransformMatrix = s.bones[b.parent].TransformMatrix.Mul4(b.LocalMatrix)
			} else {
				b.TransformMatrix = b.LocalMatrix
			}

			// Reverse push keeps children in declaration order.
			for c := len(b.children) - 1; c >= 0; c-- {
				s.stack = append(s.stack, b.children[c])
			}
		}
	}
}

func (s *Skeleton) evalLocal(b *Bone, sampler Sampler, t float32) {
	if sampler != nil {
		if pos, rot, scale, ok := sampler.Sample(b.Name, t); ok {
			b.Pos, b.Rot, b.Scale = pos, rot, scale
			b.LocalMatrix = math.Compose(pos, rot, scale)
			return
		}
	}
	b.Pos, b.Rot, b.Scale = b.bindingPos, b.bindingRot, b.bindingScale
	b.LocalMatrix = b.BindMatrix()
}

// ApplySkinning computes the skin matrix of every bone for a mesh whose root
// is not the skeleton root:
//
//	skin = inverseMeshMatrix * skeletonSpace[name] * inverseBindPose
//
// A bone missing from skeletonSpace gets the identity; it is not driven by
// this mesh. Every entry of BoneTransforms is rewritten.
func (s *Skeleton) ApplySkinning(inverseMeshMatrix mgl32.Mat4, skeletonSpace map[string]mgl32.Mat4) {
	for i, b := range s.bones {
		if m, ok := skeletonSpace[b.Name]; ok {
			b.SkinMatrix = inverseMeshMatrix.Mul4(m).Mul4(b.InverseMeshSpacePoseMatrix)
		} else {
			b.SkinMatrix = mgl32.Ident4()
		}
		s.boneTransforms[i] = b.SkinMatrix
	}
}

// SkeletonSpaceMatrices returns the TransformMatrix of every bone by name.
func (s *Skeleton) SkeletonSpaceMatrices() map[string]mgl32.Mat4 {
	out := make(map[string]mgl32.Mat4, len(s.bones))
	for name, i := range s.boneMap {
		out[name] = s.bones[i].TransformMatrix
	}
	return out
}
