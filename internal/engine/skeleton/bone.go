package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/pkg/math"
)

// Bone is one joint of a Skeleton.
//
// A mesh's root does not have to coincide with the skeleton root: the mesh
// space pose matrices are relative to the bone that represents the mesh root,
// not to the skeleton's first bone.
type Bone struct {
	Name string

	InverseMeshSpacePoseMatrix mgl32.Mat4 // mesh space, inverse bind pose
	MeshSpacePoseMatrix        mgl32.Mat4 // mesh space
	TransformMatrix            mgl32.Mat4 // skeleton space
	LocalMatrix                mgl32.Mat4 // relative to the parent bone
	SkinMatrix                 mgl32.Mat4 // final matrix used for vertex skinning

	// Local transform from the last evaluation.
	Pos   mgl32.Vec3
	Rot   mgl32.Quat
	Scale mgl32.Vec3

	// Bind pose, fixed at construction.
	bindingPos   mgl32.Vec3
	bindingRot   mgl32.Quat
	bindingScale mgl32.Vec3

	index    int
	parent   int // -1 for roots
	children []int
}

// NewBone creates a detached bone with the given bind pose.
func NewBone(name string, bindPos mgl32.Vec3, bindRot mgl32.Quat, bindScale mgl32.Vec3) *Bone {
	bindRot = math.NormalizeQuat(bindRot)
	return &Bone{
		Name:                       name,
		InverseMeshSpacePoseMatrix: mgl32.Ident4(),
		MeshSpacePoseMatrix:        mgl32.Ident4(),
		TransformMatrix:            mgl32.Ident4(),
		LocalMatrix:                mgl32.Ident4(),
		SkinMatrix:                 mgl32.Ident4(),
		Pos:                        bindPos,
		Rot:                        bindRot,
		Scale:                      bindScale,
		bindingPos:                 bindPos,
		bindingRot:                 bindRot,
		bindingScale:               bindScale,
		index:                      -1,
		parent:                     -1,
	}
}

// BindingPos returns the bind pose translation.
func (b *Bone) BindingPos() mgl32.Vec3 { return b.bindingPos }

// BindingRot returns the bind pose rotation.
func (b *Bone) BindingRot() mgl32.Quat { return b.bindingRot }

// BindingScale returns the bind pose scale.
func (b *Bone) BindingScale() mgl32.Vec3 { return b.bindingScale }

// BindMatrix returns the bind pose local matrix, translate * rotate * scale.
func (b *Bone) BindMatrix() mgl32.Mat4 {
	return math.Compose(b.bindingPos, b.bindingRot, b.bindingScale)
}

// Index returns the bone's position in its skeleton, or -1 if detached.
func (b *Bone) Index() int { return b.index }

// Parent returns the index of the parent bone, or -1 for a root.
func (b *Bone) Parent() int { return b.parent }

// IsRoot reports whether the bone has no parent.
func (b *Bone) IsRoot() bool { return b.parent < 0 }

// Children returns the indices of the direct children.
func (b *Bone) Children() []int { return b.children }
