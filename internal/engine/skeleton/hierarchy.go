package skeleton

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/pkg/math"
)

// BoneDesc is one bone as delivered by an importer.
type BoneDesc struct {
	Name   string
	Parent string // empty for roots

	Pos   mgl32.Vec3
	Rot   mgl32.Quat
	Scale mgl32.Vec3

	// InverseBindPose overrides the mesh space inverse bind matrix. When nil
	// it is derived from the bind pose chain.
	InverseBindPose *mgl32.Mat4
}

// FromHierarchy builds a skeleton from a flat bone list. Parents may appear
// after their children in the list.
func FromHierarchy(descs []BoneDesc) (*Skeleton, error) {
	s := New()
	for _, d := range descs {
		scale := d.Scale
		if scale == (mgl32.Vec3{}) {
			scale = math.Vec3One
		}
		rot := d.Rot
		if rot == (mgl32.Quat{}) {
			rot = mgl32.QuatIdent()
		}
		if _, err := s.AddBone(NewBone(d.Name, d.Pos, rot, scale)); err != nil {
			return nil, err
		}
	}

	for i, d := range descs {
		if d.Parent == "" {
			continue
		}
		p, ok := s.boneMap[d.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: bone %q references unknown parent %q", ErrBadParent, d.Name, d.Parent)
		}
		if err := s.AddChild(p, i); err != nil {
			return nil, err
		}
	}

	s.computeBindPose()
	for i, d := range descs {
		if d.InverseBindPose != nil {
			s.bones[i].InverseMeshSpacePoseMatrix = *d.InverseBindPose
		}
	}
	return s, nil
}

// computeBindPose fills MeshSpacePoseMatrix and its inverse from the bind
// pose of every bone.
func (s *Skeleton) computeBindPose() {
	s.ApplyAnimation(nil, 0)
	for _, b := range s.bones {
		b.MeshSpacePoseMatrix = b.TransformMatrix
		b.InverseMeshSpacePoseMatrix = math.Inverse(b.TransformMatrix)
	}
}

// ResetBindPose recomputes the mesh space pose matrices after bones were
// added or linked by hand.
func (s *Skeleton) ResetBindPose() {
	s.computeBindPose()
}
