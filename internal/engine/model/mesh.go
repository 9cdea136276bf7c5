package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/internal/engine/skeleton"
)

// Mesh is an opaque render mesh handle. Skinned meshes carry their own
// skeleton whose skin matrices are computed against the binding's transform.
type Mesh struct {
	Name     string
	Skeleton *skeleton.Skeleton
}

// IsSkinned reports whether the mesh has a nested skeleton.
func (m *Mesh) IsSkinned() bool {
	return m != nil && m.Skeleton != nil
}

// ModelMesh binds a mesh into a model. MeshName is matched against bone
// names of the model skeleton to place the mesh each frame.
type ModelMesh struct {
	Mesh      *Mesh
	MeshName  string
	Transform mgl32.Mat4
}

// NewModelMesh creates a binding with an identity transform.
func NewModelMesh(mesh *Mesh, name string) *ModelMesh {
	return &ModelMesh{Mesh: mesh, MeshName: name, Transform: mgl32.Ident4()}
}
