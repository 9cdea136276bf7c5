package importer

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/iris3d/internal/engine/model"
	"github.com/Faultbox/iris3d/internal/engine/skeleton"
	"github.com/Faultbox/iris3d/internal/logger"
	"github.com/Faultbox/iris3d/pkg/math"
)

// ErrBadIndex is returned when a document references a missing element.
var ErrBadIndex = errors.New("importer: index out of range")

// Open decodes a .gltf or .glb file.
func Open(path string) (*gltf.Document, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open gltf %s", path)
	}
	return doc, nil
}

// nodeNames gives every node a unique bone name. Unnamed nodes become
// "node_<i>"; repeated names get the node index appended.
func nodeNames(doc *gltf.Document) []string {
	names := make([]string, len(doc.Nodes))
	used := make(map[string]bool, len(doc.Nodes))
	for i, n := range doc.Nodes {
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		if used[name] {
			name = fmt.Sprintf("%s_%d", name, i)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// nodeParents returns the parent index of every node, -1 for roots.
func nodeParents(doc *gltf.Document) ([]int, error) {
	parents := make([]int, len(doc.Nodes))
	for i := range parents {
		parents[i] = -1
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) >= len(doc.Nodes) {
				return nil, errors.Wrapf(ErrBadIndex, "node %d child %d", i, c)
			}
			if parents[c] >= 0 {
				return nil, errors.Wrapf(skeleton.ErrBadParent, "node %d has two parents", c)
			}
			parents[c] = i
		}
	}
	return parents, nil
}

var zeroMatrix [16]float32

// nodeTRS returns the local transform of a node. A non-identity matrix wins
// over the TRS fields; zero TRS fields fall back to their defaults.
func nodeTRS(n *gltf.Node) (pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) {
	if m := mgl32.Mat4(n.Matrix); n.Matrix != zeroMatrix && m != mgl32.Ident4() {
		return math.Decompose(m)
	}
	pos = mgl32.Vec3(n.Translation)
	rot = mgl32.Quat{W: n.Rotation[3], V: mgl32.Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}
	if rot == (mgl32.Quat{}) {
		rot = mgl32.QuatIdent()
	}
	scale = mgl32.Vec3(n.Scale)
	if scale == (mgl32.Vec3{}) {
		scale = math.Vec3One
	}
	return pos, rot, scale
}

// SkeletonFromDocument builds a skeleton with one bone per node of the
// document.
func SkeletonFromDocument(doc *gltf.Document) (*skeleton.Skeleton, error) {
	names := nodeNames(doc)
	parents, err := nodeParents(doc)
	if err != nil {
		return nil, err
	}

	descs := make([]skeleton.BoneDesc, len(doc.Nodes))
	for i, n := range doc.Nodes {
		pos, rot, scale := nodeTRS(n)
		descs[i] = skeleton.BoneDesc{Name: names[i], Pos: pos, Rot: rot, Scale: scale}
		if parents[i] >= 0 {
			descs[i].Parent = names[parents[i]]
		}
	}

	s, err := skeleton.FromHierarchy(descs)
	if err != nil {
		return nil, errors.Wrap(err, "build skeleton")
	}
	logger.Named("importer").Debug("skeleton imported", zap.Int("bones", s.Len()))
	return s, nil
}

// SkinSkeleton builds a skeleton from the joints of one skin. A joint's
// parent is its nearest ancestor that is also a joint of the skin.
func SkinSkeleton(doc *gltf.Document, skin int) (*skeleton.Skeleton, error) {
	if skin < 0 || skin >= len(doc.Skins) {
		return nil, errors.Wrapf(ErrBadIndex, "skin %d", skin)
	}
	names := nodeNames(doc)
	parents, err := nodeParents(doc)
	if err != nil {
		return nil, err
	}

	joints := doc.Skins[skin].Joints
	var inverseBinds []mgl32.Mat4
	if ibm := doc.Skins[skin].InverseBindMatrices; ibm != nil {
		if inverseBinds, err = readMat4s(doc, *ibm); err != nil {
			return nil, errors.Wrapf(err, "skin %d inverse bind matrices", skin)
		}
		if len(inverseBinds) < len(joints) {
			return nil, errors.Wrapf(ErrBadIndex, "skin %d has %d inverse bind matrices for %d joints",
				skin, len(inverseBinds), len(joints))
		}
	}

	isJoint := make(map[int]bool, len(joints))
	for _, j := range joints {
		if int(j) >= len(doc.Nodes) {
			return nil, errors.Wrapf(ErrBadIndex, "skin %d joint %d", skin, j)
		}
		isJoint[int(j)] = true
	}

	descs := make([]skeleton.BoneDesc, 0, len(joints))
	for i, j := range joints {
		pos, rot, scale := nodeTRS(doc.Nodes[j])
		d := skeleton.BoneDesc{Name: names[j], Pos: pos, Rot: rot, Scale: scale}
		if inverseBinds != nil {
			d.InverseBindPose = &inverseBinds[i]
		}
		for p := parents[j]; p >= 0; p = parents[p] {
			if isJoint[p] {
				d.Parent = names[p]
				break
			}
		}
		descs = append(descs, d)
	}

	s, err := skeleton.FromHierarchy(descs)
	if err != nil {
		return nil, errors.Wrapf(err, "build skin %d", skin)
	}
	return s, nil
}

// ModelFromDocument builds a model whose skeleton mirrors the node tree.
// Every node with a mesh becomes a binding placed at its node; skinned
// nodes get the skeleton of their skin. The document's animations become
// the model's clips.
func ModelFromDocument(doc *gltf.Document) (*model.Model, error) {
	skel, err := SkeletonFromDocument(doc)
	if err != nil {
		return nil, err
	}
	names := nodeNames(doc)

	var meshes []*model.ModelMesh
	for i, n := range doc.Nodes {
		if n.Mesh == nil {
			continue
		}
		mi := int(*n.Mesh)
		if mi >= len(doc.Meshes) {
			return nil, errors.Wrapf(ErrBadIndex, "node %d mesh %d", i, mi)
		}
		mesh := &model.Mesh{Name: doc.Meshes[mi].Name}
		if mesh.Name == "" {
			mesh.Name = fmt.Sprintf("mesh_%d", mi)
		}
		if n.Skin != nil {
			if mesh.Skeleton, err = SkinSkeleton(doc, int(*n.Skin)); err != nil {
				return nil, err
			}
		}
		mm := model.NewModelMesh(mesh, names[i])
		mm.Transform = skel.Bone(names[i]).MeshSpacePoseMatrix
		meshes = append(meshes, mm)
	}

	clips, err := AnimationsFromDocument(doc)
	if err != nil {
		return nil, err
	}

	m := model.NewWithAnimations(meshes, clips)
	m.SetSkeleton(skel)
	logger.Named("importer").Info("model imported",
		zap.Int("bones", skel.Len()),
		zap.Int("meshes", len(meshes)),
		zap.Int("clips", len(clips)),
	)
	return m, nil
}

// ExportImages queues every external image of doc on the session. URIs are
// resolved against baseDir. Embedded images are skipped. It returns the
// number of images queued.
func ExportImages(s *Session, doc *gltf.Document, baseDir string) (int, error) {
	log := logger.Named("importer")
	queued := 0
	for i, img := range doc.Images {
		if img.URI == "" || strings.HasPrefix(img.URI, "data:") {
			log.Debug("skipping embedded image", zap.Int("image", i))
			continue
		}
		rel, err := url.PathUnescape(img.URI)
		if err != nil {
			return queued, errors.Wrapf(err, "image %d uri", i)
		}
		data, err := os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(rel)))
		if err != nil {
			return queued, errors.Wrapf(err, "read image %d", i)
		}
		if s.ExportTexture(rel, data) {
			queued++
		}
	}
	return queued, nil
}
