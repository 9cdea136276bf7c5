package dynamics

import (
	"errors"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrShapeInUse is returned when releasing a shape still referenced by a body.
var ErrShapeInUse = errors.New("dynamics: shape still referenced by a body")

// ShapeKind identifies a collision shape variant.
type ShapeKind uint8

const (
	ShapeEmpty ShapeKind = iota
	ShapeSphere
	ShapeBox
	ShapePlane
	ShapeConvexHull
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeEmpty:
		return "empty"
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	case ShapePlane:
		return "plane"
	case ShapeConvexHull:
		return "convex-hull"
	default:
		return "unknown"
	}
}

// DefaultMargin is the collision margin new shapes start with.
const DefaultMargin = 0.04

const infinite = 1e30

// Shape is a collision shape. Bodies hold a reference to it; the shape can
// only be released once no body refers to it.
type Shape struct {
	Kind ShapeKind

	Radius        float32      // sphere
	HalfExtents   mgl32.Vec3   // box
	PlaneNormal   mgl32.Vec3   // plane
	PlaneConstant float32      // plane
	Points        []mgl32.Vec3 // convex hull

	margin   float32
	scaling  mgl32.Vec3
	refs     int
	released bool
}

func newShape(kind ShapeKind) *Shape {
	return &Shape{Kind: kind, margin: DefaultMargin, scaling: mgl32.Vec3{1, 1, 1}}
}

// NewEmptyShape creates a shape that never collides and has no volume.
func NewEmptyShape() *Shape { return newShape(ShapeEmpty) }

// NewSphereShape creates a sphere of radius r.
func NewSphereShape(r float32) *Shape {
	s := newShape(ShapeSphere)
	s.Radius = r
	return s
}

// NewBoxShape creates a box with the given half extents.
func NewBoxShape(halfExtents mgl32.Vec3) *Shape {
	s := newShape(ShapeBox)
	s.HalfExtents = halfExtents
	return s
}

// NewStaticPlaneShape creates the infinite plane dot(n, p) = constant.
func NewStaticPlaneShape(normal mgl32.Vec3, constant float32) *Shape {
	s := newShape(ShapePlane)
	if normal.Len() > 0 {
		normal = normal.Normalize()
	} else {
		normal = mgl32.Vec3{0, 1, 0}
	}
	s.PlaneNormal = normal
	s.PlaneConstant = constant
	return s
}

// NewConvexHullShape creates a convex hull from a point cloud.
func NewConvexHullShape(points []mgl32.Vec3) *Shape {
	s := newShape(ShapeConvexHull)
	s.Points = append([]mgl32.Vec3(nil), points...)
	return s
}

// AddPoint appends a point to a convex hull.
func (s *Shape) AddPoint(p mgl32.Vec3) { s.Points = append(s.Points, p) }

// Margin returns the collision margin.
func (s *Shape) Margin() float32 { return s.margin }

// SetMargin sets the collision margin.
func (s *Shape) SetMargin(m float32) { s.margin = m }

// LocalScaling returns the per-axis shape scaling.
func (s *Shape) LocalScaling() mgl32.Vec3 { return s.scaling }

// SetLocalScaling sets the per-axis shape scaling.
func (s *Shape) SetLocalScaling(v mgl32.Vec3) { s.scaling = v }

// Refs returns the number of bodies using the shape.
func (s *Shape) Refs() int { return s.refs }

// Released reports whether the shape was released.
func (s *Shape) Released() bool { return s.released }

// Release frees the shape. It fails with ErrShapeInUse while bodies still
// reference it and is a no-op when already released.
func (s *Shape) Release() error {
	if s.released {
		return nil
	}
	if s.refs > 0 {
		return ErrShapeInUse
	}
	s.released = true
	return nil
}

// localExtents returns the scaled half extents of the shape's local bounds.
func (s *Shape) localExtents() (center, half mgl32.Vec3) {
	sc := s.scaling
	switch s.Kind {
	case ShapeSphere:
		r := s.Radius * maxAbs(sc)
		return mgl32.Vec3{}, mgl32.Vec3{r, r, r}
	case ShapeBox:
		return mgl32.Vec3{}, mulVec(s.HalfExtents, absVec(sc))
	case ShapeConvexHull:
		if len(s.Points) == 0 {
			return mgl32.Vec3{}, mgl32.Vec3{}
		}
		lo := mulVec(s.Points[0], sc)
		hi := lo
		for _, p := range s.Points[1:] {
			p = mulVec(p, sc)
			for i := 0; i < 3; i++ {
				lo[i] = minf(lo[i], p[i])
				hi[i] = maxf(hi[i], p[i])
			}
		}
		return lo.Add(hi).Mul(0.5), hi.Sub(lo).Mul(0.5)
	default:
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
}

// CalculateLocalInertia returns the diagonal inertia tensor for mass.
// Convex hulls use their bounding box.
func (s *Shape) CalculateLocalInertia(mass float32) mgl32.Vec3 {
	switch s.Kind {
	case ShapeSphere:
		r := s.Radius * maxAbs(s.scaling)
		i := 0.4 * mass * r * r
		return mgl32.Vec3{i, i, i}
	case ShapeBox, ShapeConvexHull:
		_, h := s.localExtents()
		lx, ly, lz := 2*(h[0]+s.margin), 2*(h[1]+s.margin), 2*(h[2]+s.margin)
		return mgl32.Vec3{
			mass / 12 * (ly*ly + lz*lz),
			mass / 12 * (lx*lx + lz*lz),
			mass / 12 * (lx*lx + ly*ly),
		}
	default:
		return mgl32.Vec3{}
	}
}

// AABB returns the world space bounds of the shape placed at t.
func (s *Shape) AABB(t Transform) (lo, hi mgl32.Vec3) {
	switch s.Kind {
	case ShapePlane:
		return mgl32.Vec3{-infinite, -infinite, -infinite}, mgl32.Vec3{infinite, infinite, infinite}
	case ShapeEmpty:
		return t.Origin, t.Origin
	}

	c, h := s.localExtents()
	h = h.Add(mgl32.Vec3{s.margin, s.margin, s.margin})
	center := t.Apply(c)
	var ext mgl32.Vec3
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			ext[r] += absf(t.Basis.At(r, col)) * h[col]
		}
	}
	return center.Sub(ext), center.Add(ext)
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func absVec(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{absf(v[0]), absf(v[1]), absf(v[2])}
}

func maxAbs(v mgl32.Vec3) float32 {
	return maxf(absf(v[0]), maxf(absf(v[1]), absf(v[2])))
}

func absf(x float32) float32 { return float32(gomath.Abs(float64(x))) }

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
