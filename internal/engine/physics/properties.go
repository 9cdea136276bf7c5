package physics

import "github.com/go-gl/mathgl/mgl32"

// Type selects how a node takes part in the simulation.
type Type int

const (
	TypeNone Type = iota
	TypeStatic
	TypeRigidBody
	TypeSoftBody
)

// CollisionShape selects the collision shape built for a node.
type CollisionShape int

const (
	ShapeNone CollisionShape = iota
	ShapePlane
	ShapeSphere
	ShapeCube
	ShapeConvexHull
	ShapeTriangleMesh
	ShapeCompound
)

func (s CollisionShape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapePlane:
		return "plane"
	case ShapeSphere:
		return "sphere"
	case ShapeCube:
		return "cube"
	case ShapeConvexHull:
		return "convex-hull"
	case ShapeTriangleMesh:
		return "triangle-mesh"
	case ShapeCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// ConstraintType selects the joint built between two nodes.
type ConstraintType int

const (
	ConstraintNone ConstraintType = iota
	ConstraintBall
	ConstraintDof6
)

// ConstraintProperty links two nodes by GUID.
type ConstraintProperty struct {
	From string
	To   string
	Type ConstraintType
}

// Property is the physics description attached to a scene node.
type Property struct {
	Mass            float32
	Restitution     float32
	Damping         float32
	CollisionMargin float32
	Friction        float32
	Visible         bool
	Static          bool
	Shape           CollisionShape
	Type            Type
	CenterOfMass    mgl32.Vec3
	PivotPoint      mgl32.Vec3
	Constraints     []ConstraintProperty

	// HullPoints are the mesh points used by hull, triangle mesh and
	// compound shapes.
	HullPoints []mgl32.Vec3
}

// DefaultProperty returns a property with the stock body tuning.
func DefaultProperty() *Property {
	return &Property{
		Mass:            1,
		Restitution:     0.1,
		Damping:         0.1,
		CollisionMargin: 0.01,
		Friction:        0.5,
		Visible:         true,
	}
}

// IsStatic reports whether the body gets infinite mass.
func (p *Property) IsStatic() bool {
	return p.Static || p.Type == TypeStatic || p.Mass <= 0
}

// Simulated reports whether a body should be created at all.
func (p *Property) Simulated() bool {
	return p != nil && (p.Type == TypeRigidBody || p.Type == TypeStatic)
}
