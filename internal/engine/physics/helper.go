package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/iris3d/internal/engine/physics/dynamics"
	"github.com/Faultbox/iris3d/pkg/math"
)

// CreatePhysicsBody builds a body and its shape for a node, placed at the
// node's global position and rotation. Shapes take the node's local scale.
// The caller owns both until they are handed to the environment.
func CreatePhysicsBody(node Node, prop *Property) (*dynamics.RigidBody, *dynamics.Shape) {
	if node == nil || prop == nil {
		return nil, nil
	}

	pos, rot, _ := math.Decompose(node.GlobalTransform())
	start := dynamics.NewTransform(rot, pos)
	scale := node.LocalScale()

	var shape *dynamics.Shape
	switch prop.Shape {
	case ShapeSphere:
		shape = dynamics.NewSphereShape(1)
	case ShapePlane:
		shape = dynamics.NewStaticPlaneShape(mgl32.Vec3{0, 1, 0}, 0)
	case ShapeCube:
		shape = dynamics.NewBoxShape(mgl32.Vec3{1, 1, 1})
	case ShapeConvexHull, ShapeTriangleMesh, ShapeCompound:
		if len(prop.HullPoints) == 0 {
			shape = dynamics.NewBoxShape(mgl32.Vec3{1, 1, 1})
		} else {
			shape = dynamics.NewConvexHullShape(prop.HullPoints)
		}
	default:
		shape = dynamics.NewEmptyShape()
	}
	if prop.Shape != ShapeNone {
		shape.SetLocalScaling(scale)
		shape.SetMargin(prop.CollisionMargin)
	}

	var mass float32
	if !prop.IsStatic() && prop.Shape != ShapePlane {
		mass = prop.Mass
	}
	var inertia mgl32.Vec3
	if mass != 0 {
		inertia = shape.CalculateLocalInertia(mass)
	}

	info := dynamics.NewRigidBodyConstructionInfo(mass, dynamics.NewDefaultMotionState(start), shape, inertia)
	info.Restitution = prop.Restitution
	info.Friction = prop.Friction
	info.LinearDamping = prop.Damping
	info.AngularDamping = prop.Damping
	return dynamics.NewRigidBody(info), shape
}

// InitializePhysicsWorldFromScene creates a body for every node with a
// simulated physics property, then the constraints those properties list.
func (e *Environment) InitializePhysicsWorldFromScene(nodes []Node) {
	var linked []Node
	for _, n := range nodes {
		prop := n.PhysicsProperty()
		if !prop.Simulated() {
			if prop != nil && prop.Type == TypeSoftBody {
				e.log.Debug("soft bodies are not simulated", zap.String("guid", n.GUID()))
			}
			continue
		}
		body, shape := CreatePhysicsBody(n, prop)
		if body == nil {
			continue
		}
		e.StoreCollisionShape(shape)
		e.AddBodyToWorld(body, n)
		if len(prop.Constraints) > 0 {
			linked = append(linked, n)
		}
	}

	for _, n := range linked {
		for _, cp := range n.PhysicsProperty().Constraints {
			if cp.From == "" {
				cp.From = n.GUID()
			}
			if err := e.createConstraint(cp); err != nil {
				e.log.Warn("constraint skipped", zap.String("from", cp.From), zap.String("to", cp.To), zap.Error(err))
			}
		}
	}
	e.log.Info("physics world populated",
		zap.Int("bodies", len(e.bodies)),
		zap.Int("constraints", len(e.constraints)))
}

// CreateConstraintBetweenNodes links the bodies of node and to, holding
// their current relative placement, and records the link on the node's
// property.
func (e *Environment) CreateConstraintBetweenNodes(node Node, to string, typ ConstraintType) error {
	cp := ConstraintProperty{From: node.GUID(), To: to, Type: typ}
	if err := e.createConstraint(cp); err != nil {
		return err
	}
	if prop := node.PhysicsProperty(); prop != nil {
		prop.Constraints = append(prop.Constraints, cp)
	}
	return nil
}

func (e *Environment) createConstraint(cp ConstraintProperty) error {
	a, ok := e.bodies[cp.From]
	if !ok {
		return fmt.Errorf("physics: no body for %q", cp.From)
	}
	b, ok := e.bodies[cp.To]
	if !ok {
		return fmt.Errorf("physics: no body for %q", cp.To)
	}

	// Pivot at A's centre, expressed in both body frames.
	ta, tb := a.WorldTransform(), b.WorldTransform()
	pivot := ta.Origin
	frameA := dynamics.IdentityTransform()
	frameA.Origin = ta.Inverse().Apply(pivot)
	frameB := dynamics.IdentityTransform()
	frameB.Origin = tb.Inverse().Apply(pivot)

	var c dynamics.Constraint
	switch cp.Type {
	case ConstraintBall:
		c = dynamics.NewPoint2PointConstraint(a, b, frameA.Origin, frameB.Origin)
	case ConstraintDof6:
		c = dynamics.NewGeneric6DofConstraint(a, b, frameA, frameB)
	default:
		return fmt.Errorf("physics: unsupported constraint type %d", cp.Type)
	}
	e.AddConstraintToWorld(c, true)
	return nil
}
