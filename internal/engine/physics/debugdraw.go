package physics

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Faultbox/iris3d/internal/engine/physics/dynamics"
	"github.com/Faultbox/iris3d/internal/engine/renderlist"
)

// DebugDrawFlags selects the physics debug layers drawn each step.
type DebugDrawFlags uint8

const (
	DebugDrawAABB DebugDrawFlags = 1 << iota
	DebugDrawConstraints
	DebugDrawFrames

	DebugDrawNone DebugDrawFlags = 0
	DebugDrawAll                 = DebugDrawAABB | DebugDrawConstraints | DebugDrawFrames
)

// ErrUnknownDebugLayer is returned for debug layer names that are not
// recognised.
var ErrUnknownDebugLayer = errors.New("physics: unknown debug draw layer")

var debugLayers = map[string]DebugDrawFlags{
	"aabb":        DebugDrawAABB,
	"constraints": DebugDrawConstraints,
	"frames":      DebugDrawFrames,
	"all":         DebugDrawAll,
}

// ParseDebugDrawFlags parses a comma separated list of layer names. The
// empty string selects no layer.
func ParseDebugDrawFlags(s string) (DebugDrawFlags, error) {
	var flags DebugDrawFlags
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		f, ok := debugLayers[name]
		if !ok {
			return flags, errors.Wrap(ErrUnknownDebugLayer, name)
		}
		flags |= f
	}
	return flags, nil
}

var (
	aabbColor       = mgl32.Vec3{1, 0, 0}
	constraintColor = mgl32.Vec3{1, 1, 0}
	frameLength     = float32(0.5)
)

// SetDebugDrawFlags selects the debug layers. Zero disables debug drawing
// and empties the debug list.
func (e *Environment) SetDebugDrawFlags(f DebugDrawFlags) {
	e.debugFlags = f
	if f == DebugDrawNone {
		e.debugList.Clear()
	}
}

// ToggleDebugDrawFlags flips the given layers and returns the new set.
func (e *Environment) ToggleDebugDrawFlags(f DebugDrawFlags) DebugDrawFlags {
	e.SetDebugDrawFlags(e.debugFlags ^ f)
	return e.debugFlags
}

// DebugDrawFlags returns the selected debug layers.
func (e *Environment) DebugDrawFlags() DebugDrawFlags { return e.debugFlags }

// DebugRenderList returns the line items emitted by the last step.
func (e *Environment) DebugRenderList() *renderlist.List { return &e.debugList }

// drawDebug rebuilds the debug list from the current body and constraint
// state. Plane shapes are unbounded and get no box.
func (e *Environment) drawDebug() {
	e.debugList.Clear()
	if e.debugFlags == DebugDrawNone || e.world == nil {
		return
	}

	for _, b := range e.world.Bodies() {
		t := b.WorldTransform()
		if e.debugFlags&DebugDrawAABB != 0 && b.Shape() != nil && b.Shape().Kind != dynamics.ShapePlane {
			lo, hi := b.Shape().AABB(t)
			e.debugList.Submit(renderlist.Item{
				Kind:  renderlist.KindLines,
				Mesh:  b.UserData,
				World: mgl32.Ident4(),
				Lines: boxLines(lo, hi, aabbColor),
			})
		}
		if e.debugFlags&DebugDrawFrames != 0 {
			e.debugList.Submit(renderlist.Item{
				Kind:  renderlist.KindLines,
				Mesh:  b.UserData,
				World: mgl32.Ident4(),
				Lines: frameLines(t),
			})
		}
	}

	if e.debugFlags&DebugDrawConstraints == 0 {
		return
	}
	for _, c := range e.world.Constraints() {
		from, to, ok := constraintEnds(c)
		if !ok {
			continue
		}
		e.debugList.Submit(renderlist.Item{
			Kind:  renderlist.KindLines,
			Mesh:  "constraint",
			World: mgl32.Ident4(),
			Lines: []renderlist.Line{{From: from, To: to, Color: constraintColor}},
		})
	}
}

// constraintEnds returns the world space anchors of a constraint on body A
// and on body B, or on the world for single body constraints.
func constraintEnds(c dynamics.Constraint) (from, to mgl32.Vec3, ok bool) {
	a, b := c.BodyA(), c.BodyB()
	if a == nil {
		return from, to, false
	}
	switch c := c.(type) {
	case *dynamics.Point2PointConstraint:
		from = a.WorldTransform().Apply(c.PivotA())
		to = c.PivotB()
		if b != nil {
			to = b.WorldTransform().Apply(c.PivotB())
		}
	case *dynamics.Generic6DofConstraint:
		from = a.WorldTransform().Apply(c.FrameOffsetA().Origin)
		to = c.FrameOffsetB().Origin
		if b != nil {
			to = b.WorldTransform().Apply(c.FrameOffsetB().Origin)
		}
	default:
		return from, to, false
	}
	return from, to, true
}

// boxLines returns the twelve edges of an axis aligned box.
func boxLines(lo, hi, color mgl32.Vec3) []renderlist.Line {
	var corners [8]mgl32.Vec3
	for i := range corners {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				corners[i][axis] = hi[axis]
			} else {
				corners[i][axis] = lo[axis]
			}
		}
	}
	lines := make([]renderlist.Line, 0, 12)
	for i := range corners {
		for axis := 0; axis < 3; axis++ {
			j := i | 1<<axis
			if j != i {
				lines = append(lines, renderlist.Line{From: corners[i], To: corners[j], Color: color})
			}
		}
	}
	return lines
}

// frameLines returns the X, Y and Z axes of t colored red, green and blue.
func frameLines(t dynamics.Transform) []renderlist.Line {
	lines := make([]renderlist.Line, 3)
	for axis := 0; axis < 3; axis++ {
		var dir, color mgl32.Vec3
		dir[axis] = frameLength
		color[axis] = 1
		lines[axis] = renderlist.Line{From: t.Origin, To: t.Apply(dir), Color: color}
	}
	return lines
}
