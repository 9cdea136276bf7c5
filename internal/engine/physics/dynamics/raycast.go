package dynamics

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// RayResult is the closest hit of a ray test.
type RayResult struct {
	Body     *RigidBody
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Fraction float32 // 0 at from, 1 at to
}

// HasHit reports whether the ray hit anything.
func (r RayResult) HasHit() bool { return r.Body != nil }

// RayTest returns the closest body hit by the segment from -> to.
func (w *DiscreteDynamicsWorld) RayTest(from, to mgl32.Vec3) RayResult {
	best := RayResult{Fraction: 1}
	for _, b := range w.bodies {
		if b.shape == nil {
			continue
		}
		f, n, ok := rayShape(b.shape, b.transform, from, to)
		if ok && f <= best.Fraction {
			best = RayResult{Body: b, Fraction: f, Normal: n}
		}
	}
	if best.Body != nil {
		best.Point = from.Add(to.Sub(from).Mul(best.Fraction))
	}
	return best
}

func rayShape(s *Shape, t Transform, from, to mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	switch s.Kind {
	case ShapeSphere:
		return raySphere(t.Origin, s.Radius*maxAbs(s.scaling), from, to)
	case ShapePlane:
		// The plane is defined in the body's local space.
		n := t.Basis.Mul3x1(s.PlaneNormal)
		d := s.PlaneConstant + n.Dot(t.Origin)
		return rayPlane(n, d, from, to)
	case ShapeBox, ShapeConvexHull:
		inv := t.Inverse()
		c, h := s.localExtents()
		f, ln, ok := rayBox(c.Sub(h), c.Add(h), inv.Apply(from), inv.Apply(to))
		if !ok {
			return 0, mgl32.Vec3{}, false
		}
		return f, t.Basis.Mul3x1(ln), true
	default:
		return 0, mgl32.Vec3{}, false
	}
}

func raySphere(center mgl32.Vec3, r float32, from, to mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	d := to.Sub(from)
	m := from.Sub(center)
	a := d.Dot(d)
	if a == 0 {
		return 0, mgl32.Vec3{}, false
	}
	b := m.Dot(d)
	c := m.Dot(m) - r*r
	disc := b*b - a*c
	if disc < 0 {
		return 0, mgl32.Vec3{}, false
	}
	f := (-b - float32(gomath.Sqrt(float64(disc)))) / a
	if f < 0 {
		if c > 0 {
			return 0, mgl32.Vec3{}, false
		}
		f = 0 // starts inside
	}
	if f > 1 {
		return 0, mgl32.Vec3{}, false
	}
	p := from.Add(d.Mul(f))
	n := p.Sub(center)
	if n.Len() > 0 {
		n = n.Normalize()
	}
	return f, n, true
}

func rayPlane(n mgl32.Vec3, d float32, from, to mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	dir := to.Sub(from)
	den := n.Dot(dir)
	if den == 0 {
		return 0, mgl32.Vec3{}, false
	}
	f := (d - n.Dot(from)) / den
	if f < 0 || f > 1 {
		return 0, mgl32.Vec3{}, false
	}
	if den > 0 {
		n = n.Mul(-1)
	}
	return f, n, true
}

func rayBox(lo, hi, from, to mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	d := to.Sub(from)
	tmin, tmax := float32(0), float32(1)
	var n mgl32.Vec3
	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if from[i] < lo[i] || from[i] > hi[i] {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		inv := 1 / d[i]
		t1 := (lo[i] - from[i]) * inv
		t2 := (hi[i] - from[i]) * inv
		sign := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tmin {
			tmin = t1
			n = mgl32.Vec3{}
			n[i] = sign
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, mgl32.Vec3{}, false
		}
	}
	return tmin, n, true
}
