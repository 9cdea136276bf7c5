// Package animation holds the keyframe curves and skeletal animation clips
// handed to the engine by the asset importer.
package animation

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/pkg/math"
)

// Interpolation selects how a curve blends between two keyframes.
type Interpolation uint8

const (
	Linear Interpolation = iota
	Step
)

// Vec3Key is a vector keyframe. Time is in seconds.
type Vec3Key struct {
	Time  float32
	Value mgl32.Vec3
}

// QuatKey is a rotation keyframe. Time is in seconds.
type QuatKey struct {
	Time  float32
	Value mgl32.Quat
}

// Vec3Curve samples position or scale keys.
type Vec3Curve struct {
	Keys          []Vec3Key
	Interpolation Interpolation
}

// QuatCurve samples rotation keys.
type QuatCurve struct {
	Keys          []QuatKey
	Interpolation Interpolation
}

// NewVec3Curve creates a linear curve from keys, sorting them by time.
func NewVec3Curve(keys ...Vec3Key) *Vec3Curve {
	c := &Vec3Curve{Keys: keys}
	c.Sort()
	return c
}

// NewQuatCurve creates a linear curve from keys, sorting them by time.
func NewQuatCurve(keys ...QuatKey) *QuatCurve {
	c := &QuatCurve{Keys: keys}
	c.Sort()
	return c
}

// Sort orders the keys by time. Keys with equal times keep their order.
func (c *Vec3Curve) Sort() {
	sort.SliceStable(c.Keys, func(i, j int) bool { return c.Keys[i].Time < c.Keys[j].Time })
}

// Sort orders the keys by time. Keys with equal times keep their order.
func (c *QuatCurve) Sort() {
	sort.SliceStable(c.Keys, func(i, j int) bool { return c.Keys[i].Time < c.Keys[j].Time })
}

// Len returns the number of keys. A nil curve has none.
func (c *Vec3Curve) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Keys)
}

// Len returns the number of keys. A nil curve has none.
func (c *QuatCurve) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Keys)
}

// Duration returns the time of the last key.
func (c *Vec3Curve) Duration() float32 {
	if c.Len() == 0 {
		return 0
	}
	return c.Keys[len(c.Keys)-1].Time
}

// Duration returns the time of the last key.
func (c *QuatCurve) Duration() float32 {
	if c.Len() == 0 {
		return 0
	}
	return c.Keys[len(c.Keys)-1].Time
}

// ValueAt samples the curve at time t. Times before the first key hold the
// first value, times after the last key hold the last value, and an empty
// curve yields fallback.
func (c *Vec3Curve) ValueAt(t float32, fallback mgl32.Vec3) mgl32.Vec3 {
	n := c.Len()
	if n == 0 {
		return fallback
	}
	prev, next, f := span(n, t, func(i int) float32 { return c.Keys[i].Time })
	if prev == next || c.Interpolation == Step {
		return c.Keys[prev].Value
	}
	return math.LerpVec3(c.Keys[prev].Value, c.Keys[next].Value, f)
}

// ValueAt samples the rotation curve at time t, see Vec3Curve.ValueAt.
func (c *QuatCurve) ValueAt(t float32, fallback mgl32.Quat) mgl32.Quat {
	n := c.Len()
	if n == 0 {
		return fallback
	}
	prev, next, f := span(n, t, func(i int) float32 { return c.Keys[i].Time })
	if prev == next || c.Interpolation == Step {
		return math.NormalizeQuat(c.Keys[prev].Value)
	}
	return math.QuatSlerpShortest(c.Keys[prev].Value, c.Keys[next].Value, f)
}

// span finds the key pair surrounding t and the blend factor between them.
// Keys must be sorted by time.
func span(n int, t float32, timeAt func(int) float32) (prev, next int, f float32) {
	if t <= timeAt(0) {
		return 0, 0, 0
	}
	if t >= timeAt(n-1) {
		return n - 1, n - 1, 0
	}

	// First key strictly after t
	next = sort.Search(n, func(i int) bool { return timeAt(i) > t })
	prev = next - 1

	t0, t1 := timeAt(prev), timeAt(next)
	if t1 == t0 {
		return prev, prev, 0
	}
	return prev, next, (t - t0) / (t1 - t0)
}
