// Package math provides the transform helpers shared by the engine packages.
// Vector, quaternion and matrix types come from mgl32; this package adds the
// compositions the scene, skeleton and physics code agree on.
package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the default tolerance used by the approximate comparisons.
const Epsilon = 1e-5

// Vec3One is the unit scale.
var Vec3One = mgl32.Vec3{1, 1, 1}

// LerpVec3 performs linear interpolation between two 3D vectors.
func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return mgl32.Vec3{
		a[0] + t*(b[0]-a[0]),
		a[1] + t*(b[1]-a[1]),
		a[2] + t*(b[2]-a[2]),
	}
}

// Vec3ApproxEqual reports whether a and b differ by at most eps per component.
func Vec3ApproxEqual(a, b mgl32.Vec3, eps float32) bool {
	for i := 0; i < 3; i++ {
		if absf(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// ClampDelta treats a negative time delta as zero elapsed time.
func ClampDelta(dt float32) float32 {
	if dt < 0 || gomath.IsNaN(float64(dt)) {
		return 0
	}
	return dt
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
