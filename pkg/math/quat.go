package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// angle is in radians; the axis is normalized here.
func QuatFromAxisAngle(axis mgl32.Vec3, angle float32) mgl32.Quat {
	if axis.Len() < 1e-6 {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatRotate(angle, axis.Normalize())
}

// QuatSlerpShortest interpolates between a and b along the shorter arc.
// t should be in range [0, 1].
func QuatSlerpShortest(a, b mgl32.Quat, t float32) mgl32.Quat {
	if a.Dot(b) < 0 {
		b = mgl32.Quat{W: -b.W, V: b.V.Mul(-1)}
	}
	// Nearly parallel quaternions: nlerp avoids dividing by sin(0).
	if a.Dot(b) > 0.9995 {
		return mgl32.QuatNlerp(a, b, t)
	}
	return mgl32.QuatSlerp(a, b, t).Normalize()
}

// QuatApproxEqual reports whether a and b describe the same orientation
// within eps. q and -q are treated as equal.
func QuatApproxEqual(a, b mgl32.Quat, eps float32) bool {
	d := a.Normalize().Dot(b.Normalize())
	return 1-absf(d) <= eps
}

// NormalizeQuat returns q normalized, or the identity for a degenerate q.
func NormalizeQuat(q mgl32.Quat) mgl32.Quat {
	if q.Len() < 1e-4 {
		return mgl32.QuatIdent()
	}
	return q.Normalize()
}
