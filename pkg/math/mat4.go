package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Compose builds translate(pos) * rotate(rot) * scale(scale).
// The rotation is normalized first.
func Compose(pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	m := mgl32.Translate3D(pos[0], pos[1], pos[2])
	m = m.Mul4(NormalizeQuat(rot).Mat4())
	return m.Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// Decompose splits an affine matrix into translation, rotation and scale so
// that Compose(Decompose(m)) reproduces m. A negative determinant is folded
// into the X scale.
func Decompose(m mgl32.Mat4) (pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) {
	pos = Translation(m)
	scale = ScaleOf(m)
	if m.Det() < 0 {
		scale[0] = -scale[0]
	}

	var r mgl32.Mat4
	for c := 0; c < 3; c++ {
		col := m.Col(c).Vec3()
		if scale[c] != 0 {
			col = col.Mul(1 / scale[c])
		}
		r.SetCol(c, col.Vec4(0))
	}
	r.SetCol(3, mgl32.Vec4{0, 0, 0, 1})

	if scale[0] == 0 || scale[1] == 0 || scale[2] == 0 {
		return pos, mgl32.QuatIdent(), scale
	}
	return pos, NormalizeQuat(mgl32.Mat4ToQuat(r)), scale
}

// Translation returns the translation column of m.
func Translation(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m[12], m[13], m[14]}
}

// ScaleOf returns the length of each basis column of m.
func ScaleOf(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{
		m.Col(0).Vec3().Len(),
		m.Col(1).Vec3().Len(),
		m.Col(2).Vec3().Len(),
	}
}

// WithoutScale returns m with each basis column normalized.
func WithoutScale(m mgl32.Mat4) mgl32.Mat4 {
	pos, rot, _ := Decompose(m)
	return Compose(pos, rot, Vec3One)
}

// Inverse returns the inverse of m, or the identity if m is singular.
func Inverse(m mgl32.Mat4) mgl32.Mat4 {
	if m.Det() == 0 {
		return mgl32.Ident4()
	}
	return m.Inv()
}

// MatApproxEqual reports whether every element of a and b differs by at most eps.
func MatApproxEqual(a, b mgl32.Mat4, eps float32) bool {
	for i := range a {
		if absf(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// TransformPoint transforms a 3D point by m (w=1).
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, m)
}

// TransformDirection transforms a direction by m, ignoring translation.
func TransformDirection(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformNormal(d, m)
}
