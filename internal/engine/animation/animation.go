package animation

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/pkg/math"
)

// BoneAnimation is the set of curves that target one bone.
// A nil curve leaves that component at its default.
type BoneAnimation struct {
	Name      string
	PosKeys   *Vec3Curve
	RotKeys   *QuatCurve
	ScaleKeys *Vec3Curve
}

// Sample returns the local position, rotation and scale at time t.
func (b *BoneAnimation) Sample(t float32) (pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) {
	pos = b.PosKeys.ValueAt(t, mgl32.Vec3{})
	rot = b.RotKeys.ValueAt(t, mgl32.QuatIdent())
	scale = b.ScaleKeys.ValueAt(t, math.Vec3One)
	return pos, rot, scale
}

// Duration returns the time of the last key across all curves.
func (b *BoneAnimation) Duration() float32 {
	d := b.PosKeys.Duration()
	if r := b.RotKeys.Duration(); r > d {
		d = r
	}
	if s := b.ScaleKeys.Duration(); s > d {
		d = s
	}
	return d
}

// SkeletalAnimation is a named clip of per-bone curves.
type SkeletalAnimation struct {
	Name string
	// Length is the clip duration in seconds. Zero means the clip does not
	// loop even when the player asks it to.
	Length         float32
	BoneAnimations map[string]*BoneAnimation
}

// New creates an empty clip.
func New(name string) *SkeletalAnimation {
	return &SkeletalAnimation{
		Name:           name,
		BoneAnimations: make(map[string]*BoneAnimation),
	}
}

// AddBoneAnimation registers the curves for one bone, replacing any existing
// channel with the same name, and extends Length to cover the new keys.
func (a *SkeletalAnimation) AddBoneAnimation(b *BoneAnimation) {
	if a.BoneAnimations == nil {
		a.BoneAnimations = make(map[string]*BoneAnimation)
	}
	a.BoneAnimations[b.Name] = b
	if d := b.Duration(); d > a.Length {
		a.Length = d
	}
}

// Channel returns the curves for a bone, or nil and false when the clip does
// not animate it.
func (a *SkeletalAnimation) Channel(bone string) (*BoneAnimation, bool) {
	if a == nil {
		return nil, false
	}
	b, ok := a.BoneAnimations[bone]
	return b, ok && b != nil
}

// Sample implements the skeleton's sampler contract. ok is false when the clip
// has no channel for bone.
func (a *SkeletalAnimation) Sample(bone string, t float32) (pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3, ok bool) {
	ch, ok := a.Channel(bone)
	if !ok {
		return mgl32.Vec3{}, mgl32.QuatIdent(), math.Vec3One, false
	}
	pos, rot, scale = ch.Sample(t)
	return pos, rot, scale, true
}

// ComputeLength recalculates Length from the channel keys.
func (a *SkeletalAnimation) ComputeLength() float32 {
	var d float32
	for _, b := range a.BoneAnimations {
		if bd := b.Duration(); bd > d {
			d = bd
		}
	}
	a.Length = d
	return d
}

// Wrap maps an elapsed time onto the clip for looping playback.
func (a *SkeletalAnimation) Wrap(t float32) float32 {
	if a.Length <= 0 || t < 0 {
		return t
	}
	return float32(gomath.Mod(float64(t), float64(a.Length)))
}
