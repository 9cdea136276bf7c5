package sim

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iris3d/internal/engine/animation"
	"github.com/Faultbox/iris3d/internal/engine/model"
	"github.com/Faultbox/iris3d/internal/engine/skeleton"
	"github.com/Faultbox/iris3d/pkg/math"
)

// DemoRig builds a small arm rig with a "wave" clip:
//
//	hips -> spine -> arm -> hand
//
// The skinned "body" mesh is bound to hips, the rigid "torso" to spine.
func DemoRig() (*model.Model, error) {
	skel, err := skeleton.FromHierarchy([]skeleton.BoneDesc{
		{Name: "hips"},
		{Name: "spine", Parent: "hips", Pos: mgl32.Vec3{0, 1, 0}},
		{Name: "arm", Parent: "spine", Pos: mgl32.Vec3{0.5, 0.5, 0}},
		{Name: "hand", Parent: "arm", Pos: mgl32.Vec3{0.5, 0, 0}},
	})
	if err != nil {
		return nil, err
	}

	wave := animation.New("wave")
	wave.AddBoneAnimation(&animation.BoneAnimation{
		Name:    "arm",
		PosKeys: animation.NewVec3Curve(animation.Vec3Key{Value: mgl32.Vec3{0.5, 0.5, 0}}),
		RotKeys: animation.NewQuatCurve(
			animation.QuatKey{Time: 0, Value: mgl32.QuatIdent()},
			animation.QuatKey{Time: 0.5, Value: math.QuatFromAxisAngle(mgl32.Vec3{0, 0, 1}, mgl32.DegToRad(60))},
			animation.QuatKey{Time: 1, Value: mgl32.QuatIdent()},
		),
	})
	wave.AddBoneAnimation(&animation.BoneAnimation{
		Name: "spine",
		PosKeys: animation.NewVec3Curve(
			animation.Vec3Key{Time: 0, Value: mgl32.Vec3{0, 1, 0}},
			animation.Vec3Key{Time: 0.5, Value: mgl32.Vec3{0, 1.1, 0}},
			animation.Vec3Key{Time: 1, Value: mgl32.Vec3{0, 1, 0}},
		),
	})

	body := model.NewModelMesh(&model.Mesh{Name: "body", Skeleton: skel}, "hips")
	torso := model.NewModelMesh(&model.Mesh{Name: "torso"}, "spine")
	m := model.NewWithAnimations([]*model.ModelMesh{body, torso}, []*animation.SkeletalAnimation{wave})
	m.SetSkeleton(skel)
	return m, nil
}

// SwayClip builds a clip that rocks every root bone of skel about Y,
// starting and ending at the bind pose.
func SwayClip(skel *skeleton.Skeleton, period float32) *animation.SkeletalAnimation {
	clip := animation.New("sway")
	if period <= 0 {
		period = 2
	}
	for _, b := range skel.RootBones() {
		bind := b.BindingRot()
		turn := func(deg float32) mgl32.Quat {
			return math.QuatFromAxisAngle(mgl32.Vec3{0, 1, 0}, mgl32.DegToRad(deg)).Mul(bind)
		}
		clip.AddBoneAnimation(&animation.BoneAnimation{
			Name:      b.Name,
			PosKeys:   animation.NewVec3Curve(animation.Vec3Key{Value: b.BindingPos()}),
			ScaleKeys: animation.NewVec3Curve(animation.Vec3Key{Value: b.BindingScale()}),
			RotKeys: animation.NewQuatCurve(
				animation.QuatKey{Time: 0, Value: bind},
				animation.QuatKey{Time: period / 4, Value: turn(15)},
				animation.QuatKey{Time: period * 3 / 4, Value: turn(-15)},
				animation.QuatKey{Time: period, Value: bind},
			),
		})
	}
	return clip
}
