package importer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/iris3d/internal/engine/animation"
	"github.com/Faultbox/iris3d/internal/logger"
)

// ErrAccessorType is returned when an accessor holds data of the wrong shape.
var ErrAccessorType = errors.New("importer: unexpected accessor type")

func readAccessor(doc *gltf.Document, index uint32) (interface{}, error) {
	if int(index) >= len(doc.Accessors) {
		return nil, errors.Wrapf(ErrBadIndex, "accessor %d", index)
	}
	data, err := modeler.ReadAccessor(doc, doc.Accessors[index], nil)
	if err != nil {
		return nil, errors.Wrapf(err, "read accessor %d", index)
	}
	return data, nil
}

func readFloats(doc *gltf.Document, index uint32) ([]float32, error) {
	data, err := readAccessor(doc, index)
	if err != nil {
		return nil, err
	}
	v, ok := data.([]float32)
	if !ok {
		return nil, errors.Wrapf(ErrAccessorType, "accessor %d: %T, want scalar float", index, data)
	}
	return v, nil
}

func readVec3s(doc *gltf.Document, index uint32) ([][3]float32, error) {
	data, err := readAccessor(doc, index)
	if err != nil {
		return nil, err
	}
	v, ok := data.([][3]float32)
	if !ok {
		return nil, errors.Wrapf(ErrAccessorType, "accessor %d: %T, want vec3 float", index, data)
	}
	return v, nil
}

func readVec4s(doc *gltf.Document, index uint32) ([][4]float32, error) {
	data, err := readAccessor(doc, index)
	if err != nil {
		return nil, err
	}
	v, ok := data.([][4]float32)
	if !ok {
		return nil, errors.Wrapf(ErrAccessorType, "accessor %d: %T, want vec4 float", index, data)
	}
	return v, nil
}

// readMat4s reads a MAT4 accessor. glTF and mgl32 are both column major.
func readMat4s(doc *gltf.Document, index uint32) ([]mgl32.Mat4, error) {
	data, err := readAccessor(doc, index)
	if err != nil {
		return nil, err
	}
	v, ok := data.([][4][4]float32)
	if !ok {
		return nil, errors.Wrapf(ErrAccessorType, "accessor %d: %T, want mat4 float", index, data)
	}
	out := make([]mgl32.Mat4, len(v))
	for i, cols := range v {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				out[i][c*4+r] = cols[c][r]
			}
		}
	}
	return out, nil
}

// samplerKeys returns the keyframe times of a sampler and, for each key, the
// index of its value in the output accessor. Cubic spline outputs store an
// in-tangent, the value and an out-tangent per key; only the value is kept
// and the curve is sampled linearly.
func samplerKeys(doc *gltf.Document, smp *gltf.AnimationSampler, outputs int) ([]float32, func(int) int, animation.Interpolation, error) {
	times, err := readFloats(doc, *smp.Input)
	if err != nil {
		return nil, nil, animation.Linear, err
	}
	valueAt := func(i int) int { return i }
	interp := animation.Linear
	switch smp.Interpolation {
	case gltf.InterpolationStep:
		interp = animation.Step
	case gltf.InterpolationCubicSpline:
		valueAt = func(i int) int { return 3*i + 1 }
	}
	if len(times) > 0 && valueAt(len(times)-1) >= outputs {
		return nil, nil, interp, errors.Wrapf(ErrBadIndex, "sampler has %d outputs for %d keys", outputs, len(times))
	}
	return times, valueAt, interp, nil
}

// AnimationsFromDocument converts every animation of doc into a clip.
// Channels target bones by node name, as the skeletons built from doc
// name them. Curves a channel leaves out hold the node's bind value; morph
// weight channels are skipped.
func AnimationsFromDocument(doc *gltf.Document) ([]*animation.SkeletalAnimation, error) {
	log := logger.Named("importer")
	names := nodeNames(doc)

	clips := make([]*animation.SkeletalAnimation, 0, len(doc.Animations))
	for ai, a := range doc.Animations {
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("anim_%d", ai)
		}

		channels := make(map[int]*animation.BoneAnimation)
		var order []int
		for ci, ch := range a.Channels {
			if ch.Sampler == nil || ch.Target.Node == nil {
				log.Debug("skipping untargeted channel", zap.String("clip", name), zap.Int("channel", ci))
				continue
			}
			node := int(*ch.Target.Node)
			if node >= len(doc.Nodes) {
				return nil, errors.Wrapf(ErrBadIndex, "animation %d channel %d node %d", ai, ci, node)
			}
			if int(*ch.Sampler) >= len(a.Samplers) {
				return nil, errors.Wrapf(ErrBadIndex, "animation %d channel %d sampler %d", ai, ci, *ch.Sampler)
			}
			smp := a.Samplers[*ch.Sampler]
			if smp.Input == nil || smp.Output == nil {
				return nil, errors.Wrapf(ErrBadIndex, "animation %d sampler %d has no accessors", ai, *ch.Sampler)
			}

			ba, ok := channels[node]
			if !ok {
				ba = &animation.BoneAnimation{Name: names[node]}
				channels[node] = ba
				order = append(order, node)
			}

			if err := readChannel(doc, ch.Target.Path, smp, ba); err != nil {
				return nil, errors.Wrapf(err, "animation %d channel %d", ai, ci)
			}
		}

		clip := animation.New(name)
		for _, node := range order {
			ba := channels[node]
			pos, rot, scale := nodeTRS(doc.Nodes[node])
			if ba.PosKeys == nil {
				ba.PosKeys = animation.NewVec3Curve(animation.Vec3Key{Value: pos})
			}
			if ba.RotKeys == nil {
				ba.RotKeys = animation.NewQuatCurve(animation.QuatKey{Value: rot})
			}
			if ba.ScaleKeys == nil {
				ba.ScaleKeys = animation.NewVec3Curve(animation.Vec3Key{Value: scale})
			}
			clip.AddBoneAnimation(ba)
		}
		log.Debug("clip imported", zap.String("clip", name), zap.Int("bones", len(order)), zap.Float32("length", clip.Length))
		clips = append(clips, clip)
	}
	return clips, nil
}

func readChannel(doc *gltf.Document, path gltf.TRSProperty, smp *gltf.AnimationSampler, ba *animation.BoneAnimation) error {
	switch path {
	case gltf.TRSTranslation, gltf.TRSScale:
		values, err := readVec3s(doc, *smp.Output)
		if err != nil {
			return err
		}
		times, valueAt, interp, err := samplerKeys(doc, smp, len(values))
		if err != nil {
			return err
		}
		keys := make([]animation.Vec3Key, len(times))
		for i, t := range times {
			keys[i] = animation.Vec3Key{Time: t, Value: mgl32.Vec3(values[valueAt(i)])}
		}
		curve := animation.NewVec3Curve(keys...)
		curve.Interpolation = interp
		if path == gltf.TRSTranslation {
			ba.PosKeys = curve
		} else {
			ba.ScaleKeys = curve
		}
	case gltf.TRSRotation:
		values, err := readVec4s(doc, *smp.Output)
		if err != nil {
			return err
		}
		times, valueAt, interp, err := samplerKeys(doc, smp, len(values))
		if err != nil {
			return err
		}
		keys := make([]animation.QuatKey, len(times))
		for i, t := range times {
			v := values[valueAt(i)]
			keys[i] = animation.QuatKey{Time: t, Value: mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}.Normalize()}
		}
		curve := animation.NewQuatCurve(keys...)
		curve.Interpolation = interp
		ba.RotKeys = curve
	}
	return nil
}
