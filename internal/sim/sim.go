// Package sim runs a scene headless at a fixed frame rate: an animated
// model, a handful of physics bodies, a scripted picking drag and a
// teleport.
package sim

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/iris3d/internal/config"
	"github.com/Faultbox/iris3d/internal/engine/model"
	"github.com/Faultbox/iris3d/internal/engine/physics"
	"github.com/Faultbox/iris3d/internal/engine/renderlist"
	"github.com/Faultbox/iris3d/internal/engine/scenegraph"
	"github.com/Faultbox/iris3d/internal/importer"
	"github.com/Faultbox/iris3d/internal/logger"
	"github.com/Faultbox/iris3d/pkg/math"
)

// Viewport used for the scripted picking ray.
const (
	viewWidth  = 800
	viewHeight = 600
)

// Summary describes a finished run.
type Summary struct {
	Frames      int
	Time        float32
	Bodies      int
	Constraints int
	RenderItems int
	Skinned     int
	DebugLines  int
	Picked      bool
	Teleported  bool
}

// Runner owns the scene and the frame loop.
type Runner struct {
	cfg *config.Config
	log *zap.Logger

	scene  *scenegraph.Scene
	camera *scenegraph.Camera
	actor  *scenegraph.Node
	ball   *scenegraph.Node
	crate  *scenegraph.Node

	frame   int
	summary Summary
}

// New builds the scene described by cfg.
func New(cfg *config.Config) (*Runner, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Runner{
		cfg:   cfg,
		log:   logger.Named("sim"),
		scene: scenegraph.New(cfg, logger.Named("scene")),
	}

	m, err := r.loadModel()
	if err != nil {
		return nil, err
	}
	r.setupAnimation(m)
	r.actor = scenegraph.NewMeshNode("actor", m)
	r.scene.AddNode(r.actor)

	r.camera = scenegraph.NewCamera("camera")
	r.camera.Aspect = float32(viewWidth) / viewHeight
	r.camera.SetLocalPos(mgl32.Vec3{0, 2, 12})
	r.camera.LookAt(mgl32.Vec3{0, 2, 0})
	r.scene.AddNode(&r.camera.Node)
	r.scene.SetCamera(r.camera)

	r.addBodies()

	// Settle transforms before bodies snapshot them.
	r.scene.Update(0)

	r.log.Info("scene ready",
		zap.Int("nodes", r.scene.Len()),
		zap.Int("frames", cfg.Simulation.Frames),
		zap.Int("rate", cfg.Simulation.FrameRate),
	)
	return r, nil
}

func (r *Runner) loadModel() (*model.Model, error) {
	path := r.cfg.Import.GLTFPath
	if path == "" {
		return DemoRig()
	}

	doc, err := importer.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := importer.ModelFromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}

	session := importer.NewSession(r.cfg.Import.Workers)
	if err := session.Begin(r.cfg.Import.TextureDir); err != nil {
		return nil, err
	}
	n, err := importer.ExportImages(session, doc, filepath.Dir(path))
	if err != nil {
		_ = session.End()
		return nil, err
	}
	if err := session.End(); err != nil {
		return nil, err
	}
	r.log.Info("textures exported", zap.Int("count", n), zap.String("dir", r.cfg.Import.TextureDir))
	return m, nil
}

func (r *Runner) setupAnimation(m *model.Model) {
	if !m.HasSkeletalAnimations() && m.HasSkeleton() {
		m.AddSkeletalAnimation(SwayClip(m.Skeleton(), 2))
	}
	m.SetLooping(r.cfg.Animation.Loop)
	m.SetSpeed(r.cfg.Animation.Speed)

	clip := r.cfg.Animation.DefaultClip
	if clip == "" || !m.SetActiveAnimation(clip) {
		if clips := m.SkeletalAnimations(); len(clips) > 0 {
			m.SetActiveSkeletalAnimation(clips[0])
		}
	}
}

func body(shape physics.CollisionShape, static bool) *physics.Property {
	p := physics.DefaultProperty()
	p.Type = physics.TypeRigidBody
	p.Shape = shape
	p.Static = static
	return p
}

func (r *Runner) addBodies() {
	ground := scenegraph.NewNode("ground")
	ground.SetPhysicsProperty(body(physics.ShapePlane, true))
	r.scene.AddNode(ground)

	r.ball = scenegraph.NewNode("ball")
	r.ball.SetLocalPos(mgl32.Vec3{0, 2, 0})
	r.ball.SetLocalScale(mgl32.Vec3{0.5, 0.5, 0.5})
	r.ball.SetPhysicsProperty(body(physics.ShapeSphere, false))
	r.scene.AddNode(r.ball)

	r.crate = scenegraph.NewNode("crate")
	r.crate.SetLocalPos(mgl32.Vec3{-4, 6, 0})
	r.crate.SetPhysicsProperty(body(physics.ShapeCube, false))
	r.scene.AddNode(r.crate)

	anchor := scenegraph.NewNode("anchor")
	anchor.SetLocalPos(mgl32.Vec3{4, 8, 0})
	anchor.SetPhysicsProperty(body(physics.ShapeSphere, true))
	anchor.SetLocalScale(mgl32.Vec3{0.2, 0.2, 0.2})
	r.scene.AddNode(anchor)

	bob := scenegraph.NewNode("bob")
	bob.SetLocalPos(mgl32.Vec3{6, 8, 0})
	bob.SetLocalScale(mgl32.Vec3{0.3, 0.3, 0.3})
	prop := body(physics.ShapeSphere, false)
	prop.Constraints = []physics.ConstraintProperty{{To: anchor.GUID(), Type: physics.ConstraintBall}}
	bob.SetPhysicsProperty(prop)
	r.scene.AddNode(bob)
}

// Scene returns the simulated scene.
func (r *Runner) Scene() *scenegraph.Scene { return r.scene }

// Actor returns the animated node.
func (r *Runner) Actor() *scenegraph.Node { return r.actor }

// Run steps the configured number of frames.
func (r *Runner) Run() error {
	if r.cfg.Simulation.AutoStart {
		r.scene.StartSimulation()
	}

	dt := 1 / float32(r.cfg.Simulation.FrameRate)
	total := r.cfg.Simulation.Frames
	for r.frame = 0; r.frame < total; r.frame++ {
		r.script(total)
		r.scene.Update(dt)

		list := r.scene.RenderList()
		stats := r.scene.Environment().Stats()
		r.log.Debug("frame",
			zap.Int("frame", r.frame),
			zap.Int("items", list.Len()),
			zap.Int("bodies", stats.Bodies),
			zap.Int("pairs", stats.Pairs),
		)
		if r.frame%r.cfg.Simulation.FrameRate == 0 {
			r.log.Info("tick",
				zap.Float32("time", r.scene.RunningTime()),
				zap.Float32("ball_y", r.ball.GlobalPosition()[1]),
				zap.Int("pickings", stats.Pickings),
			)
		}
	}

	r.collect()
	r.log.Info("run finished",
		zap.Int("frames", r.summary.Frames),
		zap.Int("render_items", r.summary.RenderItems),
		zap.Bool("picked", r.summary.Picked),
		zap.Bool("teleported", r.summary.Teleported),
	)
	return nil
}

// script picks the ball early in the run, drags it until the halfway mark
// and teleports the crate at three quarters.
func (r *Runner) script(total int) {
	env := r.scene.Environment()
	if !env.IsSimulating() {
		return
	}
	pickStart, pickEnd, teleportAt := total/16, total/2, total*3/4

	switch {
	case r.frame == pickStart:
		r.startPick()
	case r.frame > pickStart && r.frame < pickEnd:
		// Sweep the ray up and to the right.
		f := float32(r.frame-pickStart) / float32(pickEnd-pickStart)
		dir := r.camera.CalculatePickingDirection(viewWidth, viewHeight, viewWidth/2+f*100, viewHeight/2-f*100)
		env.UpdatePickingConstraint(physics.PickingMouseButton, dir, r.camera.GlobalPosition())
	case r.frame == pickEnd:
		env.CleanupPickingConstraint(physics.PickingMouseButton)
	}

	switch r.frame {
	case teleportAt:
		if env.StartRigidBodyTeleport(r.crate.GUID()) {
			env.UpdateRigidBodyTeleport(r.crate.GUID(), mgl32.Translate3D(-4, 6, 0))
			r.summary.Teleported = true
		}
	case teleportAt + 1:
		env.EndRigidBodyTeleport(r.crate.GUID())
	}
}

func (r *Runner) startPick() {
	from := r.camera.GlobalPosition()
	dir := r.ball.GlobalPosition().Sub(from).Normalize()
	to := from.Add(dir.Mul(100))
	n, hit, ok := r.scene.Pick(from, to)
	if !ok || n != r.ball {
		r.log.Warn("nothing to pick")
		return
	}
	if r.scene.Environment().CreatePickingConstraint(physics.PickingMouseButton, n.GUID(), hit, from, to) {
		r.summary.Picked = true
	}
}

func (r *Runner) collect() {
	list := r.scene.RenderList()
	stats := r.scene.Environment().Stats()
	r.summary.Frames = r.frame
	r.summary.Time = r.scene.RunningTime()
	r.summary.Bodies = stats.Bodies
	r.summary.Constraints = stats.Constraints
	r.summary.RenderItems = list.Len()
	r.summary.Skinned = list.Count(renderlist.KindSkinnedMesh)
	r.summary.DebugLines = r.scene.DebugRenderList().LineCount()
}

// Summary returns the result of the last Run.
func (r *Runner) Summary() Summary { return r.summary }

// BoneState is one bone in a dump.
type BoneState struct {
	Name     string
	Parent   int
	Position mgl32.Vec3
	Rotation mgl32.Quat
	World    mgl32.Vec3
}

// Bones returns the current pose of the actor's skeleton.
func (r *Runner) Bones() []BoneState {
	m := r.actor.Model()
	if m == nil || !m.HasSkeleton() {
		return nil
	}
	bones := m.Skeleton().Bones()
	out := make([]BoneState, len(bones))
	for i, b := range bones {
		out[i] = BoneState{
			Name:     b.Name,
			Parent:   b.Parent(),
			Position: b.Pos,
			Rotation: b.Rot,
			World:    math.Translation(b.TransformMatrix),
		}
	}
	return out
}

// Dump writes the skeleton state and the run summary to w.
func (r *Runner) Dump(w io.Writer) {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	cfg.Fdump(w, r.summary)
	cfg.Fdump(w, r.Bones())
}

// Close stops the simulation and releases the physics world.
func (r *Runner) Close() {
	r.scene.StopSimulation()
	r.scene.Environment().DestroyPhysicsWorld()
	r.log.Debug("runner closed")
}
