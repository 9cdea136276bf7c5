package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagGLTF    = flag.String("gltf", "", "glTF asset to animate instead of the built-in rig")
	flagFrames  = flag.Int("frames", 0, "Number of frames to simulate")
	flagRate    = flag.Int("rate", 0, "Simulated frames per second")
	flagGravity = flag.Float64("gravity", 0, "Override world Y gravity")
	flagClip    = flag.String("clip", "", "Animation clip to play")
	flagDump    = flag.Bool("dump", false, "Dump skeleton state after the run")
	flagNoStart = flag.Bool("no-physics", false, "Do not start the physics simulation")
	flagDraw    = flag.String("debug-draw", "", "Physics debug layers: aabb, constraints, frames, all")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagGLTF != "" {
		cfg.Import.GLTFPath = *flagGLTF
	}
	if *flagFrames > 0 {
		cfg.Simulation.Frames = *flagFrames
	}
	if *flagRate > 0 {
		cfg.Simulation.FrameRate = *flagRate
	}
	if *flagGravity != 0 {
		cfg.Physics.Gravity = float32(*flagGravity)
	}
	if *flagClip != "" {
		cfg.Animation.DefaultClip = *flagClip
	}
	if *flagDump {
		cfg.Simulation.Dump = true
	}
	if *flagNoStart {
		cfg.Simulation.AutoStart = false
	}
	if *flagDraw != "" {
		cfg.Physics.DebugDraw = *flagDraw
	}
}
