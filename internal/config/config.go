// Package config handles engine configuration loading and management.
package config

// Config holds all engine settings.
type Config struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	Animation  AnimationConfig  `yaml:"animation"`
	Simulation SimulationConfig `yaml:"simulation"`
	Import     ImportConfig     `yaml:"import"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PhysicsConfig holds the rigid-body world settings.
type PhysicsConfig struct {
	Gravity        float32 `yaml:"gravity"`         // Y gravity of the world
	FixedTimeStep  float32 `yaml:"fixed_time_step"` // Internal simulation step in seconds
	MaxSubSteps    int     `yaml:"max_sub_steps"`   // Upper bound of internal steps per frame
	SolverPasses   int     `yaml:"solver_passes"`   // Constraint relaxation iterations
	PickingCFM     float32 `yaml:"picking_cfm"`     // Softness of picking constraints
	PickingERP     float32 `yaml:"picking_erp"`     // Error reduction of picking constraints
	PickingClamp   float32 `yaml:"picking_clamp"`   // Max corrective impulse per step
	SleepThreshold float32 `yaml:"sleep_threshold"` // Linear speed below which bodies get drowsy
	SleepTime      float32 `yaml:"sleep_time"`      // Seconds of drowsiness before sleeping
	DebugDraw      string  `yaml:"debug_draw"`      // Comma separated debug layers: aabb, constraints, frames
}

// AnimationConfig holds skeletal animation playback settings.
type AnimationConfig struct {
	DefaultClip string  `yaml:"default_clip"`
	Loop        bool    `yaml:"loop"`
	Speed       float32 `yaml:"speed"`
}

// SimulationConfig holds settings for the headless frame runner.
type SimulationConfig struct {
	Frames    int  `yaml:"frames"`
	FrameRate int  `yaml:"frame_rate"`
	AutoStart bool `yaml:"auto_start"`
	Dump      bool `yaml:"dump"`
}

// ImportConfig holds asset import settings.
type ImportConfig struct {
	GLTFPath   string `yaml:"gltf_path"`
	TextureDir string `yaml:"texture_dir"`
	Workers    int    `yaml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`

	// Components overrides the level per engine component, e.g. physics: debug.
	Components map[string]string `yaml:"components"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Physics: PhysicsConfig{
			Gravity:        -10,
			FixedTimeStep:  1.0 / 60.0,
			MaxSubSteps:    1,
			SolverPasses:   10,
			PickingCFM:     0.1,
			PickingERP:     0.5,
			PickingClamp:   30,
			SleepThreshold: 0.8,
			SleepTime:      2,
		},
		Animation: AnimationConfig{
			DefaultClip: "",
			Loop:        true,
			Speed:       1,
		},
		Simulation: SimulationConfig{
			Frames:    240,
			FrameRate: 60,
			AutoStart: true,
			Dump:      false,
		},
		Import: ImportConfig{
			GLTFPath:   "",
			TextureDir: "textures",
			Workers:    4,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
