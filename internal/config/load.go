package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the standard locations
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Physics.FixedTimeStep <= 0 {
		return fmt.Errorf("physics.fixed_time_step must be positive, got %v", c.Physics.FixedTimeStep)
	}
	if c.Physics.MaxSubSteps < 0 {
		return fmt.Errorf("physics.max_sub_steps must not be negative, got %d", c.Physics.MaxSubSteps)
	}
	if c.Simulation.FrameRate <= 0 {
		return fmt.Errorf("simulation.frame_rate must be positive, got %d", c.Simulation.FrameRate)
	}
	if c.Import.Workers <= 0 {
		return fmt.Errorf("import.workers must be positive, got %d", c.Import.Workers)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./iris3d.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Iris3D")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Iris3D")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "iris3d")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "iris3d")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
