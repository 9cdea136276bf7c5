// Package main is the entry point for the headless Iris3D frame runner.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/iris3d/internal/config"
	"github.com/Faultbox/iris3d/internal/logger"
	"github.com/Faultbox/iris3d/internal/sim"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	opts := logger.Options{Level: cfg.Logging.Level, Components: cfg.Logging.Components, Console: true}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithOptions(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Iris3D ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	r, err := sim.New(cfg)
	if err != nil {
		logger.Error("failed to build scene", zap.Error(err))
		os.Exit(1)
	}
	defer r.Close()

	if err := r.Run(); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}

	if cfg.Simulation.Dump {
		r.Dump(os.Stdout)
	}
	logger.Info("done", zap.Float32("time", r.Summary().Time))
}
