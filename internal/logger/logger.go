// Package logger provides structured logging using zap.
//
// Engine packages take a component logger from Named. Each component can
// run at its own level, so a noisy subsystem like physics can log at debug
// while the rest of the engine stays at info.
package logger

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger instance. It discards everything until Init is
// called, so engine packages can log from tests and tools without setup.
var Log = zap.NewNop()

// Sugar is the sugared logger for convenient logging.
var Sugar = Log.Sugar()

var (
	// sink holds the unfiltered cores; every logger filters on top of it.
	sink       zapcore.Core = zapcore.NewNopCore()
	global                  = zapcore.InfoLevel
	components              = map[string]zapcore.Level{}
)

// FileConfig holds file logging configuration.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileConfig returns default file logging settings.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  20,
		MaxBackups: 5,
		MaxAgeDays: 14,
		Compress:   true,
	}
}

// Options configures the engine loggers.
type Options struct {
	Level      string
	Components map[string]string // component name -> level
	File       FileConfig
	Console    bool
}

// Init initializes the logger with the given level and optional file output.
func Init(level string, logFile string) error {
	opts := Options{Level: level, Console: true}
	if logFile != "" {
		opts.File = DefaultFileConfig(logFile)
	}
	return InitWithOptions(opts)
}

// InitWithFileConfig initializes the logger with custom file configuration.
// Set consoleOutput to false to disable console logging (useful for tests).
func InitWithFileConfig(level string, fileCfg FileConfig, consoleOutput bool) error {
	return InitWithOptions(Options{Level: level, File: fileCfg, Console: consoleOutput})
}

// InitWithOptions installs the global logger and the per-component levels.
// An unknown component level is an error and leaves the previous setup in
// place.
func InitWithOptions(opts Options) error {
	levels, err := parseComponents(opts.Components)
	if err != nil {
		return err
	}

	var cores []zapcore.Core
	if opts.Console {
		cores = append(cores, zapcore.NewCore(consoleEncoder(), zapcore.AddSync(os.Stdout), zapcore.DebugLevel))
	}
	if opts.File.Path != "" {
		w := &lumberjack.Logger{
			Filename:   opts.File.Path,
			MaxSize:    opts.File.MaxSizeMB,
			MaxBackups: opts.File.MaxBackups,
			MaxAge:     opts.File.MaxAgeDays,
			Compress:   opts.File.Compress,
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(fileEncoder(), zapcore.AddSync(w), zapcore.DebugLevel))
	}

	sink = zapcore.NewTee(cores...)
	global = parseLevel(opts.Level)
	components = levels
	Log = build(global)
	Sugar = Log.Sugar()
	return nil
}

// SetComponentLevels replaces the per-component levels. Loggers already
// handed out by Named keep the level they were created with.
func SetComponentLevels(levels map[string]string) error {
	parsed, err := parseComponents(levels)
	if err != nil {
		return err
	}
	components = parsed
	return nil
}

// ComponentLevel returns the level a component logs at.
func ComponentLevel(component string) zapcore.Level {
	if lvl, ok := components[component]; ok {
		return lvl
	}
	return global
}

// Named returns a child of the global logger for one engine component.
// The child is resolved at call time, so call it after Init.
func Named(component string) *zap.Logger {
	lvl, ok := components[component]
	if !ok {
		return Log.Named(component)
	}
	return build(lvl).Named(component)
}

func build(lvl zapcore.Level) *zap.Logger {
	return zap.New(levelCore{Core: sink, level: lvl}, zap.AddCaller())
}

// levelCore drops entries below level before they reach the wrapped core.
// The sink accepts every level, so level may sit above or below the global
// one.
type levelCore struct {
	zapcore.Core
	level zapcore.Level
}

func (c levelCore) Enabled(l zapcore.Level) bool { return c.level.Enabled(l) }

func (c levelCore) Level() zapcore.Level { return c.level }

func (c levelCore) With(fields []zapcore.Field) zapcore.Core {
	return levelCore{Core: c.Core.With(fields), level: c.level}
}

func (c levelCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.level.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	})
}

func fileEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		CallerKey:      "caller",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	})
}

func parseComponents(levels map[string]string) (map[string]zapcore.Level, error) {
	out := make(map[string]zapcore.Level, len(levels))
	for name, level := range levels {
		lvl, err := zapcore.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, errors.Wrapf(err, "component %q", name)
		}
		out[name] = lvl
	}
	return out, nil
}

// parseLevel converts a string level to zapcore.Level. Unknown names fall
// back to info.
func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes any buffered log entries.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// Info logs an info message.
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error logs an error message.
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}
