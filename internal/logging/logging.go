// Package logging builds the zap logger used by the pmerge commands.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LevelNone disables logging
	LevelNone = "none"
)

// New returns a logger writing to stderr at the given level ("debug",
// "info", "warn", "error" or "none"). Development loggers print human
// readable console lines; production loggers print JSON.
func New(level string, development bool) (*zap.Logger, error) {
	if level == LevelNone {
		return zap.NewNop(), nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	// stdout may be the document stream (diff --format json).
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !development

	return cfg.Build()
}

// Must returns a logger with the specified level or panics
func Must(level string, development bool) *zap.Logger {
	l, err := New(level, development)
	if err != nil {
		panic(err)
	}
	return l
}
